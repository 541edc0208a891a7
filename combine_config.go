package overlay

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// CombinerOption configures an expression combiner.
type CombinerOption func(*combinerConfig)

type combinerConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
	logger   CombineLogger
}

// WithProgramCache shares compiled programs across combiners built from the
// same expression.
func WithProgramCache(cache ProgramCache) CombinerOption {
	return func(cfg *combinerConfig) {
		cfg.cache = cache
	}
}

// WithFunctionRegistry exposes registry functions to the expression, both by
// name and through `call(name, args...)`. The registry is cloned.
func WithFunctionRegistry(registry *FunctionRegistry) CombinerOption {
	return func(cfg *combinerConfig) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

// WithCustomFunction registers fn under name for the combiner.
func WithCustomFunction(name string, fn Function) CombinerOption {
	return func(cfg *combinerConfig) {
		if cfg.registry == nil {
			cfg.registry = NewFunctionRegistry()
		}
		_ = cfg.registry.Register(name, fn)
	}
}

// WithCombineLogger records every combine invocation. Failures are always
// reported here since Combine itself cannot return an error.
func WithCombineLogger(logger CombineLogger) CombinerOption {
	return func(cfg *combinerConfig) {
		if logger == nil {
			cfg.logger = noopCombineLogger{}
			return
		}
		cfg.logger = logger
	}
}

func applyCombinerOptions(opts []CombinerOption) combinerConfig {
	cfg := combinerConfig{logger: noopCombineLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

func (cfg combinerConfig) cached(engine, expression string) (any, bool) {
	if cfg.cache == nil {
		return nil, false
	}
	return cfg.cache.Get(cfg.cacheKey(engine, expression))
}

func (cfg combinerConfig) store(engine, expression string, program any) {
	if cfg.cache != nil {
		cfg.cache.Set(cfg.cacheKey(engine, expression), program)
	}
}

func (cfg combinerConfig) cacheKey(engine, expression string) string {
	if cfg.registry == nil {
		return programCacheKey(engine, expression)
	}
	return programCacheKey(engine+"/"+cfg.registry.scope(), expression)
}

func validateExpression(engine, expression string) error {
	if strings.TrimSpace(expression) == "" {
		return wrapCombineError(engine, expression, fmt.Errorf("expression must not be empty"))
	}
	return nil
}

// evaluated is the shared tail of every expression combiner: it converts the
// raw engine result, logs the invocation and falls back to the override when
// evaluation failed.
func evaluated[V any](cfg combinerConfig, engine, expression string, start time.Time, override V, raw any, err error) V {
	var result V
	if err == nil {
		result, err = convertResult[V](raw)
	}
	err = wrapCombineError(engine, expression, err)
	cfg.logger.LogCombine(CombineLogEvent{
		Engine:   engine,
		Expr:     expression,
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return override
	}
	return result
}

// ErrJSUnavailable indicates the binary was built without the js_eval tag.
var ErrJSUnavailable = errors.New("overlay: js combiner requires the js_eval build tag")
