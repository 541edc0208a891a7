package overlay

import (
	"time"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

const engineExpr = "expr"

type exprCombiner[V any] struct {
	cfg        combinerConfig
	expression string
	program    *exprvm.Program
}

// NewExprCombiner compiles expression with github.com/expr-lang/expr. The
// expression sees the variables `base` and `override`; its result is
// converted to V.
func NewExprCombiner[V any](expression string, opts ...CombinerOption) (Combiner[V], error) {
	if err := validateExpression(engineExpr, expression); err != nil {
		return nil, err
	}
	cfg := applyCombinerOptions(opts)
	c := &exprCombiner[V]{cfg: cfg, expression: expression}
	program, err := c.loadOrCompile()
	if err != nil {
		return nil, err
	}
	c.program = program
	return c, nil
}

func (c *exprCombiner[V]) Combine(base, override V) V {
	start := time.Now()
	raw, err := exprlang.Run(c.program, c.environment(base, override))
	return evaluated(c.cfg, engineExpr, c.expression, start, override, raw, err)
}

func (c *exprCombiner[V]) loadOrCompile() (*exprvm.Program, error) {
	if cached, ok := c.cfg.cached(engineExpr, c.expression); ok {
		if program, ok := cached.(*exprvm.Program); ok {
			return program, nil
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	if registry := c.cfg.registry; registry != nil {
		options = append(options, exprlang.Function("call", registry.callByName))
		for _, name := range registry.Names() {
			fn := name
			options = append(options, exprlang.Function(fn, func(arguments ...any) (any, error) {
				return registry.Call(fn, arguments...)
			}))
		}
	}
	program, err := exprlang.Compile(c.expression, options...)
	if err != nil {
		return nil, wrapCombineError(engineExpr, c.expression, err)
	}
	c.cfg.store(engineExpr, c.expression, program)
	return program, nil
}

func (c *exprCombiner[V]) environment(base, override V) map[string]any {
	return map[string]any{
		"base":     base,
		"override": override,
	}
}
