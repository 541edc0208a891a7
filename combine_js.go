//go:build js_eval

package overlay

import (
	"fmt"
	"time"

	"github.com/dop251/goja"
)

const engineJS = "js"

type jsCombiner[V any] struct {
	cfg        combinerConfig
	expression string
	program    *goja.Program
}

// NewJSCombiner compiles expression as a JavaScript expression with
// github.com/dop251/goja. Each Combine call runs in a fresh runtime.
func NewJSCombiner[V any](expression string, opts ...CombinerOption) (Combiner[V], error) {
	if err := validateExpression(engineJS, expression); err != nil {
		return nil, err
	}
	c := &jsCombiner[V]{cfg: applyCombinerOptions(opts), expression: expression}
	program, err := c.loadOrCompile()
	if err != nil {
		return nil, wrapCombineError(engineJS, expression, err)
	}
	c.program = program
	return c, nil
}

func (c *jsCombiner[V]) Combine(base, override V) V {
	start := time.Now()
	raw, err := c.run(base, override)
	return evaluated(c.cfg, engineJS, c.expression, start, override, raw, err)
}

func (c *jsCombiner[V]) loadOrCompile() (*goja.Program, error) {
	if cached, ok := c.cfg.cached(engineJS, c.expression); ok {
		if program, ok := cached.(*goja.Program); ok {
			return program, nil
		}
	}
	program, err := goja.Compile("", wrapJSExpression(c.expression), false)
	if err != nil {
		return nil, err
	}
	c.cfg.store(engineJS, c.expression, program)
	return program, nil
}

func (c *jsCombiner[V]) run(base, override V) (any, error) {
	vm := goja.New()
	if err := vm.Set("base", base); err != nil {
		return nil, err
	}
	if err := vm.Set("override", override); err != nil {
		return nil, err
	}
	if registry := c.cfg.registry; registry != nil {
		if err := vm.Set("call", registry.callByName); err != nil {
			return nil, err
		}
		for _, name := range registry.Names() {
			fn := name
			if err := vm.Set(fn, func(arguments ...any) (any, error) {
				return registry.Call(fn, arguments...)
			}); err != nil {
				return nil, err
			}
		}
	}
	value, err := vm.RunProgram(c.program)
	if err != nil {
		return nil, err
	}
	return value.Export(), nil
}

func wrapJSExpression(expression string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", expression)
}

func jsCombinerAvailable() bool {
	return true
}
