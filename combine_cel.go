package overlay

import (
	"reflect"
	"time"

	celgo "github.com/google/cel-go/cel"
	functions "github.com/google/cel-go/common/functions"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

const engineCEL = "cel"

type celCombiner[V any] struct {
	cfg        combinerConfig
	expression string
	program    celgo.Program
}

// NewCELCombiner compiles expression with github.com/google/cel-go. `base` and
// `override` are declared as dynamic variables.
func NewCELCombiner[V any](expression string, opts ...CombinerOption) (Combiner[V], error) {
	if err := validateExpression(engineCEL, expression); err != nil {
		return nil, err
	}
	c := &celCombiner[V]{cfg: applyCombinerOptions(opts), expression: expression}
	program, err := c.loadOrCompile()
	if err != nil {
		return nil, wrapCombineError(engineCEL, expression, err)
	}
	c.program = program
	return c, nil
}

func (c *celCombiner[V]) Combine(base, override V) V {
	start := time.Now()
	var raw any
	out, _, err := c.program.Eval(map[string]any{
		"base":     base,
		"override": override,
	})
	if err == nil {
		raw = out.Value()
	}
	return evaluated(c.cfg, engineCEL, c.expression, start, override, raw, err)
}

func (c *celCombiner[V]) loadOrCompile() (celgo.Program, error) {
	if cached, ok := c.cfg.cached(engineCEL, c.expression); ok {
		if program, ok := cached.(celgo.Program); ok {
			return program, nil
		}
	}
	env, err := c.buildEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Parse(c.expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	program, err := env.Program(checked)
	if err != nil {
		return nil, err
	}
	c.cfg.store(engineCEL, c.expression, program)
	return program, nil
}

func (c *celCombiner[V]) buildEnv() (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("base", celgo.DynType),
		celgo.Variable("override", celgo.DynType),
	}
	if c.cfg.registry != nil {
		opts = append(opts, celgo.Function("call",
			celgo.Overload("call_dyn",
				[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)},
				celgo.DynType,
				celgo.BinaryBinding(c.callBinding()),
			),
			celgo.Overload("call_noargs",
				[]*celgo.Type{celgo.StringType},
				celgo.DynType,
				celgo.UnaryBinding(func(name ref.Val) ref.Val {
					return c.invoke(name, nil)
				}),
			),
		))
	}
	return celgo.NewEnv(opts...)
}

// callBinding backs `call("name", [args...])`.
func (c *celCombiner[V]) callBinding() functions.BinaryOp {
	return func(name, args ref.Val) ref.Val {
		native, err := args.ConvertToNative(anySliceType)
		if err != nil {
			return types.NewErr("overlay: call arguments must be a list")
		}
		return c.invoke(name, native.([]any))
	}
}

func (c *celCombiner[V]) invoke(name ref.Val, args []any) ref.Val {
	fn, ok := name.Value().(string)
	if !ok {
		return types.NewErr("overlay: call name must be string")
	}
	result, err := c.cfg.registry.Call(fn, args...)
	if err != nil {
		return types.NewErr("%s", err)
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}

var anySliceType = reflect.TypeOf([]any{})
