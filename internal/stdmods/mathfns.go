package stdmods

import (
	"fmt"
	"math"

	"github.com/mlang-dev/mlc/internal/registry"
)

// mathfnsModule registers pure numeric functions. Everything is safe and
// ungated.
func mathfnsModule() registry.ModuleDescriptor {
	return registry.ModuleDescriptor{
		Name: "mathfns",
		Functions: []registry.FunctionDescriptor{
			{Name: "abs", Kind: registry.KindFunction, Safety: registry.SafetySafe, Impl: mathAbs},
			{Name: "min", Kind: registry.KindFunction, Safety: registry.SafetySafe, Impl: mathMin},
			{Name: "max", Kind: registry.KindFunction, Safety: registry.SafetySafe, Impl: mathMax},
			{Name: "floor", Kind: registry.KindFunction, Safety: registry.SafetySafe, Impl: mathFloor},
			{Name: "ceil", Kind: registry.KindFunction, Safety: registry.SafetySafe, Impl: mathCeil},
			{Name: "sqrt", Kind: registry.KindFunction, Safety: registry.SafetySafe, Impl: mathSqrt},
			{Name: "pow", Kind: registry.KindFunction, Safety: registry.SafetySafe, Impl: mathPow},
		},
	}
}

func numArg(name string, args []any, i int) (float64, bool, error) {
	if i >= len(args) {
		return 0, false, fmt.Errorf("%s: missing argument %d", name, i)
	}
	switch n := args[i].(type) {
	case int64:
		return float64(n), true, nil
	case float64:
		return n, false, nil
	}
	return 0, false, fmt.Errorf("%s: argument %d must be a number", name, i)
}

func mathAbs(args []any) (any, error) {
	v, isInt, err := numArg("abs", args, 0)
	if err != nil {
		return nil, err
	}
	if isInt {
		n := int64(v)
		if n < 0 {
			n = -n
		}
		return n, nil
	}
	return math.Abs(v), nil
}

func mathMin(args []any) (any, error) { return pick("min", args, func(a, b float64) bool { return a < b }) }

func mathMax(args []any) (any, error) { return pick("max", args, func(a, b float64) bool { return a > b }) }

func pick(name string, args []any, better func(a, b float64) bool) (any, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("%s takes at least 2 arguments", name)
	}
	best := args[0]
	bestVal, _, err := numArg(name, args, 0)
	if err != nil {
		return nil, err
	}
	for i := 1; i < len(args); i++ {
		v, _, err := numArg(name, args, i)
		if err != nil {
			return nil, err
		}
		if better(v, bestVal) {
			best, bestVal = args[i], v
		}
	}
	return best, nil
}

func mathFloor(args []any) (any, error) {
	v, _, err := numArg("floor", args, 0)
	if err != nil {
		return nil, err
	}
	return int64(math.Floor(v)), nil
}

func mathCeil(args []any) (any, error) {
	v, _, err := numArg("ceil", args, 0)
	if err != nil {
		return nil, err
	}
	return int64(math.Ceil(v)), nil
}

func mathSqrt(args []any) (any, error) {
	v, _, err := numArg("sqrt", args, 0)
	if err != nil {
		return nil, err
	}
	if v < 0 {
		return nil, fmt.Errorf("sqrt: negative argument")
	}
	return math.Sqrt(v), nil
}

func mathPow(args []any) (any, error) {
	base, _, err := numArg("pow", args, 0)
	if err != nil {
		return nil, err
	}
	exp, _, err := numArg("pow", args, 1)
	if err != nil {
		return nil, err
	}
	return math.Pow(base, exp), nil
}
