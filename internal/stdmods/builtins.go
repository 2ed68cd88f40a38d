package stdmods

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mlang-dev/mlc/internal/registry"
)

// builtinsModule covers the always-importable primitives. print has no
// implementation here: the execution host intercepts it and writes into the
// run's output buffer.
func builtinsModule() registry.ModuleDescriptor {
	return registry.ModuleDescriptor{
		Name: "builtins",
		Functions: []registry.FunctionDescriptor{
			{Name: "print", Kind: registry.KindFunction, Safety: registry.SafetySafe,
				Impl: func(args []any) (any, error) { return nil, nil }},
			{Name: "len", Kind: registry.KindFunction, Safety: registry.SafetySafe, Impl: builtinLen},
			{Name: "str", Kind: registry.KindFunction, Safety: registry.SafetySafe, Impl: builtinStr},
			{Name: "int", Kind: registry.KindFunction, Safety: registry.SafetySafe, Impl: builtinInt},
			{Name: "float", Kind: registry.KindFunction, Safety: registry.SafetySafe, Impl: builtinFloat},
			{Name: "typename", Kind: registry.KindFunction, Safety: registry.SafetySafe, Impl: builtinTypename},
			{Name: "range", Kind: registry.KindFunction, Safety: registry.SafetySafe, Impl: builtinRange},
		},
	}
}

func oneArg(name string, args []any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("%s takes 1 argument, got %d", name, len(args))
	}
	return args[0], nil
}

func builtinLen(args []any) (any, error) {
	v, err := oneArg("len", args)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case string:
		return int64(len(t)), nil
	case []any:
		return int64(len(t)), nil
	case map[string]any:
		return int64(len(t)), nil
	}
	return nil, fmt.Errorf("len: unsupported type %T", v)
}

func builtinStr(args []any) (any, error) {
	v, err := oneArg("str", args)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case nil:
		return "null", nil
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64), nil
	}
	return fmt.Sprintf("%v", v), nil
}

func builtinInt(args []any) (any, error) {
	v, err := oneArg("int", args)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case int64:
		return t, nil
	case float64:
		return int64(t), nil
	case bool:
		if t {
			return int64(1), nil
		}
		return int64(0), nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("int: cannot parse %q", t)
		}
		return n, nil
	}
	return nil, fmt.Errorf("int: unsupported type %T", v)
}

func builtinFloat(args []any) (any, error) {
	v, err := oneArg("float", args)
	if err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case float64:
		return t, nil
	case int64:
		return float64(t), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return nil, fmt.Errorf("float: cannot parse %q", t)
		}
		return f, nil
	}
	return nil, fmt.Errorf("float: unsupported type %T", v)
}

func builtinTypename(args []any) (any, error) {
	v, err := oneArg("typename", args)
	if err != nil {
		return nil, err
	}
	switch v.(type) {
	case nil:
		return "null", nil
	case string:
		return "string", nil
	case bool:
		return "bool", nil
	case int64:
		return "int", nil
	case float64:
		return "float", nil
	case []any:
		return "list", nil
	case map[string]any:
		return "map", nil
	}
	return fmt.Sprintf("%T", v), nil
}

func builtinRange(args []any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("range takes one int argument")
	}
	n, ok := args[0].(int64)
	if !ok {
		return nil, fmt.Errorf("range takes one int argument")
	}
	if n < 0 {
		n = 0
	}
	out := make([]any, 0, n)
	for i := int64(0); i < n; i++ {
		out = append(out, i)
	}
	return out, nil
}
