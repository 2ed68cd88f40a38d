package stdmods

import (
	"fmt"
	"strings"

	"github.com/mlang-dev/mlc/internal/registry"
)

// strmodModule registers string methods and the length attribute on strings
// and lists. Method receivers are type-checked by the host before dispatch,
// so implementations only defend their argument shapes.
func strmodModule() registry.ModuleDescriptor {
	return registry.ModuleDescriptor{
		Name: "strmod",
		Functions: []registry.FunctionDescriptor{
			{Name: "upper", Kind: registry.KindMethod, Owner: "string", Safety: registry.SafetySafe,
				MethodImpl: stringMethod("upper", func(s string, args []any) (any, error) {
					return strings.ToUpper(s), nil
				})},
			{Name: "lower", Kind: registry.KindMethod, Owner: "string", Safety: registry.SafetySafe,
				MethodImpl: stringMethod("lower", func(s string, args []any) (any, error) {
					return strings.ToLower(s), nil
				})},
			{Name: "trim", Kind: registry.KindMethod, Owner: "string", Safety: registry.SafetySafe,
				MethodImpl: stringMethod("trim", func(s string, args []any) (any, error) {
					return strings.TrimSpace(s), nil
				})},
			{Name: "contains", Kind: registry.KindMethod, Owner: "string", Safety: registry.SafetySafe,
				MethodImpl: stringMethod("contains", func(s string, args []any) (any, error) {
					sub, err := stringArg("contains", args, 0)
					if err != nil {
						return nil, err
					}
					return strings.Contains(s, sub), nil
				})},
			{Name: "split", Kind: registry.KindMethod, Owner: "string", Safety: registry.SafetySafe,
				MethodImpl: stringMethod("split", func(s string, args []any) (any, error) {
					sep, err := stringArg("split", args, 0)
					if err != nil {
						return nil, err
					}
					parts := strings.Split(s, sep)
					out := make([]any, 0, len(parts))
					for _, p := range parts {
						out = append(out, p)
					}
					return out, nil
				})},
			{Name: "replace", Kind: registry.KindMethod, Owner: "string", Safety: registry.SafetySafe,
				MethodImpl: stringMethod("replace", func(s string, args []any) (any, error) {
					old, err := stringArg("replace", args, 0)
					if err != nil {
						return nil, err
					}
					new_, err := stringArg("replace", args, 1)
					if err != nil {
						return nil, err
					}
					return strings.ReplaceAll(s, old, new_), nil
				})},
			{Name: "length", Kind: registry.KindAttribute, Owner: "string", Safety: registry.SafetySafe,
				AttrImpl: func(recv any) (any, error) {
					s, ok := recv.(string)
					if !ok {
						return nil, fmt.Errorf("length: receiver must be a string")
					}
					return int64(len(s)), nil
				}},
			{Name: "length", Kind: registry.KindAttribute, Owner: "list", Safety: registry.SafetySafe,
				AttrImpl: func(recv any) (any, error) {
					l, ok := recv.([]any)
					if !ok {
						return nil, fmt.Errorf("length: receiver must be a list")
					}
					return int64(len(l)), nil
				}},
			{Name: "join", Kind: registry.KindMethod, Owner: "list", Safety: registry.SafetySafe,
				MethodImpl: listJoin},
		},
	}
}

func stringMethod(name string, fn func(s string, args []any) (any, error)) registry.MethodFunc {
	return func(recv any, args []any) (any, error) {
		s, ok := recv.(string)
		if !ok {
			return nil, fmt.Errorf("%s: receiver must be a string", name)
		}
		return fn(s, args)
	}
}

func stringArg(name string, args []any, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("%s: missing argument %d", name, i)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("%s: argument %d must be a string", name, i)
	}
	return s, nil
}

func listJoin(recv any, args []any) (any, error) {
	l, ok := recv.([]any)
	if !ok {
		return nil, fmt.Errorf("join: receiver must be a list")
	}
	sep, err := stringArg("join", args, 0)
	if err != nil {
		return nil, err
	}
	parts := make([]string, 0, len(l))
	for _, el := range l {
		s, ok := el.(string)
		if !ok {
			return nil, fmt.Errorf("join: list elements must be strings")
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, sep), nil
}
