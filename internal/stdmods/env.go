package stdmods

import (
	"fmt"
	"os"

	"github.com/mlang-dev/mlc/internal/registry"
)

// envModule exposes environment variable reads, gated per variable name.
// There is deliberately no write counterpart.
func envModule() registry.ModuleDescriptor {
	return registry.ModuleDescriptor{
		Name: "env",
		Functions: []registry.FunctionDescriptor{
			{
				Name:         "read",
				Kind:         registry.KindFunction,
				Safety:       registry.SafetyCapabilityGated,
				Capabilities: []registry.Requirement{{Capability: "env.read", ResourceArg: 0}},
				Impl:         envRead,
			},
		},
	}
}

func envRead(args []any) (any, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("env.read takes 1 argument, got %d", len(args))
	}
	name, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("env.read: variable name must be a string")
	}
	return os.Getenv(name), nil
}
