package stdmods

import (
	"fmt"
	"os"

	"github.com/mlang-dev/mlc/internal/registry"
)

// fileioModule exposes text file access. Both operations are capability
// gated on the path argument: the host requires fs.read or fs.write scoped
// to the first argument before the implementation runs.
func fileioModule() registry.ModuleDescriptor {
	return registry.ModuleDescriptor{
		Name: "fileio",
		Functions: []registry.FunctionDescriptor{
			{
				Name:         "read_text",
				Kind:         registry.KindFunction,
				Safety:       registry.SafetyCapabilityGated,
				Capabilities: []registry.Requirement{{Capability: "fs.read", ResourceArg: 0}},
				Impl:         fileReadText,
			},
			{
				Name:         "write_text",
				Kind:         registry.KindFunction,
				Safety:       registry.SafetyCapabilityGated,
				Capabilities: []registry.Requirement{{Capability: "fs.write", ResourceArg: 0}},
				Impl:         fileWriteText,
			},
			{
				Name:         "exists",
				Kind:         registry.KindFunction,
				Safety:       registry.SafetyCapabilityGated,
				Capabilities: []registry.Requirement{{Capability: "fs.read", ResourceArg: 0}},
				Impl:         fileExists,
			},
		},
	}
}

func fileReadText(args []any) (any, error) {
	path, err := pathArg("fileio.read_text", args)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fileio.read_text: %w", err)
	}
	return string(data), nil
}

func fileWriteText(args []any) (any, error) {
	path, err := pathArg("fileio.write_text", args)
	if err != nil {
		return nil, err
	}
	if len(args) != 2 {
		return nil, fmt.Errorf("fileio.write_text takes 2 arguments, got %d", len(args))
	}
	content, ok := args[1].(string)
	if !ok {
		return nil, fmt.Errorf("fileio.write_text: content must be a string")
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return nil, fmt.Errorf("fileio.write_text: %w", err)
	}
	return nil, nil
}

func fileExists(args []any) (any, error) {
	path, err := pathArg("fileio.exists", args)
	if err != nil {
		return nil, err
	}
	_, statErr := os.Stat(path)
	return statErr == nil, nil
}

func pathArg(name string, args []any) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("%s: missing path argument", name)
	}
	path, ok := args[0].(string)
	if !ok {
		return "", fmt.Errorf("%s: path must be a string", name)
	}
	return path, nil
}
