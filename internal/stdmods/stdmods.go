// Package stdmods ships the standard module descriptors: builtins, fileio,
// env, strmod, and mathfns. Every whitelist entry the runtime offers is
// derived from these declarative descriptors at registration time; nothing
// here is added to the registry by hand.
package stdmods

import "github.com/mlang-dev/mlc/internal/registry"

// RegisterAll registers every standard module. The caller freezes the
// registry afterwards, before the first compilation or run.
func RegisterAll(reg *registry.Registry) error {
	for _, desc := range []registry.ModuleDescriptor{
		builtinsModule(),
		fileioModule(),
		envModule(),
		strmodModule(),
		mathfnsModule(),
	} {
		if err := reg.Register(desc); err != nil {
			return err
		}
	}
	return nil
}
