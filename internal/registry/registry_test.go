package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDescriptor() ModuleDescriptor {
	return ModuleDescriptor{
		Name: "fileio",
		Functions: []FunctionDescriptor{
			{
				Name:   "read_text",
				Kind:   KindFunction,
				Safety: SafetyCapabilityGated,
				Capabilities: []Requirement{
					{Capability: "file.read", ResourceArg: 0},
				},
				Impl: func(args []any) (any, error) { return "", nil },
			},
			{
				Name:   "upper",
				Kind:   KindMethod,
				Owner:  "string",
				Safety: SafetySafe,
				MethodImpl: func(recv any, args []any) (any, error) {
					return recv, nil
				},
			},
			{
				Name:     "length",
				Kind:     KindAttribute,
				Owner:    "string",
				Safety:   SafetySafe,
				AttrImpl: func(recv any) (any, error) { return int64(0), nil },
			},
		},
	}
}

func TestRegisterDerivesEntries(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(testDescriptor()))
	r.Freeze()

	entry, ok := r.AllowedCall("read_text")
	require.True(t, ok)
	assert.Equal(t, "fileio", entry.Module)
	assert.Equal(t, SafetyCapabilityGated, entry.Safety)
	require.Len(t, entry.Capabilities, 1)
	assert.Equal(t, "file.read", entry.Capabilities[0].Capability)
	assert.Equal(t, 0, entry.Capabilities[0].ResourceArg)

	_, ok = r.AllowedMethod("string", "upper")
	assert.True(t, ok)
	_, ok = r.AllowedAttribute("string", "length")
	assert.True(t, ok)
	_, ok = r.AllowedCall("upper") // methods are not free functions
	assert.False(t, ok)

	assert.True(t, r.HasModule("fileio"))
	assert.Len(t, r.ModuleEntries("fileio"), 3)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := New()
	require.NoError(t, r.Register(testDescriptor()))
	err := r.Register(testDescriptor())
	assert.ErrorContains(t, err, "already registered")
}

func TestRegisterAfterFreezePanics(t *testing.T) {
	r := New()
	r.Freeze()
	assert.Panics(t, func() { _ = r.Register(testDescriptor()) })
}

func TestSchemaRejectsMalformedDescriptors(t *testing.T) {
	r := New()

	// capability-gated without capabilities
	err := r.Register(ModuleDescriptor{
		Name: "bad",
		Functions: []FunctionDescriptor{
			{Name: "f", Kind: KindFunction, Safety: SafetyCapabilityGated},
		},
	})
	assert.ErrorContains(t, err, "schema validation failed")

	// method without owner
	err = r.Register(ModuleDescriptor{
		Name: "bad2",
		Functions: []FunctionDescriptor{
			{Name: "m", Kind: KindMethod, Safety: SafetySafe},
		},
	})
	assert.ErrorContains(t, err, "schema validation failed")

	// invalid module name
	err = r.Register(ModuleDescriptor{
		Name: "Bad-Name",
		Functions: []FunctionDescriptor{
			{Name: "f", Kind: KindFunction, Safety: SafetySafe},
		},
	})
	assert.ErrorContains(t, err, "schema validation failed")
}

func TestRegisterRejectsDenyListedNames(t *testing.T) {
	r := New()
	err := r.Register(ModuleDescriptor{
		Name: "sneaky",
		Functions: []FunctionDescriptor{
			{Name: "eval", Kind: KindFunction, Safety: SafetySafe,
				Impl: func(args []any) (any, error) { return nil, nil }},
		},
	})
	assert.ErrorContains(t, err, "deny-listed")
}

func TestRuntimeConstraint(t *testing.T) {
	r := New()
	err := r.Register(ModuleDescriptor{
		Name:    "future",
		Runtime: ">=99.0.0",
		Functions: []FunctionDescriptor{
			{Name: "f", Kind: KindFunction, Safety: SafetySafe,
				Impl: func(args []any) (any, error) { return nil, nil }},
		},
	})
	assert.ErrorContains(t, err, "requires runtime")

	err = r.Register(ModuleDescriptor{
		Name:    "current",
		Runtime: ">=0.1.0",
		Functions: []FunctionDescriptor{
			{Name: "g", Kind: KindFunction, Safety: SafetySafe,
				Impl: func(args []any) (any, error) { return nil, nil }},
		},
	})
	assert.NoError(t, err)
}

func TestDenyList(t *testing.T) {
	d, ok := Denied("eval")
	require.True(t, ok)
	assert.Equal(t, "eval", d.Name)

	d, ok = Denied("open")
	require.True(t, ok)
	assert.NotEmpty(t, d.Suggestion)

	_, ok = Denied("print")
	assert.False(t, ok)

	assert.Contains(t, DeniedNames(), "getattr")
}

func TestFailedRegistrationLeavesRegistryUntouched(t *testing.T) {
	r := New()
	err := r.Register(ModuleDescriptor{
		Name: "partial",
		Functions: []FunctionDescriptor{
			{Name: "good", Kind: KindFunction, Safety: SafetySafe,
				Impl: func(args []any) (any, error) { return nil, nil }},
			{Name: "eval", Kind: KindFunction, Safety: SafetySafe,
				Impl: func(args []any) (any, error) { return nil, nil }},
		},
	})
	require.Error(t, err)
	_, ok := r.AllowedCall("good")
	assert.False(t, ok, "staged entries must not leak on failure")
	assert.False(t, r.HasModule("partial"))
}
