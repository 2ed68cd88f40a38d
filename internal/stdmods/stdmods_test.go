package stdmods

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlang-dev/mlc/internal/registry"
)

func TestRegisterAll(t *testing.T) {
	reg := registry.New()
	require.NoError(t, RegisterAll(reg))
	reg.Freeze()

	for _, mod := range []string{"builtins", "fileio", "env", "strmod", "mathfns"} {
		assert.True(t, reg.HasModule(mod), mod)
	}
	_, ok := reg.AllowedCall("len")
	assert.True(t, ok)
	_, ok = reg.AllowedMethod("string", "upper")
	assert.True(t, ok)
	_, ok = reg.AllowedAttribute("list", "length")
	assert.True(t, ok)
}

func TestBuiltinConversions(t *testing.T) {
	v, err := builtinInt([]any{" 42 "})
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)

	_, err = builtinInt([]any{"nope"})
	assert.Error(t, err)

	v, err = builtinStr([]any{int64(7)})
	require.NoError(t, err)
	assert.Equal(t, "7", v)

	v, err = builtinFloat([]any{int64(2)})
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)

	v, err = builtinLen([]any{[]any{nil, nil, nil}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
}

func TestFileioRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.txt")
	_, err := fileWriteText([]any{path, "payload"})
	require.NoError(t, err)

	v, err := fileReadText([]any{path})
	require.NoError(t, err)
	assert.Equal(t, "payload", v)

	exists, err := fileExists([]any{path})
	require.NoError(t, err)
	assert.Equal(t, true, exists)

	_, err = fileReadText([]any{filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}

func TestEnvRead(t *testing.T) {
	require.NoError(t, os.Setenv("MLC_STDMODS_TEST", "on"))
	t.Cleanup(func() { os.Unsetenv("MLC_STDMODS_TEST") })

	v, err := envRead([]any{"MLC_STDMODS_TEST"})
	require.NoError(t, err)
	assert.Equal(t, "on", v)
}

func TestStringMethods(t *testing.T) {
	mod := strmodModule()
	impls := make(map[string]registry.MethodFunc)
	for _, fd := range mod.Functions {
		if fd.Kind == registry.KindMethod && fd.Owner == "string" {
			impls[fd.Name] = fd.MethodImpl
		}
	}

	v, err := impls["upper"]("abc", nil)
	require.NoError(t, err)
	assert.Equal(t, "ABC", v)

	v, err = impls["split"]("a,b", []any{","})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, v)

	v, err = impls["replace"]("aaa", []any{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "bbb", v)

	_, err = impls["contains"](int64(1), []any{"x"})
	assert.Error(t, err)
}

func TestMathFunctions(t *testing.T) {
	v, err := mathAbs([]any{int64(-3)})
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	v, err = mathMin([]any{int64(4), int64(2), int64(9)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	v, err = mathMax([]any{1.5, 2.5})
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)

	v, err = mathSqrt([]any{int64(9)})
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)

	_, err = mathSqrt([]any{int64(-1)})
	assert.Error(t, err)

	v, err = mathCeil([]any{1.2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}
