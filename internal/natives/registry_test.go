package natives

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JacobC09/JakePlusPlus/internal/value"
)

type fakeInstaller struct {
	globals map[string]value.Value
}

func (f *fakeInstaller) DefineGlobal(name string, v value.Value) {
	f.globals[name] = v
}

func TestInstallAllRegistersEveryNative(t *testing.T) {
	target := &fakeInstaller{globals: map[string]value.Value{}}
	InstallAll(target)

	for _, name := range []string{"pow", "sqrt", "clock"} {
		v, ok := target.globals[name]
		require.True(t, ok, "expected native %q to be installed", name)
		assert.Equal(t, value.KindNative, v.Kind)
	}
}

func TestPowComputesExponent(t *testing.T) {
	spec, ok := byName["pow"]
	require.True(t, ok)
	result, err := spec.Fn([]value.Value{value.Number(2), value.Number(10)})
	require.NoError(t, err)
	assert.Equal(t, float64(1024), result.AsNumber())
}

func TestSqrtComputesRoot(t *testing.T) {
	spec, ok := byName["sqrt"]
	require.True(t, ok)
	result, err := spec.Fn([]value.Value{value.Number(81)})
	require.NoError(t, err)
	assert.Equal(t, float64(9), result.AsNumber())
}

func TestClockReturnsNonNegativeTicks(t *testing.T) {
	spec, ok := byName["clock"]
	require.True(t, ok)
	result, err := spec.Fn(nil)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.AsNumber(), float64(0))
}

func TestArityMismatchReportsNativeName(t *testing.T) {
	target := &fakeInstaller{globals: map[string]value.Value{}}
	InstallAll(target)

	native := target.globals["sqrt"].AsNative()
	_, err := native.Fn([]value.Value{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqrt expects 1 argument")
}

func TestArgumentKindMismatchReportsNativeName(t *testing.T) {
	target := &fakeInstaller{globals: map[string]value.Value{}}
	InstallAll(target)

	sqrtFn := target.globals["sqrt"].AsNative()
	_, err := sqrtFn.Fn([]value.Value{value.String("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqrt expected argument 0 as number but got string")

	powFn := target.globals["pow"].AsNative()
	_, err = powFn.Fn([]value.Value{value.String("a"), value.String("b")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pow expected argument 0 as number but got string")
}
