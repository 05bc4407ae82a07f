package disasm_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JacobC09/JakePlusPlus/internal/compiler"
	"github.com/JacobC09/JakePlusPlus/internal/diagnostics"
	"github.com/JacobC09/JakePlusPlus/internal/disasm"
)

func TestDisassembleArithmetic(t *testing.T) {
	proto, ok := compiler.Compile("print 1 + 2;", diagnostics.NoopSink())
	require.True(t, ok)

	var out strings.Builder
	require.NoError(t, disasm.New(&out).Proto("script", proto))

	text := out.String()
	assert.Contains(t, text, "Constant")
	assert.Contains(t, text, "Add")
	assert.Contains(t, text, "Print")
}

func TestDisassembleNestedClosure(t *testing.T) {
	proto, ok := compiler.Compile(`
		func outer() {
			var x = 1;
			func inner() { return x; }
			return inner;
		}
	`, diagnostics.NoopSink())
	require.True(t, ok)

	var out strings.Builder
	require.NoError(t, disasm.New(&out).Proto("script", proto))

	text := out.String()
	assert.Contains(t, text, "func outer")
	assert.Contains(t, text, "func inner")
	assert.Contains(t, text, "Closure")
	assert.Contains(t, text, "local")
}

func TestDisassembleRejectsNilPrototype(t *testing.T) {
	var out strings.Builder
	err := disasm.New(&out).Proto("x", nil)
	assert.Error(t, err)
}
