package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JacobC09/JakePlusPlus/internal/bytecode"
	"github.com/JacobC09/JakePlusPlus/internal/diagnostics"
)

func compileOK(t *testing.T, src string) *bytecode.FunctionProto {
	t.Helper()
	proto, ok := Compile(src, diagnostics.NoopSink())
	require.True(t, ok, "expected source to compile cleanly")
	return proto
}

func TestCompileArithmetic(t *testing.T) {
	proto := compileOK(t, "print 1 + 2 * 3;")
	code := proto.Chunk.Code
	assert.Equal(t, byte(bytecode.OpConstant), code[0])
	assert.Contains(t, code, byte(bytecode.OpMultiply))
	assert.Contains(t, code, byte(bytecode.OpAdd))
	assert.Contains(t, code, byte(bytecode.OpPrint))
}

func TestCompileLocalsAndScopes(t *testing.T) {
	proto := compileOK(t, `
		var a = 1;
		{
			var b = 2;
			print a + b;
		}
	`)
	// The inner block's local must be popped on scope exit.
	assert.Contains(t, proto.Chunk.Code, byte(bytecode.OpPop))
	assert.Contains(t, proto.Chunk.Code, byte(bytecode.OpGetLocal))
}

func TestCompileClosureCapturesUpvalue(t *testing.T) {
	proto := compileOK(t, `
		func makeCounter() {
			var count = 0;
			func increment() {
				count += 1;
				return count;
			}
			return increment;
		}
	`)
	require.Len(t, proto.Chunk.Consts, 2)
	var outer *bytecode.FunctionProto
	for _, c := range proto.Chunk.Consts {
		if p, ok := c.(*bytecode.FunctionProto); ok {
			outer = p
		}
	}
	require.NotNil(t, outer)

	var inner *bytecode.FunctionProto
	for _, c := range outer.Chunk.Consts {
		if p, ok := c.(*bytecode.FunctionProto); ok {
			inner = p
		}
	}
	require.NotNil(t, inner)
	assert.Equal(t, 1, inner.UpvalCount)
	assert.Contains(t, inner.Chunk.Code, byte(bytecode.OpGetUpValue))
	assert.Contains(t, inner.Chunk.Code, byte(bytecode.OpSetUpValue))
}

func TestCompileClassWithSuperAndInit(t *testing.T) {
	proto := compileOK(t, `
		class Animal {
			init(name) {
				this.name = name;
			}
			speak() {
				return this.name;
			}
		}
		class Dog < Animal {
			speak() {
				return super.speak() + "!";
			}
		}
	`)
	assert.Contains(t, proto.Chunk.Code, byte(bytecode.OpClass))
	assert.Contains(t, proto.Chunk.Code, byte(bytecode.OpInherit))
	assert.Contains(t, proto.Chunk.Code, byte(bytecode.OpMethod))
}

func TestCompileInvokeFusesPropertyCall(t *testing.T) {
	proto := compileOK(t, `
		class Greeter {
			hello() { return "hi"; }
		}
		var g = Greeter();
		print g.hello();
	`)
	assert.Contains(t, proto.Chunk.Code, byte(bytecode.OpInvoke))
}

func TestCompileForLoopDesugarsToJumps(t *testing.T) {
	proto := compileOK(t, `
		for (var i = 0; i < 3; i += 1) {
			print i;
		}
	`)
	assert.Contains(t, proto.Chunk.Code, byte(bytecode.OpJumpIfFalse))
	assert.Contains(t, proto.Chunk.Code, byte(bytecode.OpJumpBack))
}

func TestCompileReportsSyntaxErrors(t *testing.T) {
	var reported []diagnostics.Diagnostic
	sink := &recordingSink{report: func(d diagnostics.Diagnostic) { reported = append(reported, d) }}

	_, ok := Compile("var x = ;", sink)
	assert.False(t, ok)
	require.NotEmpty(t, reported)
	assert.Equal(t, diagnostics.SyntaxError, reported[0].Kind)
}

func TestCompileRejectsReturnOutsideFunction(t *testing.T) {
	var reported []diagnostics.Diagnostic
	sink := &recordingSink{report: func(d diagnostics.Diagnostic) { reported = append(reported, d) }}

	_, ok := Compile("return 1;", sink)
	assert.False(t, ok)
	require.NotEmpty(t, reported)
	assert.Contains(t, reported[0].Message, "top-level")
}

func TestCompileTooManyParametersErrors(t *testing.T) {
	src := "func f("
	for i := 0; i < 256; i++ {
		if i > 0 {
			src += ", "
		}
		src += "p" + string(rune('a'+i%26)) + string(rune('0'+i/26))
	}
	src += ") { return 0; }"

	var reported []diagnostics.Diagnostic
	sink := &recordingSink{report: func(d diagnostics.Diagnostic) { reported = append(reported, d) }}
	_, ok := Compile(src, sink)
	assert.False(t, ok)
	require.NotEmpty(t, reported)
	assert.Contains(t, reported[0].Message, "255 parameters")
}

type recordingSink struct {
	report    func(diagnostics.Diagnostic)
	backtrace func([]diagnostics.FrameTrace)
}

func (r *recordingSink) Report(d diagnostics.Diagnostic) { r.report(d) }
func (r *recordingSink) Backtrace(fs []diagnostics.FrameTrace) {
	if r.backtrace != nil {
		r.backtrace(fs)
	}
}
