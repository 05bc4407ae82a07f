package vm_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JacobC09/JakePlusPlus/internal/compiler"
	"github.com/JacobC09/JakePlusPlus/internal/diagnostics"
	"github.com/JacobC09/JakePlusPlus/internal/value"
	"github.com/JacobC09/JakePlusPlus/internal/vm"
)

// captureOutput runs src through a fresh VM, returning everything it
// printed and the run error, if any.
func captureOutput(t *testing.T, src string) (string, error) {
	t.Helper()
	proto, ok := compiler.Compile(src, diagnostics.NoopSink())
	require.True(t, ok, "expected source to compile")

	var out strings.Builder
	machine := vm.New(vm.SetOutput(func(s string) { out.WriteString(s); out.WriteByte('\n') }))
	err := machine.Interpret(proto)
	return out.String(), err
}

func TestVMArithmeticAndPrint(t *testing.T) {
	out, err := captureOutput(t, "print 1 + 2 * 3;")
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)
}

func TestVMStringConcatenation(t *testing.T) {
	out, err := captureOutput(t, `print "foo" + "bar";`)
	require.NoError(t, err)
	assert.Equal(t, "foobar\n", out)
}

func TestVMGlobalsAndLocals(t *testing.T) {
	out, err := captureOutput(t, `
		var x = 10;
		{
			var y = 5;
			print x + y;
		}
		print x;
	`)
	require.NoError(t, err)
	assert.Equal(t, "15\n10\n", out)
}

func TestVMControlFlow(t *testing.T) {
	out, err := captureOutput(t, `
		var total = 0;
		for (var i = 0; i < 5; i += 1) {
			if (i == 2) { print "reached two"; }
			total += i;
		}
		print total;
	`)
	require.NoError(t, err)
	assert.Contains(t, out, "reached two\n")
	assert.Contains(t, out, "10\n")
}

func TestVMClosureCountsAcrossCalls(t *testing.T) {
	out, err := captureOutput(t, `
		func makeCounter() {
			var count = 0;
			func increment() {
				count += 1;
				return count;
			}
			return increment;
		}
		var counter = makeCounter();
		print counter();
		print counter();
		print counter();
	`)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n3\n", out)
}

func TestVMIndependentClosuresDoNotShareState(t *testing.T) {
	out, err := captureOutput(t, `
		func makeCounter() {
			var count = 0;
			func increment() {
				count += 1;
				return count;
			}
			return increment;
		}
		var a = makeCounter();
		var b = makeCounter();
		print a();
		print a();
		print b();
	`)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n1\n", out)
}

func TestVMClassesMethodsAndInit(t *testing.T) {
	out, err := captureOutput(t, `
		class Counter {
			init() {
				this.value = 0;
			}
			increment() {
				this.value = this.value + 1;
				return this.value;
			}
		}
		var c = Counter();
		print c.increment();
		print c.increment();
	`)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n", out)
}

func TestVMInheritanceAndSuper(t *testing.T) {
	out, err := captureOutput(t, `
		class Animal {
			speak() { return "..."; }
			describe() { return this.speak(); }
		}
		class Dog < Animal {
			speak() { return "woof, via " + super.speak(); }
		}
		var d = Dog();
		print d.describe();
	`)
	require.NoError(t, err)
	assert.Equal(t, "woof, via ...\n", out)
}

func TestVMBoundMethodRetainsReceiver(t *testing.T) {
	out, err := captureOutput(t, `
		class Greeter {
			init(name) { this.name = name; }
			greet() { return "hi " + this.name; }
		}
		var g = Greeter("sam");
		var fn = g.greet;
		print fn();
	`)
	require.NoError(t, err)
	assert.Equal(t, "hi sam\n", out)
}

func TestVMRuntimeErrorUndefinedVariable(t *testing.T) {
	proto, ok := compiler.Compile("print missing;", diagnostics.NoopSink())
	require.True(t, ok)

	var reported []diagnostics.Diagnostic
	sink := &recordingSink{report: func(d diagnostics.Diagnostic) { reported = append(reported, d) }}
	machine := vm.New(vm.SetSink(sink), vm.SetOutput(func(string) {}))

	err := machine.Interpret(proto)
	require.Error(t, err)
	require.NotEmpty(t, reported)
	assert.Equal(t, diagnostics.RuntimeError, reported[0].Kind)
	assert.Contains(t, reported[0].Message, "Undefined variable")
}

func TestVMRuntimeErrorWrongArity(t *testing.T) {
	proto, ok := compiler.Compile(`
		func add(a, b) { return a + b; }
		add(1);
	`, diagnostics.NoopSink())
	require.True(t, ok)

	machine := vm.New(vm.SetOutput(func(string) {}))
	err := machine.Interpret(proto)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected 2 arguments")
}

func TestVMDefineGlobalInstallsNative(t *testing.T) {
	proto, ok := compiler.Compile(`print double(21);`, diagnostics.NoopSink())
	require.True(t, ok)

	var out strings.Builder
	machine := vm.New(vm.SetOutput(func(s string) { out.WriteString(s) }))
	machine.DefineGlobal("double", value.FromNative(&value.NativeFunction{
		Name: "double",
		Fn: func(args []value.Value) (value.Value, error) {
			return value.Number(args[0].AsNumber() * 2), nil
		},
	}))

	require.NoError(t, machine.Interpret(proto))
	assert.Equal(t, "42", out.String())
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
