// Package jake is the embeddable entry point for the language: compile
// and run a script against a configurable global environment, with
// errors and printed output routed through caller-supplied collaborators
// instead of directly to the process's stdio.
package jake

import (
	"os"
	"sync"

	"github.com/JacobC09/JakePlusPlus/internal/compiler"
	"github.com/JacobC09/JakePlusPlus/internal/diagnostics"
	"github.com/JacobC09/JakePlusPlus/internal/natives"
	"github.com/JacobC09/JakePlusPlus/internal/value"
	"github.com/JacobC09/JakePlusPlus/internal/vm"
)

// Result is the outcome of Interpret: Success when the script compiled
// and ran without error, Error otherwise (the sink already carries the
// detail of what failed).
type Result int

const (
	Success Result = iota
	Error
)

// ErrorSink receives every diagnostic the compiler or VM raises, plus
// the backtrace following a runtime error. It is exactly
// diagnostics.Sink, re-exported under this package so callers need not
// import internal/diagnostics themselves.
type ErrorSink = diagnostics.Sink

// Diagnostic and FrameTrace are re-exported for the same reason.
type Diagnostic = diagnostics.Diagnostic
type FrameTrace = diagnostics.FrameTrace

// ValuePrinter receives one already-formatted line per `print` statement.
type ValuePrinter func(line string)

// stderrSink formats diagnostics the way the CLI collaborator expects
// and writes them through print.
type stderrSink struct{ print ValuePrinter }

func (s stderrSink) Report(d diagnostics.Diagnostic) { s.print(d.Format()) }
func (s stderrSink) Backtrace(frames []diagnostics.FrameTrace) {
	for _, f := range frames {
		s.print(f.String())
	}
}

// NewStderrSink returns a sink that formats diagnostics exactly as
// spec'd, writing each formatted line through print.
func NewStderrSink(print ValuePrinter) ErrorSink {
	return stderrSink{print: print}
}

type pendingGlobal struct {
	name string
	v    value.Value
}

// VM is the configurator/executor for scripts: it accumulates global
// bindings before Run and guards against concurrent use with a busy
// flag rather than a full execution lock, so a caller gets a clear
// error instead of blocking indefinitely on a script that runs forever.
type VM struct {
	mu   sync.Mutex
	busy bool

	sink    ErrorSink
	printer ValuePrinter
	globals []pendingGlobal
}

// NewVM constructs a VM configurator. Diagnostics and print output are
// discarded until SetErrorSink/SetValuePrinter are called.
func NewVM() *VM {
	return &VM{
		sink:    diagnostics.NoopSink(),
		printer: func(string) {},
	}
}

// SetErrorSink installs the collaborator that receives compiler/VM
// diagnostics. Passing nil restores the no-op sink.
func (vmc *VM) SetErrorSink(sink ErrorSink) {
	if sink == nil {
		sink = diagnostics.NoopSink()
	}
	vmc.sink = sink
}

// SetValuePrinter installs the collaborator that receives one line per
// `print` statement. Passing nil restores the no-op printer.
func (vmc *VM) SetValuePrinter(printer ValuePrinter) {
	if printer == nil {
		printer = func(string) {}
	}
	vmc.printer = printer
}

// DefineGlobal installs name into the VM's global environment ahead of
// Run, for host-provided native functions beyond pow/sqrt/clock.
func (vmc *VM) DefineGlobal(name string, v value.Value) {
	vmc.globals = append(vmc.globals, pendingGlobal{name, v})
}

// Run compiles and interprets source in one shot. Run refuses to
// execute concurrently with another Run on the same VM: a script that
// never returns would otherwise wedge every subsequent caller.
func (vmc *VM) Run(source string) Result {
	vmc.mu.Lock()
	if vmc.busy {
		vmc.mu.Unlock()
		vmc.sink.Report(diagnostics.Diagnostic{
			Kind:    diagnostics.RuntimeError,
			Message: "VM is busy; concurrent Run not allowed",
		})
		return Error
	}
	vmc.busy = true
	vmc.mu.Unlock()
	defer func() {
		vmc.mu.Lock()
		vmc.busy = false
		vmc.mu.Unlock()
	}()

	proto, ok := compiler.Compile(source, vmc.sink)
	if !ok {
		return Error
	}

	machine := vm.New(
		vm.SetSink(vmc.sink),
		vm.SetOutput(vmc.printer),
	)
	natives.InstallAll(machine)
	for _, g := range vmc.globals {
		machine.DefineGlobal(g.name, g.v)
	}

	if err := machine.Interpret(proto); err != nil {
		return Error
	}
	return Success
}

// Interpret is the package-level convenience entry point: compile and
// run source against a fresh VM with natives installed, diagnostics
// formatted to stderr, and print output written to stdout.
func Interpret(source string) Result {
	vmc := NewVM()
	vmc.SetErrorSink(NewStderrSink(func(line string) {
		os.Stderr.WriteString(line)
		os.Stderr.WriteString("\n")
	}))
	vmc.SetValuePrinter(func(line string) {
		os.Stdout.WriteString(line)
		os.Stdout.WriteString("\n")
	})
	return vmc.Run(source)
}
