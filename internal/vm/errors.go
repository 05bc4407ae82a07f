package vm

import (
	"fmt"

	"github.com/JacobC09/JakePlusPlus/internal/diagnostics"
)

// runtimeErrorf reports a RuntimeError diagnostic (with a full
// backtrace, deepest frame first) to the VM's sink and returns a plain
// Go error the caller unwinds with.
func (vm *VM) runtimeErrorf(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	line := 0
	if len(vm.frames) > 0 {
		fr := vm.currentFrame()
		line = fr.closure.Proto.Chunk.GetLine(fr.ip - 1)
	}

	vm.sink.Report(diagnostics.Diagnostic{
		Kind:    diagnostics.RuntimeError,
		Message: msg,
		Line:    line,
	})
	vm.sink.Backtrace(vm.backtrace())

	return fmt.Errorf("%s", msg)
}

// backtrace builds one FrameTrace per active call, deepest (most
// recently called) frame first.
func (vm *VM) backtrace() []diagnostics.FrameTrace {
	trace := make([]diagnostics.FrameTrace, 0, len(vm.frames))
	for i := len(vm.frames) - 1; i >= 0; i-- {
		fr := &vm.frames[i]
		name := fr.closure.Proto.Name
		if name == "" {
			name = "script"
		}
		line := fr.closure.Proto.Chunk.GetLine(fr.ip - 1)
		trace = append(trace, diagnostics.FrameTrace{Line: line, Name: name})
	}
	return trace
}

func (vm *VM) traceOp(fr *frame, op any) {
	if vm.logger == nil {
		return
	}
	name := fr.closure.Proto.Name
	if name == "" {
		name = "script"
	}
	vm.logger.Trace().
		Str("fn", name).
		Str("trace_id", fr.closure.Proto.Chunk.ID.String()).
		Int("ip", fr.ip).
		Interface("op", op).
		Msg("dispatch")
}
