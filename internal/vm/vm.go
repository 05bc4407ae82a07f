// Package vm implements the stack-based bytecode interpreter: a single
// shared operand stack addressed through per-call-frame bases, an open
// upvalue list, and the full opcode dispatch loop.
package vm

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/JacobC09/JakePlusPlus/internal/bytecode"
	"github.com/JacobC09/JakePlusPlus/internal/diagnostics"
	"github.com/JacobC09/JakePlusPlus/internal/value"
)

// FramesMax is the default call-depth limit; Interpret's caller may
// lower or raise it with SetMaxFrames before running.
const FramesMax = 64

// frame is one call's activation record. base is the shared stack index
// of the callee's own slot (slot 0); locals/params/temporaries live at
// base+1, base+2, ... Upvalues always resolve through closure, never
// through a private per-frame array.
type frame struct {
	closure *value.Closure
	ip      int
	base    int
}

// VM is the bytecode interpreter. It is not safe for concurrent use by
// multiple goroutines; callers needing that must serialize externally,
// mirroring the single-writer discipline of the compiled chunks it runs.
type VM struct {
	// stack is allocated once at its full capacity and never regrown:
	// open upvalues hold raw *Value pointers into it, which a
	// reallocating append would silently invalidate.
	stack    []value.Value
	stackTop int
	frames   []frame

	globals map[string]value.Value

	openUpvalues *value.Upvalue

	maxFrames int
	sink      diagnostics.Sink
	logger    *zerolog.Logger

	out func(string)
}

// New constructs a VM with empty globals and the default frame limit.
// Pass options to customize (SetMaxFrames, SetSink, SetLogger, SetOutput).
func New(opts ...Option) *VM {
	vm := &VM{
		globals:   make(map[string]value.Value),
		maxFrames: FramesMax,
		sink:      diagnostics.NoopSink(),
		out:       func(s string) { fmt.Println(s) },
	}
	vm.stack = make([]value.Value, vm.maxFrames*256)
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// Option configures a VM at construction time.
type Option func(*VM)

// SetMaxFrames overrides the call-depth limit (FramesMax by default).
func SetMaxFrames(n int) Option {
	return func(vm *VM) {
		vm.maxFrames = n
		vm.stack = make([]value.Value, n*256)
	}
}

// SetSink registers where compile/runtime diagnostics are reported.
func SetSink(sink diagnostics.Sink) Option {
	return func(vm *VM) {
		if sink != nil {
			vm.sink = sink
		}
	}
}

// SetLogger attaches a structured logger for optional instruction-level
// trace logging; nil (the default) disables tracing entirely.
func SetLogger(logger *zerolog.Logger) Option {
	return func(vm *VM) { vm.logger = logger }
}

// SetOutput overrides where `print` statements write (stdout by default).
func SetOutput(out func(string)) Option {
	return func(vm *VM) {
		if out != nil {
			vm.out = out
		}
	}
}

// DefineGlobal binds a value into the global environment, e.g. to
// install a native function before Interpret runs.
func (vm *VM) DefineGlobal(name string, v value.Value) {
	vm.globals[name] = v
}

// Interpret runs a compiled top-level script prototype to completion.
func (vm *VM) Interpret(proto *bytecode.FunctionProto) error {
	vm.stackTop = 0
	vm.frames = vm.frames[:0]
	vm.openUpvalues = nil

	closure := &value.Closure{Proto: proto, Upvalues: nil}
	vm.push(value.FromClosure(closure))
	if err := vm.callValue(value.FromClosure(closure), 0); err != nil {
		return err
	}
	return vm.run()
}

func (vm *VM) push(v value.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() value.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.stackTop-1-distance]
}

func (vm *VM) currentFrame() *frame { return &vm.frames[len(vm.frames)-1] }

func (vm *VM) pushFrame(closure *value.Closure, base int) error {
	if len(vm.frames) >= vm.maxFrames {
		return vm.runtimeErrorf("Stack overflow.")
	}
	vm.frames = append(vm.frames, frame{closure: closure, ip: 0, base: base})
	return nil
}

// run executes instructions from the top frame until every frame has
// returned (Interpret's bootstrap frame closes the loop) or an error
// is produced.
func (vm *VM) run() error {
	for len(vm.frames) > 0 {
		fr := vm.currentFrame()
		code := fr.closure.Proto.Chunk.Code

		if fr.ip >= len(code) {
			return vm.runtimeErrorf("Ran off the end of a chunk without returning.")
		}

		op := bytecode.OpCode(code[fr.ip])
		fr.ip++
		vm.traceOp(fr, op)

		switch op {
		case bytecode.OpPop:
			vm.pop()

		case bytecode.OpTrue:
			vm.push(value.Bool(true))
		case bytecode.OpFalse:
			vm.push(value.Bool(false))
		case bytecode.OpNone:
			vm.push(value.None())

		case bytecode.OpConstant:
			idx := vm.readByte(fr)
			vm.push(constantToValue(fr.closure.Proto.Chunk.Consts[idx]))

		case bytecode.OpAdd:
			if err := vm.binaryAdd(); err != nil {
				return err
			}
		case bytecode.OpSubtract:
			if err := vm.numericBinary(op); err != nil {
				return err
			}
		case bytecode.OpMultiply:
			if err := vm.numericBinary(op); err != nil {
				return err
			}
		case bytecode.OpDivide:
			if err := vm.numericBinary(op); err != nil {
				return err
			}

		case bytecode.OpEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Bool(value.Equal(a, b)))
		case bytecode.OpNotEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Bool(!value.Equal(a, b)))
		case bytecode.OpGreater, bytecode.OpLess, bytecode.OpGreaterEqual, bytecode.OpLessEqual:
			if err := vm.comparisonBinary(op); err != nil {
				return err
			}

		case bytecode.OpNot:
			v := vm.pop()
			vm.push(value.Bool(!value.Truthy(v)))
		case bytecode.OpNegate:
			v := vm.pop()
			if !v.IsNumber() {
				return vm.runtimeErrorf("Operand must be a number.")
			}
			vm.push(value.Number(-v.AsNumber()))

		case bytecode.OpPrint:
			vm.out(value.Print(vm.pop()))

		case bytecode.OpDefineGlobal:
			name := fr.closure.Proto.Chunk.Consts[vm.readByte(fr)].(string)
			vm.globals[name] = vm.pop()
		case bytecode.OpGetGlobal:
			name := fr.closure.Proto.Chunk.Consts[vm.readByte(fr)].(string)
			v, ok := vm.globals[name]
			if !ok {
				return vm.runtimeErrorf("Undefined variable '%s'.", name)
			}
			vm.push(v)
		case bytecode.OpSetGlobal:
			name := fr.closure.Proto.Chunk.Consts[vm.readByte(fr)].(string)
			if _, ok := vm.globals[name]; !ok {
				return vm.runtimeErrorf("Undefined variable '%s'.", name)
			}
			vm.globals[name] = vm.peek(0)

		case bytecode.OpGetLocal:
			slot := vm.readByte(fr)
			vm.push(vm.stack[fr.base+int(slot)])
		case bytecode.OpSetLocal:
			slot := vm.readByte(fr)
			vm.stack[fr.base+int(slot)] = vm.peek(0)

		case bytecode.OpGetUpValue:
			slot := vm.readByte(fr)
			vm.push(fr.closure.Upvalues[slot].Get())
		case bytecode.OpSetUpValue:
			slot := vm.readByte(fr)
			fr.closure.Upvalues[slot].Set(vm.peek(0))

		case bytecode.OpCloseUpValue:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.pop()

		case bytecode.OpJump:
			off := vm.readUint16(fr)
			fr.ip += off
		case bytecode.OpJumpBack:
			off := vm.readUint16(fr)
			fr.ip -= off
		case bytecode.OpJumpIfTrue:
			off := vm.readUint16(fr)
			if value.Truthy(vm.peek(0)) {
				fr.ip += off
			}
		case bytecode.OpJumpIfFalse:
			off := vm.readUint16(fr)
			if !value.Truthy(vm.peek(0)) {
				fr.ip += off
			}

		case bytecode.OpCall:
			argc := int(vm.readByte(fr))
			if err := vm.callValue(vm.peek(argc), argc); err != nil {
				return err
			}

		case bytecode.OpInvoke:
			name := fr.closure.Proto.Chunk.Consts[vm.readByte(fr)].(string)
			argc := int(vm.readByte(fr))
			if err := vm.invoke(name, argc); err != nil {
				return err
			}

		case bytecode.OpClosure:
			constIdx := vm.readByte(fr)
			proto := fr.closure.Proto.Chunk.Consts[constIdx].(*bytecode.FunctionProto)
			closure := &value.Closure{Proto: proto, Upvalues: make([]*value.Upvalue, proto.UpvalCount)}
			for i := 0; i < proto.UpvalCount; i++ {
				isLocal := vm.readByte(fr)
				index := vm.readByte(fr)
				if isLocal == 1 {
					closure.Upvalues[i] = vm.captureUpvalue(fr.base + int(index))
				} else {
					closure.Upvalues[i] = fr.closure.Upvalues[index]
				}
			}
			vm.push(value.FromClosure(closure))

		case bytecode.OpReturn:
			result := vm.pop()
			vm.closeUpvalues(fr.base)
			vm.stackTop = fr.base
			vm.frames = vm.frames[:len(vm.frames)-1]
			if len(vm.frames) == 0 {
				return nil
			}
			vm.push(result)

		case bytecode.OpClass:
			name := fr.closure.Proto.Chunk.Consts[vm.readByte(fr)].(string)
			vm.push(value.FromClass(value.NewClass(name)))
		case bytecode.OpInherit:
			superVal := vm.peek(1)
			if superVal.Kind != value.KindClass {
				return vm.runtimeErrorf("Superclass must be a class.")
			}
			subclass := vm.peek(0).AsClass()
			for name, method := range superVal.AsClass().Methods {
				subclass.Methods[name] = method
			}
			vm.pop() // subclass; the superclass stays as the "super" local's slot

		case bytecode.OpMethod:
			name := fr.closure.Proto.Chunk.Consts[vm.readByte(fr)].(string)
			method := vm.pop().AsClosure()
			class := vm.peek(0).AsClass()
			class.Methods[name] = method

		case bytecode.OpGetProperty:
			name := fr.closure.Proto.Chunk.Consts[vm.readByte(fr)].(string)
			if err := vm.getProperty(name); err != nil {
				return err
			}
		case bytecode.OpSetProperty:
			name := fr.closure.Proto.Chunk.Consts[vm.readByte(fr)].(string)
			receiver := vm.peek(1)
			if receiver.Kind != value.KindInstance {
				return vm.runtimeErrorf("Only instances have fields.")
			}
			val := vm.pop()
			vm.pop() // receiver
			receiver.AsInstance().Fields[name] = val
			vm.push(val)

		case bytecode.OpGetSuper:
			name := fr.closure.Proto.Chunk.Consts[vm.readByte(fr)].(string)
			superclass := vm.pop().AsClass()
			receiver := vm.pop()
			method, ok := superclass.Methods[name]
			if !ok {
				return vm.runtimeErrorf("Undefined property '%s'.", name)
			}
			vm.push(value.FromBoundMethod(&value.BoundMethod{Receiver: receiver, Method: method}))

		default:
			return vm.runtimeErrorf("Unknown opcode %d.", op)
		}
	}
	return nil
}

func (vm *VM) getProperty(name string) error {
	receiver := vm.peek(0)
	if receiver.Kind != value.KindInstance {
		return vm.runtimeErrorf("Only instances have properties.")
	}
	inst := receiver.AsInstance()
	if field, ok := inst.Fields[name]; ok {
		vm.pop()
		vm.push(field)
		return nil
	}
	if method, ok := inst.Class.Methods[name]; ok {
		vm.pop()
		vm.push(value.FromBoundMethod(&value.BoundMethod{Receiver: receiver, Method: method}))
		return nil
	}
	return vm.runtimeErrorf("Undefined property '%s'.", name)
}

// invoke fuses a property lookup and call: a field holding a callable
// is called directly; otherwise the class method table is consulted
// and bound to the receiver. This spares the GetProperty+Call round
// trip for the common `obj.method(args)` pattern.
func (vm *VM) invoke(name string, argc int) error {
	receiver := vm.peek(argc)
	if receiver.Kind != value.KindInstance {
		return vm.runtimeErrorf("Only instances have methods.")
	}
	inst := receiver.AsInstance()
	if field, ok := inst.Fields[name]; ok {
		vm.stack[vm.stackTop-argc-1] = field
		return vm.callValue(field, argc)
	}
	method, ok := inst.Class.Methods[name]
	if !ok {
		return vm.runtimeErrorf("Undefined property '%s'.", name)
	}
	return vm.callClosure(method, argc)
}

func (vm *VM) readByte(fr *frame) byte {
	b := fr.closure.Proto.Chunk.Code[fr.ip]
	fr.ip++
	return b
}

func (vm *VM) readUint16(fr *frame) int {
	hi := fr.closure.Proto.Chunk.Code[fr.ip]
	lo := fr.closure.Proto.Chunk.Code[fr.ip+1]
	fr.ip += 2
	return int(hi)<<8 | int(lo)
}

func constantToValue(c any) value.Value {
	switch v := c.(type) {
	case float64:
		return value.Number(v)
	case string:
		return value.String(v)
	case *bytecode.FunctionProto:
		// Referenced only via OpClosure, which replaces it with a real
		// closure value; reaching here means a constant was loaded by
		// plain OpConstant, which never targets a prototype slot.
		return value.None()
	default:
		return value.None()
	}
}

func (vm *VM) binaryAdd() error {
	b, a := vm.pop(), vm.pop()
	switch {
	case a.IsNumber() && b.IsNumber():
		vm.push(value.Number(a.AsNumber() + b.AsNumber()))
	case a.IsString() && b.IsString():
		vm.push(value.String(a.AsString() + b.AsString()))
	default:
		return vm.runtimeErrorf("Operands must be two numbers or two strings.")
	}
	return nil
}

func (vm *VM) numericBinary(op bytecode.OpCode) error {
	b, a := vm.pop(), vm.pop()
	if !a.IsNumber() || !b.IsNumber() {
		return vm.runtimeErrorf("Operands must be numbers.")
	}
	x, y := a.AsNumber(), b.AsNumber()
	switch op {
	case bytecode.OpSubtract:
		vm.push(value.Number(x - y))
	case bytecode.OpMultiply:
		vm.push(value.Number(x * y))
	case bytecode.OpDivide:
		vm.push(value.Number(x / y))
	}
	return nil
}

func (vm *VM) comparisonBinary(op bytecode.OpCode) error {
	b, a := vm.pop(), vm.pop()
	if !a.IsNumber() || !b.IsNumber() {
		return vm.runtimeErrorf("Operands must be numbers.")
	}
	x, y := a.AsNumber(), b.AsNumber()
	switch op {
	case bytecode.OpGreater:
		vm.push(value.Bool(x > y))
	case bytecode.OpLess:
		vm.push(value.Bool(x < y))
	case bytecode.OpGreaterEqual:
		vm.push(value.Bool(x >= y))
	case bytecode.OpLessEqual:
		vm.push(value.Bool(x <= y))
	}
	return nil
}
