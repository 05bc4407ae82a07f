package vm

import (
	"unsafe"

	"github.com/JacobC09/JakePlusPlus/internal/value"
)

// callValue dispatches a call by the callee's runtime tag: a closure
// pushes a new frame, a native function runs immediately and replaces
// its own call window with the result, a class produces a fresh
// instance (running init if the class defines one), and a bound method
// substitutes its receiver for the call's implicit slot 0.
func (vm *VM) callValue(callee value.Value, argc int) error {
	switch callee.Kind {
	case value.KindClosure:
		return vm.callClosure(callee.AsClosure(), argc)
	case value.KindNative:
		return vm.callNative(callee.AsNative(), argc)
	case value.KindClass:
		return vm.callClass(callee.AsClass(), argc)
	case value.KindBoundMethod:
		bound := callee.AsBoundMethod()
		vm.stack[vm.stackTop-argc-1] = bound.Receiver
		return vm.callClosure(bound.Method, argc)
	default:
		return vm.runtimeErrorf("Can only call functions and classes.")
	}
}

func (vm *VM) callClosure(closure *value.Closure, argc int) error {
	if argc != closure.Proto.Arity {
		return vm.runtimeErrorf("Expected %d arguments but got %d.", closure.Proto.Arity, argc)
	}
	return vm.pushFrame(closure, vm.stackTop-argc-1)
}

func (vm *VM) callNative(native *value.NativeFunction, argc int) error {
	args := make([]value.Value, argc)
	copy(args, vm.stack[vm.stackTop-argc:vm.stackTop])
	result, err := native.Fn(args)
	if err != nil {
		return vm.runtimeErrorf("%s", err.Error())
	}
	vm.stackTop -= argc + 1
	vm.push(result)
	return nil
}

func (vm *VM) callClass(class *value.Class, argc int) error {
	inst := value.NewInstance(class)
	vm.stack[vm.stackTop-argc-1] = value.FromInstance(inst)
	if init, ok := class.Methods["init"]; ok {
		return vm.callClosure(init, argc)
	}
	if argc != 0 {
		return vm.runtimeErrorf("Expected 0 arguments but got %d.", argc)
	}
	return nil
}

func slotAddr(p *value.Value) uintptr { return uintptr(unsafe.Pointer(p)) }

// captureUpvalue returns the existing open upvalue for the stack slot
// at absolute index slot, or opens a new one, keeping the open list in
// strictly descending stack-address order.
func (vm *VM) captureUpvalue(slot int) *value.Upvalue {
	target := &vm.stack[slot]
	var prev *value.Upvalue
	cur := vm.openUpvalues
	for cur != nil && slotAddr(cur.Location) > slotAddr(target) {
		prev = cur
		cur = cur.Next
	}
	if cur != nil && cur.Location == target {
		return cur
	}

	created := &value.Upvalue{Location: target, Next: cur}
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

// closeUpvalues closes every open upvalue addressing a slot at or above
// fromSlot, copying its live stack value into the cell itself before
// the frame that owns that slot is torn down.
func (vm *VM) closeUpvalues(fromSlot int) {
	fromAddr := slotAddr(&vm.stack[fromSlot])
	for vm.openUpvalues != nil && slotAddr(vm.openUpvalues.Location) >= fromAddr {
		uv := vm.openUpvalues
		uv.Close()
		vm.openUpvalues = uv.Next
	}
}
