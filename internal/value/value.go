// Package value defines the runtime value universe shared by the
// compiler's constant pool and the virtual machine: numbers, booleans,
// none, strings, and the heap-shared object kinds (closures, upvalue
// cells, native functions, classes, instances, bound methods).
//
// Heap-shared values are kept alive by ordinary Go pointers; the design
// notes call for either weak links or a tracing collector to resolve the
// closure/upvalue reference cycle, and Go's garbage collector is exactly
// such a tracing collector, so no manual reference counting is needed.
package value

import (
	"fmt"
	"strconv"

	"github.com/JacobC09/JakePlusPlus/internal/bytecode"
)

// Kind tags the active variant of a Value.
type Kind int

const (
	KindNumber Kind = iota
	KindBool
	KindNone
	KindString
	KindClosure
	KindNative
	KindClass
	KindInstance
	KindBoundMethod
)

// Value is a tagged union over every value the language can produce.
// Numbers/bools/none are held by-value; the remaining kinds hold a
// pointer to a heap-shared object.
type Value struct {
	Kind Kind

	num float64
	b   bool
	str string

	closure *Closure
	native  *NativeFunction
	class   *Class
	inst    *Instance
	bound   *BoundMethod
}

func Number(n float64) Value  { return Value{Kind: KindNumber, num: n} }
func Bool(b bool) Value       { return Value{Kind: KindBool, b: b} }
func None() Value             { return Value{Kind: KindNone} }
func String(s string) Value   { return Value{Kind: KindString, str: s} }
func FromClosure(c *Closure) Value {
	return Value{Kind: KindClosure, closure: c}
}
func FromNative(n *NativeFunction) Value {
	return Value{Kind: KindNative, native: n}
}
func FromClass(c *Class) Value { return Value{Kind: KindClass, class: c} }
func FromInstance(i *Instance) Value {
	return Value{Kind: KindInstance, inst: i}
}
func FromBoundMethod(b *BoundMethod) Value {
	return Value{Kind: KindBoundMethod, bound: b}
}

func (v Value) AsNumber() float64        { return v.num }
func (v Value) AsBool() bool             { return v.b }
func (v Value) AsString() string         { return v.str }
func (v Value) AsClosure() *Closure      { return v.closure }
func (v Value) AsNative() *NativeFunction { return v.native }
func (v Value) AsClass() *Class          { return v.class }
func (v Value) AsInstance() *Instance    { return v.inst }
func (v Value) AsBoundMethod() *BoundMethod { return v.bound }

func (v Value) IsNumber() bool { return v.Kind == KindNumber }
func (v Value) IsString() bool { return v.Kind == KindString }

// Truthy implements the language's falsey rule: none and false are
// falsey, everything else is truthy.
func Truthy(v Value) bool {
	switch v.Kind {
	case KindNone:
		return false
	case KindBool:
		return v.b
	default:
		return true
	}
}

// Equal compares two values of possibly-different kinds. Mismatched
// kinds are always unequal. Numbers compare by value, booleans by
// value, none always equals none, strings by content, and every
// heap-object kind by identity (the same object reference).
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNumber:
		return a.num == b.num
	case KindBool:
		return a.b == b.b
	case KindNone:
		return true
	case KindString:
		return a.str == b.str
	case KindClosure:
		return a.closure == b.closure
	case KindNative:
		return a.native == b.native
	case KindClass:
		return a.class == b.class
	case KindInstance:
		return a.inst == b.inst
	case KindBoundMethod:
		return a.bound == b.bound
	default:
		return false
	}
}

// Print renders v exactly as the `print` statement and debug dumps do.
func Print(v Value) string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNone:
		return "None"
	case KindString:
		return v.str
	case KindClosure:
		if v.closure.Proto.Name == "" {
			return "<script>"
		}
		return fmt.Sprintf("<fn %s>", v.closure.Proto.Name)
	case KindNative:
		return "<native fn>"
	case KindClass:
		return fmt.Sprintf("<class %s>", v.class.Name)
	case KindInstance:
		return fmt.Sprintf("<%s instance>", v.inst.Class.Name)
	case KindBoundMethod:
		return fmt.Sprintf("<bound fn %s>", v.bound.Method.Proto.Name)
	default:
		return "<?>"
	}
}

// Closure pairs a compiled function prototype with the upvalue cells it
// captured at creation time.
type Closure struct {
	Proto    *bytecode.FunctionProto
	Upvalues []*Upvalue
}

// Upvalue is an indirection cell holding either a pointer into a live
// stack slot (open) or an owned copy of the captured value (closed).
type Upvalue struct {
	// Location points into the VM's operand stack while open; Close
	// copies the current value into Closed and clears Location so that
	// Location no longer aliases the stack.
	Location *Value
	Closed   Value
	// Next chains open upvalues in strictly descending stack-address
	// order, so a search for a slot's cell can stop at the first cell
	// below that slot.
	Next *Upvalue
}

// Get reads the upvalue's current value, whether open or closed.
func (u *Upvalue) Get() Value {
	if u.Location != nil {
		return *u.Location
	}
	return u.Closed
}

// Set writes through to the live stack slot while open, or to the
// closed storage once closed.
func (u *Upvalue) Set(v Value) {
	if u.Location != nil {
		*u.Location = v
		return
	}
	u.Closed = v
}

// Close transfers ownership of the captured value from the stack slot
// into the cell itself.
func (u *Upvalue) Close() {
	u.Closed = *u.Location
	u.Location = nil
}

// NativeFunc is the Go-side handler backing a NativeFunction value. It
// receives its own argument slice (a scoped borrow: it must not retain
// pointers into it) and returns a result or an error.
type NativeFunc func(args []Value) (Value, error)

// NativeFunction wraps a host-provided callable registered into globals.
type NativeFunction struct {
	Name string
	Fn   NativeFunc
}

// Class has a name and a mapping from method name to the closure that
// implements it.
type Class struct {
	Name    string
	Methods map[string]*Closure
}

func NewClass(name string) *Class {
	return &Class{Name: name, Methods: make(map[string]*Closure)}
}

// Instance has a class reference and a mapping from field name to value.
type Instance struct {
	Class  *Class
	Fields map[string]Value
}

func NewInstance(class *Class) *Instance {
	return &Instance{Class: class, Fields: make(map[string]Value)}
}

// BoundMethod pairs a closure with a specific receiver value, produced
// by accessing a method through an instance or via super.
type BoundMethod struct {
	Receiver Value
	Method   *Closure
}
