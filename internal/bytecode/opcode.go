package bytecode

// OpCode enumerates the one-byte bytecode operations the compiler emits
// and the VM dispatches. Operand layouts are documented per spec §4.3.
type OpCode byte

const (
	// no operands
	OpPop OpCode = iota
	OpReturn
	OpTrue
	OpFalse
	OpNone
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpEqual
	OpNotEqual
	OpGreater
	OpLess
	OpGreaterEqual
	OpLessEqual
	OpNot
	OpNegate
	OpPrint
	OpInherit
	OpCloseUpValue

	// one-byte constant-pool index operand
	OpConstant
	OpDefineGlobal
	OpGetGlobal
	OpSetGlobal
	OpClass
	OpGetProperty
	OpSetProperty
	OpMethod
	OpGetSuper

	// one-byte operand
	OpGetLocal
	OpSetLocal
	OpGetUpValue
	OpSetUpValue
	OpCall

	// two-byte jump distance operand, high byte first (big-endian, not
	// little-endian)
	OpJump
	OpJumpBack
	OpJumpIfTrue
	OpJumpIfFalse

	// constant index + N trailing (isLocal, index) pairs
	OpClosure

	// constant index (method/field name) + one-byte argc
	OpInvoke
)

var names = map[OpCode]string{
	OpPop:           "Pop",
	OpReturn:        "Return",
	OpTrue:          "True",
	OpFalse:         "False",
	OpNone:          "None",
	OpAdd:           "Add",
	OpSubtract:      "Subtract",
	OpMultiply:      "Multiply",
	OpDivide:        "Divide",
	OpEqual:         "Equal",
	OpNotEqual:      "NotEqual",
	OpGreater:       "Greater",
	OpLess:          "Less",
	OpGreaterEqual:  "GreaterEqual",
	OpLessEqual:     "LessEqual",
	OpNot:           "Not",
	OpNegate:        "Negate",
	OpPrint:         "Print",
	OpInherit:       "Inherit",
	OpCloseUpValue:  "CloseUpValue",
	OpConstant:      "Constant",
	OpDefineGlobal:  "DefineGlobal",
	OpGetGlobal:     "GetGlobal",
	OpSetGlobal:     "SetGlobal",
	OpClass:         "Class",
	OpGetProperty:   "GetProperty",
	OpSetProperty:   "SetProperty",
	OpMethod:        "Method",
	OpGetSuper:      "GetSuper",
	OpGetLocal:      "GetLocal",
	OpSetLocal:      "SetLocal",
	OpGetUpValue:    "GetUpValue",
	OpSetUpValue:    "SetUpValue",
	OpCall:          "Call",
	OpJump:          "Jump",
	OpJumpBack:      "JumpBack",
	OpJumpIfTrue:    "JumpIfTrue",
	OpJumpIfFalse:   "JumpIfFalse",
	OpClosure:       "Closure",
	OpInvoke:        "Invoke",
}

// String names the opcode, for disassembly and diagnostics.
func (op OpCode) String() string {
	if n, ok := names[op]; ok {
		return n
	}
	return "Unknown"
}
