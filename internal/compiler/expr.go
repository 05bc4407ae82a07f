package compiler

import (
	"strconv"

	"github.com/JacobC09/JakePlusPlus/internal/bytecode"
	"github.com/JacobC09/JakePlusPlus/internal/token"
)

// precedence orders binding power from loosest to tightest, matching
// the grammar's assignment < or < and < equality < comparison < term
// < factor < unary < call < primary chain.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =  +=  -=  *=  /=
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

type parseFn func(canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

func (c *Compiler) rules() map[token.Kind]parseRule {
	if c.rulesTable != nil {
		return c.rulesTable
	}
	c.rulesTable = map[token.Kind]parseRule{
		token.LeftParen:    {prefix: c.grouping, infix: c.call, precedence: precCall},
		token.Dot:          {infix: c.dot, precedence: precCall},
		token.Minus:        {prefix: c.unary, infix: c.binary, precedence: precTerm},
		token.Plus:         {infix: c.binary, precedence: precTerm},
		token.Slash:        {infix: c.binary, precedence: precFactor},
		token.Star:         {infix: c.binary, precedence: precFactor},
		token.Bang:         {prefix: c.unary},
		token.BangEqual:    {infix: c.binary, precedence: precEquality},
		token.EqualEqual:   {infix: c.binary, precedence: precEquality},
		token.Greater:      {infix: c.binary, precedence: precComparison},
		token.GreaterEqual: {infix: c.binary, precedence: precComparison},
		token.Less:         {infix: c.binary, precedence: precComparison},
		token.LessEqual:    {infix: c.binary, precedence: precComparison},
		token.Identifier:   {prefix: c.variable},
		token.String:       {prefix: c.stringLiteral},
		token.Number:       {prefix: c.number},
		token.And:          {infix: c.and_, precedence: precAnd},
		token.Or:           {infix: c.or_, precedence: precOr},
		token.True:         {prefix: c.literal},
		token.False:        {prefix: c.literal},
		token.None:         {prefix: c.literal},
		token.This:         {prefix: c.this_},
		token.Super:        {prefix: c.super_},
	}
	return c.rulesTable
}

func (c *Compiler) getRule(k token.Kind) parseRule {
	if r, ok := c.rules()[k]; ok {
		return r
	}
	return parseRule{}
}

func (c *Compiler) expression() {
	c.parsePrecedence(precAssignment)
}

func (c *Compiler) parsePrecedence(prec precedence) {
	c.advance()
	prefix := c.getRule(c.previous.Kind).prefix
	if prefix == nil {
		c.error("Expect expression.")
		return
	}

	canAssign := prec <= precAssignment
	prefix(canAssign)

	for prec <= c.getRule(c.current.Kind).precedence {
		c.advance()
		infix := c.getRule(c.previous.Kind).infix
		infix(canAssign)
	}

	if canAssign && c.matchAssignOp() {
		c.error("Invalid assignment target.")
	}
}

// matchAssignOp consumes a trailing assignment-family operator that
// nothing claimed, purely so parsePrecedence can flag it as invalid.
func (c *Compiler) matchAssignOp() bool {
	switch c.current.Kind {
	case token.Equal, token.PlusEqual, token.MinusEqual, token.StarEqual, token.SlashEqual:
		c.advance()
		return true
	}
	return false
}

func (c *Compiler) number(canAssign bool) {
	v, _ := strconv.ParseFloat(c.previous.Source, 64)
	c.emitConstant(v)
}

func (c *Compiler) stringLiteral(canAssign bool) {
	raw := c.previous.Source
	c.emitConstant(raw[1 : len(raw)-1])
}

func (c *Compiler) literal(canAssign bool) {
	switch c.previous.Kind {
	case token.True:
		c.emitByte(byte(bytecode.OpTrue))
	case token.False:
		c.emitByte(byte(bytecode.OpFalse))
	case token.None:
		c.emitByte(byte(bytecode.OpNone))
	}
}

func (c *Compiler) grouping(canAssign bool) {
	c.expression()
	c.consume(token.RightParen, "Expect ')' after expression.")
}

func (c *Compiler) unary(canAssign bool) {
	operator := c.previous.Kind
	c.parsePrecedence(precUnary)
	switch operator {
	case token.Bang:
		c.emitByte(byte(bytecode.OpNot))
	case token.Minus:
		c.emitByte(byte(bytecode.OpNegate))
	}
}

func (c *Compiler) binary(canAssign bool) {
	operator := c.previous.Kind
	rule := c.getRule(operator)
	c.parsePrecedence(rule.precedence + 1)

	switch operator {
	case token.Plus:
		c.emitByte(byte(bytecode.OpAdd))
	case token.Minus:
		c.emitByte(byte(bytecode.OpSubtract))
	case token.Star:
		c.emitByte(byte(bytecode.OpMultiply))
	case token.Slash:
		c.emitByte(byte(bytecode.OpDivide))
	case token.EqualEqual:
		c.emitByte(byte(bytecode.OpEqual))
	case token.BangEqual:
		c.emitByte(byte(bytecode.OpNotEqual))
	case token.Greater:
		c.emitByte(byte(bytecode.OpGreater))
	case token.GreaterEqual:
		c.emitByte(byte(bytecode.OpGreaterEqual))
	case token.Less:
		c.emitByte(byte(bytecode.OpLess))
	case token.LessEqual:
		c.emitByte(byte(bytecode.OpLessEqual))
	}
}

func (c *Compiler) and_(canAssign bool) {
	endJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitByte(byte(bytecode.OpPop))
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or_(canAssign bool) {
	elseJump := c.emitJump(bytecode.OpJumpIfFalse)
	endJump := c.emitJump(bytecode.OpJump)
	c.patchJump(elseJump)
	c.emitByte(byte(bytecode.OpPop))
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func (c *Compiler) call(canAssign bool) {
	argc := c.argumentList()
	c.emitBytes(byte(bytecode.OpCall), byte(argc))
}

func (c *Compiler) argumentList() int {
	argc := 0
	if !c.check(token.RightParen) {
		for {
			c.expression()
			if argc == 255 {
				c.error("Can't have more than 255 arguments.")
			}
			argc++
			if !c.match(token.Comma) {
				break
			}
		}
	}
	c.consume(token.RightParen, "Expect ')' after arguments.")
	return argc
}

// dot compiles a property access, assignment, or fused method-invoke
// expression. Compound assignment operators (+=, -=, ...) are not
// supported on properties: there is no stack-duplication opcode to
// re-read the receiver after evaluating it once, so a compound operator
// following a property access is left unconsumed here; parsePrecedence
// then consumes it and reports "Invalid assignment target.".
func (c *Compiler) dot(canAssign bool) {
	c.consume(token.Identifier, "Expect property name after '.'.")
	name := c.identifierConstant(c.previous.Source)

	switch {
	case canAssign && c.match(token.Equal):
		c.expression()
		c.emitBytes(byte(bytecode.OpSetProperty), name)
	case c.match(token.LeftParen):
		argc := c.argumentList()
		c.emitBytes(byte(bytecode.OpInvoke), name)
		c.emitByte(byte(argc))
	default:
		c.emitBytes(byte(bytecode.OpGetProperty), name)
	}
}

func (c *Compiler) this_(canAssign bool) {
	if c.cc == nil {
		c.error("Can't use 'this' outside of a class.")
		return
	}
	c.namedVariable(token.Token{Kind: token.Identifier, Source: "this", Line: c.previous.Line}, false)
}

func (c *Compiler) super_(canAssign bool) {
	if c.cc == nil {
		c.error("Can't use 'super' outside of a class.")
	} else if !c.cc.hasSuperclass {
		c.error("Can't use 'super' in a class with no superclass.")
	}

	c.consume(token.Dot, "Expect '.' after 'super'.")
	c.consume(token.Identifier, "Expect superclass method name.")
	name := c.identifierConstant(c.previous.Source)

	c.namedVariable(token.Token{Kind: token.Identifier, Source: "this", Line: c.previous.Line}, false)
	c.namedVariable(token.Token{Kind: token.Identifier, Source: "super", Line: c.previous.Line}, false)
	c.emitBytes(byte(bytecode.OpGetSuper), name)
}

// variable compiles a bare-identifier reference, assignment, or
// compound-assignment to a local, upvalue, or global.
func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previous, canAssign)
}

func (c *Compiler) namedVariable(name token.Token, canAssign bool) {
	var getOp, setOp bytecode.OpCode
	var arg int

	if slot := resolveLocal(c, c.fc, name.Source); slot != -1 {
		getOp, setOp, arg = bytecode.OpGetLocal, bytecode.OpSetLocal, slot
	} else if up := resolveUpvalue(c, c.fc, name.Source); up != -1 {
		getOp, setOp, arg = bytecode.OpGetUpValue, bytecode.OpSetUpValue, up
	} else {
		idx := int(c.identifierConstant(name.Source))
		getOp, setOp, arg = bytecode.OpGetGlobal, bytecode.OpSetGlobal, idx
	}

	switch {
	case canAssign && c.match(token.Equal):
		c.expression()
		c.emitBytes(byte(setOp), byte(arg))
	case canAssign && c.matchCompoundOp():
		op := c.previous.Kind
		c.emitBytes(byte(getOp), byte(arg))
		c.expression()
		switch op {
		case token.PlusEqual:
			c.emitByte(byte(bytecode.OpAdd))
		case token.MinusEqual:
			c.emitByte(byte(bytecode.OpSubtract))
		case token.StarEqual:
			c.emitByte(byte(bytecode.OpMultiply))
		case token.SlashEqual:
			c.emitByte(byte(bytecode.OpDivide))
		}
		c.emitBytes(byte(setOp), byte(arg))
	default:
		c.emitBytes(byte(getOp), byte(arg))
	}
}

func (c *Compiler) matchCompoundOp() bool {
	switch c.current.Kind {
	case token.PlusEqual, token.MinusEqual, token.StarEqual, token.SlashEqual:
		c.advance()
		return true
	}
	return false
}
