package compiler

import (
	"github.com/JacobC09/JakePlusPlus/internal/bytecode"
	"github.com/JacobC09/JakePlusPlus/internal/diagnostics"
	"github.com/JacobC09/JakePlusPlus/internal/token"
)

// ---- emission ---------------------------------------------------------

func (c *Compiler) emitByte(b byte) int {
	return c.currentChunk().WriteByte(b, c.previous.Line)
}

func (c *Compiler) emitBytes(bs ...byte) {
	for _, b := range bs {
		c.emitByte(b)
	}
}

func (c *Compiler) emitReturn() {
	if c.fc.fnType == typeInitializer {
		c.emitBytes(byte(bytecode.OpGetLocal), 0)
	} else {
		c.emitByte(byte(bytecode.OpNone))
	}
	c.emitByte(byte(bytecode.OpReturn))
}

func (c *Compiler) emitConstant(v any) {
	idx, err := c.currentChunk().AddConstant(v)
	c.checkConstErr(err)
	c.emitBytes(byte(bytecode.OpConstant), byte(idx))
}

func (c *Compiler) identifierConstant(name string) byte {
	idx, err := c.currentChunk().AddConstant(name)
	c.checkConstErr(err)
	return byte(idx)
}

func (c *Compiler) checkConstErr(err error) {
	if err != nil {
		c.error(err.Error())
	}
}

// emitJump writes a jump opcode with a placeholder 2-byte distance and
// returns the offset of that placeholder for patchJump to fill in.
func (c *Compiler) emitJump(op bytecode.OpCode) int {
	c.emitByte(byte(op))
	c.emitByte(0xff)
	c.emitByte(0xff)
	return len(c.currentChunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	chunk := c.currentChunk()
	jump := len(chunk.Code) - offset - 2
	if jump > 65535 {
		c.error("Too much code to jump over.")
		return
	}
	chunk.Code[offset] = byte(jump >> 8)
	chunk.Code[offset+1] = byte(jump)
}

// emitLoop emits a backward jump (JumpBack) to loopStart.
func (c *Compiler) emitLoop(loopStart int) {
	c.emitByte(byte(bytecode.OpJumpBack))
	chunk := c.currentChunk()
	offset := len(chunk.Code) - loopStart + 2
	if offset > 65535 {
		c.error("Loop body too large.")
	}
	c.emitByte(byte(offset >> 8))
	c.emitByte(byte(offset))
}

// ---- error reporting ----------------------------------------------------

func (c *Compiler) error(message string) {
	c.errorAt(c.previous, message)
}

func (c *Compiler) errorAtCurrent(message string) {
	c.errorAt(c.current, message)
}

func (c *Compiler) errorAt(tok token.Token, message string) {
	if c.panicking {
		return
	}
	c.panicking = true
	c.hadError = true

	tokenText := ""
	if tok.Kind != token.EOF && tok.Kind != token.Error {
		tokenText = tok.Source
	}
	c.sink.Report(diagnostics.Diagnostic{
		Kind:    diagnostics.SyntaxError,
		Message: message,
		Line:    tok.Line,
		Token:   tokenText,
	})
}
