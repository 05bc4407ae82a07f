// Package compiler implements the single-pass, precedence-climbing
// parser/compiler: it never builds an intermediate AST, emitting
// bytecode into the current function's chunk as it recognises each
// construct directly off the token stream.
package compiler

import (
	"github.com/JacobC09/JakePlusPlus/internal/bytecode"
	"github.com/JacobC09/JakePlusPlus/internal/diagnostics"
	"github.com/JacobC09/JakePlusPlus/internal/lexer"
	"github.com/JacobC09/JakePlusPlus/internal/token"
)

// funcType distinguishes the kind of function currently being compiled,
// governing implicit-return behaviour and this/return legality.
type funcType int

const (
	typeScript funcType = iota
	typeFunction
	typeMethod
	typeInitializer
)

// localVar is one entry in a funcCompiler's local-variable stack. depth
// -1 marks a local as declared but not yet initialised (its initializer
// is still being compiled).
type localVar struct {
	name       string
	depth      int
	isCaptured bool
}

// funcCompiler tracks the locals, upvalues, and in-progress prototype of
// a single function compilation; enclosing chains to the surrounding
// function so nested functions can resolve outer locals as upvalues.
type funcCompiler struct {
	enclosing  *funcCompiler
	proto      *bytecode.FunctionProto
	fnType     funcType
	locals     []localVar
	scopeDepth int
	upvalues   []bytecode.UpvalueDesc
}

// classCompiler tracks the this/super context while compiling a class
// body; enclosing chains to a surrounding class for nested class bodies.
type classCompiler struct {
	enclosing     *classCompiler
	hasSuperclass bool
}

// Compiler is the single-pass parser/compiler. It owns the lexer, the
// current/previous token pair, and the stack of in-progress function and
// class compilations.
type Compiler struct {
	lex      *lexer.Lexer
	current  token.Token
	previous token.Token

	sink      diagnostics.Sink
	hadError  bool
	panicking bool

	fc *funcCompiler
	cc *classCompiler

	rulesTable map[token.Kind]parseRule
}

// Compile compiles source into a top-level script function. ok is false
// if any syntax error was reported to sink, in which case the returned
// prototype must not be executed.
func Compile(source string, sink diagnostics.Sink) (proto *bytecode.FunctionProto, ok bool) {
	if sink == nil {
		sink = diagnostics.NoopSink()
	}
	c := &Compiler{lex: lexer.New(source), sink: sink}
	c.fc = newFuncCompiler(nil, typeScript, "")
	c.advance()

	for !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.EOF, "Expect end of expression.")

	fnProto := c.endFuncCompiler()
	return fnProto, !c.hadError
}

func newFuncCompiler(enclosing *funcCompiler, fnType funcType, name string) *funcCompiler {
	fc := &funcCompiler{
		enclosing: enclosing,
		fnType:    fnType,
		proto: &bytecode.FunctionProto{
			Name:  name,
			Chunk: bytecode.NewChunk(),
		},
	}
	// Slot 0 is reserved for the callee/receiver; methods name it "this"
	// so lookups resolve it like any other local.
	slot0 := ""
	if fnType == typeMethod || fnType == typeInitializer {
		slot0 = "this"
	}
	fc.locals = append(fc.locals, localVar{name: slot0, depth: 0})
	return fc
}

func (c *Compiler) endFuncCompiler() *bytecode.FunctionProto {
	c.emitReturn()
	proto := c.fc.proto
	proto.UpvalCount = len(c.fc.upvalues)
	c.fc = c.fc.enclosing
	return proto
}

func (c *Compiler) currentChunk() *bytecode.Chunk { return c.fc.proto.Chunk }

// ---- token stream ---------------------------------------------------

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.lex.ScanToken()
		if c.current.Kind != token.Error {
			break
		}
		c.errorAtCurrent(c.current.Source)
	}
}

func (c *Compiler) check(k token.Kind) bool { return c.current.Kind == k }

func (c *Compiler) match(k token.Kind) bool {
	if !c.check(k) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(k token.Kind, message string) {
	if c.current.Kind == k {
		c.advance()
		return
	}
	c.errorAtCurrent(message)
}

// ---- declarations & statements ---------------------------------------

func (c *Compiler) declaration() {
	// Clearing the latch per declaration keeps a cascade of errors
	// within one bad statement down to a single report, without
	// suppressing genuine errors in statements that follow it.
	c.panicking = false
	switch {
	case c.match(token.Class):
		c.classDeclaration()
	case c.match(token.Func):
		c.funcDeclaration()
	case c.match(token.Var):
		c.varDeclaration()
	default:
		c.statement()
	}
}

func (c *Compiler) classDeclaration() {
	c.consume(token.Identifier, "Expect class name.")
	className := c.previous
	nameConstant := c.identifierConstant(className.Source)
	c.declareVariable(className.Source)

	c.emitBytes(byte(bytecode.OpClass), nameConstant)
	c.defineVariable(nameConstant)

	cc := &classCompiler{enclosing: c.cc}
	c.cc = cc

	if c.match(token.Less) {
		c.consume(token.Identifier, "Expect superclass name.")
		if c.previous.Source == className.Source {
			c.error("A class can't inherit from itself.")
		}
		c.namedVariable(c.previous, false)

		c.beginScope()
		c.addLocal("super")
		c.markInitialized()

		c.namedVariable(className, false)
		c.emitByte(byte(bytecode.OpInherit))
		cc.hasSuperclass = true
	}

	c.namedVariable(className, false)
	c.consume(token.LeftBrace, "Expect '{' before class body.")
	for !c.check(token.RightBrace) && !c.check(token.EOF) {
		c.method()
	}
	c.consume(token.RightBrace, "Expect '}' after class body.")
	c.emitByte(byte(bytecode.OpPop))

	if cc.hasSuperclass {
		c.endScope()
	}
	c.cc = cc.enclosing
}

func (c *Compiler) method() {
	c.consume(token.Identifier, "Expect method name.")
	name := c.previous.Source
	constant := c.identifierConstant(name)

	fnType := typeMethod
	if name == "init" {
		fnType = typeInitializer
	}
	c.function(fnType, name)
	c.emitBytes(byte(bytecode.OpMethod), constant)
}

func (c *Compiler) funcDeclaration() {
	global := c.parseVariable("Expect function name.")
	name := c.previous.Source
	c.markInitialized()
	c.function(typeFunction, name)
	c.defineVariable(global)
}

func (c *Compiler) function(fnType funcType, name string) {
	c.fc = newFuncCompiler(c.fc, fnType, name)
	c.beginScope()

	c.consume(token.LeftParen, "Expect '(' after function name.")
	if !c.check(token.RightParen) {
		for {
			c.fc.proto.Arity++
			if c.fc.proto.Arity > 255 {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			paramConstant := c.parseVariable("Expect parameter name.")
			c.defineVariable(paramConstant)
			if !c.match(token.Comma) {
				break
			}
		}
	}
	c.consume(token.RightParen, "Expect ')' after parameters.")
	c.consume(token.LeftBrace, "Expect '{' before function body.")
	c.block()

	upvalues := c.fc.upvalues
	proto := c.endFuncCompiler()

	constant, err := c.currentChunk().AddConstant(proto)
	c.checkConstErr(err)
	c.emitBytes(byte(bytecode.OpClosure), byte(constant))
	for _, up := range upvalues {
		if up.IsLocal {
			c.emitByte(1)
		} else {
			c.emitByte(0)
		}
		c.emitByte(up.Index)
	}
}

func (c *Compiler) varDeclaration() {
	global := c.parseVariable("Expect variable name.")
	if c.match(token.Equal) {
		c.expression()
	} else {
		c.emitByte(byte(bytecode.OpNone))
	}
	c.consume(token.Semicolon, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.Print):
		c.printStatement()
	case c.match(token.For):
		c.forStatement()
	case c.match(token.If):
		c.ifStatement()
	case c.match(token.Return):
		c.returnStatement()
	case c.match(token.While):
		c.whileStatement()
	case c.match(token.LeftBrace):
		c.beginScope()
		c.block()
		c.endScope()
	case c.match(token.Semicolon):
		// empty statement
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) block() {
	for !c.check(token.RightBrace) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RightBrace, "Expect '}' after block.")
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.Semicolon, "Expect ';' after value.")
	c.emitByte(byte(bytecode.OpPrint))
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.Semicolon, "Expect ';' after expression.")
	c.emitByte(byte(bytecode.OpPop))
}

func (c *Compiler) returnStatement() {
	if c.fc.fnType == typeScript {
		c.error("Can't return from top-level code.")
	}
	if c.match(token.Semicolon) {
		c.emitReturn()
		return
	}
	if c.fc.fnType == typeInitializer {
		c.error("Can't return a value from an initializer.")
	}
	c.expression()
	c.consume(token.Semicolon, "Expect ';' after return value.")
	c.emitByte(byte(bytecode.OpReturn))
}

func (c *Compiler) ifStatement() {
	c.consume(token.LeftParen, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RightParen, "Expect ')' after condition.")

	thenJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitByte(byte(bytecode.OpPop))
	c.statement()

	elseJump := c.emitJump(bytecode.OpJump)
	c.patchJump(thenJump)
	c.emitByte(byte(bytecode.OpPop))

	if c.match(token.Else) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.currentChunk().Code)
	c.consume(token.LeftParen, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RightParen, "Expect ')' after condition.")

	exitJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitByte(byte(bytecode.OpPop))
	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitByte(byte(bytecode.OpPop))
}

func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(token.LeftParen, "Expect '(' after 'for'.")

	switch {
	case c.match(token.Semicolon):
		// no initializer
	case c.match(token.Var):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := len(c.currentChunk().Code)
	exitJump := -1
	if !c.match(token.Semicolon) {
		c.expression()
		c.consume(token.Semicolon, "Expect ';' after loop condition.")
		exitJump = c.emitJump(bytecode.OpJumpIfFalse)
		c.emitByte(byte(bytecode.OpPop))
	}

	if !c.match(token.RightParen) {
		bodyJump := c.emitJump(bytecode.OpJump)
		incrementStart := len(c.currentChunk().Code)
		c.expression()
		c.emitByte(byte(bytecode.OpPop))
		c.consume(token.RightParen, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrementStart
		c.patchJump(bodyJump)
	}

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitByte(byte(bytecode.OpPop))
	}
	c.endScope()
}
