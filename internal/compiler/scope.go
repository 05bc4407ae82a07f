package compiler

import (
	"github.com/JacobC09/JakePlusPlus/internal/bytecode"
	"github.com/JacobC09/JakePlusPlus/internal/token"
)

// beginScope enters a new lexical block within the current function.
func (c *Compiler) beginScope() {
	c.fc.scopeDepth++
}

// endScope leaves the current block, emitting CloseUpValue for any local
// that outlived it as an upvalue cell and Pop for the rest.
func (c *Compiler) endScope() {
	c.fc.scopeDepth--
	locals := c.fc.locals
	for len(locals) > 0 && locals[len(locals)-1].depth > c.fc.scopeDepth {
		last := locals[len(locals)-1]
		if last.isCaptured {
			c.emitByte(byte(bytecode.OpCloseUpValue))
		} else {
			c.emitByte(byte(bytecode.OpPop))
		}
		locals = locals[:len(locals)-1]
	}
	c.fc.locals = locals
}

// declareVariable registers name as a local in the current scope,
// rejecting a duplicate declaration within the same block. At global
// scope this is a no-op: globals are resolved dynamically by name.
func (c *Compiler) declareVariable(name string) {
	if c.fc.scopeDepth == 0 {
		return
	}
	for i := len(c.fc.locals) - 1; i >= 0; i-- {
		local := c.fc.locals[i]
		if local.depth != -1 && local.depth < c.fc.scopeDepth {
			break
		}
		if local.name == name {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(name)
}

// addLocal appends a new, not-yet-initialized local to the current
// function, enforcing the per-function local-count limit.
func (c *Compiler) addLocal(name string) {
	if len(c.fc.locals) >= 256 {
		c.error("Too many local variables in function.")
		return
	}
	c.fc.locals = append(c.fc.locals, localVar{name: name, depth: -1})
}

// markInitialized marks the most recently declared local as usable. At
// global scope it is a no-op (globals have no "depth" to fix up).
func (c *Compiler) markInitialized() {
	if c.fc.scopeDepth == 0 {
		return
	}
	c.fc.locals[len(c.fc.locals)-1].depth = c.fc.scopeDepth
}

// parseVariable consumes an identifier and declares it; it returns the
// constant-pool index of its name (only meaningful for a global — at
// local scope it is unused by the caller).
func (c *Compiler) parseVariable(message string) byte {
	c.consume(token.Identifier, message)
	name := c.previous.Source
	c.declareVariable(name)
	if c.fc.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(name)
}

// defineVariable finishes a variable declaration: at local scope it
// just marks the local initialized (its value is already on the stack
// in its slot); at global scope it emits DefineGlobal.
func (c *Compiler) defineVariable(global byte) {
	if c.fc.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitBytes(byte(bytecode.OpDefineGlobal), global)
}

// resolveLocal searches fc's locals from innermost to outermost,
// reporting an error if name refers to itself mid-initialization.
func resolveLocal(c *Compiler, fc *funcCompiler, name string) int {
	for i := len(fc.locals) - 1; i >= 0; i-- {
		if fc.locals[i].name == name {
			if fc.locals[i].depth == -1 {
				c.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue walks the enclosing function chain to find name as an
// outer local (or an outer upvalue), threading an upvalue descriptor
// through every intermediate function so each nested closure captures
// it directly from its immediate parent.
func resolveUpvalue(c *Compiler, fc *funcCompiler, name string) int {
	if fc.enclosing == nil {
		return -1
	}
	if local := resolveLocal(c, fc.enclosing, name); local != -1 {
		fc.enclosing.locals[local].isCaptured = true
		return addUpvalue(c, fc, uint8(local), true)
	}
	if up := resolveUpvalue(c, fc.enclosing, name); up != -1 {
		return addUpvalue(c, fc, uint8(up), false)
	}
	return -1
}

// addUpvalue records (or reuses) an upvalue descriptor in fc, enforcing
// the per-function upvalue-count limit.
func addUpvalue(c *Compiler, fc *funcCompiler, index uint8, isLocal bool) int {
	for i, up := range fc.upvalues {
		if up.Index == index && up.IsLocal == isLocal {
			return i
		}
	}
	if len(fc.upvalues) >= 256 {
		c.error("Too many closure variables in function.")
		return 0
	}
	fc.upvalues = append(fc.upvalues, bytecode.UpvalueDesc{IsLocal: isLocal, Index: index})
	return len(fc.upvalues) - 1
}
