// Package bytecode defines the compiled-code model shared by the
// compiler and the virtual machine: chunks, constant pools, function
// prototypes, and line-number bookkeeping.
package bytecode

import "github.com/google/uuid"

// MaxConstants is the largest number of entries a single chunk's constant
// pool may hold; the constant operand is a single byte.
const MaxConstants = 256

// Chunk is an ordered byte vector of instructions paired with a
// de-duplicated constant pool and a line table.
type Chunk struct {
	// ID stamps each compiled chunk with a stable identity, used only to
	// disambiguate chunks in diagnostics/trace logs across recompilation
	// of the same source text (e.g. a REPL re-evaluating a script).
	ID uuid.UUID

	Code   []byte
	Consts []any
	lines  []lineEntry
}

type lineEntry struct {
	offset int
	line   int
}

// NewChunk returns an empty chunk ready for emission.
func NewChunk() *Chunk {
	return &Chunk{ID: uuid.New()}
}

// WriteByte appends a single byte, recording line if it starts a new line.
func (c *Chunk) WriteByte(b byte, line int) int {
	offset := len(c.Code)
	c.Code = append(c.Code, b)
	if len(c.lines) == 0 || c.lines[len(c.lines)-1].line != line {
		c.lines = append(c.lines, lineEntry{offset: offset, line: line})
	}
	return offset
}

// GetLine returns the line of the last recorded entry (entries are kept
// in offset order) whose offset is <= k, or 0 if there is none.
func (c *Chunk) GetLine(k int) int {
	line := 0
	for _, e := range c.lines {
		if e.offset > k {
			break
		}
		line = e.line
	}
	return line
}

// AddConstant appends v to the constant pool, de-duplicating numeric and
// string values by structural equality; other kinds are appended
// unconditionally. Returns the constant's index, or an error if the pool
// is already at MaxConstants.
func (c *Chunk) AddConstant(v any) (int, error) {
	switch val := v.(type) {
	case float64:
		for i, existing := range c.Consts {
			if n, ok := existing.(float64); ok && n == val {
				return i, nil
			}
		}
	case string:
		for i, existing := range c.Consts {
			if s, ok := existing.(string); ok && s == val {
				return i, nil
			}
		}
	}
	if len(c.Consts) >= MaxConstants {
		return 0, errTooManyConstants
	}
	c.Consts = append(c.Consts, v)
	return len(c.Consts) - 1, nil
}

var errTooManyConstants = chunkError("too many constants in one chunk")

type chunkError string

func (e chunkError) Error() string { return string(e) }

// FunctionProto is the compiled form of a function: its arity, captured
// upvalue layout, name (empty for the top-level script), and chunk.
type FunctionProto struct {
	Name       string
	Arity      int
	UpvalCount int
	Chunk      *Chunk
}

// UpvalueDesc describes one upvalue captured by a nested function, as
// emitted after OpClosure: if IsLocal, capture the enclosing frame's
// local at Index; otherwise reuse the enclosing closure's upvalue at
// Index.
type UpvalueDesc struct {
	IsLocal bool
	Index   uint8
}
