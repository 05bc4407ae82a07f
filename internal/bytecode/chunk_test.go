package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteByteRecordsLineOnlyOnChange(t *testing.T) {
	c := NewChunk()
	c.WriteByte(byte(OpPop), 1)
	c.WriteByte(byte(OpPop), 1)
	c.WriteByte(byte(OpReturn), 2)

	assert.Equal(t, 1, c.GetLine(0))
	assert.Equal(t, 1, c.GetLine(1))
	assert.Equal(t, 2, c.GetLine(2))
}

func TestGetLineReturnsZeroBeforeFirstEntry(t *testing.T) {
	c := NewChunk()
	assert.Equal(t, 0, c.GetLine(0))
}

func TestAddConstantDeduplicatesNumbersAndStrings(t *testing.T) {
	c := NewChunk()
	i1, err := c.AddConstant(float64(42))
	require.NoError(t, err)
	i2, err := c.AddConstant(float64(42))
	require.NoError(t, err)
	assert.Equal(t, i1, i2)

	s1, err := c.AddConstant("hi")
	require.NoError(t, err)
	s2, err := c.AddConstant("hi")
	require.NoError(t, err)
	assert.Equal(t, s1, s2)

	assert.NotEqual(t, i1, s1)
}

func TestAddConstantRejectsOverflow(t *testing.T) {
	c := NewChunk()
	for i := 0; i < MaxConstants; i++ {
		_, err := c.AddConstant(float64(i))
		require.NoError(t, err)
	}
	_, err := c.AddConstant(float64(MaxConstants))
	assert.Error(t, err)
}

func TestChunksGetDistinctIDs(t *testing.T) {
	a, b := NewChunk(), NewChunk()
	assert.NotEqual(t, a.ID, b.ID)
}

func TestOpCodeStringNamesKnownOpcodes(t *testing.T) {
	assert.Equal(t, "Add", OpAdd.String())
	assert.Equal(t, "Invoke", OpInvoke.String())
}

func TestOpCodeStringFallsBackForUnknownValue(t *testing.T) {
	assert.Equal(t, "Unknown", OpCode(255).String())
}
