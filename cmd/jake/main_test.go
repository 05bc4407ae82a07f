package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScriptPathDefaultsWithNoArgs(t *testing.T) {
	path, err := scriptPath(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultScript, path)
}

func TestScriptPathUsesSingleArg(t *testing.T) {
	path, err := scriptPath([]string{"hello.jake"})
	require.NoError(t, err)
	assert.Equal(t, "hello.jake", path)
}

func TestScriptPathRejectsExtraArgs(t *testing.T) {
	_, err := scriptPath([]string{"a.jake", "b.jake"})
	assert.Error(t, err)
}
