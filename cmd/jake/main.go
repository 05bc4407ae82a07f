// Command jake is the CLI collaborator for the interpreter: it reads a
// script file from disk and runs it, formatting diagnostics to stderr
// and print output to stdout.
package main

import (
	"fmt"
	"os"

	jake "github.com/JacobC09/JakePlusPlus"
)

const defaultScript = "../code.jake"

func main() {
	path, err := scriptPath(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(64)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jake: could not open %q: %v\n", path, err)
		os.Exit(74)
	}

	if jake.Interpret(string(source)) != jake.Success {
		os.Exit(1)
	}
}

// scriptPath resolves the file to run per the CLI contract: no
// arguments reads the default script, one argument reads that path,
// and anything more is a usage error.
func scriptPath(args []string) (string, error) {
	switch len(args) {
	case 0:
		return defaultScript, nil
	case 1:
		return args[0], nil
	default:
		return "", fmt.Errorf("usage: jake [script]")
	}
}
