// Package sass describes the contract between qtsass and a style sheet
// compiler: typed values passed to custom functions, import callbacks and
// compile failures.
package sass

import (
	"context"
	"fmt"
)

// Function is custom function callable from style sheet source.
type Function func(args []Value) (Value, error)

// Import is the effective source of a resolved import.
type Import struct {
	Name   string
	Source string
}

// Importer resolves @import name. Returning no imports and no error leaves
// the import to the engine.
type Importer func(name string) ([]Import, error)

// Options for a single compilation.
type Options struct {
	Functions    map[string]Function
	Importer     Importer
	IncludePaths []string
}

// Engine compiles standard style sheet source.
type Engine interface {
	Compile(ctx context.Context, source string, opts Options) (string, error)
}

// CompileError is compilation failure reported by an engine.
type CompileError struct {
	Message string
	Line    int // 1-based, 0 when unknown
	Err     error
}

func (e *CompileError) Error() string {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	return msg
}

func (e *CompileError) Unwrap() error {
	return e.Err
}
