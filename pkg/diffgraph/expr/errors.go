package expr

import (
	"errors"
	"fmt"
)

// Sentinel errors for evaluation failures.
var (
	// ErrUndefinedName indicates a name that is neither assigned nor supplied.
	ErrUndefinedName = errors.New("undefined name")

	// ErrUnknownFunction indicates a call to a function that does not exist.
	ErrUnknownFunction = errors.New("unknown function")

	// ErrTypeMismatch indicates a value of the wrong type for an operation.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrArgCount indicates a function called with the wrong number of arguments.
	ErrArgCount = errors.New("wrong number of arguments")

	// ErrEmptyProgram indicates a program with no statements.
	ErrEmptyProgram = errors.New("empty program")
)

// SyntaxError reports a malformed program.
type SyntaxError struct {
	// Line is the 1-based line of the offending token.
	Line int
	// Col is the 1-based column of the offending token.
	Col int
	// Msg describes the problem.
	Msg string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d: %s", e.Line, e.Col, e.Msg)
}
