package compiler

import (
	"fmt"
	"strings"

	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError is a ruleset error at a CUE source position.
// Field is the offending field, relative to the rule or scheduler block.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if !e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s",
		e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
}

// formatCUEError converts the first of a CUE error list into a
// CompileError, keeping its path and position. Errors without a position
// are returned unchanged.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	list := cueerrors.Errors(err)
	if len(list) == 0 {
		return err
	}
	first := list[0]
	positions := cueerrors.Positions(first)
	if len(positions) == 0 {
		return err
	}

	field := "cue"
	if path := first.Path(); len(path) > 0 {
		field = strings.Join(path, ".")
	}
	format, args := first.Msg()
	return &CompileError{
		Field:   field,
		Message: fmt.Sprintf(format, args...),
		Pos:     positions[0],
	}
}
