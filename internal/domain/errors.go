package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound signals that an operation referenced a nonexistent record.
// Callers performing lifecycle transitions translate it into a reported
// outcome rather than a hard failure, since racing against a concurrent
// delete is expected and benign.
var ErrNotFound = errors.New("record not found")

// GenerationError reports a failed or invalid collaborator response during
// create-story orchestration. Stage identifies which collaborator failed.
type GenerationError struct {
	Stage string // "text" or "image"
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsGenerationError reports whether err wraps a GenerationError.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}
