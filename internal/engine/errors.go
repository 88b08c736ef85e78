package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingParameters means topic, moral or author is unset.
	ErrMissingParameters = errors.New("the topic, moral or author are not set")

	ErrUnknownTier       = errors.New("unknown tier")
	ErrArchiveIndex      = errors.New("archive index out of range")
	ErrInvalidUsageValue = errors.New("usage value must not be negative")

	// ErrCorruptProfile means stored progress has no outline to follow.
	ErrCorruptProfile = errors.New("profile has story progress without a structure")
)

// CompletionError wraps a failed call to the completion provider.
type CompletionError struct {
	Op    string
	Model string
	Err   error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("%s completion with model %s failed: %v", e.Op, e.Model, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}
