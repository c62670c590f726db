package domain

import (
	"errors"
	"fmt"
)

var (
	// Extraction failures.
	ErrUnsupportedFormat   = errors.New("unsupported document format")
	ErrRemoteCall          = errors.New("remote extraction call failed")
	ErrUnparseableResponse = errors.New("unparseable model response")

	// Fee assessment failures.
	ErrInvalidRange = errors.New("invalid fee input range")

	// Document generation failures.
	ErrMissingRequiredField = errors.New("missing required field")

	// Draft store failures.
	ErrDraftNotFound     = errors.New("draft not found")
	ErrInvalidTransition = errors.New("invalid draft state transition")
	ErrDuplicateDraft    = errors.New("duplicate draft")

	ErrSubmissionNotFound = errors.New("submission not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrTemporary          = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
