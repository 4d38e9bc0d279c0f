package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrParse marks an extraction payload that did not contain locatable JSON.
	ErrParse = errors.New("parse failure")
	// ErrCollaborator marks a failed call to the vision service or the store.
	ErrCollaborator = errors.New("collaborator failure")
	// ErrDocumentMissing marks an update whose target document does not exist.
	ErrDocumentMissing = errors.New("document missing")
	// ErrValidation marks input that fails a precondition before any call is made.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks missing or unusable configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes action context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, action, operation, message string, err error) error {
	detail := buildDetail(action, operation, message)
	if marker == nil {
		marker = ErrCollaborator
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Recoverable reports whether the error permits the caller to continue with a
// cheaper or alternate path. Parse and collaborator failures abort only the
// action that hit them; a missing document has in-band recovery, since the
// caller can create it instead.
func Recoverable(err error) bool {
	return errors.Is(err, ErrDocumentMissing)
}

func buildDetail(action, operation, message string) string {
	parts := make([]string, 0, 3)
	if action = strings.TrimSpace(action); action != "" {
		parts = append(parts, action)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
