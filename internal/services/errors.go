package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks requests rejected before any provider call.
	ErrValidation = errors.New("validation error")
	// ErrSubmission marks provider task-creation failures.
	ErrSubmission = errors.New("provider submission error")
	// ErrProviderPoll marks transient failures while checking task status.
	ErrProviderPoll = errors.New("provider poll error")
	// ErrNotFound marks lookups for records that do not exist.
	ErrNotFound = errors.New("not found")
	// ErrTimeout marks provider calls that exceeded their deadline.
	ErrTimeout = errors.New("timeout")
	// ErrZombie marks records stuck in Generating with no task id to poll.
	ErrZombie = errors.New("zombie generation state")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrSubmission
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsValidation reports whether err was rejected before any state mutation.
// Callers use this to decide whether a clip status update is warranted.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound)
}

// Transient reports whether err should be retried on a later cycle rather
// than persisted as a record failure.
func Transient(err error) bool {
	return errors.Is(err, ErrProviderPoll) || errors.Is(err, ErrTimeout)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
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
