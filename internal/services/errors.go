package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingUpstream marks a stage precondition that is not yet satisfied.
	// It means "not ready", not "broken"; a later pass picks the item up again.
	ErrMissingUpstream = errors.New("missing upstream artifact")
	// ErrCollaborator marks a failure reported by an external collaborator
	// (LLM, transcript platform, TTS, embedding service). Eligible for retry
	// on the next invocation.
	ErrCollaborator = errors.New("collaborator failure")
	// ErrValidation marks an artifact that exists but is structurally invalid.
	// The runner treats the producing stage as not-done and regenerates.
	ErrValidation = errors.New("validation failure")
	// ErrConsistency marks a checkpoint set that violates pipeline order
	// (a later checkpoint present without an earlier one). Never auto-repaired.
	ErrConsistency = errors.New("consistency fault")
	// ErrExhausted marks a mandatory-mode match where every candidate within
	// the search breadth is reuse-capped.
	ErrExhausted = errors.New("candidates exhausted")
	// ErrUnavailable marks a permanent collaborator answer such as "no
	// transcript exists for this video"; retrying will not help.
	ErrUnavailable = errors.New("unavailable")
	// ErrConfiguration marks invalid or incomplete configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrCollaborator
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsItemScoped reports whether an error should abort only the current item.
// Everything except consistency and configuration faults stays item-scoped;
// those two indicate systemic problems and stop the whole batch.
func IsItemScoped(err error) bool {
	if err == nil {
		return true
	}
	return !errors.Is(err, ErrConsistency) && !errors.Is(err, ErrConfiguration)
}

// IsRetryable reports whether re-running the pipeline may succeed without
// operator intervention.
func IsRetryable(err error) bool {
	switch {
	case errors.Is(err, ErrCollaborator):
		return true
	case errors.Is(err, ErrValidation):
		return true
	case errors.Is(err, ErrMissingUpstream):
		return true
	default:
		return false
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
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

// Details extracts the human-readable portion of a wrapped service error for
// progress lines and persisted item errors.
func Details(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, marker := range []error{
		ErrMissingUpstream,
		ErrCollaborator,
		ErrValidation,
		ErrConsistency,
		ErrExhausted,
		ErrUnavailable,
		ErrConfiguration,
	} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			return strings.TrimPrefix(msg, prefix)
		}
	}
	return msg
}
