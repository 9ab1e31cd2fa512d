package forecast

import (
	"fmt"
	"strings"
)

// InvalidFormatError reports a price token that could not be parsed as a number.
type InvalidFormatError struct {
	Token string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid price format: %q is not a number", e.Token)
}

// InvalidInputError reports a well-formed request the forecaster cannot
// serve: a price series shorter than the context window, or a non-positive
// step count. Distinguished from server-side failures so callers can report
// it as a caller fault.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string { return e.Reason }

// ModelNotFoundError reports that no candidate artifact resolved in a repository.
// It carries the remote file listing for diagnostics.
type ModelNotFoundError struct {
	Repo      string
	Available []string
	LastErr   error
}

func (e *ModelNotFoundError) Error() string {
	msg := fmt.Sprintf("no model file found in %s", e.Repo)
	if len(e.Available) > 0 {
		msg += fmt.Sprintf("; available files: %s", strings.Join(e.Available, ", "))
	}
	if e.LastErr != nil {
		msg += fmt.Sprintf("; last error: %v", e.LastErr)
	}
	return msg
}

func (e *ModelNotFoundError) Unwrap() error { return e.LastErr }

// MissingDependencyError reports an absent optional runtime.
type MissingDependencyError struct {
	Package string
	Hint    string
}

func (e *MissingDependencyError) Error() string {
	msg := fmt.Sprintf("required dependency %s is not available", e.Package)
	if e.Hint != "" {
		msg += ": " + e.Hint
	}
	return msg
}

// ArchitectureMismatchError reports a checkpoint whose tensors do not fit the
// target architecture. Missing or extra keys are tolerated by the loader; this
// error is reserved for keys that are present with an incompatible shape.
type ArchitectureMismatchError struct {
	Key string
	Err error
}

func (e *ArchitectureMismatchError) Error() string {
	return fmt.Sprintf("architecture mismatch at %s: %v", e.Key, e.Err)
}

func (e *ArchitectureMismatchError) Unwrap() error { return e.Err }

// PredictionFailedError wraps an inference-time failure.
type PredictionFailedError struct {
	Err error
}

func (e *PredictionFailedError) Error() string {
	return fmt.Sprintf("prediction failed: %v", e.Err)
}

func (e *PredictionFailedError) Unwrap() error { return e.Err }
