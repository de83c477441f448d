// Package apperror defines the error taxonomy shared by the case lifecycle core.
//
// Three kinds are surfaced to callers:
//
//   - validation: malformed input, correctable by the caller
//   - not found: a referenced case, state or worker does not exist
//   - state: a business rule rejected the request (illegal transition,
//     no active workers, missing initial state, broken case history)
//
// Every error is a *goerrors.Error, so callers can read the category and the
// text code without string matching.
package apperror

import (
	stderrors "errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

const (
	CodeValidation             = "VALIDATION_FAILED"
	CodeNotFound               = "NOT_FOUND"
	CodeTransitionNotPermitted = "TRANSITION_NOT_PERMITTED"
	CodeNoWorkersAvailable     = "NO_WORKERS_AVAILABLE"
	CodeMissingInitialState    = "MISSING_INITIAL_STATE"
	CodeCaseWithoutHistory     = "CASE_WITHOUT_HISTORY"
	CodeWorkerInactive         = "WORKER_INACTIVE"
	CodeCurrentStateUnknown    = "CURRENT_STATE_UNKNOWN"
)

// Validation reports malformed input.
func Validation(format string, args ...any) *goerrors.Error {
	return goerrors.New(fmt.Sprintf(format, args...), goerrors.CategoryValidation).
		WithTextCode(CodeValidation)
}

// NotFound reports a missing entity.
func NotFound(entity string, id any) *goerrors.Error {
	return goerrors.New(fmt.Sprintf("%s not found: %v", entity, id), goerrors.CategoryNotFound).
		WithTextCode(CodeNotFound).
		WithMetadata(map[string]any{"entity": entity, "id": fmt.Sprint(id)})
}

// State reports a business-rule rejection identified by code.
func State(code string, format string, args ...any) *goerrors.Error {
	return goerrors.New(fmt.Sprintf(format, args...), goerrors.CategoryConflict).
		WithTextCode(code)
}

// TransitionNotPermitted names both ends of the rejected move.
func TransitionNotPermitted(module, from, to string) *goerrors.Error {
	return State(CodeTransitionNotPermitted, "transition not permitted from %s to %s", from, to).
		WithMetadata(map[string]any{"module": module, "from": from, "to": to})
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	return hasCategory(err, goerrors.CategoryValidation)
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return hasCategory(err, goerrors.CategoryNotFound)
}

// IsState reports whether err is a business-rule rejection.
func IsState(err error) bool {
	return hasCategory(err, goerrors.CategoryConflict)
}

// Code returns the text code carried by err, or "" for foreign errors.
func Code(err error) string {
	var ge *goerrors.Error
	if stderrors.As(err, &ge) {
		return ge.TextCode
	}
	return ""
}

func hasCategory(err error, category goerrors.Category) bool {
	var ge *goerrors.Error
	if !stderrors.As(err, &ge) {
		return false
	}
	return ge.Category == category
}
