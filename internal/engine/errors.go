package engine

import (
	"errors"
	"fmt"
)

// RuntimeError represents an error detected while committing a day.
//
// RuntimeError includes structured fields for diagnostics and recovery.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Message is a human-readable description.
	Message string

	// ReportDate identifies the affected day (YYYY-MM-DD), if known.
	ReportDate string

	// Key identifies the affected item (for inconsistency errors).
	Key string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeInvalidInput indicates the extract or its date could not be used.
	// Raised before any store mutation.
	ErrCodeInvalidInput RuntimeErrorCode = "INVALID_INPUT"

	// ErrCodeStreakInconsistent indicates snapshot and tracking state have
	// diverged, e.g. a PERSISTING key with no ACTIVE tracking row.
	ErrCodeStreakInconsistent RuntimeErrorCode = "STREAK_INCONSISTENT"

	// ErrCodeLaterDayCommitted indicates a write for a day older than the
	// latest committed day.
	ErrCodeLaterDayCommitted RuntimeErrorCode = "LATER_DAY_COMMITTED"

	// ErrCodeCommitFailed indicates the write transaction failed and was
	// rolled back.
	ErrCodeCommitFailed RuntimeErrorCode = "COMMIT_FAILED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.ReportDate != "" && e.Key != "" {
		msg = fmt.Sprintf("%s (date=%s, key=%s)", msg, e.ReportDate, e.Key)
	} else if e.ReportDate != "" {
		msg = fmt.Sprintf("%s (date=%s)", msg, e.ReportDate)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// hasCode reports whether err wraps a RuntimeError with the given code.
// A COMMIT_FAILED wrapper is looked through, so the original cause of a
// rolled-back transaction is still detectable.
func hasCode(err error, code RuntimeErrorCode) bool {
	for err != nil {
		var re *RuntimeError
		if !errors.As(err, &re) {
			return false
		}
		if re.Code == code {
			return true
		}
		err = re.Err
	}
	return false
}

// IsInputError returns true if the error is an input error.
func IsInputError(err error) bool {
	return hasCode(err, ErrCodeInvalidInput)
}

// IsInconsistencyError returns true if the error is a streak inconsistency.
func IsInconsistencyError(err error) bool {
	return hasCode(err, ErrCodeStreakInconsistent)
}

// IsLaterDayError returns true if the write was refused because a later day
// is already committed.
func IsLaterDayError(err error) bool {
	return hasCode(err, ErrCodeLaterDayCommitted)
}

// IsCommitError returns true if the write transaction was rolled back.
func IsCommitError(err error) bool {
	return hasCode(err, ErrCodeCommitFailed)
}

// NewInputError creates a RuntimeError for an unusable extract.
func NewInputError(message string, err error) *RuntimeError {
	return &RuntimeError{
		Code:    ErrCodeInvalidInput,
		Message: message,
		Err:     err,
	}
}

// NewInconsistencyError creates a RuntimeError for diverged tracking state.
func NewInconsistencyError(reportDate, key, message string) *RuntimeError {
	return &RuntimeError{
		Code:       ErrCodeStreakInconsistent,
		Message:    message,
		ReportDate: reportDate,
		Key:        key,
	}
}

// NewLaterDayError creates a RuntimeError for a refused backfill.
func NewLaterDayError(reportDate, latest string) *RuntimeError {
	return &RuntimeError{
		Code:       ErrCodeLaterDayCommitted,
		Message:    fmt.Sprintf("day %s is already committed", latest),
		ReportDate: reportDate,
	}
}

// NewCommitError wraps a transaction failure.
func NewCommitError(reportDate string, err error) *RuntimeError {
	return &RuntimeError{
		Code:       ErrCodeCommitFailed,
		Message:    "transaction rolled back",
		ReportDate: reportDate,
		Err:        err,
	}
}
