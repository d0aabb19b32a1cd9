package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode identifies why a reminder operation failed.
type ErrorCode string

const (
	// ErrCodeInvalidFormat indicates the message has no recognizable task and time.
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	// ErrCodeInstantInPast indicates an explicit date that is not in the future.
	ErrCodeInstantInPast ErrorCode = "INSTANT_IN_PAST"
	// ErrCodeStorageUnavailable indicates the reminder store failed.
	ErrCodeStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE"
	// ErrCodeSchedulerFailed indicates a job could not be armed.
	ErrCodeSchedulerFailed ErrorCode = "SCHEDULER_FAILED"
	// ErrCodeNotFound indicates the owner has no reminder with the requested id.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeRateLimitExceeded indicates the owner sent too many messages.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
	// ErrCodeInvalidArgument indicates malformed request parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)

// ReminderError is a structured error carrying a code for the transport layer.
type ReminderError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ReminderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ReminderError) Unwrap() error {
	return e.Cause
}

// InvalidFormat creates an invalid format error.
func InvalidFormat(cause error) *ReminderError {
	return &ReminderError{Code: ErrCodeInvalidFormat, Message: "cannot parse reminder", Cause: cause}
}

// InstantInPast creates an error for a reminder that would never fire.
func InstantInPast(msg string) *ReminderError {
	return &ReminderError{Code: ErrCodeInstantInPast, Message: msg}
}

// StorageUnavailable creates a storage failure error.
func StorageUnavailable(cause error) *ReminderError {
	return &ReminderError{Code: ErrCodeStorageUnavailable, Message: "reminder storage unavailable", Cause: cause}
}

// SchedulerFailed creates a scheduling failure error.
func SchedulerFailed(cause error) *ReminderError {
	return &ReminderError{Code: ErrCodeSchedulerFailed, Message: "failed to schedule reminder", Cause: cause}
}

// NotFound creates a not found error.
func NotFound(msg string) *ReminderError {
	return &ReminderError{Code: ErrCodeNotFound, Message: msg}
}

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *ReminderError {
	return &ReminderError{Code: ErrCodeRateLimitExceeded, Message: msg}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *ReminderError {
	return &ReminderError{Code: ErrCodeInvalidArgument, Message: msg}
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not a ReminderError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	var reminderErr *ReminderError
	if stderrors.As(err, &reminderErr) {
		return reminderErr.Code
	}
	return defaultCode
}
