package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReminderError_Error(t *testing.T) {
	err := InstantInPast("28.07.2020 18:30 has already passed")
	assert.Equal(t, "[INSTANT_IN_PAST] 28.07.2020 18:30 has already passed", err.Error())

	cause := stderrors.New("disk full")
	wrapped := StorageUnavailable(cause)
	assert.Equal(t, "[STORAGE_UNAVAILABLE] reminder storage unavailable: disk full", wrapped.Error())
	assert.True(t, stderrors.Is(wrapped, cause))
}

func TestGetCodeFromError(t *testing.T) {
	assert.Equal(t, ErrCodeSchedulerFailed, GetCodeFromError(SchedulerFailed(nil), ErrCodeInvalidArgument))
	assert.Equal(t, ErrCodeInvalidArgument, GetCodeFromError(stderrors.New("plain"), ErrCodeInvalidArgument))

	wrapped := fmt.Errorf("handler: %w", RateLimitExceeded("slow down"))
	assert.Equal(t, ErrCodeRateLimitExceeded, GetCodeFromError(wrapped, ErrCodeInvalidArgument))
	assert.Equal(t, ErrCodeNotFound, GetCodeFromError(NotFound("reminder 3 not found"), ErrCodeInvalidArgument))
}
