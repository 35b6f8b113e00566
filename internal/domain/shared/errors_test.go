package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_KindMatching(t *testing.T) {
	cause := errors.New("connection reset")
	err := WrapError("mentoring", "Update", ErrConflict, "failed to update log", cause)

	assert.True(t, errors.Is(err, ErrConflict))
	assert.True(t, errors.Is(err, cause))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "mentoring.Update: failed to update log: connection reset", err.Error())
}

func TestDomainError_SentinelsWrapped(t *testing.T) {
	err := fmt.Errorf("create report: %w", ErrReportAlreadyExists)

	assert.True(t, IsMethodNotAllowed(err))
	assert.False(t, IsValidation(err))
	assert.True(t, IsNotFound(ErrMentorNotFound))
	assert.True(t, IsForbidden(ErrNotReportOwner))
	assert.True(t, IsValidation(ErrReportNotEditable))
}

func TestIsRetryable_OnlyConflict(t *testing.T) {
	assert.True(t, IsRetryable(ErrStaleReport))
	assert.True(t, IsRetryable(ErrInvalidTransition))
	assert.False(t, IsRetryable(ErrReportNotFound))
	assert.False(t, IsRetryable(ErrImageCapacity))
	assert.False(t, IsRetryable(ErrNotOwningMentor))
}
