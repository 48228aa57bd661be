package narrative

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindDuplicateName, KindOf(NewError(KindDuplicateName, "world %q already exists", "terra novia")))
	assert.Equal(t, KindInternal, KindOf(errors.New("driver: bad connection")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestKindOfSeesThroughWrapping(t *testing.T) {
	cause := NewError(KindMemoryUnavailable, "lore index unreachable")
	wrapped := fmt.Errorf("query fragments: %w", cause)
	assert.Equal(t, KindMemoryUnavailable, KindOf(wrapped))
}

func TestErrorsIsMatchesByKind(t *testing.T) {
	err := NewError(KindStateConflict, "no outstanding prompt for this session")
	assert.True(t, errors.Is(err, ErrStateConflict))
	assert.False(t, errors.Is(err, ErrNotFound))

	wrapped := fmt.Errorf("register answer: %w", err)
	assert.True(t, errors.Is(wrapped, ErrStateConflict))
}

func TestWrapErrorKeepsCauseReachable(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := WrapError(KindMemoryUnavailable, cause, "query fragments")

	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "MemoryUnavailableError")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestErrorStringWithoutCause(t *testing.T) {
	err := NewError(KindValidation, "missing required field world_id")
	assert.Equal(t, "ValidationError: missing required field world_id", err.Error())
}
