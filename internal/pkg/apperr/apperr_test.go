package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errSentinel = errors.New("sentinel")

func TestWrapKeepsSentinelAndKind(t *testing.T) {
	err := Wrap(errSentinel, KindInvalidState, "pay period %d is %s", 7, "closed")

	assert.ErrorIs(t, err, errSentinel)
	assert.Equal(t, KindInvalidState, KindOf(err))
	assert.Equal(t, "pay period 7 is closed", Message(err))
}

func TestKindOfSurvivesFmtWrapping(t *testing.T) {
	err := fmt.Errorf("assign: %w", New(KindAlreadyAssigned, "commission 3 already assigned"))

	assert.True(t, IsKind(err, KindAlreadyAssigned))
	assert.False(t, IsKind(err, KindInvalidState))
}

func TestPlainErrorIsInternal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("db down")))
	assert.Equal(t, "Internal server error", Message(errors.New("db down")))
	assert.False(t, IsKind(nil, KindInternal))
}
