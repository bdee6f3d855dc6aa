package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := InternalError("failed to persist index", cause)

	assert.Equal(t, "failed to persist index: disk full", err.Error())
	assert.ErrorIs(t, err, cause)

	bare := InvalidStateError("index not loaded")
	assert.Equal(t, "index not loaded", bare.Error())
	assert.Nil(t, bare.Unwrap())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(nil))
	assert.Equal(t, KindNotFound, KindOf(NotFoundError("missing", nil)))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain error")))

	// Kind survives fmt wrapping.
	wrapped := fmt.Errorf("outer: %w", TransientError("provider timeout", nil))
	assert.Equal(t, KindTransient, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindTransient))
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(ConfigurationError("no documents", nil)))
	assert.True(t, IsClientError(InvalidStateError("not loaded")))
	assert.True(t, IsClientError(NotFoundError("no index", nil)))

	assert.False(t, IsClientError(TransientError("timeout", nil)))
	assert.False(t, IsClientError(DataIntegrityError("too long", nil)))
	assert.False(t, IsClientError(InternalError("boom", nil)))
	assert.False(t, IsClientError(errors.New("plain")))
	assert.False(t, IsClientError(nil))
}
