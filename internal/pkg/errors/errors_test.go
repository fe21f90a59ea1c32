package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	err := fmt.Errorf("load: %w", NotFound("requisite.get", "requisite 42"))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrAlreadyExists))
	assert.True(t, IsCode(err, CodeNotFound))
	assert.Equal(t, CodeNotFound, CodeOf(err))
	assert.Equal(t, "requisite.get: requisite 42 (not_found)", errors.Unwrap(err).Error())

	dup := AlreadyExists("requisite.create", "key taken")
	assert.True(t, errors.Is(dup, ErrAlreadyExists))

	assert.Nil(t, Wrap(CodeInternal, "op", nil))
	cause := errors.New("boom")
	wrapped := Wrap(CodeRetryable, "op", cause)
	assert.True(t, errors.Is(wrapped, cause))
	assert.Equal(t, Code(""), CodeOf(cause))
}
