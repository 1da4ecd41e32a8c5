package errs

import (
	"testing"

	pkgerr "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeErrorMatchesByCode(t *testing.T) {
	err := ErrNotFound.WrapMsg("conversation", "id", "c1")
	require.Error(t, err)

	assert.True(t, Is(err, ErrNotFound))
	assert.False(t, Is(err, ErrValidation))
	assert.Equal(t, NotFoundError, Code(err))
	assert.Contains(t, err.Error(), "id=c1")
}

func TestWrapCauseKeepsCause(t *testing.T) {
	cause := pkgerr.New("connection reset")
	err := ErrPersistence.WrapCause(cause, "append message")

	assert.True(t, Is(err, ErrPersistence))
	assert.True(t, Is(err, cause))
	assert.Contains(t, err.Error(), "connection reset")
}

func TestCodeOfPlainError(t *testing.T) {
	err := New("boom", "k", 1)
	assert.Equal(t, ServerInternalError, Code(err))
	assert.Equal(t, "boom, k=1", err.Error())
	assert.Equal(t, ErrInternal.Msg, Msg(err))
}

func TestWithDetailDoesNotMutate(t *testing.T) {
	d := ErrValidation.WithDetail("from is required")
	assert.Equal(t, "", ErrValidation.Detail)
	assert.Equal(t, "validation error: from is required", Msg(d))
}

func TestErrPanic(t *testing.T) {
	assert.Nil(t, ErrPanic(nil))
	err := ErrPanic("oops")
	assert.Equal(t, ServerInternalError, Code(err))
	assert.Contains(t, err.Error(), "oops")
}
