package logger

import (
	"testing"

	"PTalk/tools/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestSetLevel(t *testing.T) {
	defer func() { _ = SetLevel("debug") }()

	require.NoError(t, SetLevel("warn"))
	assert.Equal(t, zapcore.WarnLevel, level.Level())

	err := SetLevel("loud")
	assert.True(t, errs.Is(err, errs.ErrValidation))
	assert.Equal(t, zapcore.WarnLevel, level.Level())
}
