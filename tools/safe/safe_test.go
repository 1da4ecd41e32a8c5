package safe

import (
	"testing"
	"time"

	"PTalk/tools/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoRecoversPanic(t *testing.T) {
	got := make(chan error, 1)
	Go("boom", func() { panic("boom") }, func(err error) { got <- err })

	select {
	case err := <-got:
		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.ErrInternal))
	case <-time.After(time.Second):
		t.Fatal("panic handler not called")
	}
}

func TestMustNotNil(t *testing.T) {
	var p *int
	assert.Panics(t, func() { MustNotNil(p, "p") })
	assert.Panics(t, func() { MustNotNil(nil, "nil") })
	assert.NotPanics(t, func() { MustNotNil(1, "int") })
}
