package transport

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnGuard_RunsUnderBurst(t *testing.T) {
	g := newConnGuard("test")
	for i := 0; i < defaultLimiterBurst; i++ {
		assert.NoError(t, g.Guard(func() error { return nil }))
	}
}

func TestConnGuard_ThrottlesPastBurst(t *testing.T) {
	g := newConnGuard("test")
	for i := 0; i < defaultLimiterBurst; i++ {
		_ = g.Guard(func() error { return nil })
	}
	err := g.Guard(func() error { return nil })
	assert.ErrorIs(t, err, ErrConnectionThrottled)
}

func TestConnGuard_PropagatesFnError(t *testing.T) {
	g := newConnGuard("test")
	boom := errors.New("boom")
	err := g.Guard(func() error { return boom })
	assert.ErrorIs(t, err, boom)
}
