package inference

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bare pool with inert sessions; no ONNX runtime involved.
func newTestPool(size int) *SessionPool {
	p := &SessionPool{
		sessions: make(chan *ModelSession, size),
		size:     size,
		metrics:  &poolMetrics{},
	}
	for i := 0; i < size; i++ {
		p.sessions <- &ModelSession{}
	}
	return p
}

func TestAcquireRelease(t *testing.T) {
	p := newTestPool(1)

	s, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)

	m := p.Metrics()
	assert.Equal(t, 1, m.InUse)
	assert.Equal(t, int64(1), m.TotalAcquired)

	p.Release(s)
	m = p.Metrics()
	assert.Equal(t, 0, m.InUse)
	assert.Equal(t, int64(1), m.TotalReleased)
}

func TestAcquireAfterDestroy(t *testing.T) {
	p := newTestPool(1)
	p.Destroy()

	_, err := p.Acquire(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionUnavailable)
}

func TestReleaseAfterDestroyDoesNotPanic(t *testing.T) {
	p := newTestPool(1)

	s, err := p.Acquire(context.Background())
	require.NoError(t, err)

	p.Destroy()

	assert.NotPanics(t, func() { p.Release(s) })
}

func TestAcquireCanceledContext(t *testing.T) {
	p := newTestPool(1)
	held, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer p.Release(held)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = p.Acquire(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
