package inference

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	AcquireTimeout    = 60 * time.Second
	HealthCheckPeriod = 60 * time.Second
)

// ErrSessionUnavailable tags pool-level failures: a closed pool or an
// acquire timeout affects every entry of a batch, not a single image, so
// callers treat it as a whole-request failure rather than a per-entry one.
var ErrSessionUnavailable = errors.New("model session unavailable")

// SessionPool serializes access to model sessions. The matting model is not
// safe for concurrent forward passes, so a forward pass always runs on a
// session held exclusively; with the default pool size of 1 this is a plain
// mutual-exclusion gate, and concurrent batch requests queue behind it.
type SessionPool struct {
	sessions   chan *ModelSession
	size       int
	opts       Options
	mu         sync.Mutex
	closed     bool
	metrics    *poolMetrics
	lastErrors []error
}

type poolMetrics struct {
	mu              sync.RWMutex
	inUse           int
	totalAcquired   int64
	totalReleased   int64
	acquireFailures int64
	waitTime        time.Duration
}

// PoolMetrics is a point-in-time snapshot for the metrics endpoint.
type PoolMetrics struct {
	Size            int
	InUse           int
	TotalAcquired   int64
	TotalReleased   int64
	AcquireFailures int64
}

func NewSessionPool(opts Options) (*SessionPool, error) {
	pool := &SessionPool{
		sessions: make(chan *ModelSession, opts.PoolSize),
		size:     opts.PoolSize,
		opts:     opts,
		metrics:  &poolMetrics{},
	}

	for i := 0; i < opts.PoolSize; i++ {
		session, err := newSession(opts)
		if err != nil {
			pool.Destroy()
			return nil, fmt.Errorf("failed to initialize session %d: %w", i, err)
		}
		pool.sessions <- session
	}

	go pool.healthCheck()

	return pool, nil
}

func (p *SessionPool) Acquire(ctx context.Context) (*ModelSession, error) {
	if p.isClosed() {
		return nil, fmt.Errorf("%w: pool is closed", ErrSessionUnavailable)
	}

	start := time.Now()
	defer func() {
		p.metrics.mu.Lock()
		p.metrics.waitTime += time.Since(start)
		p.metrics.mu.Unlock()
	}()

	select {
	case session := <-p.sessions:
		if session == nil {
			// Receive on the drained, closed channel.
			return nil, fmt.Errorf("%w: pool is closed", ErrSessionUnavailable)
		}
		p.metrics.mu.Lock()
		p.metrics.inUse++
		p.metrics.totalAcquired++
		p.metrics.mu.Unlock()
		return session, nil
	case <-time.After(AcquireTimeout):
		p.metrics.mu.Lock()
		p.metrics.acquireFailures++
		p.metrics.mu.Unlock()
		return nil, fmt.Errorf("%w: timeout waiting for available session", ErrSessionUnavailable)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *SessionPool) Release(session *ModelSession) {
	p.metrics.mu.Lock()
	p.metrics.inUse--
	p.metrics.totalReleased++
	p.metrics.mu.Unlock()

	// The closed check and the send must share p.mu, or a release racing
	// Destroy can send on the closed channel.
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		session.Destroy()
		return
	}
	p.sessions <- session
	p.mu.Unlock()
}

func (p *SessionPool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *SessionPool) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	p.closed = true
	close(p.sessions)

	for session := range p.sessions {
		session.Destroy()
	}
}

func (p *SessionPool) healthCheck() {
	ticker := time.NewTicker(HealthCheckPeriod)
	defer ticker.Stop()

	for range ticker.C {
		if p.isClosed() {
			return
		}

		// Sessions checked out by a running batch still count; only
		// sessions genuinely lost (e.g. released after close) are rebuilt.
		p.metrics.mu.RLock()
		inUse := p.metrics.inUse
		p.metrics.mu.RUnlock()

		alive := len(p.sessions) + inUse
		if alive < p.size {
			p.replenishSessions(p.size - alive)
		}
	}
}

func (p *SessionPool) replenishSessions(count int) {
	for i := 0; i < count; i++ {
		session, err := newSession(p.opts)
		if err != nil {
			p.recordError(err)
			continue
		}
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			session.Destroy()
			return
		}
		p.sessions <- session
		p.mu.Unlock()
	}
}

func (p *SessionPool) recordError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastErrors = append(p.lastErrors, err)
	if len(p.lastErrors) > 10 {
		p.lastErrors = p.lastErrors[1:]
	}
}

func (p *SessionPool) Metrics() PoolMetrics {
	p.metrics.mu.RLock()
	defer p.metrics.mu.RUnlock()
	return PoolMetrics{
		Size:            p.size,
		InUse:           p.metrics.inUse,
		TotalAcquired:   p.metrics.totalAcquired,
		TotalReleased:   p.metrics.totalReleased,
		AcquireFailures: p.metrics.acquireFailures,
	}
}
