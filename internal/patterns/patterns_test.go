package patterns

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestCircuitBreakerTrips(t *testing.T) {
	cb := NewCircuitBreaker("test-trip", "patterns-test", DefaultBreakerSettings())
	assert.Equal(t, 0, cb.GetStateValue())

	for i := 0; i < 3; i++ {
		_, err := cb.Execute(func() (interface{}, error) { return nil, errBoom })
		assert.ErrorIs(t, err, errBoom)
	}

	assert.Equal(t, "open", cb.GetState())
	assert.Equal(t, 1, cb.GetStateValue())

	called := false
	_, err := cb.Execute(func() (interface{}, error) {
		called = true
		return nil, nil
	})
	assert.False(t, called)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "test-trip")
}

func TestCircuitBreakerToleratesSparseFailures(t *testing.T) {
	cb := NewCircuitBreaker("test-sparse", "patterns-test", DefaultBreakerSettings())

	ok := func() (interface{}, error) { return "ok", nil }
	fail := func() (interface{}, error) { return nil, errBoom }

	for _, fn := range []func() (interface{}, error){ok, fail, ok, fail, ok} {
		_, _ = cb.Execute(fn)
	}
	assert.Equal(t, 0, cb.GetStateValue())

	res, err := cb.Execute(ok)
	require.NoError(t, err)
	assert.Equal(t, "ok", res)
}

func TestCircuitBreakerHalfOpen(t *testing.T) {
	settings := DefaultBreakerSettings()
	settings.Timeout = 20 * time.Millisecond
	cb := NewCircuitBreaker("test-half-open", "patterns-test", settings)

	for i := 0; i < 3; i++ {
		_, _ = cb.Execute(func() (interface{}, error) { return nil, errBoom })
	}
	require.Equal(t, 1, cb.GetStateValue())

	time.Sleep(40 * time.Millisecond)
	assert.Equal(t, 2, cb.GetStateValue())

	for i := 0; i < int(settings.MaxRequests); i++ {
		_, err := cb.Execute(func() (interface{}, error) { return nil, nil })
		require.NoError(t, err)
	}
	assert.Equal(t, 0, cb.GetStateValue())
}

func TestBulkheadRejectsWhenFull(t *testing.T) {
	b := NewBulkhead(1, "test", "patterns-test")
	b.wait = 20 * time.Millisecond
	assert.Equal(t, "test", b.GetName())

	release := make(chan struct{})
	started := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = b.Execute(context.Background(), func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started

	err := b.Execute(context.Background(), func() error { return nil })
	assert.ErrorIs(t, err, ErrUnavailable)

	close(release)
	wg.Wait()

	assert.NoError(t, b.Execute(context.Background(), func() error { return nil }))
	assert.ErrorIs(t, b.Execute(context.Background(), func() error { return errBoom }), errBoom)
}

func TestBulkheadHonoursContext(t *testing.T) {
	b := NewBulkhead(1, "ctx", "patterns-test")
	b.semaphore <- struct{}{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.Execute(ctx, func() error { return nil })
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), context.Canceled.Error())
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, ok := ctx.Deadline()
	assert.True(t, ok)

	ctx2, cancel2 := WithTimeout(context.Background(), 0)
	defer cancel2()
	_, ok = ctx2.Deadline()
	assert.False(t, ok)
}
