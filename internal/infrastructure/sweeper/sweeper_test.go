package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/walletledger/internal/infrastructure/metrics"
)

type stubPurger struct {
	calls   int
	cutoffs []time.Time
	results []int64
	errs    []error
}

func (p *stubPurger) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	i := p.calls
	p.calls++
	p.cutoffs = append(p.cutoffs, before)

	var err error
	if i < len(p.errs) {
		err = p.errs[i]
	}
	if err != nil {
		return 0, err
	}

	var n int64
	if i < len(p.results) {
		n = p.results[i]
	}
	return n, nil
}

type onceRetrier struct {
	attempts int
}

func (r *onceRetrier) Retry(ctx context.Context, operation func() error) error {
	for {
		r.attempts++
		err := operation()
		if err == nil || r.attempts >= 2 {
			return err
		}
	}
}

func TestSweepUsesTTLCutoff(t *testing.T) {
	now := time.Date(2024, 5, 2, 12, 0, 0, 0, time.UTC)
	purger := &stubPurger{results: []int64{4}}
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())

	s := New(Config{
		Purger:  purger,
		Metrics: m,
		TTL:     24 * time.Hour,
		Clock:   func() time.Time { return now },
	})

	purged, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), purged)
	require.Len(t, purger.cutoffs, 1)
	assert.Equal(t, now.Add(-24*time.Hour), purger.cutoffs[0])
	assert.Equal(t, float64(4), testutil.ToFloat64(m.IdempotencyPurged))
}

func TestSweepRetriesThroughRetrier(t *testing.T) {
	purger := &stubPurger{
		errs:    []error{errors.New("deadlock detected")},
		results: []int64{0, 2},
	}
	retrier := &onceRetrier{}

	s := New(Config{Purger: purger, Retrier: retrier, TTL: time.Hour})

	purged, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), purged)
	assert.Equal(t, 2, retrier.attempts)
}

func TestSweepReturnsPurgeError(t *testing.T) {
	purger := &stubPurger{errs: []error{errors.New("connection refused")}}
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())

	s := New(Config{Purger: purger, Metrics: m, TTL: time.Hour})

	_, err := s.Sweep(context.Background())
	require.Error(t, err)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.IdempotencyPurged))
}

func TestStartSweepsUntilCancelled(t *testing.T) {
	purger := &stubPurger{}
	s := New(Config{Purger: purger, TTL: time.Hour, Interval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}
