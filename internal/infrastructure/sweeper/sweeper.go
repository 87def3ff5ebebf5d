package sweeper

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/walletledger/internal/infrastructure/metrics"
)

// Purger deletes idempotency records created before a cutoff.
type Purger interface {
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// Retrier re-runs an operation that lost a transient database race.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Sweeper periodically removes idempotency records older than the TTL.
type Sweeper struct {
	purger   Purger
	retrier  Retrier
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
}

// Config for Sweeper. Retrier and Metrics are optional.
type Config struct {
	Purger   Purger
	Retrier  Retrier
	Metrics  *metrics.Metrics
	Logger   *zerolog.Logger
	TTL      time.Duration
	Interval time.Duration
	Clock    func() time.Time
}

// New creates a new Sweeper.
func New(cfg Config) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Minute
	}
	if cfg.Clock == nil {
		cfg.Clock = func() time.Time { return time.Now().UTC() }
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Sweeper{
		purger:   cfg.Purger,
		retrier:  cfg.Retrier,
		metrics:  cfg.Metrics,
		logger:   logger.With().Str("component", "idempotency_sweeper").Logger(),
		ttl:      cfg.TTL,
		interval: cfg.Interval,
		now:      cfg.Clock,
	}
}

// Start sweeps on every tick until ctx is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	s.logger.Info().
		Dur("ttl", s.ttl).
		Dur("interval", s.interval).
		Msg("idempotency sweeper started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("idempotency sweeper shutting down")
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.Error().Err(err).Msg("idempotency sweep failed")
			}
		}
	}
}

// Sweep purges expired records once and returns how many were removed.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.ttl)

	var purged int64
	purge := func() error {
		n, err := s.purger.PurgeExpired(ctx, cutoff)
		if err != nil {
			return err
		}
		purged = n
		return nil
	}

	var err error
	if s.retrier != nil {
		err = s.retrier.Retry(ctx, purge)
	} else {
		err = purge()
	}
	if err != nil {
		return 0, err
	}

	if purged > 0 {
		s.logger.Debug().Int64("purged", purged).Time("cutoff", cutoff).Msg("expired idempotency records removed")
	}
	if s.metrics != nil {
		s.metrics.IdempotencyPurged.Add(float64(purged))
	}

	return purged, nil
}
