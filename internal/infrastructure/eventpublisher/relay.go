package eventpublisher

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/metrics"
	"github.com/iho/walletledger/internal/usecase"
)

// Publisher delivers a committed outbox event to an external system.
type Publisher interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

// Config for Relay.
type Config struct {
	OutboxRepo usecase.OutboxRepository
	Publisher  Publisher
	Metrics    *metrics.Metrics
	Logger     *zerolog.Logger
	BatchSize  int
	Interval   time.Duration
	// MaxBatches caps how many full batches one tick drains.
	MaxBatches int
	// Retention is how long published events are kept. Zero keeps them forever.
	Retention time.Duration
}

// Relay moves committed outbox events to a Publisher. Delivery is at least
// once: an event published but not marked is sent again on the next tick.
type Relay struct {
	outbox     usecase.OutboxRepository
	publisher  Publisher
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	batchSize  int
	maxBatches int
	interval   time.Duration
	retention  time.Duration
	now        func() time.Time
}

type tickResult struct {
	published int
	failed    int
}

// NewRelay creates a Relay, filling unset sizes and intervals with defaults.
func NewRelay(cfg Config) *Relay {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxBatches <= 0 {
		cfg.MaxBatches = 10
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Relay{
		outbox:     cfg.OutboxRepo,
		publisher:  cfg.Publisher,
		metrics:    cfg.Metrics,
		logger:     logger.With().Str("component", "outbox-relay").Logger(),
		batchSize:  cfg.BatchSize,
		maxBatches: cfg.MaxBatches,
		interval:   cfg.Interval,
		retention:  cfg.Retention,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Start relays events every interval until ctx is cancelled.
func (r *Relay) Start(ctx context.Context) error {
	r.logger.Info().
		Int("batch_size", r.batchSize).
		Dur("interval", r.interval).
		Msg("outbox relay started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.runTick(ctx)

		select {
		case <-ctx.Done():
			r.logger.Info().Msg("outbox relay stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (r *Relay) runTick(ctx context.Context) {
	res, err := r.tick(ctx)
	if err != nil && ctx.Err() == nil {
		r.logger.Error().Err(err).Msg("outbox relay tick failed")
	}
	if res.published > 0 || res.failed > 0 {
		r.logger.Info().
			Int("published", res.published).
			Int("failed", res.failed).
			Msg("outbox relay tick")
	}
}

// tick drains full batches until the outbox is empty, a delivery fails or
// maxBatches is reached, then purges old published events.
func (r *Relay) tick(ctx context.Context) (tickResult, error) {
	var total tickResult

	for i := 0; i < r.maxBatches; i++ {
		res, fetched, err := r.relayBatch(ctx)
		total.published += res.published
		total.failed += res.failed
		if err != nil {
			return total, err
		}
		if fetched < r.batchSize || res.failed > 0 {
			break
		}
	}

	if r.retention > 0 {
		if err := r.outbox.DeletePublished(ctx, r.now().Add(-r.retention)); err != nil {
			r.logger.Warn().Err(err).Msg("failed to delete published events")
		}
	}

	return total, nil
}

func (r *Relay) relayBatch(ctx context.Context) (tickResult, int, error) {
	var res tickResult

	events, err := r.outbox.GetUnpublished(ctx, r.batchSize)
	if err != nil {
		return res, 0, err
	}

	for _, event := range events {
		if err := r.publisher.Publish(ctx, event); err != nil {
			res.failed++
			r.observe("error")
			r.logger.Error().
				Err(err).
				Str("event_id", event.ID).
				Str("event_type", event.EventType).
				Msg("failed to publish event")
			continue
		}

		if err := r.outbox.MarkPublished(ctx, event.ID, r.now()); err != nil {
			// Published but unmarked; it goes out again next tick.
			res.failed++
			r.observe("unmarked")
			r.logger.Error().Err(err).Str("event_id", event.ID).Msg("failed to mark event as published")
			continue
		}

		res.published++
		r.observe("published")
	}

	return res, len(events), nil
}

func (r *Relay) observe(result string) {
	if r.metrics != nil {
		r.metrics.OutboxPublished.WithLabelValues(result).Inc()
	}
}
