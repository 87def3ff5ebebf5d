package memory

import (
	"context"
	"time"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// Create stages an outbox event in tx.
func (s *Store) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mt, err := s.txFor(tx)
	if err != nil {
		return err
	}
	if mt == nil {
		return ErrForeignTx
	}

	staged := *event
	mt.events = append(mt.events, &staged)

	return nil
}

// GetUnpublished returns up to limit unpublished events in commit order.
func (s *Store) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	events := make([]*domain.OutboxEvent, 0, limit)
	for _, e := range s.outbox {
		if len(events) == limit {
			break
		}
		if !e.Published {
			out := *e
			events = append(events, &out)
		}
	}

	return events, nil
}

// MarkPublished marks an event as published.
func (s *Store) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.outbox {
		if e.ID == id {
			at := publishedAt
			e.Published = true
			e.PublishedAt = &at
			return nil
		}
	}

	return nil
}

// DeletePublished deletes published events older than before.
func (s *Store) DeletePublished(ctx context.Context, before time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.outbox[:0]
	for _, e := range s.outbox {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			continue
		}
		kept = append(kept, e)
	}
	s.outbox = kept

	return nil
}
