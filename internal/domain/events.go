package domain

import "time"

// Event types
const (
	EventTypeTransferCommitted = "transfer.committed"
	EventTypeAccountOpened     = "account.opened"
)

// Aggregate types
const (
	AggregateTypeTransfer = "transfer"
	AggregateTypeAccount  = "account"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// NewTransferCommittedEvent builds the payload emitted once a transfer commits.
func NewTransferCommittedEvent(id, referenceID, senderID, senderAddress, recipientID, recipientAddress string, amount int64, at time.Time) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   referenceID,
		AggregateType: AggregateTypeTransfer,
		EventType:     EventTypeTransferCommitted,
		Payload: map[string]any{
			"reference_id":      referenceID,
			"sender_id":         senderID,
			"sender_address":    senderAddress,
			"recipient_id":      recipientID,
			"recipient_address": recipientAddress,
			"amount":            amount,
			"committed_at":      at.UTC().Format(time.RFC3339Nano),
		},
		CreatedAt: at,
	}
}

// NewAccountOpenedEvent builds the payload emitted when an account is opened.
func NewAccountOpenedEvent(id string, account *Account) *OutboxEvent {
	return &OutboxEvent{
		ID:            id,
		AggregateID:   account.OwnerID,
		AggregateType: AggregateTypeAccount,
		EventType:     EventTypeAccountOpened,
		Payload: map[string]any{
			"owner_id":        account.OwnerID,
			"contact_address": account.ContactAddress,
			"balance":         account.Balance,
		},
		CreatedAt: account.CreatedAt,
	}
}
