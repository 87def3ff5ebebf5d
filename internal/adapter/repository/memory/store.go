// Package memory provides an in-process backend with the same transactional
// semantics as the Postgres adapter. Transactions stage their writes and
// validate account versions when they commit.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

var (
	// ErrTxDone is returned when a finished transaction is used again.
	ErrTxDone = errors.New("memory: transaction already finished")
	// ErrForeignTx is returned when a transaction from another backend is passed in.
	ErrForeignTx = errors.New("memory: transaction does not belong to this store")
	// ErrNoAttempt is returned when finalizing a key that has no attempt in the transaction.
	ErrNoAttempt = errors.New("memory: no idempotent attempt in transaction")
)

// Store implements usecase.LedgerStore, usecase.IdempotencyRegistry,
// usecase.OutboxRepository, usecase.LedgerAuditor and
// usecase.TransactionManager.
type Store struct {
	mu sync.Mutex

	accounts  map[string]*domain.Account
	byAddress map[string]string
	movements map[string][]*domain.Movement
	records   map[domain.IdempotencyKey]*domain.IdempotencyRecord
	reserved  map[domain.IdempotencyKey]*Tx
	outbox    []*domain.OutboxEvent

	ttl time.Duration
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts:  make(map[string]*domain.Account),
		byAddress: make(map[string]string),
		movements: make(map[string][]*domain.Movement),
		records:   make(map[domain.IdempotencyKey]*domain.IdempotencyRecord),
		reserved:  make(map[domain.IdempotencyKey]*Tx),
		ttl:       domain.IdempotencyTTL,
	}
}

// WithTTL overrides the idempotency retention window.
func (s *Store) WithTTL(ttl time.Duration) *Store {
	s.ttl = ttl
	return s
}

// Begin starts a new transaction.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Tx{
		store:    s,
		base:     make(map[string]int64),
		accounts: make(map[string]*domain.Account),
		opened:   make(map[string]bool),
		records:  make(map[domain.IdempotencyKey]*domain.IdempotencyRecord),
	}, nil
}

// Tx stages writes until Commit. It is not safe for concurrent use.
type Tx struct {
	store *Store
	done  bool

	// base holds the committed version each touched account was read at.
	base      map[string]int64
	accounts  map[string]*domain.Account
	opened    map[string]bool
	movements []*domain.Movement
	records   map[domain.IdempotencyKey]*domain.IdempotencyRecord
	events    []*domain.OutboxEvent
}

// Commit validates that no staged account changed underneath and publishes
// every staged write at once.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		t.releaseLocked()
		return err
	}

	for ownerID, version := range t.base {
		current, ok := s.accounts[ownerID]
		if !ok || current.Version != version {
			t.releaseLocked()
			return domain.ErrVersionConflict
		}
	}

	for ownerID := range t.opened {
		acc := t.accounts[ownerID]
		if _, ok := s.accounts[ownerID]; ok {
			t.releaseLocked()
			return domain.ErrAccountExists
		}
		if _, ok := s.byAddress[acc.ContactAddress]; ok {
			t.releaseLocked()
			return domain.ErrAccountExists
		}
	}

	for ownerID, acc := range t.accounts {
		stored := *acc
		s.accounts[ownerID] = &stored
		s.byAddress[acc.ContactAddress] = ownerID
	}

	for _, m := range t.movements {
		s.movements[m.OwnerID] = append(s.movements[m.OwnerID], m)
	}

	for key, rec := range t.records {
		stored := *rec
		s.records[key] = &stored
	}

	s.outbox = append(s.outbox, t.events...)

	t.releaseLocked()

	return nil
}

// Rollback discards staged writes. Calling it on a finished transaction is a no-op.
func (t *Tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	t.releaseLocked()

	return nil
}

func (t *Tx) releaseLocked() {
	for key := range t.records {
		if t.store.reserved[key] == t {
			delete(t.store.reserved, key)
		}
	}
	t.done = true
}

func (s *Store) txFor(tx usecase.Transaction) (*Tx, error) {
	if tx == nil {
		return nil, nil
	}

	mt, ok := tx.(*Tx)
	if !ok || mt.store != s {
		return nil, ErrForeignTx
	}

	if mt.done {
		return nil, ErrTxDone
	}

	return mt, nil
}

// OpenAccount stages a new account.
func (s *Store) OpenAccount(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
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

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[account.OwnerID]; ok {
		return domain.ErrAccountExists
	}
	if _, ok := s.byAddress[account.ContactAddress]; ok {
		return domain.ErrAccountExists
	}
	if _, ok := mt.accounts[account.OwnerID]; ok {
		return domain.ErrAccountExists
	}

	staged := *account
	mt.accounts[account.OwnerID] = &staged
	mt.opened[account.OwnerID] = true

	return nil
}

// GetAccount returns the account as seen by tx, or committed state when tx is nil.
func (s *Store) GetAccount(ctx context.Context, tx usecase.Transaction, ownerID string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mt, err := s.txFor(tx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc := s.lookupLocked(mt, ownerID)
	if acc == nil {
		return nil, domain.ErrAccountNotFound
	}

	out := *acc
	return &out, nil
}

// ResolveByAddress finds the account registered under a contact address.
func (s *Store) ResolveByAddress(ctx context.Context, tx usecase.Transaction, address string) (*domain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mt, err := s.txFor(tx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ownerID, ok := s.byAddress[address]
	if !ok && mt != nil {
		for id, acc := range mt.accounts {
			if acc.ContactAddress == address {
				ownerID, ok = id, true
				break
			}
		}
	}
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	acc := s.lookupLocked(mt, ownerID)
	if acc == nil {
		return nil, domain.ErrAccountNotFound
	}

	out := *acc
	return &out, nil
}

func (s *Store) lookupLocked(mt *Tx, ownerID string) *domain.Account {
	if mt != nil {
		if acc, ok := mt.accounts[ownerID]; ok {
			return acc
		}
	}
	return s.accounts[ownerID]
}

// ApplyMovement stages a version-guarded balance change and its history entry.
func (s *Store) ApplyMovement(ctx context.Context, tx usecase.Transaction, input usecase.MovementInput) (*domain.Movement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !input.Direction.Valid() || input.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	mt, err := s.txFor(tx)
	if err != nil {
		return nil, err
	}
	if mt == nil {
		return nil, ErrForeignTx
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.lookupLocked(mt, input.OwnerID)
	if current == nil {
		return nil, domain.ErrAccountNotFound
	}

	if input.Direction == domain.DirectionDebit && !current.CanDebit(input.Amount) {
		return nil, domain.ErrInsufficientFunds
	}

	if current.Version != input.ExpectedVersion {
		return nil, domain.ErrVersionConflict
	}

	if _, staged := mt.accounts[input.OwnerID]; !staged {
		mt.base[input.OwnerID] = current.Version
	}

	next := *current
	next.Balance = current.Apply(input.Direction, input.Amount)
	next.Version = current.Version + 1
	next.UpdatedAt = input.At
	mt.accounts[input.OwnerID] = &next

	movement := &domain.Movement{
		ID:                  ulid.Make().String(),
		OwnerID:             input.OwnerID,
		Direction:           input.Direction,
		Amount:              input.Amount,
		CounterpartyAddress: input.CounterpartyAddress,
		ReferenceID:         input.ReferenceID,
		BalanceAfter:        next.Balance,
		AccountVersion:      next.Version,
		CreatedAt:           input.At,
	}
	mt.movements = append(mt.movements, movement)

	out := *movement
	return &out, nil
}

// History lists committed movements of ownerID, newest first.
func (s *Store) History(ctx context.Context, ownerID string, limit, offset int) ([]*domain.Movement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.movements[ownerID]
	result := make([]*domain.Movement, 0, limit)
	for i := len(all) - 1 - offset; i >= 0 && len(result) < limit; i-- {
		m := *all[i]
		result = append(result, &m)
	}

	return result, nil
}

// Totals aggregates committed balances and movements.
func (s *Store) Totals(ctx context.Context) (domain.LedgerTotals, error) {
	if err := ctx.Err(); err != nil {
		return domain.LedgerTotals{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var totals domain.LedgerTotals
	for _, acc := range s.accounts {
		totals.TotalBalance += acc.Balance
	}

	for _, list := range s.movements {
		for _, m := range list {
			switch m.Direction {
			case domain.DirectionCredit:
				totals.TotalCredits += m.Amount
				if m.CounterpartyAddress == domain.SystemCounterparty {
					totals.SystemCredits += m.Amount
				}
			case domain.DirectionDebit:
				totals.TotalDebits += m.Amount
			}
		}
	}

	return totals, nil
}

// Accounts returns a snapshot of every committed account ordered by owner.
func (s *Store) Accounts() []*domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		a := *acc
		out = append(out, &a)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].OwnerID < out[j].OwnerID })

	return out
}
