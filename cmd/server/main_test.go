package main

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/config"
	"github.com/iho/walletledger/internal/infrastructure/eventpublisher"
	"github.com/iho/walletledger/internal/usecase"
)

func TestSignupCredit(t *testing.T) {
	tests := []struct {
		name    string
		bonus   string
		want    int64
		wantErr error
	}{
		{name: "disabled", bonus: "0", want: 0},
		{name: "whole units", bonus: "100", want: 10000},
		{name: "fractional", bonus: "0.5", want: 50},
		{name: "sub-cent", bonus: "0.001", wantErr: domain.ErrAmountPrecision},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{SignupBonus: decimal.RequireFromString(tt.bonus)}

			got, err := signupCredit(cfg)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildPublisher(t *testing.T) {
	logPub, closeLog := buildPublisher(&config.Config{}, zerolog.Nop())
	assert.IsType(t, &eventpublisher.LogPublisher{}, logPub)
	assert.NoError(t, closeLog())

	kafkaPub, closeKafka := buildPublisher(&config.Config{
		KafkaBrokers: []string{"127.0.0.1:9092"},
		KafkaTopic:   "walletledger.events",
	}, zerolog.Nop())
	assert.IsType(t, &eventpublisher.KafkaPublisher{}, kafkaPub)
	assert.NoError(t, closeKafka())
}

func TestOpenStorageMemory(t *testing.T) {
	cfg := &config.Config{StorageBackend: config.StorageMemory, IdempotencyTTL: domain.IdempotencyTTL}

	store, err := openStorage(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer store.close()

	assert.Nil(t, store.retrier)
	assert.Empty(t, store.checks)

	accounts := usecase.NewAccountUseCase(store.txManager, store.ledger, store.outbox, fixedID("evt"), nil)
	_, err = accounts.OpenAccount(context.Background(), usecase.OpenAccountInput{
		OwnerID: "alice", ContactAddress: "5550001111", InitialCredit: 500,
	})
	require.NoError(t, err)

	totals, err := store.auditor.Totals(context.Background())
	require.NoError(t, err)
	assert.True(t, totals.Consistent())
	assert.Equal(t, int64(500), totals.TotalBalance)
}

type fixedID string

func (f fixedID) Generate() string { return string(f) }
