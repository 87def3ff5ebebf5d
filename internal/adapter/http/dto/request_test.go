package dto

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

func TestOpenAccountRequest_ToUseCaseInput(t *testing.T) {
	req := &OpenAccountRequest{ContactAddress: "555 000 1111"}

	got := req.ToUseCaseInput("alice", 10000)
	want := usecase.OpenAccountInput{
		OwnerID:        "alice",
		ContactAddress: "555 000 1111",
		InitialCredit:  10000,
	}

	if got != want {
		t.Fatalf("ToUseCaseInput() = %+v, want %+v", got, want)
	}
}

func TestTransferRequest_ToUseCaseInput(t *testing.T) {
	tests := []struct {
		name    string
		request *TransferRequest
		want    usecase.TransferInput
		wantErr error
	}{
		{
			name:    "two decimals",
			request: &TransferRequest{To: "5550002222", Amount: decimal.RequireFromString("12.34")},
			want: usecase.TransferInput{
				CallerID: "alice", RecipientAddress: "5550002222", Amount: 1234, IdempotencyToken: "key-1",
			},
		},
		{
			name:    "whole amount",
			request: &TransferRequest{To: "5550002222", Amount: decimal.NewFromInt(25)},
			want: usecase.TransferInput{
				CallerID: "alice", RecipientAddress: "5550002222", Amount: 2500, IdempotencyToken: "key-1",
			},
		},
		{
			name:    "three decimals",
			request: &TransferRequest{To: "5550002222", Amount: decimal.RequireFromString("1.005")},
			wantErr: domain.ErrAmountPrecision,
		},
		{
			name:    "zero",
			request: &TransferRequest{To: "5550002222", Amount: decimal.Zero},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "negative",
			request: &TransferRequest{To: "5550002222", Amount: decimal.NewFromInt(-5)},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "missing recipient",
			request: &TransferRequest{Amount: decimal.NewFromInt(5)},
			wantErr: domain.ErrInvalidAddress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.request.ToUseCaseInput("alice", "key-1")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ToUseCaseInput() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestTransferRequest_DecodesNumberAndString(t *testing.T) {
	for _, body := range []string{`{"to":"5550002222","amount":12.5}`, `{"to":"5550002222","amount":"12.50"}`} {
		var req TransferRequest
		if err := json.Unmarshal([]byte(body), &req); err != nil {
			t.Fatalf("decode %s: %v", body, err)
		}
		input, err := req.ToUseCaseInput("alice", "")
		if err != nil {
			t.Fatalf("convert %s: %v", body, err)
		}
		if input.Amount != 1250 {
			t.Fatalf("expected 1250 minor units from %s, got %d", body, input.Amount)
		}
	}
}
