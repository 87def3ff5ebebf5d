package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/adapter/http/middleware"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

type accountServiceStub struct {
	openFn    func(ctx context.Context, input usecase.OpenAccountInput) (*domain.Account, error)
	balanceFn func(ctx context.Context, ownerID string) (*domain.Account, error)
	historyFn func(ctx context.Context, input usecase.HistoryInput) ([]*domain.Movement, error)
}

func (s *accountServiceStub) OpenAccount(ctx context.Context, input usecase.OpenAccountInput) (*domain.Account, error) {
	return s.openFn(ctx, input)
}

func (s *accountServiceStub) GetBalance(ctx context.Context, ownerID string) (*domain.Account, error) {
	return s.balanceFn(ctx, ownerID)
}

func (s *accountServiceStub) History(ctx context.Context, input usecase.HistoryInput) ([]*domain.Movement, error) {
	return s.historyFn(ctx, input)
}

func asOwner(req *http.Request, ownerID string) *http.Request {
	return req.WithContext(middleware.WithOwner(req.Context(), ownerID))
}

func TestAccountHandler_Open_Success(t *testing.T) {
	var captured usecase.OpenAccountInput
	handler := NewAccountHandler(&accountServiceStub{
		openFn: func(ctx context.Context, input usecase.OpenAccountInput) (*domain.Account, error) {
			captured = input
			return &domain.Account{
				OwnerID:        input.OwnerID,
				ContactAddress: input.ContactAddress,
				Balance:        input.InitialCredit,
				Version:        1,
			}, nil
		},
	}, 10000)

	body, _ := json.Marshal(dto.OpenAccountRequest{ContactAddress: "5550001111"})
	req := asOwner(httptest.NewRequest(http.MethodPost, "/api/v1/accounts", bytes.NewReader(body)), "alice")
	rec := httptest.NewRecorder()

	handler.Open(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.OwnerID != "alice" || captured.ContactAddress != "5550001111" || captured.InitialCredit != 10000 {
		t.Fatalf("expected input to match request, got %+v", captured)
	}

	var resp dto.AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.OwnerID != "alice" || resp.WalletBalance.String() != "100" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestAccountHandler_Open_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		owner    string
		err      error
		wantCode int
	}{
		{"no identity", `{"contact_address":"5550001111"}`, "", nil, http.StatusUnauthorized},
		{"bad json", `{bad`, "alice", nil, http.StatusBadRequest},
		{"duplicate", `{"contact_address":"5550001111"}`, "alice", domain.ErrAccountExists, http.StatusConflict},
		{"invalid address", `{"contact_address":"abc"}`, "alice", domain.ErrInvalidAddress, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAccountHandler(&accountServiceStub{
				openFn: func(ctx context.Context, input usecase.OpenAccountInput) (*domain.Account, error) {
					if tt.err == nil {
						t.Fatal("OpenAccount should not be called")
					}
					return nil, tt.err
				},
			}, 0)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", bytes.NewBufferString(tt.body))
			if tt.owner != "" {
				req = asOwner(req, tt.owner)
			}
			rec := httptest.NewRecorder()

			handler.Open(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAccountHandler_Balance(t *testing.T) {
	handler := NewAccountHandler(&accountServiceStub{
		balanceFn: func(ctx context.Context, ownerID string) (*domain.Account, error) {
			if ownerID != "alice" {
				return nil, domain.ErrAccountNotFound
			}
			return &domain.Account{OwnerID: "alice", Balance: 7550, Version: 4}, nil
		},
	}, 0)

	rec := httptest.NewRecorder()
	handler.Balance(rec, asOwner(httptest.NewRequest(http.MethodGet, "/api/v1/balance", nil), "alice"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.BalanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.WalletBalance.String() != "75.5" || resp.BalanceMinorUnits != 7550 || resp.Version != 4 {
		t.Fatalf("unexpected response %+v", resp)
	}

	rec = httptest.NewRecorder()
	handler.Balance(rec, asOwner(httptest.NewRequest(http.MethodGet, "/api/v1/balance", nil), "ghost"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown owner, got %d", rec.Code)
	}
}

func TestAccountHandler_Transactions_Pagination(t *testing.T) {
	var captured usecase.HistoryInput
	handler := NewAccountHandler(&accountServiceStub{
		balanceFn: func(ctx context.Context, ownerID string) (*domain.Account, error) {
			return &domain.Account{OwnerID: ownerID, Balance: 900}, nil
		},
		historyFn: func(ctx context.Context, input usecase.HistoryInput) ([]*domain.Movement, error) {
			captured = input
			return []*domain.Movement{
				{ID: "m2", Direction: domain.DirectionDebit, Amount: 100, ReferenceID: "TXN-1", BalanceAfter: 900},
			}, nil
		},
	}, 0)

	req := asOwner(httptest.NewRequest(http.MethodGet, "/api/v1/transactions?limit=5&offset=10", nil), "alice")
	rec := httptest.NewRecorder()

	handler.Transactions(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.OwnerID != "alice" || captured.Limit != 5 || captured.Offset != 10 {
		t.Fatalf("unexpected history input %+v", captured)
	}

	var resp dto.TransactionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.WalletBalance.String() != "9" || len(resp.Transactions) != 1 || resp.Transactions[0].ReferenceID != "TXN-1" {
		t.Fatalf("unexpected response %+v", resp)
	}
}
