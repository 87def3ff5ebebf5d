package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/iho/walletledger/internal/adapter/http/dto"
	"github.com/iho/walletledger/internal/adapter/http/middleware"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// AccountService defines the behavior needed by AccountHandler.
type AccountService interface {
	OpenAccount(ctx context.Context, input usecase.OpenAccountInput) (*domain.Account, error)
	GetBalance(ctx context.Context, ownerID string) (*domain.Account, error)
	History(ctx context.Context, input usecase.HistoryInput) ([]*domain.Movement, error)
}

// AccountHandler handles account-related HTTP requests.
type AccountHandler struct {
	accountUC    AccountService
	signupCredit int64
}

// NewAccountHandler creates a new AccountHandler. signupCredit, in minor
// units, is granted to every newly opened account.
func NewAccountHandler(accountUC AccountService, signupCredit int64) *AccountHandler {
	return &AccountHandler{accountUC: accountUC, signupCredit: signupCredit}
}

// Open opens the caller's account.
func (h *AccountHandler) Open(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing caller identity")
		return
	}

	var req dto.OpenAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	account, err := h.accountUC.OpenAccount(r.Context(), req.ToUseCaseInput(ownerID, h.signupCredit))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// Balance returns the caller's balance.
func (h *AccountHandler) Balance(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing caller identity")
		return
	}

	account, err := h.accountUC.GetBalance(r.Context(), ownerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromDomain(account))
}

// Transactions returns the caller's balance and a page of movements, newest first.
func (h *AccountHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.OwnerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing caller identity")
		return
	}

	account, err := h.accountUC.GetBalance(r.Context(), ownerID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	movements, err := h.accountUC.History(r.Context(), usecase.HistoryInput{
		OwnerID: ownerID,
		Limit:   parseIntQuery(r, "limit", 20),
		Offset:  parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(account, movements))
}
