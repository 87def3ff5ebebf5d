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

// ReplayHeader is set on responses answered from an earlier attempt.
const ReplayHeader = "Idempotent-Replayed"

// TransferService defines the behavior needed by TransferHandler.
type TransferService interface {
	Transfer(ctx context.Context, input usecase.TransferInput) (*domain.TransferResult, error)
}

// TransferHandler handles transfer-related HTTP requests.
type TransferHandler struct {
	transferUC TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferUC TransferService) *TransferHandler {
	return &TransferHandler{transferUC: transferUC}
}

// Create moves funds from the caller to the account registered under "to".
func (h *TransferHandler) Create(w http.ResponseWriter, r *http.Request) {
	callerID, ok := middleware.OwnerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing caller identity")
		return
	}

	var req dto.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(callerID, middleware.IdempotencyKeyFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	result, err := h.transferUC.Transfer(r.Context(), input)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if result.Replayed {
		w.Header().Set(ReplayHeader, "true")
	}

	writeJSON(w, http.StatusOK, dto.TransferFromDomain(result))
}
