package handlers

import (
	"net/http"

	"github.com/hongminglow/finance-ledger/internal/http/respond"
	"github.com/hongminglow/finance-ledger/internal/ledger"
	"github.com/hongminglow/finance-ledger/internal/models/dto"
)

// TransactionsHandler serves /api/transactions.
type TransactionsHandler struct {
	svc *ledger.Service
}

// NewTransactionsHandler constructs the handler.
func NewTransactionsHandler(svc *ledger.Service) *TransactionsHandler {
	return &TransactionsHandler{svc: svc}
}

// Register attaches transaction routes to the mux.
func (h *TransactionsHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/transactions", h.list)
	mux.HandleFunc("GET /api/transactions/{id}", h.get)
	mux.HandleFunc("GET /api/transactions/account/{accountId}", h.byAccount)
	mux.HandleFunc("GET /api/transactions/type/{type}", h.byType)
	mux.HandleFunc("POST /api/transactions", h.create)
	mux.HandleFunc("PUT /api/transactions/{id}", h.update)
	mux.HandleFunc("DELETE /api/transactions/{id}", h.delete)
}

func (h *TransactionsHandler) list(w http.ResponseWriter, r *http.Request) {
	txs, err := h.svc.ListTransactions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, txs)
}

func (h *TransactionsHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusNotFound, "Transaction not found")
		return
	}
	tx, err := h.svc.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, tx)
}

func (h *TransactionsHandler) byAccount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := pathID(r, "accountId")
	if !ok {
		respond.Error(w, http.StatusNotFound, "Account not found")
		return
	}
	out, err := h.svc.AccountTransactions(r.Context(), accountID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, out)
}

func (h *TransactionsHandler) byType(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.TransactionsByType(r.Context(), r.PathValue("type"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, out)
}

func (h *TransactionsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req dto.TransactionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := h.svc.CreateTransaction(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, tx)
}

func (h *TransactionsHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusNotFound, "Transaction not found")
		return
	}
	var req dto.TransactionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := h.svc.UpdateTransaction(r.Context(), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, tx)
}

func (h *TransactionsHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusNotFound, "Transaction not found")
		return
	}
	if err := h.svc.DeleteTransaction(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.MessageResponse{Message: "Transaction deleted successfully"})
}
