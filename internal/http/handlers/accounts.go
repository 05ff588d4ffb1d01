package handlers

import (
	"net/http"

	"github.com/hongminglow/finance-ledger/internal/http/respond"
	"github.com/hongminglow/finance-ledger/internal/ledger"
	"github.com/hongminglow/finance-ledger/internal/models/dto"
)

// AccountsHandler serves /api/accounts.
type AccountsHandler struct {
	svc *ledger.Service
}

// NewAccountsHandler constructs the handler.
func NewAccountsHandler(svc *ledger.Service) *AccountsHandler {
	return &AccountsHandler{svc: svc}
}

// Register attaches account routes to the mux.
func (h *AccountsHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/accounts", h.list)
	mux.HandleFunc("GET /api/accounts/{id}", h.get)
	mux.HandleFunc("GET /api/accounts/user/{userId}", h.byUser)
	mux.HandleFunc("POST /api/accounts", h.create)
	mux.HandleFunc("PUT /api/accounts/{id}", h.update)
	mux.HandleFunc("DELETE /api/accounts/{id}", h.delete)
}

func (h *AccountsHandler) list(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.svc.ListAccounts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, accounts)
}

func (h *AccountsHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusNotFound, "Account not found")
		return
	}
	account, err := h.svc.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, account)
}

func (h *AccountsHandler) byUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(r, "userId")
	if !ok {
		respond.Error(w, http.StatusNotFound, "User not found")
		return
	}
	out, err := h.svc.UserAccounts(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, out)
}

func (h *AccountsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req dto.AccountRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	account, err := h.svc.CreateAccount(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, account)
}

func (h *AccountsHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusNotFound, "Account not found")
		return
	}
	var req dto.AccountRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	account, err := h.svc.UpdateAccount(r.Context(), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, account)
}

func (h *AccountsHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusNotFound, "Account not found")
		return
	}
	if err := h.svc.DeleteAccount(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.MessageResponse{Message: "Account deleted successfully"})
}
