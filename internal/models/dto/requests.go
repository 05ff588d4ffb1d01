package dto

// CreateUserRequest is the body of POST /api/users.
type CreateUserRequest struct {
	Email    Optional `json:"email"`
	Password Optional `json:"password"`
}

// UpdateUserRequest is the body of PUT /api/users/{id}.
type UpdateUserRequest struct {
	Email    Optional `json:"email"`
	Password Optional `json:"password"`
}

// AccountRequest is the body of POST /api/accounts and PUT /api/accounts/{id}.
type AccountRequest struct {
	UserID  Optional `json:"userId"`
	Name    Optional `json:"name"`
	Balance Optional `json:"balance"`
}

// TransactionRequest is the body of POST /api/transactions and PUT /api/transactions/{id}.
type TransactionRequest struct {
	AccountID   Optional `json:"accountId"`
	Amount      Optional `json:"amount"`
	Type        Optional `json:"type"`
	Category    Optional `json:"category"`
	Description Optional `json:"description"`
	Date        Optional `json:"date"`
}
