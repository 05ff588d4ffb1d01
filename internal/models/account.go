package models

import "github.com/hongminglow/finance-ledger/internal/money"

// Account is a named monetary container owned by one user.
// Balance is the stored value set through the API; it is not derived from
// the account's transactions.
type Account struct {
	ID        int64        `json:"id"`
	UserID    int64        `json:"userId"`
	UserEmail string       `json:"userEmail"`
	Name      string       `json:"name"`
	Balance   money.Amount `json:"balance"`
	CreatedAt Timestamp    `json:"createdAt"`
}
