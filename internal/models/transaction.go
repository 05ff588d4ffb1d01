package models

import "github.com/hongminglow/finance-ledger/internal/money"

// TransactionType says whether an amount adds to or subtracts from an account.
type TransactionType string

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// Valid reports whether t is income or expense. The comparison is case-sensitive.
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Transaction is a dated income or expense event against one account.
// Amount is always a positive magnitude; the sign is carried by Type.
type Transaction struct {
	ID          int64           `json:"id"`
	AccountID   int64           `json:"accountId"`
	AccountName string          `json:"accountName"`
	UserID      int64           `json:"userId"`
	UserEmail   string          `json:"userEmail"`
	Amount      money.Amount    `json:"amount"`
	Type        TransactionType `json:"type"`
	Category    *string         `json:"category"`
	Description *string         `json:"description"`
	Date        Date            `json:"date"`
	CreatedAt   Timestamp       `json:"createdAt"`
}
