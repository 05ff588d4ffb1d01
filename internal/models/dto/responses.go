package dto

import (
	"github.com/hongminglow/finance-ledger/internal/models"
	"github.com/hongminglow/finance-ledger/internal/money"
)

// UserAccount is an account as listed under its owner.
type UserAccount struct {
	ID        int64            `json:"id"`
	Name      string           `json:"name"`
	Balance   money.Amount     `json:"balance"`
	CreatedAt models.Timestamp `json:"createdAt"`
}

// UserAccountsResponse is returned by GET /api/accounts/user/{userId}.
type UserAccountsResponse struct {
	UserID       int64         `json:"userId"`
	UserEmail    string        `json:"userEmail"`
	Accounts     []UserAccount `json:"accounts"`
	TotalBalance money.Amount  `json:"totalBalance"`
}

// Summary aggregates an account's transaction history. Balance is income minus
// expense and can differ from the account's stored balance.
type Summary struct {
	TotalIncome  money.Amount `json:"totalIncome"`
	TotalExpense money.Amount `json:"totalExpense"`
	Balance      money.Amount `json:"balance"`
	Count        int          `json:"count"`
}

// AccountTransactionsResponse is returned by GET /api/transactions/account/{accountId}.
type AccountTransactionsResponse struct {
	AccountID    int64                `json:"accountId"`
	AccountName  string               `json:"accountName"`
	Transactions []models.Transaction `json:"transactions"`
	Summary      Summary              `json:"summary"`
}

// TransactionsByTypeResponse is returned by GET /api/transactions/type/{type}.
type TransactionsByTypeResponse struct {
	Type         models.TransactionType `json:"type"`
	Transactions []models.Transaction   `json:"transactions"`
	Total        money.Amount           `json:"total"`
	Count        int                    `json:"count"`
}

// MessageResponse carries a confirmation such as "User deleted successfully".
type MessageResponse struct {
	Message string `json:"message"`
}
