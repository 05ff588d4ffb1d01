package storage

import (
	"context"
	"errors"

	"github.com/hongminglow/finance-ledger/internal/models"
	"github.com/hongminglow/finance-ledger/internal/money"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrInUse indicates a foreign-key restriction: the record still has dependents,
// or a write referenced a parent that does not exist.
var ErrInUse = errors.New("record is referenced by other records")

// ErrOutOfRange indicates a value the backend cannot represent, such as an
// amount that overflows its numeric column.
var ErrOutOfRange = errors.New("value out of range")

// UserPatch lists the user columns to change. Nil fields are left untouched.
type UserPatch struct {
	Email        *string
	PasswordHash *string
}

// AccountPatch lists the account columns to change. Nil fields are left untouched.
type AccountPatch struct {
	UserID  *int64
	Name    *string
	Balance *money.Amount
}

// TransactionPatch lists the transaction columns to change. Nil fields are left untouched.
type TransactionPatch struct {
	AccountID   *int64
	Amount      *money.Amount
	Type        *models.TransactionType
	Category    *string
	Description *string
	Date        *models.Date
}

// UserStore captures user persistence.
type UserStore interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id int64) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	UpdateUser(ctx context.Context, id int64, patch UserPatch) (models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// AccountStore captures account persistence. Reads include the owner's email.
type AccountStore interface {
	ListAccounts(ctx context.Context) ([]models.Account, error)
	GetAccount(ctx context.Context, id int64) (models.Account, error)
	ListAccountsByUser(ctx context.Context, userID int64) ([]models.Account, error)
	CreateAccount(ctx context.Context, account models.Account) (models.Account, error)
	UpdateAccount(ctx context.Context, id int64, patch AccountPatch) (models.Account, error)
	DeleteAccount(ctx context.Context, id int64) error
}

// TransactionStore captures transaction persistence. Reads include the owning
// account's name and its user. Filtered lists are ordered newest date first.
type TransactionStore interface {
	ListTransactions(ctx context.Context) ([]models.Transaction, error)
	GetTransaction(ctx context.Context, id int64) (models.Transaction, error)
	ListTransactionsByAccount(ctx context.Context, accountID int64) ([]models.Transaction, error)
	ListTransactionsByType(ctx context.Context, txType models.TransactionType) ([]models.Transaction, error)
	CountTransactionsByAccount(ctx context.Context, accountID int64) (int, error)
	CreateTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error)
	UpdateTransaction(ctx context.Context, id int64, patch TransactionPatch) (models.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
}

// Store is the full persistence surface handed to the ledger service.
type Store interface {
	UserStore
	AccountStore
	TransactionStore
	Ping(ctx context.Context) error
	Close()
}
