package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hongminglow/finance-ledger/internal/models"
	"github.com/hongminglow/finance-ledger/internal/money"
	"github.com/hongminglow/finance-ledger/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// Store provides Postgres-backed persistence for users, accounts and transactions.
type Store struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewStore connects to databaseURL and runs migrations.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			email TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT date_trunc('second', NOW())
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_unique_idx ON users (email);`,
		`CREATE TABLE IF NOT EXISTS accounts (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE RESTRICT,
			name TEXT NOT NULL,
			balance NUMERIC(20,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT date_trunc('second', NOW())
		);`,
		`CREATE INDEX IF NOT EXISTS accounts_user_id_idx ON accounts (user_id);`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id BIGSERIAL PRIMARY KEY,
			account_id BIGINT NOT NULL REFERENCES accounts(id) ON DELETE RESTRICT,
			amount NUMERIC(20,2) NOT NULL,
			type TEXT NOT NULL CHECK (type IN ('income', 'expense')),
			category TEXT,
			description TEXT,
			date DATE NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT date_trunc('second', NOW())
		);`,
		`CREATE INDEX IF NOT EXISTS transactions_account_date_idx ON transactions (account_id, date DESC, id DESC);`,
		`CREATE INDEX IF NOT EXISTS transactions_type_date_idx ON transactions (type, date DESC, id DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

func (s *Store) createdAt(ts models.Timestamp) time.Time {
	if ts.IsZero() {
		return models.NewTimestamp(s.now()).Time
	}
	return ts.Time
}

// ---- users ----

const userColumns = `u.id, u.email, u.password_hash, u.created_at`

// ListUsers returns every user ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users u ORDER BY u.id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.User, error) {
		return scanUser(row)
	})
}

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = $1`, id)
	return scanUser(row)
}

// FindUserByEmail fetches a user by exact, case-sensitive email.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users u WHERE u.email = $1`, email)
	return scanUser(row)
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users AS u (email, password_hash, created_at)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns
	row := s.pool.QueryRow(ctx, query, user.Email, user.PasswordHash, s.createdAt(user.CreatedAt))
	created, err := scanUser(row)
	if err != nil {
		return models.User{}, mapError(err)
	}
	return created, nil
}

// UpdateUser applies the non-nil fields of patch.
func (s *Store) UpdateUser(ctx context.Context, id int64, patch storage.UserPatch) (models.User, error) {
	var set setClause
	set.add("email", patch.Email)
	set.add("password_hash", patch.PasswordHash)
	if set.empty() {
		return s.GetUser(ctx, id)
	}
	query := `UPDATE users AS u SET ` + set.sql() + ` WHERE u.id = ` + set.next(id) + ` RETURNING ` + userColumns
	user, err := scanUser(s.pool.QueryRow(ctx, query, set.args...))
	if err != nil {
		return models.User{}, mapError(err)
	}
	return user, nil
}

// DeleteUser removes a user. Users that still own accounts cannot be removed.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, `DELETE FROM users WHERE id = $1`, id)
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	var createdAt time.Time
	if err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	user.CreatedAt = models.NewTimestamp(createdAt)
	return user, nil
}

// ---- accounts ----

const accountColumns = `a.id, a.user_id, u.email, a.name, a.balance::text, a.created_at`

// ListAccounts returns every account with its owner's email, ordered by id.
func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts a JOIN users u ON u.id = a.user_id ORDER BY a.id`
	return s.queryAccounts(ctx, query)
}

// GetAccount fetches an account by id.
func (s *Store) GetAccount(ctx context.Context, id int64) (models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts a JOIN users u ON u.id = a.user_id WHERE a.id = $1`
	return scanAccount(s.pool.QueryRow(ctx, query, id))
}

// ListAccountsByUser returns the accounts owned by userID, ordered by id.
func (s *Store) ListAccountsByUser(ctx context.Context, userID int64) ([]models.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts a JOIN users u ON u.id = a.user_id WHERE a.user_id = $1 ORDER BY a.id`
	return s.queryAccounts(ctx, query, userID)
}

// CreateAccount inserts an account and returns it joined with its owner.
func (s *Store) CreateAccount(ctx context.Context, account models.Account) (models.Account, error) {
	const query = `
		WITH a AS (
			INSERT INTO accounts (user_id, name, balance, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id, user_id, name, balance, created_at
		)
		SELECT ` + accountColumns + ` FROM a JOIN users u ON u.id = a.user_id`
	row := s.pool.QueryRow(ctx, query, account.UserID, account.Name, account.Balance.String(), s.createdAt(account.CreatedAt))
	created, err := scanAccount(row)
	if err != nil {
		return models.Account{}, mapError(err)
	}
	return created, nil
}

// UpdateAccount applies the non-nil fields of patch.
func (s *Store) UpdateAccount(ctx context.Context, id int64, patch storage.AccountPatch) (models.Account, error) {
	var set setClause
	set.add("user_id", patch.UserID)
	set.add("name", patch.Name)
	if patch.Balance != nil {
		set.add("balance", patch.Balance.String())
	}
	if set.empty() {
		return s.GetAccount(ctx, id)
	}
	query := `
		WITH a AS (
			UPDATE accounts SET ` + set.sql() + ` WHERE id = ` + set.next(id) + `
			RETURNING id, user_id, name, balance, created_at
		)
		SELECT ` + accountColumns + ` FROM a JOIN users u ON u.id = a.user_id`
	account, err := scanAccount(s.pool.QueryRow(ctx, query, set.args...))
	if err != nil {
		return models.Account{}, mapError(err)
	}
	return account, nil
}

// DeleteAccount removes an account. Accounts that still hold transactions cannot be removed.
func (s *Store) DeleteAccount(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, `DELETE FROM accounts WHERE id = $1`, id)
}

func (s *Store) queryAccounts(ctx context.Context, query string, args ...any) ([]models.Account, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Account, error) {
		return scanAccount(row)
	})
}

func scanAccount(row pgx.Row) (models.Account, error) {
	var account models.Account
	var createdAt time.Time
	if err := row.Scan(&account.ID, &account.UserID, &account.UserEmail, &account.Name, &account.Balance, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Account{}, storage.ErrNotFound
		}
		return models.Account{}, err
	}
	account.CreatedAt = models.NewTimestamp(createdAt)
	return account, nil
}

// ---- transactions ----

const transactionColumns = `t.id, t.account_id, a.name, a.user_id, u.email, t.amount::text, t.type, t.category, t.description, t.date, t.created_at`

const transactionJoins = ` JOIN accounts a ON a.id = t.account_id JOIN users u ON u.id = a.user_id`

// ListTransactions returns every transaction ordered by id.
func (s *Store) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	const query = `SELECT ` + transactionColumns + ` FROM transactions t` + transactionJoins + ` ORDER BY t.id`
	return s.queryTransactions(ctx, query)
}

// GetTransaction fetches a transaction by id.
func (s *Store) GetTransaction(ctx context.Context, id int64) (models.Transaction, error) {
	const query = `SELECT ` + transactionColumns + ` FROM transactions t` + transactionJoins + ` WHERE t.id = $1`
	return scanTransaction(s.pool.QueryRow(ctx, query, id))
}

// ListTransactionsByAccount returns an account's transactions, newest date first.
func (s *Store) ListTransactionsByAccount(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	const query = `SELECT ` + transactionColumns + ` FROM transactions t` + transactionJoins +
		` WHERE t.account_id = $1 ORDER BY t.date DESC, t.id DESC`
	return s.queryTransactions(ctx, query, accountID)
}

// ListTransactionsByType returns every transaction of txType, newest date first.
func (s *Store) ListTransactionsByType(ctx context.Context, txType models.TransactionType) ([]models.Transaction, error) {
	const query = `SELECT ` + transactionColumns + ` FROM transactions t` + transactionJoins +
		` WHERE t.type = $1 ORDER BY t.date DESC, t.id DESC`
	return s.queryTransactions(ctx, query, string(txType))
}

// CountTransactionsByAccount returns how many transactions reference accountID.
func (s *Store) CountTransactionsByAccount(ctx context.Context, accountID int64) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE account_id = $1`, accountID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// CreateTransaction inserts a transaction and returns it joined with its account and user.
func (s *Store) CreateTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	createdAt := s.createdAt(tx.CreatedAt)
	date := tx.Date
	if date.IsZero() {
		date = models.NewDate(createdAt)
	}
	const query = `
		WITH t AS (
			INSERT INTO transactions (account_id, amount, type, category, description, date, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, account_id, amount, type, category, description, date, created_at
		)
		SELECT ` + transactionColumns + ` FROM t` + transactionJoins
	row := s.pool.QueryRow(ctx, query,
		tx.AccountID, tx.Amount.String(), string(tx.Type), tx.Category, tx.Description, date.Time, createdAt)
	created, err := scanTransaction(row)
	if err != nil {
		return models.Transaction{}, mapError(err)
	}
	return created, nil
}

// UpdateTransaction applies the non-nil fields of patch.
func (s *Store) UpdateTransaction(ctx context.Context, id int64, patch storage.TransactionPatch) (models.Transaction, error) {
	var set setClause
	set.add("account_id", patch.AccountID)
	if patch.Amount != nil {
		set.add("amount", patch.Amount.String())
	}
	if patch.Type != nil {
		set.add("type", string(*patch.Type))
	}
	set.add("category", patch.Category)
	set.add("description", patch.Description)
	if patch.Date != nil {
		set.add("date", patch.Date.Time)
	}
	if set.empty() {
		return s.GetTransaction(ctx, id)
	}
	query := `
		WITH t AS (
			UPDATE transactions SET ` + set.sql() + ` WHERE id = ` + set.next(id) + `
			RETURNING id, account_id, amount, type, category, description, date, created_at
		)
		SELECT ` + transactionColumns + ` FROM t` + transactionJoins
	tx, err := scanTransaction(s.pool.QueryRow(ctx, query, set.args...))
	if err != nil {
		return models.Transaction{}, mapError(err)
	}
	return tx, nil
}

// DeleteTransaction removes a transaction.
func (s *Store) DeleteTransaction(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, `DELETE FROM transactions WHERE id = $1`, id)
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Transaction, error) {
		return scanTransaction(row)
	})
}

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var tx models.Transaction
	var (
		txType    string
		amount    money.Amount
		date      time.Time
		createdAt time.Time
	)
	err := row.Scan(&tx.ID, &tx.AccountID, &tx.AccountName, &tx.UserID, &tx.UserEmail,
		&amount, &txType, &tx.Category, &tx.Description, &date, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Transaction{}, storage.ErrNotFound
		}
		return models.Transaction{}, err
	}
	tx.Amount = amount
	tx.Type = models.TransactionType(txType)
	tx.Date = models.NewDate(date)
	tx.CreatedAt = models.NewTimestamp(createdAt)
	return tx, nil
}

// ---- helpers ----

func (s *Store) deleteByID(ctx context.Context, query string, id int64) error {
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// setClause accumulates "column = $n" fragments for a partial UPDATE.
type setClause struct {
	parts []string
	args  []any
}

// add appends column when value is non-nil. Typed nil pointers count as nil.
func (c *setClause) add(column string, value any) {
	switch v := value.(type) {
	case nil:
		return
	case *string:
		if v == nil {
			return
		}
		value = *v
	case *int64:
		if v == nil {
			return
		}
		value = *v
	}
	c.parts = append(c.parts, column+" = "+c.next(value))
}

// next registers an argument and returns its placeholder.
func (c *setClause) next(value any) string {
	c.args = append(c.args, value)
	return fmt.Sprintf("$%d", len(c.args))
}

func (c *setClause) empty() bool { return len(c.parts) == 0 }

func (c *setClause) sql() string { return strings.Join(c.parts, ", ") }

// mapError translates constraint violations into storage sentinels.
func mapError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return storage.ErrAlreadyExists
		case "23503":
			return storage.ErrInUse
		case "22003":
			return storage.ErrOutOfRange
		}
	}
	return err
}
