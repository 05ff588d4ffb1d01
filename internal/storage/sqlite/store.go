package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hongminglow/finance-ledger/internal/models"
	"github.com/hongminglow/finance-ledger/internal/money"
	"github.com/hongminglow/finance-ledger/internal/storage"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

var _ storage.Store = (*Store)(nil)

// Store provides SQLite-backed persistence. Amounts are stored as decimal text,
// dates as YYYY-MM-DD and timestamps as YYYY-MM-DD HH:MM:SS in UTC.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens (creating if needed) the database at path and runs migrations.
// Use MemoryPath for a throwaway database.
func NewStore(path string) (*Store, error) {
	memory := path == MemoryPath
	dsn := path
	if !memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		dsn = "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if memory {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database handle.
func (s *Store) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) createdAt(ts models.Timestamp) models.Timestamp {
	if ts.IsZero() {
		return models.NewTimestamp(s.now())
	}
	return ts
}

// ---- users ----

const userColumns = `u.id, u.email, u.password_hash, u.created_at`

// ListUsers returns every user ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users u ORDER BY u.id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, id int64) (models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = ?`, id))
}

// FindUserByEmail fetches a user by exact, case-sensitive email.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE u.email = ?`, email))
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, created_at) VALUES (?, ?, ?)`,
		user.Email, user.PasswordHash, s.createdAt(user.CreatedAt).String())
	if err != nil {
		return models.User{}, mapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("read user id: %w", err)
	}
	return s.GetUser(ctx, id)
}

// UpdateUser applies the non-nil fields of patch.
func (s *Store) UpdateUser(ctx context.Context, id int64, patch storage.UserPatch) (models.User, error) {
	var set setClause
	if patch.Email != nil {
		set.add("email", *patch.Email)
	}
	if patch.PasswordHash != nil {
		set.add("password_hash", *patch.PasswordHash)
	}
	if err := s.update(ctx, "users", id, set); err != nil {
		return models.User{}, err
	}
	return s.GetUser(ctx, id)
}

// DeleteUser removes a user. Users that still own accounts cannot be removed.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "users", id)
}

func scanUser(row scanner) (models.User, error) {
	var user models.User
	var createdAt string
	if err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	ts, err := models.ParseTimestamp(createdAt)
	if err != nil {
		return models.User{}, fmt.Errorf("parse user created_at %q: %w", createdAt, err)
	}
	user.CreatedAt = ts
	return user, nil
}

// ---- accounts ----

const accountSelect = `SELECT a.id, a.user_id, u.email, a.name, a.balance, a.created_at
	FROM accounts a JOIN users u ON u.id = a.user_id`

// ListAccounts returns every account with its owner's email, ordered by id.
func (s *Store) ListAccounts(ctx context.Context) ([]models.Account, error) {
	return s.queryAccounts(ctx, accountSelect+` ORDER BY a.id`)
}

// GetAccount fetches an account by id.
func (s *Store) GetAccount(ctx context.Context, id int64) (models.Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx, accountSelect+` WHERE a.id = ?`, id))
}

// ListAccountsByUser returns the accounts owned by userID, ordered by id.
func (s *Store) ListAccountsByUser(ctx context.Context, userID int64) ([]models.Account, error) {
	return s.queryAccounts(ctx, accountSelect+` WHERE a.user_id = ? ORDER BY a.id`, userID)
}

// CreateAccount inserts an account and returns it joined with its owner.
func (s *Store) CreateAccount(ctx context.Context, account models.Account) (models.Account, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (user_id, name, balance, created_at) VALUES (?, ?, ?, ?)`,
		account.UserID, account.Name, account.Balance.String(), s.createdAt(account.CreatedAt).String())
	if err != nil {
		return models.Account{}, mapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Account{}, fmt.Errorf("read account id: %w", err)
	}
	return s.GetAccount(ctx, id)
}

// UpdateAccount applies the non-nil fields of patch.
func (s *Store) UpdateAccount(ctx context.Context, id int64, patch storage.AccountPatch) (models.Account, error) {
	var set setClause
	if patch.UserID != nil {
		set.add("user_id", *patch.UserID)
	}
	if patch.Name != nil {
		set.add("name", *patch.Name)
	}
	if patch.Balance != nil {
		set.add("balance", patch.Balance.String())
	}
	if err := s.update(ctx, "accounts", id, set); err != nil {
		return models.Account{}, err
	}
	return s.GetAccount(ctx, id)
}

// DeleteAccount removes an account. Accounts that still hold transactions cannot be removed.
func (s *Store) DeleteAccount(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "accounts", id)
}

func (s *Store) queryAccounts(ctx context.Context, query string, args ...any) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func scanAccount(row scanner) (models.Account, error) {
	var account models.Account
	var createdAt string
	if err := row.Scan(&account.ID, &account.UserID, &account.UserEmail, &account.Name, &account.Balance, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Account{}, storage.ErrNotFound
		}
		return models.Account{}, err
	}
	ts, err := models.ParseTimestamp(createdAt)
	if err != nil {
		return models.Account{}, fmt.Errorf("parse account created_at %q: %w", createdAt, err)
	}
	account.CreatedAt = ts
	return account, nil
}

// ---- transactions ----

const transactionSelect = `SELECT t.id, t.account_id, a.name, a.user_id, u.email,
	t.amount, t.type, t.category, t.description, t.date, t.created_at
	FROM transactions t
	JOIN accounts a ON a.id = t.account_id
	JOIN users u ON u.id = a.user_id`

// ListTransactions returns every transaction ordered by id.
func (s *Store) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	return s.queryTransactions(ctx, transactionSelect+` ORDER BY t.id`)
}

// GetTransaction fetches a transaction by id.
func (s *Store) GetTransaction(ctx context.Context, id int64) (models.Transaction, error) {
	return scanTransaction(s.db.QueryRowContext(ctx, transactionSelect+` WHERE t.id = ?`, id))
}

// ListTransactionsByAccount returns an account's transactions, newest date first.
func (s *Store) ListTransactionsByAccount(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	return s.queryTransactions(ctx, transactionSelect+` WHERE t.account_id = ? ORDER BY t.date DESC, t.id DESC`, accountID)
}

// ListTransactionsByType returns every transaction of txType, newest date first.
func (s *Store) ListTransactionsByType(ctx context.Context, txType models.TransactionType) ([]models.Transaction, error) {
	return s.queryTransactions(ctx, transactionSelect+` WHERE t.type = ? ORDER BY t.date DESC, t.id DESC`, string(txType))
}

// CountTransactionsByAccount returns how many transactions reference accountID.
func (s *Store) CountTransactionsByAccount(ctx context.Context, accountID int64) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE account_id = ?`, accountID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count transactions: %w", err)
	}
	return n, nil
}

// CreateTransaction inserts a transaction and returns it joined with its account and user.
func (s *Store) CreateTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error) {
	createdAt := s.createdAt(tx.CreatedAt)
	date := tx.Date
	if date.IsZero() {
		date = models.NewDate(createdAt.Time)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (account_id, amount, type, category, description, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.AccountID, tx.Amount.String(), string(tx.Type), nullString(tx.Category), nullString(tx.Description),
		date.String(), createdAt.String())
	if err != nil {
		return models.Transaction{}, mapError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return models.Transaction{}, fmt.Errorf("read transaction id: %w", err)
	}
	return s.GetTransaction(ctx, id)
}

// UpdateTransaction applies the non-nil fields of patch.
func (s *Store) UpdateTransaction(ctx context.Context, id int64, patch storage.TransactionPatch) (models.Transaction, error) {
	var set setClause
	if patch.AccountID != nil {
		set.add("account_id", *patch.AccountID)
	}
	if patch.Amount != nil {
		set.add("amount", patch.Amount.String())
	}
	if patch.Type != nil {
		set.add("type", string(*patch.Type))
	}
	if patch.Category != nil {
		set.add("category", *patch.Category)
	}
	if patch.Description != nil {
		set.add("description", *patch.Description)
	}
	if patch.Date != nil {
		set.add("date", patch.Date.String())
	}
	if err := s.update(ctx, "transactions", id, set); err != nil {
		return models.Transaction{}, err
	}
	return s.GetTransaction(ctx, id)
}

// DeleteTransaction removes a transaction.
func (s *Store) DeleteTransaction(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, "transactions", id)
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	txs := []models.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func scanTransaction(row scanner) (models.Transaction, error) {
	var (
		tx          models.Transaction
		amount      money.Amount
		txType      string
		category    sql.NullString
		description sql.NullString
		date        string
		createdAt   string
	)
	err := row.Scan(&tx.ID, &tx.AccountID, &tx.AccountName, &tx.UserID, &tx.UserEmail,
		&amount, &txType, &category, &description, &date, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Transaction{}, storage.ErrNotFound
		}
		return models.Transaction{}, err
	}
	d, err := models.ParseDate(date)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("parse transaction date %q: %w", date, err)
	}
	ts, err := models.ParseTimestamp(createdAt)
	if err != nil {
		return models.Transaction{}, fmt.Errorf("parse transaction created_at %q: %w", createdAt, err)
	}
	tx.Amount = amount
	tx.Type = models.TransactionType(txType)
	if category.Valid {
		tx.Category = &category.String
	}
	if description.Valid {
		tx.Description = &description.String
	}
	tx.Date = d
	tx.CreatedAt = ts
	return tx, nil
}

// ---- helpers ----

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// setClause accumulates "column = ?" fragments for a partial UPDATE.
type setClause struct {
	parts []string
	args  []any
}

func (c *setClause) add(column string, value any) {
	c.parts = append(c.parts, column+" = ?")
	c.args = append(c.args, value)
}

// update runs a partial UPDATE on table. An empty clause only checks existence.
func (s *Store) update(ctx context.Context, table string, id int64, set setClause) error {
	if len(set.parts) == 0 {
		var exists int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM `+table+` WHERE id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		return err
	}
	query := `UPDATE ` + table + ` SET ` + strings.Join(set.parts, ", ") + ` WHERE id = ?`
	res, err := s.db.ExecContext(ctx, query, append(set.args, id)...)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) deleteByID(ctx context.Context, table string, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// mapError translates SQLite constraint violations into storage sentinels.
func mapError(err error) error {
	var sqlErr *sqlitedrv.Error
	if errors.As(err, &sqlErr) {
		switch sqlErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return storage.ErrAlreadyExists
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return storage.ErrInUse
		}
	}
	// Fall back to the message when only the primary result code is reported.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return storage.ErrAlreadyExists
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return storage.ErrInUse
	}
	return err
}
