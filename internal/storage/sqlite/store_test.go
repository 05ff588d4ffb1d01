package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hongminglow/finance-ledger/internal/models"
	"github.com/hongminglow/finance-ledger/internal/money"
	"github.com/hongminglow/finance-ledger/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// StoreTestSuite runs each test against a fresh in-memory database.
type StoreTestSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
}

func (suite *StoreTestSuite) SetupTest() {
	store, err := NewStore(MemoryPath)
	require.NoError(suite.T(), err, "failed to create test database")
	store.now = func() time.Time { return time.Date(2024, 3, 9, 14, 30, 15, 0, time.UTC) }
	suite.store = store
	suite.ctx = context.Background()
}

func (suite *StoreTestSuite) TearDownTest() {
	if suite.store != nil {
		suite.store.Close()
	}
}

func (suite *StoreTestSuite) createUser(email string) models.User {
	user, err := suite.store.CreateUser(suite.ctx, models.User{Email: email, PasswordHash: "hash"})
	require.NoError(suite.T(), err)
	return user
}

func (suite *StoreTestSuite) createAccount(userID int64, name, balance string) models.Account {
	account, err := suite.store.CreateAccount(suite.ctx, models.Account{
		UserID:  userID,
		Name:    name,
		Balance: money.MustParse(balance),
	})
	require.NoError(suite.T(), err)
	return account
}

func (suite *StoreTestSuite) createTx(accountID int64, amount string, txType models.TransactionType, date string) models.Transaction {
	d, err := models.ParseDate(date)
	require.NoError(suite.T(), err)
	tx, err := suite.store.CreateTransaction(suite.ctx, models.Transaction{
		AccountID: accountID,
		Amount:    money.MustParse(amount),
		Type:      txType,
		Date:      d,
	})
	require.NoError(suite.T(), err)
	return tx
}

func (suite *StoreTestSuite) TestCreateUserAssignsIDAndTimestamp() {
	user := suite.createUser("a@example.com")

	assert.Equal(suite.T(), int64(1), user.ID)
	assert.Equal(suite.T(), "a@example.com", user.Email)
	assert.Equal(suite.T(), "hash", user.PasswordHash)
	assert.Equal(suite.T(), "2024-03-09 14:30:15", user.CreatedAt.String())
}

func (suite *StoreTestSuite) TestDuplicateEmailIsRejected() {
	suite.createUser("a@example.com")

	_, err := suite.store.CreateUser(suite.ctx, models.User{Email: "a@example.com", PasswordHash: "x"})
	assert.ErrorIs(suite.T(), err, storage.ErrAlreadyExists)

	// Email match is case-sensitive.
	_, err = suite.store.CreateUser(suite.ctx, models.User{Email: "A@example.com", PasswordHash: "x"})
	assert.NoError(suite.T(), err)
}

func (suite *StoreTestSuite) TestFindUserByEmail() {
	created := suite.createUser("find@example.com")

	found, err := suite.store.FindUserByEmail(suite.ctx, "find@example.com")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), created.ID, found.ID)

	_, err = suite.store.FindUserByEmail(suite.ctx, "missing@example.com")
	assert.ErrorIs(suite.T(), err, storage.ErrNotFound)
}

func (suite *StoreTestSuite) TestUpdateUser() {
	user := suite.createUser("old@example.com")
	other := suite.createUser("taken@example.com")

	email := "new@example.com"
	updated, err := suite.store.UpdateUser(suite.ctx, user.ID, storage.UserPatch{Email: &email})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), email, updated.Email)
	assert.Equal(suite.T(), "hash", updated.PasswordHash)

	_, err = suite.store.UpdateUser(suite.ctx, user.ID, storage.UserPatch{Email: &other.Email})
	assert.ErrorIs(suite.T(), err, storage.ErrAlreadyExists)

	unchanged, err := suite.store.UpdateUser(suite.ctx, user.ID, storage.UserPatch{})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), email, unchanged.Email)

	_, err = suite.store.UpdateUser(suite.ctx, 999, storage.UserPatch{})
	assert.ErrorIs(suite.T(), err, storage.ErrNotFound)
	_, err = suite.store.UpdateUser(suite.ctx, 999, storage.UserPatch{Email: &email})
	assert.ErrorIs(suite.T(), err, storage.ErrNotFound)
}

func (suite *StoreTestSuite) TestListUsersOrderedByID() {
	suite.createUser("b@example.com")
	suite.createUser("a@example.com")

	users, err := suite.store.ListUsers(suite.ctx)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), users, 2)
	assert.Equal(suite.T(), "b@example.com", users[0].Email)
	assert.Equal(suite.T(), "a@example.com", users[1].Email)
}

func (suite *StoreTestSuite) TestEmptyListsAreNotNil() {
	users, err := suite.store.ListUsers(suite.ctx)
	require.NoError(suite.T(), err)
	assert.NotNil(suite.T(), users)
	assert.Empty(suite.T(), users)

	txs, err := suite.store.ListTransactionsByType(suite.ctx, models.Income)
	require.NoError(suite.T(), err)
	assert.NotNil(suite.T(), txs)
}

func (suite *StoreTestSuite) TestAccountIncludesOwnerEmail() {
	user := suite.createUser("owner@example.com")
	account := suite.createAccount(user.ID, "Checking", "1000")

	assert.Equal(suite.T(), user.ID, account.UserID)
	assert.Equal(suite.T(), "owner@example.com", account.UserEmail)
	assert.Equal(suite.T(), "1000.00", account.Balance.String())

	byUser, err := suite.store.ListAccountsByUser(suite.ctx, user.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), byUser, 1)
	assert.Equal(suite.T(), "Checking", byUser[0].Name)
}

func (suite *StoreTestSuite) TestAccountRequiresExistingUser() {
	_, err := suite.store.CreateAccount(suite.ctx, models.Account{UserID: 42, Name: "Ghost", Balance: money.Zero})
	assert.ErrorIs(suite.T(), err, storage.ErrInUse)
}

func (suite *StoreTestSuite) TestUpdateAccountMovesOwner() {
	alice := suite.createUser("alice@example.com")
	bob := suite.createUser("bob@example.com")
	account := suite.createAccount(alice.ID, "Savings", "10")

	balance := money.MustParse("25.5")
	updated, err := suite.store.UpdateAccount(suite.ctx, account.ID, storage.AccountPatch{
		UserID:  &bob.ID,
		Balance: &balance,
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), bob.ID, updated.UserID)
	assert.Equal(suite.T(), "bob@example.com", updated.UserEmail)
	assert.Equal(suite.T(), "25.50", updated.Balance.String())
	assert.Equal(suite.T(), "Savings", updated.Name)

	missing := int64(77)
	_, err = suite.store.UpdateAccount(suite.ctx, account.ID, storage.AccountPatch{UserID: &missing})
	assert.ErrorIs(suite.T(), err, storage.ErrInUse)
}

func (suite *StoreTestSuite) TestDeleteRestrictedByDependents() {
	user := suite.createUser("r@example.com")
	account := suite.createAccount(user.ID, "Main", "0")
	tx := suite.createTx(account.ID, "5", models.Expense, "2024-01-01")

	assert.ErrorIs(suite.T(), suite.store.DeleteUser(suite.ctx, user.ID), storage.ErrInUse)
	assert.ErrorIs(suite.T(), suite.store.DeleteAccount(suite.ctx, account.ID), storage.ErrInUse)

	require.NoError(suite.T(), suite.store.DeleteTransaction(suite.ctx, tx.ID))
	require.NoError(suite.T(), suite.store.DeleteAccount(suite.ctx, account.ID))
	require.NoError(suite.T(), suite.store.DeleteUser(suite.ctx, user.ID))

	assert.ErrorIs(suite.T(), suite.store.DeleteUser(suite.ctx, user.ID), storage.ErrNotFound)
	_, err := suite.store.GetAccount(suite.ctx, account.ID)
	assert.ErrorIs(suite.T(), err, storage.ErrNotFound)
}

func (suite *StoreTestSuite) TestTransactionJoinsAccountAndUser() {
	user := suite.createUser("t@example.com")
	account := suite.createAccount(user.ID, "Wallet", "0")

	category := "salary"
	created, err := suite.store.CreateTransaction(suite.ctx, models.Transaction{
		AccountID: account.ID,
		Amount:    money.MustParse("1234.5"),
		Type:      models.Income,
		Category:  &category,
	})
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "Wallet", created.AccountName)
	assert.Equal(suite.T(), user.ID, created.UserID)
	assert.Equal(suite.T(), "t@example.com", created.UserEmail)
	assert.Equal(suite.T(), "1234.50", created.Amount.String())
	require.NotNil(suite.T(), created.Category)
	assert.Equal(suite.T(), "salary", *created.Category)
	assert.Nil(suite.T(), created.Description)
	// Date defaults to the creation day.
	assert.Equal(suite.T(), "2024-03-09", created.Date.String())
}

func (suite *StoreTestSuite) TestTransactionsOrderedNewestDateFirst() {
	user := suite.createUser("o@example.com")
	account := suite.createAccount(user.ID, "Main", "0")
	older := suite.createTx(account.ID, "1", models.Income, "2024-01-01")
	newer := suite.createTx(account.ID, "2", models.Expense, "2024-02-01")
	sameDay := suite.createTx(account.ID, "3", models.Income, "2024-02-01")

	txs, err := suite.store.ListTransactionsByAccount(suite.ctx, account.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), txs, 3)
	assert.Equal(suite.T(), []int64{sameDay.ID, newer.ID, older.ID}, []int64{txs[0].ID, txs[1].ID, txs[2].ID})

	income, err := suite.store.ListTransactionsByType(suite.ctx, models.Income)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), income, 2)
	assert.Equal(suite.T(), sameDay.ID, income[0].ID)
	assert.Equal(suite.T(), older.ID, income[1].ID)

	n, err := suite.store.CountTransactionsByAccount(suite.ctx, account.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 3, n)
}

func (suite *StoreTestSuite) TestUpdateTransaction() {
	user := suite.createUser("u@example.com")
	first := suite.createAccount(user.ID, "First", "0")
	second := suite.createAccount(user.ID, "Second", "0")
	tx := suite.createTx(first.ID, "10", models.Income, "2024-01-01")

	amount := money.MustParse("99.99")
	txType := models.Expense
	description := "moved"
	date, err := models.ParseDate("2024-05-06")
	require.NoError(suite.T(), err)

	updated, err := suite.store.UpdateTransaction(suite.ctx, tx.ID, storage.TransactionPatch{
		AccountID:   &second.ID,
		Amount:      &amount,
		Type:        &txType,
		Description: &description,
		Date:        &date,
	})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), second.ID, updated.AccountID)
	assert.Equal(suite.T(), "Second", updated.AccountName)
	assert.Equal(suite.T(), "99.99", updated.Amount.String())
	assert.Equal(suite.T(), models.Expense, updated.Type)
	assert.Equal(suite.T(), "2024-05-06", updated.Date.String())
	require.NotNil(suite.T(), updated.Description)
	assert.Equal(suite.T(), "moved", *updated.Description)
	assert.Nil(suite.T(), updated.Category)

	_, err = suite.store.UpdateTransaction(suite.ctx, 500, storage.TransactionPatch{Amount: &amount})
	assert.ErrorIs(suite.T(), err, storage.ErrNotFound)
}

func (suite *StoreTestSuite) TestPing() {
	assert.NoError(suite.T(), suite.store.Ping(suite.ctx))
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func TestFileStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.db")

	store, err := NewStore(path)
	require.NoError(t, err)
	user, err := store.CreateUser(context.Background(), models.User{Email: "disk@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	store.Close()

	_, err = os.Stat(path)
	require.NoError(t, err)

	reopened, err := NewStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetUser(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "disk@example.com", got.Email)

	// Foreign keys are enforced on file databases too.
	_, err = reopened.CreateAccount(context.Background(), models.Account{UserID: 999, Name: "x", Balance: money.Zero})
	assert.ErrorIs(t, err, storage.ErrInUse)
}
