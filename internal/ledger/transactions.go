package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/hongminglow/finance-ledger/internal/models"
	"github.com/hongminglow/finance-ledger/internal/models/dto"
	"github.com/hongminglow/finance-ledger/internal/money"
	"github.com/hongminglow/finance-ledger/internal/storage"
)

// ListTransactions returns every transaction.
func (s *Service) ListTransactions(ctx context.Context) ([]models.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

// GetTransaction returns the transaction with id.
func (s *Service) GetTransaction(ctx context.Context, id int64) (models.Transaction, error) {
	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Transaction{}, notFound(msgTransactionNotFound)
		}
		return models.Transaction{}, fmt.Errorf("get transaction %d: %w", id, err)
	}
	return tx, nil
}

// CreateTransaction records an income or expense against an existing account.
// The date defaults to today. Nothing is written unless every field is valid.
func (s *Service) CreateTransaction(ctx context.Context, req dto.TransactionRequest) (models.Transaction, error) {
	if !supplied(req.AccountID) || !supplied(req.Amount) || !supplied(req.Type) {
		return models.Transaction{}, badRequest(msgTransactionFieldsRequired)
	}

	accountID, err := s.resolveAccount(ctx, req.AccountID)
	if err != nil {
		return models.Transaction{}, err
	}
	txType, err := parseType(req.Type)
	if err != nil {
		return models.Transaction{}, err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return models.Transaction{}, err
	}
	category, _, err := stringField(req.Category, "category")
	if err != nil {
		return models.Transaction{}, err
	}
	description, _, err := stringField(req.Description, "description")
	if err != nil {
		return models.Transaction{}, err
	}

	now := s.now()
	date := models.NewDate(now)
	if req.Date.IsSet() {
		if date, err = parseDate(req.Date); err != nil {
			return models.Transaction{}, err
		}
	}

	tx := models.Transaction{
		AccountID: accountID,
		Amount:    amount,
		Type:      txType,
		Date:      date,
		CreatedAt: models.NewTimestamp(now),
	}
	if req.Category.IsSet() {
		tx.Category = &category
	}
	if req.Description.IsSet() {
		tx.Description = &description
	}

	created, err := s.store.CreateTransaction(ctx, tx)
	if err != nil {
		return models.Transaction{}, transactionWriteError(err, "create transaction")
	}
	return created, nil
}

// UpdateTransaction changes the supplied fields of a transaction. It may be
// moved to another existing account.
func (s *Service) UpdateTransaction(ctx context.Context, id int64, req dto.TransactionRequest) (models.Transaction, error) {
	if _, err := s.GetTransaction(ctx, id); err != nil {
		return models.Transaction{}, err
	}

	var patch storage.TransactionPatch

	if req.Amount.IsSet() {
		amount, err := parseAmount(req.Amount)
		if err != nil {
			return models.Transaction{}, err
		}
		patch.Amount = &amount
	}
	if req.Type.IsSet() {
		txType, err := parseType(req.Type)
		if err != nil {
			return models.Transaction{}, err
		}
		patch.Type = &txType
	}
	if category, ok, err := stringField(req.Category, "category"); err != nil {
		return models.Transaction{}, err
	} else if ok {
		patch.Category = &category
	}
	if description, ok, err := stringField(req.Description, "description"); err != nil {
		return models.Transaction{}, err
	} else if ok {
		patch.Description = &description
	}
	if req.Date.IsSet() {
		date, err := parseDate(req.Date)
		if err != nil {
			return models.Transaction{}, err
		}
		patch.Date = &date
	}
	if req.AccountID.IsSet() {
		accountID, err := s.resolveAccount(ctx, req.AccountID)
		if err != nil {
			return models.Transaction{}, err
		}
		patch.AccountID = &accountID
	}

	updated, err := s.store.UpdateTransaction(ctx, id, patch)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Transaction{}, notFound(msgTransactionNotFound)
		}
		return models.Transaction{}, transactionWriteError(err, fmt.Sprintf("update transaction %d", id))
	}
	return updated, nil
}

// DeleteTransaction removes a transaction.
func (s *Service) DeleteTransaction(ctx context.Context, id int64) error {
	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return notFound(msgTransactionNotFound)
		}
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return nil
}

// AccountTransactions lists an account's transactions, newest date first, with
// the income and expense totals computed from them.
func (s *Service) AccountTransactions(ctx context.Context, accountID int64) (dto.AccountTransactionsResponse, error) {
	account, err := s.GetAccount(ctx, accountID)
	if err != nil {
		return dto.AccountTransactionsResponse{}, err
	}

	txs, err := s.store.ListTransactionsByAccount(ctx, accountID)
	if err != nil {
		return dto.AccountTransactionsResponse{}, fmt.Errorf("list transactions of account %d: %w", accountID, err)
	}

	return dto.AccountTransactionsResponse{
		AccountID:    account.ID,
		AccountName:  account.Name,
		Transactions: txs,
		Summary:      Summarize(txs),
	}, nil
}

// TransactionsByType lists every transaction of one type, newest date first,
// with their total.
func (s *Service) TransactionsByType(ctx context.Context, txType string) (dto.TransactionsByTypeResponse, error) {
	t := models.TransactionType(txType)
	if !t.Valid() {
		return dto.TransactionsByTypeResponse{}, badRequest(msgInvalidType)
	}

	txs, err := s.store.ListTransactionsByType(ctx, t)
	if err != nil {
		return dto.TransactionsByTypeResponse{}, fmt.Errorf("list %s transactions: %w", t, err)
	}

	total := money.Zero
	for _, tx := range txs {
		total = total.Add(tx.Amount)
	}
	return dto.TransactionsByTypeResponse{
		Type:         t,
		Transactions: txs,
		Total:        total,
		Count:        len(txs),
	}, nil
}

// Summarize totals income and expense separately. Balance is income minus
// expense and is unrelated to any account's stored balance.
func Summarize(txs []models.Transaction) dto.Summary {
	income, expense := money.Zero, money.Zero
	for _, tx := range txs {
		switch tx.Type {
		case models.Income:
			income = income.Add(tx.Amount)
		case models.Expense:
			expense = expense.Add(tx.Amount)
		}
	}
	return dto.Summary{
		TotalIncome:  income,
		TotalExpense: expense,
		Balance:      income.Sub(expense),
		Count:        len(txs),
	}
}

func (s *Service) resolveAccount(ctx context.Context, o dto.Optional) (int64, error) {
	id, err := o.AsInt64()
	if err != nil {
		return 0, notFound(msgAccountNotFound)
	}
	account, err := s.GetAccount(ctx, id)
	if err != nil {
		return 0, err
	}
	return account.ID, nil
}

func parseType(o dto.Optional) (models.TransactionType, error) {
	s, err := o.AsString()
	if err != nil {
		return "", badRequest(msgInvalidType)
	}
	t := models.TransactionType(s)
	if !t.Valid() {
		return "", badRequest(msgInvalidType)
	}
	return t, nil
}

func parseAmount(o dto.Optional) (money.Amount, error) {
	amount, err := money.ParseJSON(o.Raw())
	if err != nil {
		return money.Amount{}, badRequest(msgInvalidAmount)
	}
	if !amount.IsPositive() {
		return money.Amount{}, badRequest(msgAmountNotPositive)
	}
	return amount, nil
}

func parseDate(o dto.Optional) (models.Date, error) {
	s, err := o.AsString()
	if err != nil {
		return models.Date{}, badRequest(msgInvalidDate)
	}
	d, err := models.ParseDate(s)
	if err != nil {
		return models.Date{}, badRequest(msgInvalidDate)
	}
	return d, nil
}

func transactionWriteError(err error, op string) error {
	switch {
	case errors.Is(err, storage.ErrInUse):
		return notFound(msgAccountNotFound)
	case errors.Is(err, storage.ErrOutOfRange):
		return badRequest(msgAmountOutOfRange)
	}
	return fmt.Errorf("%s: %w", op, err)
}
