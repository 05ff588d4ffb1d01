package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hongminglow/finance-ledger/internal/models"
	"github.com/hongminglow/finance-ledger/internal/models/dto"
	"github.com/hongminglow/finance-ledger/internal/money"
	"github.com/hongminglow/finance-ledger/internal/storage"
)

// ListAccounts returns every account with its owner's email.
func (s *Service) ListAccounts(ctx context.Context) ([]models.Account, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// GetAccount returns the account with id.
func (s *Service) GetAccount(ctx context.Context, id int64) (models.Account, error) {
	account, err := s.store.GetAccount(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Account{}, notFound(msgAccountNotFound)
		}
		return models.Account{}, fmt.Errorf("get account %d: %w", id, err)
	}
	return account, nil
}

// CreateAccount opens an account for an existing user. Balance defaults to 0.00.
func (s *Service) CreateAccount(ctx context.Context, req dto.AccountRequest) (models.Account, error) {
	if !supplied(req.UserID) || !supplied(req.Name) {
		return models.Account{}, badRequest(msgAccountFieldsRequired)
	}
	name, _, err := stringField(req.Name, "name")
	if err != nil {
		return models.Account{}, err
	}

	userID, err := s.resolveUser(ctx, req.UserID)
	if err != nil {
		return models.Account{}, err
	}

	balance := money.Zero
	if req.Balance.IsSet() {
		if balance, err = money.ParseJSON(req.Balance.Raw()); err != nil {
			return models.Account{}, badRequest(msgInvalidBalance)
		}
	}

	created, err := s.store.CreateAccount(ctx, models.Account{
		UserID:    userID,
		Name:      name,
		Balance:   balance,
		CreatedAt: models.NewTimestamp(s.now()),
	})
	if err != nil {
		return models.Account{}, accountWriteError(err, "create account")
	}
	return created, nil
}

// UpdateAccount changes the supplied fields of an account. Ownership may move
// to another existing user.
func (s *Service) UpdateAccount(ctx context.Context, id int64, req dto.AccountRequest) (models.Account, error) {
	if _, err := s.GetAccount(ctx, id); err != nil {
		return models.Account{}, err
	}

	var patch storage.AccountPatch

	name, ok, err := stringField(req.Name, "name")
	if err != nil {
		return models.Account{}, err
	}
	if ok {
		if strings.TrimSpace(name) == "" {
			return models.Account{}, badRequest(msgNameEmpty)
		}
		patch.Name = &name
	}

	if req.Balance.IsSet() {
		balance, err := money.ParseJSON(req.Balance.Raw())
		if err != nil {
			return models.Account{}, badRequest(msgInvalidBalance)
		}
		patch.Balance = &balance
	}

	if req.UserID.IsSet() {
		userID, err := s.resolveUser(ctx, req.UserID)
		if err != nil {
			return models.Account{}, err
		}
		patch.UserID = &userID
	}

	updated, err := s.store.UpdateAccount(ctx, id, patch)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Account{}, notFound(msgAccountNotFound)
		}
		return models.Account{}, accountWriteError(err, fmt.Sprintf("update account %d", id))
	}
	return updated, nil
}

// DeleteAccount removes an account that holds no transactions.
func (s *Service) DeleteAccount(ctx context.Context, id int64) error {
	if _, err := s.GetAccount(ctx, id); err != nil {
		return err
	}

	n, err := s.store.CountTransactionsByAccount(ctx, id)
	if err != nil {
		return fmt.Errorf("count transactions of account %d: %w", id, err)
	}
	if n > 0 {
		return conflict(msgAccountHasTransactions)
	}

	if err := s.store.DeleteAccount(ctx, id); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return notFound(msgAccountNotFound)
		case errors.Is(err, storage.ErrInUse):
			return conflict(msgAccountHasTransactions)
		}
		return fmt.Errorf("delete account %d: %w", id, err)
	}
	return nil
}

// UserAccounts lists a user's accounts with the sum of their stored balances.
func (s *Service) UserAccounts(ctx context.Context, userID int64) (dto.UserAccountsResponse, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return dto.UserAccountsResponse{}, err
	}

	accounts, err := s.store.ListAccountsByUser(ctx, userID)
	if err != nil {
		return dto.UserAccountsResponse{}, fmt.Errorf("list accounts of user %d: %w", userID, err)
	}

	out := dto.UserAccountsResponse{
		UserID:       user.ID,
		UserEmail:    user.Email,
		Accounts:     make([]dto.UserAccount, 0, len(accounts)),
		TotalBalance: money.Zero,
	}
	for _, a := range accounts {
		out.Accounts = append(out.Accounts, dto.UserAccount{
			ID:        a.ID,
			Name:      a.Name,
			Balance:   a.Balance,
			CreatedAt: a.CreatedAt,
		})
		out.TotalBalance = out.TotalBalance.Add(a.Balance)
	}
	return out, nil
}

// resolveUser returns the id of the existing user referenced by o. An id that
// is not an integer cannot match any user.
func (s *Service) resolveUser(ctx context.Context, o dto.Optional) (int64, error) {
	id, err := o.AsInt64()
	if err != nil {
		return 0, notFound(msgUserNotFound)
	}
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

func accountWriteError(err error, op string) error {
	switch {
	case errors.Is(err, storage.ErrInUse):
		// The owner disappeared between the lookup and the write.
		return notFound(msgUserNotFound)
	case errors.Is(err, storage.ErrOutOfRange):
		return badRequest(msgBalanceOutOfRange)
	}
	return fmt.Errorf("%s: %w", op, err)
}
