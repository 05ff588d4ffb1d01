package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hongminglow/finance-ledger/internal/models"
	"github.com/hongminglow/finance-ledger/internal/models/dto"
	"github.com/hongminglow/finance-ledger/internal/storage"
)

// ListUsers returns every user.
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetUser returns the user with id.
func (s *Service) GetUser(ctx context.Context, id int64) (models.User, error) {
	user, err := s.store.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, notFound(msgUserNotFound)
		}
		return models.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return user, nil
}

// CreateUser registers a user with a unique email and a hashed password.
func (s *Service) CreateUser(ctx context.Context, req dto.CreateUserRequest) (models.User, error) {
	email, _, err := stringField(req.Email, "email")
	if err != nil {
		return models.User{}, err
	}
	password, _, err := stringField(req.Password, "password")
	if err != nil {
		return models.User{}, err
	}
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return models.User{}, badRequest(msgUserFieldsRequired)
	}

	if _, err := s.store.FindUserByEmail(ctx, email); err == nil {
		return models.User{}, conflict(msgUserExists)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return models.User{}, fmt.Errorf("look up email: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, err
	}

	created, err := s.store.CreateUser(ctx, models.User{
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    models.NewTimestamp(s.now()),
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.User{}, conflict(msgUserExists)
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

// UpdateUser changes the supplied fields of a user.
func (s *Service) UpdateUser(ctx context.Context, id int64, req dto.UpdateUserRequest) (models.User, error) {
	if _, err := s.GetUser(ctx, id); err != nil {
		return models.User{}, err
	}

	var patch storage.UserPatch

	email, ok, err := stringField(req.Email, "email")
	if err != nil {
		return models.User{}, err
	}
	if ok {
		email = strings.TrimSpace(email)
		if email == "" {
			return models.User{}, badRequest(msgEmailEmpty)
		}
		existing, err := s.store.FindUserByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != id:
			return models.User{}, conflict(msgEmailTaken)
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			return models.User{}, fmt.Errorf("look up email: %w", err)
		}
		patch.Email = &email
	}

	password, ok, err := stringField(req.Password, "password")
	if err != nil {
		return models.User{}, err
	}
	if ok {
		if strings.TrimSpace(password) == "" {
			return models.User{}, badRequest(msgPasswordEmpty)
		}
		hash, err := s.hasher.Hash(password)
		if err != nil {
			return models.User{}, err
		}
		patch.PasswordHash = &hash
	}

	updated, err := s.store.UpdateUser(ctx, id, patch)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return models.User{}, notFound(msgUserNotFound)
		case errors.Is(err, storage.ErrAlreadyExists):
			return models.User{}, conflict(msgEmailTaken)
		}
		return models.User{}, fmt.Errorf("update user %d: %w", id, err)
	}
	return updated, nil
}

// DeleteUser removes a user that owns no accounts.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	if _, err := s.GetUser(ctx, id); err != nil {
		return err
	}

	accounts, err := s.store.ListAccountsByUser(ctx, id)
	if err != nil {
		return fmt.Errorf("list accounts of user %d: %w", id, err)
	}
	if len(accounts) > 0 {
		return conflict(msgUserHasAccounts)
	}

	if err := s.store.DeleteUser(ctx, id); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return notFound(msgUserNotFound)
		case errors.Is(err, storage.ErrInUse):
			return conflict(msgUserHasAccounts)
		}
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	return nil
}
