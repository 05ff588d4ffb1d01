// Package ledger validates requests against the stored users, accounts and
// transactions and computes the per-user and per-account aggregates.
package ledger

import (
	"strings"
	"time"

	"github.com/hongminglow/finance-ledger/internal/models/dto"
	"github.com/hongminglow/finance-ledger/internal/storage"
)

// PasswordHasher turns a plaintext password into a one-way hash.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// Service implements the ledger's business rules over a storage.Store.
type Service struct {
	store  storage.Store
	hasher PasswordHasher
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used for creation timestamps and default dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New builds a Service backed by store.
func New(store storage.Store, hasher PasswordHasher, opts ...Option) *Service {
	s := &Service{store: store, hasher: hasher, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// stringField decodes an optional string field. ok is false when the field is
// absent or null.
func stringField(o dto.Optional, name string) (value string, ok bool, err error) {
	if !o.IsSet() {
		return "", false, nil
	}
	s, err := o.AsString()
	if err != nil {
		return "", false, badRequest(name + " must be a string")
	}
	return s, true, nil
}

// supplied reports whether a required field carries something other than null
// or a blank string.
func supplied(o dto.Optional) bool {
	if !o.IsSet() {
		return false
	}
	if s, err := o.AsString(); err == nil {
		return strings.TrimSpace(s) != ""
	}
	return true
}
