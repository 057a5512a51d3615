// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package users

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/taibuivan/alfurqan/internal/platform/apperr"
	"github.com/taibuivan/alfurqan/internal/platform/sec"
)

// # Account Data Access

// Store defines the data access contract for accounts.
type Store interface {

	/*
		Create persists a brand-new account.

		Returns:
		  - error: apperr.Conflict when the username or email is taken
	*/
	Create(ctx context.Context, account *Account) error

	// FindByID returns the account with the given ID, or apperr.NotFound.
	FindByID(ctx context.Context, id string) (*Account, error)

	/*
		FindByLogin returns the account whose username or email matches login,
		ignoring case.

		Returns:
		  - *Account: Hydrated entity
		  - error: apperr.NotFound when nothing matches
	*/
	FindByLogin(ctx context.Context, login string) (*Account, error)

	// UpdateRole replaces the role of an account and returns the updated row.
	UpdateRole(ctx context.Context, id string, role sec.Role, updatedAt time.Time) (*Account, error)

	// CountByRole returns how many accounts hold role.
	CountByRole(ctx context.Context, role sec.Role) (int, error)
}

// # In-Memory Implementation

// MemoryStore is a [Store] for tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*Account
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[string]*Account)}
}

func (s *MemoryStore) Create(_ context.Context, account *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if strings.EqualFold(existing.Username, account.Username) {
			return apperr.Conflict("Username is already taken")
		}
		if strings.EqualFold(existing.Email, account.Email) {
			return apperr.Conflict("Email is already registered")
		}
	}
	s.accounts[account.ID] = account.Clone()
	return nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	return account.Clone(), nil
}

func (s *MemoryStore) FindByLogin(_ context.Context, login string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, account := range s.accounts {
		if strings.EqualFold(account.Username, login) || strings.EqualFold(account.Email, login) {
			return account.Clone(), nil
		}
	}
	return nil, apperr.NotFound("User")
}

func (s *MemoryStore) UpdateRole(_ context.Context, id string, role sec.Role, updatedAt time.Time) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, apperr.NotFound("User")
	}
	account.Role = role
	account.UpdatedAt = updatedAt
	return account.Clone(), nil
}

func (s *MemoryStore) CountByRole(_ context.Context, role sec.Role) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, account := range s.accounts {
		if account.Role == role {
			count++
		}
	}
	return count, nil
}
