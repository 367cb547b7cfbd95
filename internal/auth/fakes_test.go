package auth

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type memStore struct {
	mu       sync.Mutex
	accounts map[string]Account
	lookups  int
}

func newMemStore() *memStore {
	return &memStore{accounts: make(map[string]Account)}
}

func (s *memStore) Create(_ context.Context, account Account) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if existing.Username == account.Username || existing.Email == account.Email {
			return Account{}, ErrDuplicateIdentity
		}
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	account.CreatedAt = time.Now().UTC()
	account.UpdatedAt = account.CreatedAt
	s.accounts[account.ID] = account
	return account, nil
}

func (s *memStore) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if existing.Username == username || existing.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) GetByUsername(_ context.Context, username string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lookups++
	for _, existing := range s.accounts {
		if existing.Username == username {
			return existing, nil
		}
	}
	return Account{}, sql.ErrNoRows
}

func (s *memStore) GetByID(_ context.Context, id string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return Account{}, sql.ErrNoRows
	}
	return account, nil
}

func (s *memStore) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return sql.ErrNoRows
	}
	account.LastLogin = &at
	s.accounts[id] = account
	return nil
}

func (s *memStore) UpsertAdmin(_ context.Context, username, email, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.accounts {
		if existing.Username == username {
			existing.PasswordHash = passwordHash
			existing.Role = RoleAdmin
			existing.IsActive = true
			s.accounts[id] = existing
			return nil
		}
	}

	id := uuid.NewString()
	s.accounts[id] = Account{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         RoleAdmin,
		IsActive:     true,
	}
	return nil
}

func (s *memStore) setActive(username string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, existing := range s.accounts {
		if existing.Username == username {
			existing.IsActive = active
			s.accounts[id] = existing
		}
	}
}

func (s *memStore) lookupCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookups
}
