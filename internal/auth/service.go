package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const defaultBcryptCost = 12

type CredentialStore interface {
	Create(ctx context.Context, account Account) (Account, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	GetByUsername(ctx context.Context, username string) (Account, error)
	GetByID(ctx context.Context, id string) (Account, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	UpsertAdmin(ctx context.Context, username, email, passwordHash string) error
}

type Service struct {
	store             CredentialStore
	tracker           AttemptTracker
	tokens            *TokenIssuer
	passwordMinLength int
	bcryptCost        int
	allowRegisterRole bool
	now               func() time.Time
}

func NewService(store CredentialStore, tracker AttemptTracker, tokens *TokenIssuer) *Service {
	return &Service{
		store:             store,
		tracker:           tracker,
		tokens:            tokens,
		passwordMinLength: defaultPasswordMinLength,
		bcryptCost:        defaultBcryptCost,
		now:               func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) WithPasswordPolicy(minLength, bcryptCost int) *Service {
	if minLength > 0 {
		s.passwordMinLength = minLength
	}
	if bcryptCost >= bcrypt.MinCost && bcryptCost <= bcrypt.MaxCost {
		s.bcryptCost = bcryptCost
	}
	return s
}

// WithRegisterRole controls whether registration may request the admin role.
func (s *Service) WithRegisterRole(allow bool) *Service {
	s.allowRegisterRole = allow
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Tokens() *TokenIssuer {
	return s.tokens
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (Session, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)
	password := input.Password

	if missing := missingFields(map[string]string{"username": username, "password": password, "email": email}, "username", "password", "email"); missing != nil {
		return Session{}, missing
	}
	if !ValidEmail(email) {
		return Session{}, ErrInvalidEmail
	}
	if err := ValidatePassword(password, s.passwordMinLength); err != nil {
		return Session{}, err
	}

	role, err := s.registrationRole(input.Role)
	if err != nil {
		return Session{}, err
	}

	exists, err := s.store.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return Session{}, err
	}
	if exists {
		return Session{}, ErrIdentityTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	account, err := s.store.Create(ctx, Account{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateIdentity) {
			return Session{}, ErrIdentityTaken
		}
		return Session{}, err
	}

	return s.session(account)
}

func (s *Service) registrationRole(requested string) (Role, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return RoleUser, nil
	}

	role := Role(requested)
	if !role.Valid() {
		return "", ErrInvalidRole
	}
	if role == RoleAdmin && !s.allowRegisterRole {
		return "", ErrForbidden
	}

	return role, nil
}

// Login authenticates a username/password pair. The lockout check runs before the
// store is touched, and unknown users fail exactly like wrong passwords.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	username = strings.TrimSpace(username)

	if missing := missingFields(map[string]string{"username": username, "password": password}, "username", "password"); missing != nil {
		return Session{}, missing
	}

	lockout, err := s.tracker.Check(ctx, username)
	if err != nil {
		return Session{}, err
	}
	if lockout != nil {
		return Session{}, lockout.Err()
	}

	account, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, s.failAttempt(ctx, username)
		}
		return Session{}, err
	}

	if !account.IsActive {
		return Session{}, ErrAccountDeactivated
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return Session{}, s.failAttempt(ctx, username)
	}

	if err := s.tracker.Clear(ctx, username); err != nil {
		return Session{}, err
	}

	now := s.now()
	if err := s.store.UpdateLastLogin(ctx, account.ID, now); err != nil {
		return Session{}, err
	}
	account.LastLogin = &now

	return s.session(account)
}

func (s *Service) failAttempt(ctx context.Context, username string) error {
	lockout, err := s.tracker.RecordFailure(ctx, username)
	if err != nil {
		return err
	}
	if lockout != nil {
		return lockout.Err()
	}
	return ErrInvalidCredentials
}

// Refresh exchanges a refresh token for a new pair. The presented token stays
// valid until its own expiry.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return TokenPair{}, MissingFieldError{Fields: []string{"refresh_token"}}
	}

	payload, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return TokenPair{}, err
	}

	account, err := s.store.GetByID(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TokenPair{}, ErrAccountNotFound
		}
		return TokenPair{}, err
	}
	if !account.IsActive {
		return TokenPair{}, ErrAccountNotFound
	}

	return s.tokens.IssuePair(subjectOf(account))
}

func (s *Service) Verify(token string) (Payload, error) {
	return s.tokens.VerifyAccess(token)
}

// BootstrapAdmin ensures the configured admin account exists.
func (s *Service) BootstrapAdmin(ctx context.Context, username, password, email string) error {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" && password == "" {
		return nil
	}
	if username == "" || password == "" {
		return fmt.Errorf("ADMIN_USERNAME and ADMIN_PASSWORD are required together")
	}
	if email == "" {
		email = username + "@localhost.localdomain"
	}
	if !ValidEmail(email) {
		return ErrInvalidEmail
	}
	if err := ValidatePassword(password, s.passwordMinLength); err != nil {
		return fmt.Errorf("admin password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.store.UpsertAdmin(ctx, username, email, string(hash))
}

func (s *Service) session(account Account) (Session, error) {
	tokens, err := s.tokens.IssuePair(subjectOf(account))
	if err != nil {
		return Session{}, err
	}
	return Session{Profile: account.Profile(), Tokens: tokens}, nil
}

func subjectOf(account Account) Subject {
	role := account.Role
	if role == "" {
		role = RoleUser
	}
	return Subject{UserID: account.ID, Username: account.Username, Role: role}
}

func missingFields(values map[string]string, order ...string) error {
	var missing []string
	for _, name := range order {
		if values[name] == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return MissingFieldError{Fields: missing}
}
