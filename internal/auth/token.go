package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	defaultAccessTTL  = 24 * time.Hour
	defaultRefreshTTL = 7 * 24 * time.Hour
)

type tokenClaims struct {
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	Role     Role      `json:"role"`
	Type     TokenKind `json:"type,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 tokens. It keeps no server-side state.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewTokenIssuer(secret string, accessTTL, refreshTTL time.Duration) *TokenIssuer {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}

	return &TokenIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	i.now = now
	return i
}

func (i *TokenIssuer) AccessTTL() time.Duration {
	return i.accessTTL
}

func (i *TokenIssuer) IssueAccess(sub Subject) (string, time.Time, error) {
	return i.issue(sub, KindAccess, i.accessTTL)
}

func (i *TokenIssuer) IssueRefresh(sub Subject) (string, time.Time, error) {
	return i.issue(sub, KindRefresh, i.refreshTTL)
}

// IssuePair mints an access and a refresh token for the same subject.
func (i *TokenIssuer) IssuePair(sub Subject) (TokenPair, error) {
	access, _, err := i.IssueAccess(sub)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, _, err := i.IssueRefresh(sub)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(i.accessTTL.Seconds()),
	}, nil
}

func (i *TokenIssuer) issue(sub Subject, kind TokenKind, ttl time.Duration) (string, time.Time, error) {
	now := i.now()
	expiresAt := now.Add(ttl)

	claims := tokenClaims{
		UserID:   sub.UserID,
		Username: sub.Username,
		Role:     sub.Role,
		Type:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   sub.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	encoded, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign jwt: %w", err)
	}

	return encoded, expiresAt, nil
}

// Verify checks signature and expiry regardless of token kind.
func (i *TokenIssuer) Verify(token string) (Payload, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Payload{}, ErrTokenInvalid
	}

	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Payload{}, ErrTokenExpired
		}
		return Payload{}, ErrTokenInvalid
	}
	if !parsed.Valid || claims.UserID == "" {
		return Payload{}, ErrTokenInvalid
	}

	payload := Payload{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
		Kind:     claims.Type,
	}
	if claims.IssuedAt != nil {
		payload.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	if claims.ExpiresAt != nil {
		payload.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	if payload.Kind == "" {
		payload.Kind = KindAccess
	}

	return payload, nil
}

func (i *TokenIssuer) VerifyAccess(token string) (Payload, error) {
	payload, err := i.Verify(token)
	if err != nil {
		return Payload{}, err
	}
	if payload.Kind != KindAccess {
		return Payload{}, ErrTokenWrongType
	}
	return payload, nil
}

func (i *TokenIssuer) VerifyRefresh(token string) (Payload, error) {
	payload, err := i.Verify(token)
	if err != nil {
		return Payload{}, err
	}
	if payload.Kind != KindRefresh {
		return Payload{}, ErrTokenWrongType
	}
	return payload, nil
}
