package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// Plans.
const (
	PlanFree    = "free"
	PlanPremium = "premium"
)

// ErrUserExists is returned when registering an email twice.
var ErrUserExists = errors.New("user already exists")

// ErrNoCredits is returned by ConsumeCredit when the balance is exhausted.
var ErrNoCredits = errors.New("no credits left")

// User is a development backend account.
type User struct {
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Plan         string    `json:"plan"`
	Credits      int       `json:"credits"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TokenKind distinguishes access from refresh tokens.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// CreateUser inserts a new user. Emails are case-insensitive.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	u.Email = normalizeEmail(u.Email)
	if u.Email == "" {
		return errors.New("email required")
	}
	if u.Plan == "" {
		u.Plan = PlanFree
	}
	u.CreatedAt = s.timestamp()
	if _, err := s.GetUser(ctx, u.Email); err == nil {
		return ErrUserExists
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	_, err := s.exec(ctx, `INSERT INTO users (email, name, password_hash, plan, credits, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		u.Email, u.Name, u.PasswordHash, u.Plan, u.Credits, u.CreatedAt,
	)
	return err
}

// GetUser loads a user by email.
func (s *Store) GetUser(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.queryRow(ctx, `SELECT email, name, password_hash, plan, credits, created_at FROM users WHERE email=?`, normalizeEmail(email)).
		Scan(&u.Email, &u.Name, &u.PasswordHash, &u.Plan, &u.Credits, &u.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// ConsumeCredit atomically takes one credit from a free user. Premium users
// are never charged.
func (s *Store) ConsumeCredit(ctx context.Context, email string) (int, error) {
	u, err := s.GetUser(ctx, email)
	if err != nil {
		return 0, err
	}
	if u.Plan == PlanPremium {
		return u.Credits, nil
	}
	var left int
	err = s.queryRow(ctx, `UPDATE users SET credits = credits - 1 WHERE email=? AND credits > 0 RETURNING credits`, u.Email).Scan(&left)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNoCredits
	}
	if err != nil {
		return 0, err
	}
	return left, nil
}

// SaveAuthToken records an opaque token for email.
func (s *Store) SaveAuthToken(ctx context.Context, token string, kind TokenKind, email string, ttl time.Duration) error {
	_, err := s.exec(ctx, `INSERT INTO tokens (token, kind, email, expires_at) VALUES (?, ?, ?, ?)`,
		token, string(kind), normalizeEmail(email), s.timestamp().Add(ttl),
	)
	return err
}

// LookupAuthToken returns the owner of an unexpired token of kind.
func (s *Store) LookupAuthToken(ctx context.Context, token string, kind TokenKind) (string, error) {
	var (
		email   string
		expires time.Time
	)
	err := s.queryRow(ctx, `SELECT email, expires_at FROM tokens WHERE token=? AND kind=?`, token, string(kind)).Scan(&email, &expires)
	if err != nil {
		return "", notFound(err)
	}
	if !s.timestamp().Before(expires) {
		return "", ErrNotFound
	}
	return email, nil
}

// RevokeAuthToken deletes a single token.
func (s *Store) RevokeAuthToken(ctx context.Context, token string) error {
	_, err := s.exec(ctx, `DELETE FROM tokens WHERE token=?`, token)
	return err
}

// RevokeUserTokens deletes every token of email.
func (s *Store) RevokeUserTokens(ctx context.Context, email string) error {
	_, err := s.exec(ctx, `DELETE FROM tokens WHERE email=?`, normalizeEmail(email))
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
