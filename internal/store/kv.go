package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"

	"github.com/goalcheck/goalcheck/internal/session"
)

const (
	keyToken       = "session.token"
	keySettings    = "session.settings"
	keyPendingGoal = "session.pending_goal"
)

// Get returns the raw value stored under key.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.queryRow(ctx, `SELECT value FROM kv WHERE key=?`, key).Scan(&value)
	if err != nil {
		return "", notFound(err)
	}
	return value, nil
}

// Put stores value under key, replacing any previous value.
func (s *Store) Put(ctx context.Context, key, value string) error {
	_, err := s.exec(ctx, `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, s.timestamp(),
	)
	return err
}

// Delete removes key. Missing keys are not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.exec(ctx, `DELETE FROM kv WHERE key=?`, key)
	return err
}

func (s *Store) getJSON(ctx context.Context, key string, v interface{}) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) putJSON(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Put(ctx, key, string(data))
}

func (s *Store) Token(ctx context.Context) (*oauth2.Token, error) {
	var tok oauth2.Token
	if err := s.getJSON(ctx, keyToken, &tok); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, session.ErrNoSession
		}
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, session.ErrNoSession
	}
	return &tok, nil
}

func (s *Store) SaveToken(ctx context.Context, tok *oauth2.Token) error {
	if tok == nil {
		return s.ClearToken(ctx)
	}
	return s.putJSON(ctx, keyToken, tok)
}

func (s *Store) ClearToken(ctx context.Context) error {
	return s.Delete(ctx, keyToken)
}

func (s *Store) Settings(ctx context.Context) (session.Settings, error) {
	var settings session.Settings
	if err := s.getJSON(ctx, keySettings, &settings); err != nil && !errors.Is(err, ErrNotFound) {
		return session.Settings{}, err
	}
	return settings, nil
}

func (s *Store) SaveSettings(ctx context.Context, settings session.Settings) error {
	return s.putJSON(ctx, keySettings, settings)
}

func (s *Store) SetPendingGoal(ctx context.Context, goal string) error {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return s.Delete(ctx, keyPendingGoal)
	}
	return s.putJSON(ctx, keyPendingGoal, session.PendingGoal{Goal: goal, SavedAt: s.timestamp()})
}

func (s *Store) TakePendingGoal(ctx context.Context) (string, error) {
	var pending session.PendingGoal
	if err := s.getJSON(ctx, keyPendingGoal, &pending); err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	if err := s.Delete(ctx, keyPendingGoal); err != nil {
		return "", err
	}
	if pending.Expired(s.now()) {
		return "", nil
	}
	return pending.Goal, nil
}

var _ session.Store = (*Store)(nil)
