package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStoreTokenLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s := NewFileStore(path)

	if _, err := s.Token(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if err := s.SaveToken(ctx, NewToken("access", "refresh", 60)); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected mode 0600, got %o", perm)
	}

	tok, err := NewFileStore(path).Token(ctx)
	if err != nil {
		t.Fatalf("Token: %v", err)
	}
	if tok.AccessToken != "access" || tok.RefreshToken != "refresh" || tok.Expiry.IsZero() {
		t.Fatalf("unexpected token %+v", tok)
	}

	if err := s.ClearToken(ctx); err != nil {
		t.Fatalf("ClearToken: %v", err)
	}
	if _, err := s.Token(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession after clear, got %v", err)
	}
}

func TestFileStoreSettingsSurviveTokenClear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	want := Settings{Locale: "de", Region: "AT", Timezone: "Europe/Vienna", Theme: ThemeDark}
	if err := s.SaveSettings(ctx, want); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	if err := s.SaveToken(ctx, NewToken("a", "r", 0)); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	if err := s.ClearToken(ctx); err != nil {
		t.Fatalf("ClearToken: %v", err)
	}
	got, err := s.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if got != want {
		t.Fatalf("settings mismatch: got %+v want %+v", got, want)
	}
}

func TestFileStorePendingGoal(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewFileStore(filepath.Join(t.TempDir(), "session.json"))
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if err := s.SetPendingGoal(ctx, "  learn to sail "); err != nil {
		t.Fatalf("SetPendingGoal: %v", err)
	}
	goal, err := s.TakePendingGoal(ctx)
	if err != nil || goal != "learn to sail" {
		t.Fatalf("TakePendingGoal = %q, %v", goal, err)
	}
	if goal, _ := s.TakePendingGoal(ctx); goal != "" {
		t.Fatalf("pending goal should be consumed, got %q", goal)
	}

	if err := s.SetPendingGoal(ctx, "stale"); err != nil {
		t.Fatalf("SetPendingGoal: %v", err)
	}
	now = now.Add(PendingGoalTTL + time.Minute)
	if goal, _ := s.TakePendingGoal(ctx); goal != "" {
		t.Fatalf("expired goal returned: %q", goal)
	}
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := NewFileStore(path).Token(context.Background()); err == nil || errors.Is(err, ErrNoSession) {
		t.Fatalf("expected decode error, got %v", err)
	}
}
