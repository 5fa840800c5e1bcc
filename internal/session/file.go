package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

type fileState struct {
	Token    *oauth2.Token `json:"token,omitempty"`
	Settings Settings      `json:"settings"`
	Pending  *PendingGoal  `json:"pendingGoal,omitempty"`
}

// FileStore keeps the whole session in one JSON file written with mode 0600.
type FileStore struct {
	path string
	now  func() time.Time
	mu   sync.Mutex
}

// NewFileStore returns a store backed by path. The file is created lazily.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// DefaultPath returns the session file under the user config directory.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "./goalcheck-session.json"
	}
	return filepath.Join(dir, "goalcheck", "session.json")
}

// Path returns the backing file.
func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Token(ctx context.Context) (*oauth2.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.load()
	if err != nil {
		return nil, err
	}
	if st.Token == nil || st.Token.AccessToken == "" {
		return nil, ErrNoSession
	}
	return st.Token, nil
}

func (f *FileStore) SaveToken(ctx context.Context, tok *oauth2.Token) error {
	if tok == nil {
		return f.ClearToken(ctx)
	}
	return f.update(func(st *fileState) { st.Token = tok })
}

func (f *FileStore) ClearToken(ctx context.Context) error {
	return f.update(func(st *fileState) { st.Token = nil })
}

func (f *FileStore) Settings(ctx context.Context) (Settings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.load()
	if err != nil {
		return Settings{}, err
	}
	return st.Settings, nil
}

func (f *FileStore) SaveSettings(ctx context.Context, s Settings) error {
	return f.update(func(st *fileState) { st.Settings = s })
}

func (f *FileStore) SetPendingGoal(ctx context.Context, goal string) error {
	goal = strings.TrimSpace(goal)
	return f.update(func(st *fileState) {
		if goal == "" {
			st.Pending = nil
			return
		}
		st.Pending = &PendingGoal{Goal: goal, SavedAt: f.now().UTC()}
	})
}

func (f *FileStore) TakePendingGoal(ctx context.Context) (string, error) {
	var goal string
	err := f.update(func(st *fileState) {
		if st.Pending != nil && !st.Pending.Expired(f.now()) {
			goal = st.Pending.Goal
		}
		st.Pending = nil
	})
	return goal, err
}

func (f *FileStore) update(fn func(*fileState)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.load()
	if err != nil {
		return err
	}
	fn(st)
	return f.save(st)
}

func (f *FileStore) load() (*fileState, error) {
	st := &fileState{}
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return st, nil
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	if len(data) == 0 {
		return st, nil
	}
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", f.path, err)
	}
	return st, nil
}

func (f *FileStore) save(st *fileState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

var _ Store = (*FileStore)(nil)
