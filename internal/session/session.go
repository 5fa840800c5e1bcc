// Package session persists the client side state: tokens, user settings and
// the pending goal used to resume a flow after login.
package session

import (
	"context"
	"errors"
	"time"

	"golang.org/x/oauth2"
)

// ErrNoSession is returned when no token has been stored.
var ErrNoSession = errors.New("no session stored")

// PendingGoalTTL bounds how long a pending goal survives.
const PendingGoalTTL = 24 * time.Hour

// Theme names understood by the terminal front end.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Settings are user preferences that override environment detection.
type Settings struct {
	Locale   string `json:"locale,omitempty" yaml:"locale,omitempty"`
	Region   string `json:"region,omitempty" yaml:"region,omitempty"`
	Timezone string `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	Theme    string `json:"theme,omitempty" yaml:"theme,omitempty"`
}

// PendingGoal is a goal remembered across a login.
type PendingGoal struct {
	Goal    string    `json:"goal"`
	SavedAt time.Time `json:"savedAt"`
}

// Expired reports whether the goal is older than PendingGoalTTL at now.
func (p PendingGoal) Expired(now time.Time) bool {
	return now.Sub(p.SavedAt) > PendingGoalTTL
}

// Store is implemented by FileStore and by the sql backed store.
type Store interface {
	Token(ctx context.Context) (*oauth2.Token, error)
	SaveToken(ctx context.Context, tok *oauth2.Token) error
	ClearToken(ctx context.Context) error

	Settings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, s Settings) error

	SetPendingGoal(ctx context.Context, goal string) error
	// TakePendingGoal returns and forgets the pending goal. It returns an
	// empty string when none is stored or the stored one expired.
	TakePendingGoal(ctx context.Context) (string, error)
}

// NewToken builds the stored token from a backend token pair.
func NewToken(access, refresh string, expiresIn int) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
	}
	if expiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(expiresIn) * time.Second)
	}
	return tok
}
