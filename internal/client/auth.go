package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/goalcheck/goalcheck/internal/logutil"
	"github.com/goalcheck/goalcheck/internal/session"
)

// User is the authenticated account.
type User struct {
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Plan    string `json:"plan"`
	Credits int    `json:"credits"`
}

// TokenPair is the backend's token response.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn,omitempty"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	TokenPair
	User User `json:"user"`
}

// RegisterRequest creates an account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Login exchanges credentials for tokens and persists them.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var resp AuthResponse
	if err := c.postJSON(ctx, "/auth/login", loginRequest{Email: email, Password: password}, &resp, false); err != nil {
		return nil, err
	}
	if err := c.persist(ctx, resp.TokenPair); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Register creates an account and logs it in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var resp AuthResponse
	if err := c.postJSON(ctx, "/auth/register", req, &resp, false); err != nil {
		return nil, err
	}
	if err := c.persist(ctx, resp.TokenPair); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// Logout revokes the refresh token on the backend and always clears the
// local session.
func (c *Client) Logout(ctx context.Context) error {
	tok := c.currentToken(ctx)
	if tok != nil && tok.RefreshToken != "" {
		err := c.do(ctx, call{
			method: http.MethodPost,
			path:   "/auth/logout",
			body:   mustJSON(refreshRequest{RefreshToken: tok.RefreshToken}),
			accept: "application/json",
		}, nil)
		if err != nil {
			c.logger.Warn("logout_revoke_failed", logutil.Fields{"error": err.Error()})
		}
	}
	if c.sessions == nil {
		return nil
	}
	return c.sessions.ClearToken(ctx)
}

// Me returns the current user with the remaining credits.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.getJSON(ctx, "/auth/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Refresh exchanges the stored refresh token for a new pair. Concurrent
// callers share one exchange. A rejected refresh clears the session and
// returns ErrNotLoggedIn.
func (c *Client) Refresh(ctx context.Context) (*oauth2.Token, error) {
	tok := c.currentToken(ctx)
	if tok == nil || tok.RefreshToken == "" {
		return nil, ErrNotLoggedIn
	}
	return c.refreshAfter(ctx, tok)
}

// refreshAfter refreshes unless another caller already replaced stale.
func (c *Client) refreshAfter(ctx context.Context, stale *oauth2.Token) (*oauth2.Token, error) {
	v, err, shared := c.refresh.Do("refresh", func() (interface{}, error) {
		if cur := c.currentToken(ctx); cur != nil && cur.AccessToken != stale.AccessToken {
			return cur, nil
		}
		var pair TokenPair
		err := c.do(ctx, call{
			method: http.MethodPost,
			path:   "/auth/refresh",
			body:   mustJSON(refreshRequest{RefreshToken: stale.RefreshToken}),
			accept: "application/json",
		}, &pair)
		if err != nil {
			var se *StatusError
			if errors.As(err, &se) && se.StatusCode < 500 {
				c.logger.Info("session_refresh_rejected", logutil.Fields{"status": se.StatusCode})
				if c.sessions != nil {
					_ = c.sessions.ClearToken(ctx)
				}
				return nil, fmt.Errorf("%w: %w", ErrNotLoggedIn, err)
			}
			return nil, fmt.Errorf("refresh session: %w", err)
		}
		if pair.RefreshToken == "" {
			pair.RefreshToken = stale.RefreshToken
		}
		if err := c.persist(ctx, pair); err != nil {
			return nil, err
		}
		return session.NewToken(pair.AccessToken, pair.RefreshToken, pair.ExpiresIn), nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("session_refresh_shared", nil)
	}
	return v.(*oauth2.Token), nil
}

func (c *Client) persist(ctx context.Context, pair TokenPair) error {
	if pair.AccessToken == "" {
		return errors.New("backend returned no access token")
	}
	if c.sessions == nil {
		return nil
	}
	if err := c.sessions.SaveToken(ctx, session.NewToken(pair.AccessToken, pair.RefreshToken, pair.ExpiresIn)); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}
