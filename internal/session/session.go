// Package session owns the token-pair lifecycle: issuance on sign-in,
// rotation on refresh and revocation on sign-out. Revocation is a per-user
// version counter: bumping it invalidates every refresh token minted
// against the old value.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/petshop/server/internal/identity"
	"github.com/petshop/server/internal/models"
	"github.com/petshop/server/internal/store"
	"github.com/petshop/server/internal/token"
)

var (
	ErrUsernameTaken    = errors.New("username already taken")
	ErrUnknownUser      = errors.New("unknown user")
	ErrWrongCredentials = errors.New("wrong credentials")
	ErrTooManyAttempts  = errors.New("too many attempts")
	ErrRoleMismatch     = errors.New("role mismatch")
	ErrAccountRevoked   = errors.New("account has been revoked")
	ErrTokenRevoked     = errors.New("token has been revoked")
)

const starterDraws = 3

type TokenPair struct {
	Access  string
	Refresh string
}

type Manager struct {
	Store    store.Store
	Identity identity.Provider
	Codec    *token.Codec
	Log      *slog.Logger
}

func (m *Manager) log() *slog.Logger {
	if m.Log != nil {
		return m.Log
	}
	return slog.Default()
}

// Signup reserves the username, creates the provider account and writes the
// detail record with a zero token version. The two writes are not atomic:
// if the detail write fails after account creation there is no rollback,
// only a log line marking the orphaned account.
func (m *Manager) Signup(ctx context.Context, username, email, password, role string) error {
	_, err := m.Store.LookupUsername(ctx, username)
	if err == nil {
		return ErrUsernameTaken
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	photoURL := avatarURL(username)
	uid, err := m.Identity.CreateAccount(ctx, identity.CreateAccountRequest{
		Email:       email,
		Password:    password,
		DisplayName: username,
		PhotoURL:    photoURL,
	})
	if err != nil {
		return err
	}

	user := &models.User{
		Username:     username,
		DisplayName:  username,
		Email:        email,
		Role:         role,
		TokenVersion: 0,
		Providers:    []string{"password"},
		PhotoURL:     photoURL,
	}
	if role == models.RoleUser {
		user.Draws = starterDraws
	}
	if err := m.Store.SaveNewUser(ctx, uid, user); err != nil {
		m.log().Error("detail write failed after account creation, account is orphaned",
			"uid", uid, "email", email, "err", err)
		return err
	}
	return nil
}

// Signin resolves the identifier, verifies the password against the
// identity provider and issues a fresh pair bound to the current token
// version. The provider's not-found and bad-password answers collapse into
// one error so callers cannot probe for registered accounts.
func (m *Manager) Signin(ctx context.Context, usernameOrEmail, password, expectedRole string) (*TokenPair, *models.PublicUser, error) {
	email := usernameOrEmail
	if !strings.Contains(usernameOrEmail, "@") {
		var err error
		email, err = m.Store.LookupUsername(ctx, usernameOrEmail)
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrUnknownUser
		}
		if err != nil {
			return nil, nil, err
		}
	}

	uid, err := m.Identity.VerifyPassword(ctx, email, password)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrEmailNotFound), errors.Is(err, identity.ErrInvalidPassword):
			return nil, nil, ErrWrongCredentials
		case errors.Is(err, identity.ErrTooManyAttempts):
			return nil, nil, ErrTooManyAttempts
		default:
			return nil, nil, err
		}
	}

	user, err := m.Store.GetUser(ctx, uid)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, ErrAccountRevoked
	}
	if err != nil {
		return nil, nil, err
	}
	if user.Role != expectedRole {
		return nil, nil, ErrRoleMismatch
	}

	pair, err := m.IssueTokens(uid, user)
	if err != nil {
		return nil, nil, err
	}
	pub := user.Public()
	return pair, &pub, nil
}

// Refresh rotates the pair. The version check and increment run as one
// atomic conditional update, so presenting the same refresh token twice
// yields exactly one success; the loser sees ErrTokenRevoked.
func (m *Manager) Refresh(ctx context.Context, rawRefresh, expectedRole string) (*TokenPair, *models.PublicUser, error) {
	claims, err := m.Codec.VerifyRefresh(rawRefresh)
	if err != nil {
		return nil, nil, err
	}
	if claims.Role != expectedRole {
		return nil, nil, ErrRoleMismatch
	}

	user, err := m.Store.GetUser(ctx, claims.UID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, ErrAccountRevoked
	}
	if err != nil {
		return nil, nil, err
	}

	next, err := m.Store.BumpTokenVersion(ctx, claims.UID, claims.TokenVersion)
	if errors.Is(err, store.ErrVersionMismatch) {
		return nil, nil, ErrTokenRevoked
	}
	if err != nil {
		return nil, nil, err
	}

	user.TokenVersion = next
	pair, err := m.IssueTokens(claims.UID, user)
	if err != nil {
		return nil, nil, err
	}
	pub := user.Public()
	return pair, &pub, nil
}

// Signout bumps the token version to invalidate every outstanding refresh
// token. It is best-effort: a missing, malformed or mismatched access token
// still counts as a successful sign-out so the caller always clears its
// cookies.
func (m *Manager) Signout(ctx context.Context, rawAccess, expectedRole string) {
	claims, err := m.Codec.VerifyAccess(rawAccess)
	if err != nil {
		return
	}
	if claims.Role != expectedRole {
		return
	}
	if _, err := m.Store.BumpTokenVersion(ctx, claims.UID, -1); err != nil {
		m.log().Debug("signout revoke skipped", "uid", claims.UID, "err", err)
	}
}

// IssueTokens mints an access/refresh pair for an already-authenticated
// user. The refresh token carries the user's current token version.
func (m *Manager) IssueTokens(uid string, user *models.User) (*TokenPair, error) {
	access, err := m.Codec.IssueAccessToken(uid, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := m.Codec.IssueRefreshToken(uid, user.Role, user.TokenVersion)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func avatarURL(name string) string {
	prefix := ""
	if name != "" {
		prefix = strings.ToUpper(name[:1])
	}
	return "https://fakeimg.pl/96x96/282828/fff/?" + url.Values{
		"text":      {prefix},
		"font_size": {"48"},
		"font":      {"noto"},
	}.Encode()
}
