// Package oauth bridges the Google authorization-code flow onto the local
// session model: the provider authenticates the subject, the bridge
// finds-or-creates the user record and mints a regular token pair.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"golang.org/x/oauth2"

	"github.com/petshop/server/internal/identity"
	"github.com/petshop/server/internal/models"
	"github.com/petshop/server/internal/session"
	"github.com/petshop/server/internal/store"
)

const providerGoogle = "google"

type Bridge struct {
	Store    store.Store
	Identity identity.Provider
	Sessions *session.Manager
	Config   *oauth2.Config
	Log      *slog.Logger
}

// Completion is everything the transport needs to finish the handshake:
// the minted pair, the cookie role and where to send the browser.
type Completion struct {
	RedirectURL string
	Pair        *session.TokenPair
	User        models.PublicUser
}

// BeginAuthorization builds the provider authorization URL with the
// caller's return URL as opaque state. Unknown providers fall back to a
// redirect to "/" rather than an error; that mirrors the storefront
// behavior the frontend relies on.
func (b *Bridge) BeginAuthorization(returnURL, provider string) string {
	if provider != providerGoogle {
		return "/"
	}
	return b.Config.AuthCodeURL(returnURL)
}

// CompleteAuthorization exchanges the authorization code, resolves the
// federated identity and returns a session equivalent to a password
// sign-in. Returning users keep their token version; linking google to an
// existing account is idempotent.
func (b *Bridge) CompleteAuthorization(ctx context.Context, code, state string) (*Completion, error) {
	tok, err := b.Config.Exchange(ctx, code)
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			return nil, &identity.UpstreamError{Message: rerr.ErrorCode + ": " + rerr.ErrorDescription}
		}
		return nil, fmt.Errorf("code exchange: %w", err)
	}

	fid, err := b.Identity.SignInWithIdP(ctx, "google.com", tok.AccessToken)
	if err != nil {
		return nil, err
	}

	var user *models.User
	if fid.IsNewUser {
		user = &models.User{
			Username:     "",
			DisplayName:  fid.DisplayName,
			Email:        fid.Email,
			Role:         models.RoleUser,
			TokenVersion: 0,
			Providers:    []string{providerGoogle},
			PhotoURL:     fid.PhotoURL,
			Draws:        3,
		}
		if err := b.Store.PutUser(ctx, fid.SubjectID, user); err != nil {
			return nil, err
		}
	} else {
		user, err = b.Store.GetUser(ctx, fid.SubjectID)
		if err != nil {
			return nil, err
		}
		if !user.HasProvider(providerGoogle) {
			user.DisplayName = fid.DisplayName
			user.PhotoURL = fid.PhotoURL
			user.Providers = append(user.Providers, providerGoogle)
			fields := map[string]any{
				"displayName": user.DisplayName,
				"photoUrl":    user.PhotoURL,
				"providers":   user.Providers,
			}
			if err := b.Store.UpdateUser(ctx, fid.SubjectID, fields); err != nil {
				return nil, err
			}
		}
	}

	pair, err := b.Sessions.IssueTokens(fid.SubjectID, user)
	if err != nil {
		return nil, err
	}

	query := url.Values{
		"email":       {user.Email},
		"username":    {user.Username},
		"displayName": {user.DisplayName},
		"photoUrl":    {user.PhotoURL},
		"role":        {user.Role},
	}
	return &Completion{
		RedirectURL: state + "?" + query.Encode(),
		Pair:        pair,
		User:        user.Public(),
	}, nil
}
