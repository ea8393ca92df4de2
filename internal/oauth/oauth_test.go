package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/petshop/server/internal/identity"
	"github.com/petshop/server/internal/session"
	"github.com/petshop/server/internal/store/memory"
	"github.com/petshop/server/internal/token"
)

// tokenEndpoint serves the provider's token exchange: any code is accepted
// and echoed back as "tok-<code>".
func tokenEndpoint(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		code := r.FormValue("code")
		if code == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"missing code"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-` + code + `","token_type":"Bearer"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newBridge(t *testing.T) (*Bridge, *memory.Memory) {
	t.Helper()
	srv := tokenEndpoint(t)
	mem := memory.New()
	sessions := &session.Manager{
		Store:    mem,
		Identity: mem,
		Codec: &token.Codec{
			AccessSecret:  []byte("access-secret"),
			RefreshSecret: []byte("refresh-secret"),
		},
	}
	b := &Bridge{
		Store:    mem,
		Identity: mem,
		Sessions: sessions,
		Config: &oauth2.Config{
			ClientID:     "client-id",
			ClientSecret: "client-secret",
			RedirectURL:  "https://shop.example.com/api/oauth/google",
			Scopes:       []string{"email", "profile"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
				TokenURL: srv.URL,
			},
		},
	}
	return b, mem
}

func TestBeginAuthorizationGoogle(t *testing.T) {
	b, _ := newBridge(t)

	u := b.BeginAuthorization("https://shop.example.com/cart", "google")
	require.Contains(t, u, "accounts.google.com")
	require.Contains(t, u, "client_id=client-id")
	require.Contains(t, u, "state=https%3A%2F%2Fshop.example.com%2Fcart")
}

func TestBeginAuthorizationUnknownProvider(t *testing.T) {
	b, _ := newBridge(t)

	require.Equal(t, "/", b.BeginAuthorization("https://shop.example.com", "github"))
}

func TestCompleteAuthorizationNewUser(t *testing.T) {
	b, mem := newBridge(t)
	mem.Federated["tok-code1"] = identity.FederatedIdentity{
		SubjectID:   "google-uid-1",
		Email:       "alice@gmail.com",
		DisplayName: "Alice",
		PhotoURL:    "https://photo.example.com/alice",
		IsNewUser:   true,
	}

	done, err := b.CompleteAuthorization(context.Background(), "code1", "https://shop.example.com/home")
	require.NoError(t, err)
	require.NotEmpty(t, done.Pair.Access)
	require.NotEmpty(t, done.Pair.Refresh)
	require.True(t, strings.HasPrefix(done.RedirectURL, "https://shop.example.com/home?"))
	require.Contains(t, done.RedirectURL, "email=alice%40gmail.com")
	require.Equal(t, "user", done.User.Role)

	user, err := mem.GetUser(context.Background(), "google-uid-1")
	require.NoError(t, err)
	require.Equal(t, 0, user.TokenVersion)
	require.Equal(t, []string{"google"}, user.Providers)
	require.Equal(t, 3, user.Draws)
}

func TestCompleteAuthorizationReturningUserIdempotent(t *testing.T) {
	b, mem := newBridge(t)
	mem.Federated["tok-code1"] = identity.FederatedIdentity{
		SubjectID:   "google-uid-1",
		Email:       "alice@gmail.com",
		DisplayName: "Alice",
		IsNewUser:   true,
	}

	_, err := b.CompleteAuthorization(context.Background(), "code1", "https://shop.example.com")
	require.NoError(t, err)

	// rotate the version so we can prove linking preserves it
	_, err = mem.BumpTokenVersion(context.Background(), "google-uid-1", -1)
	require.NoError(t, err)

	mem.Federated["tok-code2"] = identity.FederatedIdentity{
		SubjectID:   "google-uid-1",
		Email:       "alice@gmail.com",
		DisplayName: "Alice",
		IsNewUser:   false,
	}
	_, err = b.CompleteAuthorization(context.Background(), "code2", "https://shop.example.com")
	require.NoError(t, err)
	_, err = b.CompleteAuthorization(context.Background(), "code2", "https://shop.example.com")
	require.NoError(t, err)

	user, err := mem.GetUser(context.Background(), "google-uid-1")
	require.NoError(t, err)
	require.Equal(t, []string{"google"}, user.Providers)
	require.Equal(t, 1, user.TokenVersion)
}

func TestCompleteAuthorizationLinksPasswordAccount(t *testing.T) {
	b, mem := newBridge(t)
	sessions := b.Sessions

	require.NoError(t, sessions.Signup(context.Background(), "alice", "alice@gmail.com", "password", "user"))
	uid, err := mem.VerifyPassword(context.Background(), "alice@gmail.com", "password")
	require.NoError(t, err)

	mem.Federated["tok-code1"] = identity.FederatedIdentity{
		SubjectID:   uid,
		Email:       "alice@gmail.com",
		DisplayName: "Alice G",
		PhotoURL:    "https://photo.example.com/alice",
		IsNewUser:   false,
	}
	_, err = b.CompleteAuthorization(context.Background(), "code1", "https://shop.example.com")
	require.NoError(t, err)

	user, err := mem.GetUser(context.Background(), uid)
	require.NoError(t, err)
	require.Equal(t, []string{"password", "google"}, user.Providers)
	require.Equal(t, "Alice G", user.DisplayName)
	require.Equal(t, "alice", user.Username)
}

func TestCompleteAuthorizationExchangeFailure(t *testing.T) {
	b, _ := newBridge(t)

	_, err := b.CompleteAuthorization(context.Background(), "", "https://shop.example.com")
	var uerr *identity.UpstreamError
	require.ErrorAs(t, err, &uerr)
	require.Contains(t, uerr.Message, "invalid_grant")
}

func TestCompleteAuthorizationIdPFailure(t *testing.T) {
	b, _ := newBridge(t)

	// exchange succeeds but no federated identity is registered
	_, err := b.CompleteAuthorization(context.Background(), "unknown", "https://shop.example.com")
	var uerr *identity.UpstreamError
	require.ErrorAs(t, err, &uerr)
}
