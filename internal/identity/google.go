package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"firebase.google.com/go/auth"
)

const defaultSignInURL = "https://identitytoolkit.googleapis.com/v1"

// GoogleIdentity implements Provider on top of the Firebase Auth admin SDK
// (account creation) and the Identity Toolkit REST API (password and
// federated sign-in, which the admin SDK does not expose).
type GoogleIdentity struct {
	Auth   *auth.Client
	APIKey string

	// RequestURI is sent as the requestUri on signInWithIdp calls.
	RequestURI string

	// SignInURL overrides the Identity Toolkit endpoint in tests.
	SignInURL string

	HTTPClient *http.Client
}

func (g *GoogleIdentity) CreateAccount(ctx context.Context, req CreateAccountRequest) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(req.Email).
		Password(req.Password).
		DisplayName(req.DisplayName).
		PhotoURL(req.PhotoURL).
		EmailVerified(true) // avoid a later google oauth sign-in replacing the account

	record, err := g.Auth.CreateUser(ctx, params)
	if err != nil {
		switch {
		case auth.IsEmailAlreadyExists(err):
			return "", ErrEmailExists
		case auth.IsInvalidEmail(err):
			return "", ErrInvalidEmail
		default:
			return "", fmt.Errorf("create account: %w", err)
		}
	}
	return record.UID, nil
}

func (g *GoogleIdentity) VerifyPassword(ctx context.Context, email, password string) (string, error) {
	payload := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": false,
	}
	var result struct {
		LocalID string `json:"localId"`
	}
	if err := g.post(ctx, "accounts:signInWithPassword", payload, &result); err != nil {
		return "", err
	}
	return result.LocalID, nil
}

func (g *GoogleIdentity) SignInWithIdP(ctx context.Context, providerID, accessToken string) (*FederatedIdentity, error) {
	payload := map[string]any{
		"requestUri":          g.RequestURI,
		"postBody":            fmt.Sprintf("access_token=%s&providerId=%s", accessToken, providerID),
		"returnSecureToken":   false,
		"returnIdpCredential": false,
	}
	var result struct {
		LocalID     string `json:"localId"`
		Email       string `json:"email"`
		DisplayName string `json:"displayName"`
		PhotoURL    string `json:"photoUrl"`
		IsNewUser   bool   `json:"isNewUser"`
	}
	if err := g.post(ctx, "accounts:signInWithIdp", payload, &result); err != nil {
		return nil, err
	}
	return &FederatedIdentity{
		SubjectID:   result.LocalID,
		Email:       result.Email,
		DisplayName: result.DisplayName,
		PhotoURL:    result.PhotoURL,
		IsNewUser:   result.IsNewUser,
	}, nil
}

func (g *GoogleIdentity) SendPasswordReset(ctx context.Context, email string) error {
	payload := map[string]any{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}
	return g.post(ctx, "accounts:sendOobCode", payload, nil)
}

func (g *GoogleIdentity) post(ctx context.Context, action string, payload, result any) error {
	base := g.SignInURL
	if base == "" {
		base = defaultSignInURL
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("identity request: %w", err)
	}

	url := fmt.Sprintf("%s/%s?key=%s", base, action, g.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("identity request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := g.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("identity request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errBody struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err != nil || errBody.Error.Message == "" {
			return fmt.Errorf("identity provider: unexpected status %d", resp.StatusCode)
		}
		return taggedError(errBody.Error.Message)
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("identity response: %w", err)
	}
	return nil
}

func taggedError(message string) error {
	switch {
	case message == "EMAIL_NOT_FOUND":
		return ErrEmailNotFound
	case message == "INVALID_PASSWORD", message == "INVALID_LOGIN_CREDENTIALS":
		return ErrInvalidPassword
	case message == "EMAIL_EXISTS":
		return ErrEmailExists
	case message == "INVALID_EMAIL":
		return ErrInvalidEmail
	case strings.HasPrefix(message, "WEAK_PASSWORD"):
		return ErrWeakPassword
	case message == "OPERATION_NOT_ALLOWED":
		return ErrOperationNotAllowed
	case strings.Contains(message, "TOO_MANY_ATTEMPTS_TRY_LATER"):
		return ErrTooManyAttempts
	default:
		return &UpstreamError{Message: message}
	}
}
