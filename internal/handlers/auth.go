package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/petshop/server/internal/identity"
	"github.com/petshop/server/internal/models"
	"github.com/petshop/server/internal/mykafka"
	"github.com/petshop/server/internal/session"
	"github.com/petshop/server/internal/token"
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9]{6,14}$`)

// AuthHandler serves one role namespace. Role is fixed at registration
// time, never derived from the request path.
type AuthHandler struct {
	Sessions *session.Manager
	Identity identity.Provider
	Producer *mykafka.Producer
	Role     string
}

type userResponse struct {
	Success bool              `json:"success"`
	User    models.PublicUser `json:"user"`
}

func (h *AuthHandler) Signup(c echo.Context) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, Response{Success: false, Message: "invalid request body"})
	}
	if !usernameRe.MatchString(req.Username) {
		return c.JSON(http.StatusBadRequest, Response{Success: false, Message: "username must be 6-14 alphanumeric characters"})
	}
	if !strings.Contains(req.Email, "@") {
		return c.JSON(http.StatusBadRequest, Response{Success: false, Message: "invalid email"})
	}
	if len(req.Password) < 6 || len(req.Password) > 14 {
		return c.JSON(http.StatusBadRequest, Response{Success: false, Message: "password must be 6-14 characters"})
	}

	err := h.Sessions.Signup(c.Request().Context(), req.Username, req.Email, req.Password, h.Role)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrUsernameTaken):
		return c.JSON(http.StatusOK, Response{Success: false, Message: "username already exists"})
	case errors.Is(err, identity.ErrEmailExists):
		return c.JSON(http.StatusOK, Response{Success: false, Message: "email already in use"})
	case errors.Is(err, identity.ErrInvalidEmail):
		return c.JSON(http.StatusOK, Response{Success: false, Message: "invalid email"})
	case errors.Is(err, identity.ErrWeakPassword):
		return c.JSON(http.StatusOK, Response{Success: false, Message: "password not strong enough"})
	case errors.Is(err, identity.ErrOperationNotAllowed):
		return c.JSON(http.StatusOK, Response{Success: false, Message: "sign-in method not enabled"})
	default:
		return upstreamResponse(c, err)
	}

	publish(c, h.Producer, "user_events", req.Username, map[string]any{
		"type":     "user_signed_up",
		"username": req.Username,
		"role":     h.Role,
	})
	return c.JSON(http.StatusOK, Response{Success: true, Message: "signup successful"})
}

func (h *AuthHandler) Signin(c echo.Context) error {
	var req struct {
		UsernameOrEmail string `json:"usernameOrEmail"`
		Password        string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, Response{Success: false, Message: "invalid request body"})
	}
	if req.UsernameOrEmail == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, Response{Success: false, Message: "missing credentials"})
	}

	pair, user, err := h.Sessions.Signin(c.Request().Context(), req.UsernameOrEmail, req.Password, h.Role)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrUnknownUser),
		errors.Is(err, session.ErrWrongCredentials),
		errors.Is(err, session.ErrRoleMismatch),
		errors.Is(err, session.ErrAccountRevoked):
		// one message for every credential failure, no account probing
		return c.JSON(http.StatusOK, Response{Success: false, Message: "account or password incorrect"})
	case errors.Is(err, session.ErrTooManyAttempts):
		return c.JSON(http.StatusOK, Response{Success: false, Message: "too many attempts, try again later"})
	default:
		return upstreamResponse(c, err)
	}

	SetTokenCookies(c, pair.Access, pair.Refresh, h.Role)
	publish(c, h.Producer, "user_events", user.Username, map[string]any{
		"type":     "user_signed_in",
		"username": user.Username,
		"role":     h.Role,
	})
	return c.JSON(http.StatusOK, userResponse{Success: true, User: *user})
}

// Signout never fails from the caller's point of view: whatever happens,
// the cookies are cleared and the response is a success.
func (h *AuthHandler) Signout(c echo.Context) error {
	h.Sessions.Signout(c.Request().Context(), cookieValue(c, "accessToken"), h.Role)
	ClearTokenCookies(c, h.Role)
	return c.JSON(http.StatusOK, Response{Success: true, Message: "signed out"})
}

func (h *AuthHandler) RefreshToken(c echo.Context) error {
	pair, user, err := h.Sessions.Refresh(c.Request().Context(), cookieValue(c, "refreshToken"), h.Role)
	switch {
	case err == nil:
	case errors.Is(err, token.ErrTokenMissing):
		return c.JSON(http.StatusUnauthorized, Response{Success: false, Message: "token missing"})
	case errors.Is(err, token.ErrTokenExpired):
		return c.JSON(http.StatusUnauthorized, Response{Success: false, Message: "token expired"})
	case errors.Is(err, token.ErrTokenMalformed):
		return c.JSON(http.StatusUnauthorized, Response{Success: false, Message: "malformed token"})
	case errors.Is(err, token.ErrBadSignature):
		return c.JSON(http.StatusUnauthorized, Response{Success: false, Message: "invalid token signature"})
	case errors.Is(err, session.ErrRoleMismatch):
		return c.JSON(http.StatusForbidden, Response{Success: false, Message: "not enough rights"})
	case errors.Is(err, session.ErrAccountRevoked):
		return c.JSON(http.StatusForbidden, Response{Success: false, Message: "account has been revoked"})
	case errors.Is(err, session.ErrTokenRevoked):
		return c.JSON(http.StatusForbidden, Response{Success: false, Message: "token has been revoked"})
	default:
		return upstreamResponse(c, err)
	}

	SetTokenCookies(c, pair.Access, pair.Refresh, h.Role)
	return c.JSON(http.StatusOK, userResponse{Success: true, User: *user})
}

func (h *AuthHandler) SendPassword(c echo.Context) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.Bind(&req); err != nil || !strings.Contains(req.Email, "@") {
		return c.JSON(http.StatusBadRequest, Response{Success: false, Message: "invalid email"})
	}

	err := h.Identity.SendPasswordReset(c.Request().Context(), req.Email)
	switch {
	case err == nil:
	case errors.Is(err, identity.ErrEmailNotFound):
		return c.JSON(http.StatusOK, Response{Success: false, Message: "account does not exist"})
	default:
		return upstreamResponse(c, err)
	}
	return c.JSON(http.StatusOK, Response{Success: true, Message: "password reset email sent"})
}

// upstreamResponse splits provider failures: structured provider errors
// pass through at 400, everything else is a 500.
func upstreamResponse(c echo.Context, err error) error {
	var uerr *identity.UpstreamError
	if errors.As(err, &uerr) {
		return c.JSON(http.StatusBadRequest, Response{Success: false, Message: uerr.Message})
	}
	return c.JSON(http.StatusInternalServerError, Response{Success: false, Message: err.Error()})
}
