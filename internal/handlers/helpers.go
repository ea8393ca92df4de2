package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/petshop/server/internal/mykafka"
	"github.com/petshop/server/internal/token"
)

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// RefreshCookiePath scopes the refresh token cookie to the one endpoint
// that may read it.
func RefreshCookiePath(role string) string {
	return "/api/" + role + "/refresh_token"
}

func CreateCookie(name, value, path string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}

func ClearCookie(name, path string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	}
}

// SetTokenCookies installs a freshly minted pair: the access token on the
// whole site, the refresh token only on the role's refresh endpoint.
func SetTokenCookies(c echo.Context, access, refresh, role string) {
	c.SetCookie(CreateCookie("accessToken", access, "/", token.AccessTTL))
	c.SetCookie(CreateCookie("refreshToken", refresh, RefreshCookiePath(role), token.RefreshTTL))
}

func ClearTokenCookies(c echo.Context, role string) {
	c.SetCookie(ClearCookie("accessToken", "/"))
	c.SetCookie(ClearCookie("refreshToken", RefreshCookiePath(role)))
}

func cookieValue(c echo.Context, name string) string {
	ck, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return ck.Value
}

func publish(c echo.Context, producer *mykafka.Producer, topic, key string, event map[string]any) {
	if producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := producer.PublishEvent(ctx, topic, key, event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}
