package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/petshop/server/internal/oauth"
)

type OAuthHandler struct {
	Bridge *oauth.Bridge
}

// Redirect sends the browser to the provider's consent screen. The Referer
// header is the page the user came from and becomes the opaque state, so
// the callback can return them there.
func (h *OAuthHandler) Redirect(c echo.Context) error {
	referer := c.Request().Header.Get("Referer")
	provider := c.QueryParam("provider")
	if referer == "" || provider == "" {
		return c.JSON(http.StatusBadRequest, Response{Success: false, Message: "missing referer or provider"})
	}
	return c.Redirect(http.StatusFound, h.Bridge.BeginAuthorization(referer, provider))
}

func (h *OAuthHandler) GoogleCallback(c echo.Context) error {
	code := c.QueryParam("code")
	state := c.QueryParam("state")
	if code == "" || state == "" {
		return c.JSON(http.StatusBadRequest, Response{Success: false, Message: "missing code or state"})
	}

	done, err := h.Bridge.CompleteAuthorization(c.Request().Context(), code, state)
	if err != nil {
		return upstreamResponse(c, err)
	}

	SetTokenCookies(c, done.Pair.Access, done.Pair.Refresh, done.User.Role)
	return c.Redirect(http.StatusFound, done.RedirectURL)
}
