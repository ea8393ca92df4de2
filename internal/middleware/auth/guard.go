package auth

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/petshop/server/internal/token"
)

// Guard protects a route group with a statically configured role. The role
// comes from route registration, never from the request path.
type Guard struct {
	Codec *token.Codec
	Role  string
}

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (g *Guard) Require(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := ""
		if ck, err := c.Cookie("accessToken"); err == nil {
			raw = ck.Value
		}
		claims, err := g.Codec.VerifyAccess(raw)
		switch {
		case err == nil:
		case errors.Is(err, token.ErrTokenMissing):
			return c.JSON(http.StatusUnauthorized, response{Message: "token missing"})
		case errors.Is(err, token.ErrTokenExpired):
			return c.JSON(http.StatusUnauthorized, response{Message: "token expired"})
		case errors.Is(err, token.ErrBadSignature):
			return c.JSON(http.StatusUnauthorized, response{Message: "invalid token signature"})
		default:
			return c.JSON(http.StatusUnauthorized, response{Message: "malformed token"})
		}

		if claims.Role != g.Role {
			return c.JSON(http.StatusForbidden, response{Message: "not enough rights"})
		}

		c.Set("uid", claims.UID)
		c.Set("role", claims.Role)
		return next(c)
	}
}
