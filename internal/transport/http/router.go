package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/petshop/server/internal/handlers"
	authmw "github.com/petshop/server/internal/middleware/auth"
	"github.com/petshop/server/internal/models"
)

type Deps struct {
	UserAuth   *handlers.AuthHandler
	AdminAuth  *handlers.AuthHandler
	OAuth      *handlers.OAuthHandler
	Product    *handlers.ProductHandler
	Coupon     *handlers.CouponHandler
	Upload     *handlers.UploadHandler
	Search     *handlers.SearchHandler
	AdminGuard *authmw.Guard
}

// registerAuth mounts one role's session endpoints. The handler carries
// its role, the paths never decide it.
func registerAuth(g *echo.Group, h *handlers.AuthHandler) {
	g.POST("/signup", h.Signup)
	g.POST("/signin", h.Signin)
	g.POST("/signout", h.Signout)
	g.POST("/refresh_token", h.RefreshToken)
	g.POST("/send_password", h.SendPassword)
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	api := e.Group("/api")

	user := api.Group("/" + models.RoleUser)
	registerAuth(user, d.UserAuth)

	// storefront reads live in the user namespace but need no token
	user.GET("/products", d.Product.List)
	user.GET("/products/:id", d.Product.Get)
	user.GET("/coupons", d.Coupon.ListEnabled)
	user.GET("/search", d.Search.Handler)

	api.GET("/oauth", d.OAuth.Redirect)
	api.GET("/oauth/google", d.OAuth.GoogleCallback)

	admin := api.Group("/" + models.RoleAdmin)
	registerAuth(admin, d.AdminAuth)

	guarded := admin.Group("", d.AdminGuard.Require)

	guarded.POST("/products", d.Product.Create)
	guarded.PATCH("/products/:id", d.Product.Patch)
	guarded.DELETE("/products/:id", d.Product.Delete)

	guarded.GET("/coupons", d.Coupon.List)
	guarded.POST("/coupons", d.Coupon.Create)
	guarded.PATCH("/coupons/:id", d.Coupon.Patch)
	guarded.DELETE("/coupons/:id", d.Coupon.Delete)

	guarded.POST("/upload", d.Upload.Upload)
}
