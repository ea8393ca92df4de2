package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/petshop/server/internal/models"
	"github.com/petshop/server/internal/store"
)

var couponCodeRe = regexp.MustCompile(`^[A-Z0-9]{6,10}$`)

type CouponHandler struct {
	Store store.Store
}

type couponRequest struct {
	Title         string `json:"title"`
	Code          string `json:"code"`
	Percent       int    `json:"percent"`
	EffectiveDate int64  `json:"effective_date"`
	DueDate       int64  `json:"due_date"`
	IsEnabled     bool   `json:"is_enabled"`
}

func (r *couponRequest) validate() string {
	switch {
	case r.Title == "":
		return "title is required"
	case !couponCodeRe.MatchString(r.Code):
		return "code must be 6-10 uppercase characters"
	case r.Percent < 0 || r.Percent > 100:
		return "percent must be between 0 and 100"
	case r.EffectiveDate < 0 || r.DueDate < 0:
		return "dates must not be negative"
	}
	return ""
}

func (h *CouponHandler) Create(c echo.Context) error {
	var req couponRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, Response{Success: false, Message: "invalid request body"})
	}
	if msg := req.validate(); msg != "" {
		return c.JSON(http.StatusBadRequest, Response{Success: false, Message: msg})
	}

	coupon := &models.Coupon{
		Title:         req.Title,
		Code:          req.Code,
		Percent:       req.Percent,
		EffectiveDate: req.EffectiveDate,
		DueDate:       req.DueDate,
		IsEnabled:     req.IsEnabled,
		CreatedAt:     time.Now().UnixMilli(),
	}
	if _, err := h.Store.AddCoupon(c.Request().Context(), coupon); err != nil {
		return c.JSON(http.StatusInternalServerError, Response{Success: false, Message: err.Error()})
	}
	return c.JSON(http.StatusOK, Response{Success: true, Message: "coupon added"})
}

func (h *CouponHandler) List(c echo.Context) error {
	coupons, err := h.Store.GetCoupons(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, Response{Success: false, Message: err.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "coupons": coupons})
}

// ListEnabled is the storefront view: enabled coupons inside their
// effective window. A zero due date means no expiry.
func (h *CouponHandler) ListEnabled(c echo.Context) error {
	coupons, err := h.Store.GetCoupons(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, Response{Success: false, Message: err.Error()})
	}
	now := time.Now().UnixMilli()
	enabled := make([]models.Coupon, 0, len(coupons))
	for _, cp := range coupons {
		if !cp.IsEnabled || cp.EffectiveDate > now {
			continue
		}
		if cp.DueDate != 0 && cp.DueDate < now {
			continue
		}
		enabled = append(enabled, cp)
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "coupons": enabled})
}

func (h *CouponHandler) Patch(c echo.Context) error {
	id := c.Param("id")
	fields := map[string]any{}
	if err := json.NewDecoder(c.Request().Body).Decode(&fields); err != nil {
		return c.JSON(http.StatusBadRequest, Response{Success: false, Message: "invalid request body"})
	}
	delete(fields, "id")
	delete(fields, "created_at")

	err := h.Store.UpdateCoupon(c.Request().Context(), id, fields)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusOK, Response{Success: false, Message: "coupon not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, Response{Success: false, Message: err.Error()})
	}
	return c.JSON(http.StatusOK, Response{Success: true, Message: "coupon updated"})
}

func (h *CouponHandler) Delete(c echo.Context) error {
	err := h.Store.DeleteCoupon(c.Request().Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusOK, Response{Success: false, Message: "coupon not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, Response{Success: false, Message: err.Error()})
	}
	return c.JSON(http.StatusOK, Response{Success: true, Message: "coupon deleted"})
}
