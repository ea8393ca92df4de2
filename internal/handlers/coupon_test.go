package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/petshop/server/internal/models"
	"github.com/petshop/server/internal/store/memory"
)

func TestCouponCreateValidation(t *testing.T) {
	h := &CouponHandler{Store: memory.New()}
	e := echo.New()

	valid := func() map[string]any {
		return map[string]any{
			"title":          "summer sale",
			"code":           "SUMMER24",
			"percent":        20,
			"effective_date": 1756684800000,
			"due_date":       1759276800000,
			"is_enabled":     true,
		}
	}

	cases := []struct {
		name    string
		mutate  func(map[string]any)
		message string
	}{
		{"missing title", func(m map[string]any) { m["title"] = "" }, "title is required"},
		{"code too short", func(m map[string]any) { m["code"] = "AB1" }, "code must be 6-10 uppercase characters"},
		{"code too long", func(m map[string]any) { m["code"] = "ABCDEFGHIJK" }, "code must be 6-10 uppercase characters"},
		{"code lowercase", func(m map[string]any) { m["code"] = "summer24" }, "code must be 6-10 uppercase characters"},
		{"percent negative", func(m map[string]any) { m["percent"] = -1 }, "percent must be between 0 and 100"},
		{"percent over 100", func(m map[string]any) { m["percent"] = 101 }, "percent must be between 0 and 100"},
		{"negative date", func(m map[string]any) { m["effective_date"] = -5 }, "dates must not be negative"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			payload := valid()
			tc.mutate(payload)
			c, rec := postJSON(t, e, "/api/admin/coupons", payload)
			require.NoError(t, h.Create(c))
			require.Equal(t, http.StatusBadRequest, rec.Code)

			var resp Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			require.Equal(t, tc.message, resp.Message)
		})
	}

	// boundary values pass
	for _, percent := range []int{0, 100} {
		payload := valid()
		payload["percent"] = percent
		c, rec := postJSON(t, e, "/api/admin/coupons", payload)
		require.NoError(t, h.Create(c))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.True(t, resp.Success)
	}
}

func TestCouponListEnabledWindow(t *testing.T) {
	mem := memory.New()
	h := &CouponHandler{Store: mem}
	e := echo.New()
	ctx := context.Background()
	now := time.Now().UnixMilli()
	day := int64(24 * time.Hour / time.Millisecond)

	add := func(code string, effective, due int64, enabled bool) {
		_, err := mem.AddCoupon(ctx, &models.Coupon{
			Title: code, Code: code, Percent: 10,
			EffectiveDate: effective, DueDate: due, IsEnabled: enabled,
		})
		require.NoError(t, err)
	}
	add("ACTIVE01", now-day, now+day, true)
	add("NOEXPIRY", now-day, 0, true)
	add("DISABLED", now-day, now+day, false)
	add("UPCOMING", now+day, now+2*day, true)
	add("EXPIRED1", now-2*day, now-day, true)

	req := httptest.NewRequest(http.MethodGet, "/api/user/coupons", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.ListEnabled(e.NewContext(req, rec)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool            `json:"success"`
		Coupons []models.Coupon `json:"coupons"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)

	codes := make([]string, 0, len(resp.Coupons))
	for _, cp := range resp.Coupons {
		codes = append(codes, cp.Code)
	}
	require.ElementsMatch(t, []string{"ACTIVE01", "NOEXPIRY"}, codes)
}

func TestCouponPatchNumericFields(t *testing.T) {
	mem := memory.New()
	h := &CouponHandler{Store: mem}
	e := echo.New()
	ctx := context.Background()

	id, err := mem.AddCoupon(ctx, &models.Coupon{Title: "launch", Code: "LAUNCH1", Percent: 10})
	require.NoError(t, err)

	c, rec := postJSON(t, e, "/api/admin/coupons/"+id, map[string]any{
		"percent":  35,
		"due_date": 1759276800000,
	})
	c.SetParamNames("id")
	c.SetParamValues(id)
	require.NoError(t, h.Patch(c))
	require.Equal(t, http.StatusOK, rec.Code)

	cp, err := mem.GetCoupon(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 35, cp.Percent)
	require.Equal(t, int64(1759276800000), cp.DueDate)
}
