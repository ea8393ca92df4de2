package memory

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/petshop/server/internal/models"
	"github.com/petshop/server/internal/store"
)

// Patch maps coming off the wire are json-decoded, so numbers arrive as
// float64 and arrays as []any. The store has to take both that shape and
// typed Go values.

func TestUpdateProductDecodedFields(t *testing.T) {
	m := New()
	ctx := context.Background()

	id, err := m.AddProduct(ctx, &models.Product{Title: "royal canin", Price: 120, ImgURLs: []string{"old.png"}})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{
		"price": 99,
		"origin_price": 150,
		"stock": 7,
		"is_enabled": true,
		"img_urls": ["a.png", "b.png"],
		"title": "royal canin mini"
	}`), &fields))

	require.NoError(t, m.UpdateProduct(ctx, id, fields))

	p, err := m.GetProduct(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 99, p.Price)
	require.Equal(t, 150, p.OriginPrice)
	require.Equal(t, 7, p.Stock)
	require.True(t, p.IsEnabled)
	require.Equal(t, []string{"a.png", "b.png"}, p.ImgURLs)
	require.Equal(t, "royal canin mini", p.Title)
}

func TestUpdateProductTypedFields(t *testing.T) {
	m := New()
	ctx := context.Background()

	id, err := m.AddProduct(ctx, &models.Product{Title: "cat tower"})
	require.NoError(t, err)

	require.NoError(t, m.UpdateProduct(ctx, id, map[string]any{
		"price":    250,
		"img_urls": []string{"tower.png"},
	}))

	p, err := m.GetProduct(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 250, p.Price)
	require.Equal(t, []string{"tower.png"}, p.ImgURLs)
}

func TestUpdateCouponDecodedFields(t *testing.T) {
	m := New()
	ctx := context.Background()

	id, err := m.AddCoupon(ctx, &models.Coupon{Title: "launch", Code: "LAUNCH", Percent: 10})
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{
		"percent": 25,
		"effective_date": 1756684800,
		"due_date": 1759276800,
		"is_enabled": true
	}`), &fields))

	require.NoError(t, m.UpdateCoupon(ctx, id, fields))

	cp, err := m.GetCoupon(ctx, id)
	require.NoError(t, err)
	require.Equal(t, 25, cp.Percent)
	require.Equal(t, int64(1756684800), cp.EffectiveDate)
	require.Equal(t, int64(1759276800), cp.DueDate)
	require.True(t, cp.IsEnabled)
}

func TestUpdateUserDecodedFields(t *testing.T) {
	m := New()
	ctx := context.Background()

	require.NoError(t, m.PutUser(ctx, "uid1", &models.User{Username: "alice", Draws: 3}))

	var fields map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{
		"draws": 5,
		"providers": ["password", "google"]
	}`), &fields))

	require.NoError(t, m.UpdateUser(ctx, "uid1", fields))

	u, err := m.GetUser(ctx, "uid1")
	require.NoError(t, err)
	require.Equal(t, 5, u.Draws)
	require.Equal(t, []string{"password", "google"}, u.Providers)
}

func TestBumpTokenVersionUnknownUser(t *testing.T) {
	m := New()
	ctx := context.Background()

	// a user deleted out from under a session must not be resurrected
	_, err := m.BumpTokenVersion(ctx, "ghost", -1)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = m.BumpTokenVersion(ctx, "ghost", 0)
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = m.GetUser(ctx, "ghost")
	require.ErrorIs(t, err, store.ErrNotFound)
}
