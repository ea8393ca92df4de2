// Package store is the persistence layer over the realtime database:
// user detail records, username reservations, products and coupons.
package store

import (
	"context"
	"errors"

	"github.com/petshop/server/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")

	// ErrVersionMismatch is returned by BumpTokenVersion when the expected
	// version no longer matches, i.e. the presented refresh token has been
	// revoked or already rotated.
	ErrVersionMismatch = errors.New("token version mismatch")
)

type Store interface {
	// GetUser loads the detail record for uid, or ErrNotFound.
	GetUser(ctx context.Context, uid string) (*models.User, error)

	// PutUser writes the detail record only. Used by federated sign-in,
	// which has no username reservation.
	PutUser(ctx context.Context, uid string, user *models.User) error

	// SaveNewUser writes the username reservation and the detail record in
	// a single multi-location update.
	SaveNewUser(ctx context.Context, uid string, user *models.User) error

	// UpdateUser merges fields into the detail record.
	UpdateUser(ctx context.Context, uid string, fields map[string]any) error

	// LookupUsername resolves a username reservation to its owning email,
	// or ErrNotFound.
	LookupUsername(ctx context.Context, username string) (string, error)

	// BumpTokenVersion atomically increments the user's token version and
	// returns the new value. With expected >= 0 the increment only applies
	// when the stored version equals expected; otherwise it fails with
	// ErrVersionMismatch. A negative expected increments unconditionally.
	BumpTokenVersion(ctx context.Context, uid string, expected int) (int, error)

	AddProduct(ctx context.Context, p *models.Product) (string, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	GetProducts(ctx context.Context) ([]models.Product, error)
	UpdateProduct(ctx context.Context, id string, fields map[string]any) error
	DeleteProduct(ctx context.Context, id string) error

	AddCoupon(ctx context.Context, cp *models.Coupon) (string, error)
	GetCoupon(ctx context.Context, id string) (*models.Coupon, error)
	GetCoupons(ctx context.Context) ([]models.Coupon, error)
	UpdateCoupon(ctx context.Context, id string, fields map[string]any) error
	DeleteCoupon(ctx context.Context, id string) error
}
