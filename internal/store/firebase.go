package store

import (
	"context"
	"fmt"
	"sort"

	cloudstorage "cloud.google.com/go/storage"
	firebase "firebase.google.com/go"
	"firebase.google.com/go/auth"
	"firebase.google.com/go/db"
	"google.golang.org/api/option"

	"github.com/petshop/server/internal/config"
	"github.com/petshop/server/internal/models"
)

const (
	detailsPath   = "users/details/"
	usernamesPath = "users/usernames/"
	productsPath  = "products"
	couponsPath   = "coupons"
)

// FirebaseStore implements Store on the Firebase Realtime Database.
type FirebaseStore struct {
	DB *db.Client
}

// Dial initializes the Firebase app and returns the database-backed store
// together with the auth client and the storage bucket.
func Dial(ctx context.Context, cfg *config.Config) (*FirebaseStore, *auth.Client, *cloudstorage.BucketHandle, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{
		DatabaseURL:   cfg.FIREBASE_DATABASE_URL,
		StorageBucket: cfg.FIREBASE_STORAGE_BUCKET,
	}, option.WithCredentialsFile(cfg.FIREBASE_CREDENTIALS_FILE))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("firebase app: %w", err)
	}

	database, err := app.Database(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("firebase database: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("firebase auth: %w", err)
	}

	storageClient, err := app.Storage(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("firebase storage: %w", err)
	}
	bucket, err := storageClient.DefaultBucket()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("firebase bucket: %w", err)
	}

	return &FirebaseStore{DB: database}, authClient, bucket, nil
}

func (s *FirebaseStore) GetUser(ctx context.Context, uid string) (*models.User, error) {
	var user *models.User
	if err := s.DB.NewRef(detailsPath+uid).Get(ctx, &user); err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

func (s *FirebaseStore) PutUser(ctx context.Context, uid string, user *models.User) error {
	if err := s.DB.NewRef(detailsPath+uid).Set(ctx, user); err != nil {
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

func (s *FirebaseStore) SaveNewUser(ctx context.Context, uid string, user *models.User) error {
	update := map[string]any{
		"usernames/" + user.Username: user.Email,
		"details/" + uid:             user,
	}
	if err := s.DB.NewRef("users").Update(ctx, update); err != nil {
		return fmt.Errorf("save new user: %w", err)
	}
	return nil
}

func (s *FirebaseStore) UpdateUser(ctx context.Context, uid string, fields map[string]any) error {
	if err := s.DB.NewRef(detailsPath+uid).Update(ctx, fields); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (s *FirebaseStore) LookupUsername(ctx context.Context, username string) (string, error) {
	var email string
	if err := s.DB.NewRef(usernamesPath+username).Get(ctx, &email); err != nil {
		return "", fmt.Errorf("lookup username: %w", err)
	}
	if email == "" {
		return "", ErrNotFound
	}
	return email, nil
}

// BumpTokenVersion runs as a database transaction on the whole detail
// record so that concurrent refreshes of the same token resolve to exactly
// one winner. Transacting on the record rather than the version leaf keeps
// a bump against a deleted user from writing back a stray partial record.
func (s *FirebaseStore) BumpTokenVersion(ctx context.Context, uid string, expected int) (int, error) {
	ref := s.DB.NewRef(detailsPath + uid)
	var next int
	err := ref.Transaction(ctx, func(node db.TransactionNode) (any, error) {
		var record map[string]any
		if err := node.Unmarshal(&record); err != nil {
			return nil, err
		}
		if record == nil {
			return nil, ErrNotFound
		}
		current := 0
		if v, ok := record["tokenVersion"].(float64); ok {
			current = int(v)
		}
		if expected >= 0 && current != expected {
			return nil, ErrVersionMismatch
		}
		next = current + 1
		record["tokenVersion"] = next
		return record, nil
	})
	if err != nil {
		return 0, err
	}
	return next, nil
}

func (s *FirebaseStore) AddProduct(ctx context.Context, p *models.Product) (string, error) {
	ref, err := s.DB.NewRef(productsPath).Push(ctx, p)
	if err != nil {
		return "", fmt.Errorf("add product: %w", err)
	}
	return ref.Key, nil
}

func (s *FirebaseStore) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	var p *models.Product
	if err := s.DB.NewRef(productsPath+"/"+id).Get(ctx, &p); err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if p == nil {
		return nil, ErrNotFound
	}
	p.ID = id
	return p, nil
}

func (s *FirebaseStore) GetProducts(ctx context.Context) ([]models.Product, error) {
	var raw map[string]models.Product
	if err := s.DB.NewRef(productsPath).Get(ctx, &raw); err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	products := make([]models.Product, 0, len(raw))
	for id, p := range raw {
		p.ID = id
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].CreatedAt < products[j].CreatedAt })
	return products, nil
}

func (s *FirebaseStore) UpdateProduct(ctx context.Context, id string, fields map[string]any) error {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return err
	}
	if err := s.DB.NewRef(productsPath+"/"+id).Update(ctx, fields); err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (s *FirebaseStore) DeleteProduct(ctx context.Context, id string) error {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return err
	}
	if err := s.DB.NewRef(productsPath + "/" + id).Delete(ctx); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func (s *FirebaseStore) AddCoupon(ctx context.Context, cp *models.Coupon) (string, error) {
	ref, err := s.DB.NewRef(couponsPath).Push(ctx, cp)
	if err != nil {
		return "", fmt.Errorf("add coupon: %w", err)
	}
	return ref.Key, nil
}

func (s *FirebaseStore) GetCoupon(ctx context.Context, id string) (*models.Coupon, error) {
	var cp *models.Coupon
	if err := s.DB.NewRef(couponsPath+"/"+id).Get(ctx, &cp); err != nil {
		return nil, fmt.Errorf("get coupon: %w", err)
	}
	if cp == nil {
		return nil, ErrNotFound
	}
	cp.ID = id
	return cp, nil
}

func (s *FirebaseStore) GetCoupons(ctx context.Context) ([]models.Coupon, error) {
	var raw map[string]models.Coupon
	if err := s.DB.NewRef(couponsPath).Get(ctx, &raw); err != nil {
		return nil, fmt.Errorf("get coupons: %w", err)
	}
	coupons := make([]models.Coupon, 0, len(raw))
	for id, cp := range raw {
		cp.ID = id
		coupons = append(coupons, cp)
	}
	sort.Slice(coupons, func(i, j int) bool { return coupons[i].CreatedAt < coupons[j].CreatedAt })
	return coupons, nil
}

func (s *FirebaseStore) UpdateCoupon(ctx context.Context, id string, fields map[string]any) error {
	if _, err := s.GetCoupon(ctx, id); err != nil {
		return err
	}
	if err := s.DB.NewRef(couponsPath+"/"+id).Update(ctx, fields); err != nil {
		return fmt.Errorf("update coupon: %w", err)
	}
	return nil
}

func (s *FirebaseStore) DeleteCoupon(ctx context.Context, id string) error {
	if _, err := s.GetCoupon(ctx, id); err != nil {
		return err
	}
	if err := s.DB.NewRef(couponsPath + "/" + id).Delete(ctx); err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	return nil
}
