// Package memory holds an in-memory store and identity provider used by
// tests and local development without a Firebase project.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/petshop/server/internal/identity"
	"github.com/petshop/server/internal/models"
	"github.com/petshop/server/internal/store"
)

type account struct {
	uid          string
	passwordHash []byte
}

// Memory implements both store.Store and identity.Provider behind one mutex.
type Memory struct {
	mu        sync.Mutex
	users     map[string]*models.User // by uid
	usernames map[string]string       // username -> email
	accounts  map[string]account      // email -> account
	products  map[string]models.Product
	coupons   map[string]models.Coupon
	seq       int

	// Federated maps access credentials to identities for SignInWithIdP.
	Federated map[string]identity.FederatedIdentity
}

func New() *Memory {
	return &Memory{
		users:     make(map[string]*models.User),
		usernames: make(map[string]string),
		accounts:  make(map[string]account),
		products:  make(map[string]models.Product),
		coupons:   make(map[string]models.Coupon),
		Federated: make(map[string]identity.FederatedIdentity),
	}
}

func (m *Memory) nextKey(prefix string) string {
	m.seq++
	return prefix + strconv.Itoa(m.seq)
}

func (m *Memory) GetUser(ctx context.Context, uid string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[uid]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	cp.Providers = append([]string(nil), u.Providers...)
	return &cp, nil
}

func (m *Memory) PutUser(ctx context.Context, uid string, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	cp.Providers = append([]string(nil), user.Providers...)
	m.users[uid] = &cp
	return nil
}

func (m *Memory) SaveNewUser(ctx context.Context, uid string, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	cp.Providers = append([]string(nil), user.Providers...)
	m.users[uid] = &cp
	m.usernames[user.Username] = user.Email
	return nil
}

func (m *Memory) UpdateUser(ctx context.Context, uid string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[uid]
	if !ok {
		return store.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "username":
			u.Username = asString(v)
		case "displayName":
			u.DisplayName = asString(v)
		case "photoUrl":
			u.PhotoURL = asString(v)
		case "providers":
			u.Providers = asStrings(v)
		case "draws":
			u.Draws = asInt(v)
		}
	}
	return nil
}

// Patch maps arrive either as typed Go values or straight out of
// json.Decode, where every number is a float64 and every array a []any.
// Both shapes have to land on the model fields.

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asStrings(v any) []string {
	switch vs := v.(type) {
	case []string:
		return append([]string(nil), vs...)
	case []any:
		out := make([]string, 0, len(vs))
		for _, item := range vs {
			out = append(out, asString(item))
		}
		return out
	}
	return nil
}

func (m *Memory) LookupUsername(ctx context.Context, username string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email, ok := m.usernames[username]
	if !ok {
		return "", store.ErrNotFound
	}
	return email, nil
}

func (m *Memory) BumpTokenVersion(ctx context.Context, uid string, expected int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[uid]
	if !ok {
		return 0, store.ErrNotFound
	}
	if expected >= 0 && u.TokenVersion != expected {
		return 0, store.ErrVersionMismatch
	}
	u.TokenVersion++
	return u.TokenVersion, nil
}

func (m *Memory) AddProduct(ctx context.Context, p *models.Product) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextKey("p")
	m.products[id] = *p
	return id, nil
}

func (m *Memory) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	p.ID = id
	return &p, nil
}

func (m *Memory) GetProducts(ctx context.Context) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	products := make([]models.Product, 0, len(m.products))
	for id, p := range m.products {
		p.ID = id
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].CreatedAt < products[j].CreatedAt })
	return products, nil
}

func (m *Memory) UpdateProduct(ctx context.Context, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return store.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "title":
			p.Title = asString(v)
		case "category":
			p.Category = asString(v)
		case "price":
			p.Price = asInt(v)
		case "origin_price":
			p.OriginPrice = asInt(v)
		case "unit":
			p.Unit = asString(v)
		case "description":
			p.Description = asString(v)
		case "content":
			p.Content = asString(v)
		case "is_enabled":
			p.IsEnabled = asBool(v)
		case "sales":
			p.Sales = asInt(v)
		case "stock":
			p.Stock = asInt(v)
		case "img_urls":
			p.ImgURLs = asStrings(v)
		}
	}
	m.products[id] = p
	return nil
}

func (m *Memory) DeleteProduct(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *Memory) AddCoupon(ctx context.Context, cp *models.Coupon) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextKey("c")
	m.coupons[id] = *cp
	return id, nil
}

func (m *Memory) GetCoupon(ctx context.Context, id string) (*models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp, ok := m.coupons[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp.ID = id
	return &cp, nil
}

func (m *Memory) GetCoupons(ctx context.Context) ([]models.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	coupons := make([]models.Coupon, 0, len(m.coupons))
	for id, cp := range m.coupons {
		cp.ID = id
		coupons = append(coupons, cp)
	}
	sort.Slice(coupons, func(i, j int) bool { return coupons[i].CreatedAt < coupons[j].CreatedAt })
	return coupons, nil
}

func (m *Memory) UpdateCoupon(ctx context.Context, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp, ok := m.coupons[id]
	if !ok {
		return store.ErrNotFound
	}
	for k, v := range fields {
		switch k {
		case "title":
			cp.Title = asString(v)
		case "code":
			cp.Code = asString(v)
		case "percent":
			cp.Percent = asInt(v)
		case "effective_date":
			cp.EffectiveDate = asInt64(v)
		case "due_date":
			cp.DueDate = asInt64(v)
		case "is_enabled":
			cp.IsEnabled = asBool(v)
		}
	}
	m.coupons[id] = cp
	return nil
}

func (m *Memory) DeleteCoupon(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.coupons[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.coupons, id)
	return nil
}

// identity.Provider implementation.

func (m *Memory) CreateAccount(ctx context.Context, req identity.CreateAccountRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[req.Email]; ok {
		return "", identity.ErrEmailExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		return "", err
	}
	uid := uuid.NewString()
	m.accounts[req.Email] = account{uid: uid, passwordHash: hash}
	return uid, nil
}

func (m *Memory) VerifyPassword(ctx context.Context, email, password string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[email]
	if !ok {
		return "", identity.ErrEmailNotFound
	}
	if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)); err != nil {
		return "", identity.ErrInvalidPassword
	}
	return acc.uid, nil
}

func (m *Memory) SignInWithIdP(ctx context.Context, providerID, accessToken string) (*identity.FederatedIdentity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fid, ok := m.Federated[accessToken]
	if !ok {
		return nil, &identity.UpstreamError{Message: "INVALID_IDP_RESPONSE"}
	}
	return &fid, nil
}

func (m *Memory) SendPasswordReset(ctx context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[email]; !ok {
		return identity.ErrEmailNotFound
	}
	return nil
}
