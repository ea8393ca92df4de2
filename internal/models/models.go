package models

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the detail record stored under /users/details/<uid>.
// TokenVersion is the revocation counter: a refresh token is only valid
// while the version it carries matches this field.
type User struct {
	Username     string   `json:"username"`
	DisplayName  string   `json:"displayName"`
	Email        string   `json:"email"`
	Role         string   `json:"role"`
	TokenVersion int      `json:"tokenVersion"`
	Providers    []string `json:"providers"`
	PhotoURL     string   `json:"photoUrl"`
	Draws        int      `json:"draws,omitempty"`
}

// PublicUser is the view returned to clients. Never carries the password
// or the token version.
type PublicUser struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl"`
	Role        string `json:"role"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		Email:       u.Email,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
		Role:        u.Role,
	}
}

func (u *User) HasProvider(name string) bool {
	for _, p := range u.Providers {
		if p == name {
			return true
		}
	}
	return false
}

type Product struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	OriginPrice int      `json:"origin_price"`
	Price       int      `json:"price"`
	Unit        string   `json:"unit"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	IsEnabled   bool     `json:"is_enabled"`
	Sales       int      `json:"sales"`
	Stock       int      `json:"stock"`
	ImgURLs     []string `json:"img_urls"`
	CreatedAt   int64    `json:"created_at"`
}

type Coupon struct {
	ID            string `json:"id,omitempty"`
	Title         string `json:"title"`
	Code          string `json:"code"`
	Percent       int    `json:"percent"`
	EffectiveDate int64  `json:"effective_date"`
	DueDate       int64  `json:"due_date"`
	IsEnabled     bool   `json:"is_enabled"`
	CreatedAt     int64  `json:"created_at"`
}
