package auth

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	tokenDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/token"
)

// User is the internal view of an authenticated identity with its role and
// permission closure resolved.
type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	PhoneNumber  string     `json:"phone_number,omitempty"`
	Status       string     `json:"status"`
	PasswordHash string     `json:"-"`
	Roles        []string   `json:"roles,omitempty"`
	Permissions  []string   `json:"permissions,omitempty"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) HasPermission(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Claims is the access-token claim set. Role and permission claims repeat,
// one entry per role name and per distinct permission string.
type Claims struct {
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Status      string   `json:"status"`
	Roles       []string `json:"role,omitempty"`
	Permissions []string `json:"permission,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim back into the numeric user id.
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// TokenPair is the login and refresh response payload.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         *User     `json:"user,omitempty"`
}

// TokenGenerator mints and validates signed access tokens.
type TokenGenerator interface {
	GenerateAccessToken(user *User) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
	// ParseExpiredToken validates everything except the lifetime and returns
	// nil on any structural or signature failure. Refresh flow only; never an
	// access-control input.
	ParseExpiredToken(tokenString string) *Claims
}

// UserRepository is the identity-store boundary the auth flows need. All
// lookups exclude soft-deleted users.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetWithAccess(ctx context.Context, userID int64) (*User, error)
	UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error
}

// RefreshTokenRepository persists refresh tokens. ReplaceActive revokes every
// active token for the owning user and inserts the new one as one atomic
// store operation.
type RefreshTokenRepository interface {
	ReplaceActive(ctx context.Context, t *tokenDatamodel.RefreshToken) error
	GetByToken(ctx context.Context, token string) (*tokenDatamodel.RefreshToken, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// ServiceAPI is what the HTTP layer consumes.
type ServiceAPI interface {
	Login(ctx context.Context, dto LoginDTO, ipAddress, userAgent string) (*TokenPair, error)
	Refresh(ctx context.Context, dto RefreshDTO, ipAddress, userAgent string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetUserWithAccess(ctx context.Context, userID int64) (*User, error)
}

type ctxKey string

const ContextUserKey ctxKey = "user"

func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ContextUserKey).(*User)
	return u, ok
}

func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ContextUserKey, u)
}
