package user

import (
	"context"
	"strings"
	"time"

	userDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/user"
)

// User is the domain view of an account, including the role names and
// decomposed permission strings resolved through the role closure.
type User struct {
	ID             int64      `json:"id"`
	Email          string     `json:"email"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	PhoneNumber    string     `json:"phone_number,omitempty"`
	Status         string     `json:"status"`
	PasswordHash   string     `json:"-"`
	EmailConfirmed bool       `json:"email_confirmed"`
	ProfileImage   string     `json:"profile_image_url,omitempty"`
	Roles          []string   `json:"roles,omitempty"`
	Permissions    []string   `json:"permissions,omitempty"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) IsActive() bool {
	return u.Status == userDatamodel.StatusActive
}

func FromDataModel(row *userDatamodel.User) *User {
	return &User{
		ID:             row.ID,
		Email:          row.Email,
		FirstName:      row.FirstName,
		LastName:       row.LastName,
		PhoneNumber:    row.PhoneNumber,
		Status:         row.Status,
		PasswordHash:   row.PasswordHash,
		EmailConfirmed: row.EmailConfirmed,
		ProfileImage:   row.ProfileImage,
		LastLoginAt:    row.LastLoginAt,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

// RepositoryAPI is the store boundary for accounts. Reads exclude
// soft-deleted rows.
type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*userDatamodel.User, error)
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	Create(ctx context.Context, row *userDatamodel.User) error
	Update(ctx context.Context, row *userDatamodel.User) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	SoftDelete(ctx context.Context, id int64) error
}

// AccessResolver answers role and permission lookups for an account.
type AccessResolver interface {
	GetUserRoles(ctx context.Context, userID int64) ([]string, error)
	GetUserPermissions(ctx context.Context, userID int64) ([]string, error)
}

// RoleAssigner grants a role to an account. Registration uses it for the
// default role.
type RoleAssigner interface {
	AssignRoleToUserByName(ctx context.Context, userID int64, roleName string) error
}

// TokenRevoker invalidates every refresh token an account holds. Status
// changes away from active and deletions use it.
type TokenRevoker interface {
	RevokeAllForUser(ctx context.Context, userID int64) error
}

type ServiceAPI interface {
	Create(ctx context.Context, dto CreateUserDTO) (*User, error)
	Register(ctx context.Context, dto RegisterDTO) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetAll(ctx context.Context) ([]*User, error)
	UpdateProfile(ctx context.Context, id int64, dto UpdateProfileDTO) (*User, error)
	ChangeStatus(ctx context.Context, id int64, status string) error
	ChangePassword(ctx context.Context, id int64, dto ChangePasswordDTO) error
	Delete(ctx context.Context, id int64) error
}
