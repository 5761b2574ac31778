package role

import (
	"context"
	"time"

	rbacDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/rbac"
)

// Role is the domain view of a stored role. System roles are immutable:
// they cannot be renamed, deleted, or have their permission set changed
// through the management API.
type Role struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	IsSystemRole bool      `json:"is_system_role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (r *Role) IsMutable() bool {
	return !r.IsSystemRole
}

func NewRole(name, description string) *Role {
	now := time.Now()
	return &Role{
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func ToDataModel(r *Role) *rbacDatamodel.Role {
	return &rbacDatamodel.Role{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		IsSystemRole: r.IsSystemRole,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func FromDataModel(r *rbacDatamodel.Role) *Role {
	return &Role{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		IsSystemRole: r.IsSystemRole,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// RepositoryAPI is the store boundary for roles. Reads exclude
// soft-deleted rows.
type RepositoryAPI interface {
	GetAll(ctx context.Context) ([]*rbacDatamodel.Role, error)
	GetByID(ctx context.Context, id int64) (*rbacDatamodel.Role, error)
	GetByName(ctx context.Context, name string) (*rbacDatamodel.Role, error)
	Create(ctx context.Context, role *rbacDatamodel.Role) error
	Update(ctx context.Context, role *rbacDatamodel.Role) error
	SoftDelete(ctx context.Context, id int64) error
}

type ServiceAPI interface {
	GetAll(ctx context.Context) ([]*Role, error)
	GetByID(ctx context.Context, id int64) (*Role, error)
	Create(ctx context.Context, name, description string) (*Role, error)
	Update(ctx context.Context, id int64, name, description string) (*Role, error)
	Delete(ctx context.Context, id int64) error
}
