package rbac

import (
	"context"

	"github.com/frahmantamala/access-management/internal/permission"
)

// PermissionGrant is one stored permission row as granted to a role: the
// resource plus a possibly composite action mask.
type PermissionGrant struct {
	Resource string
	Actions  permission.Action
}

// Expand turns a grant into its decomposed single-action permission strings.
func (g PermissionGrant) Expand() []string {
	var out []string
	for _, a := range g.Actions.Decompose() {
		out = append(out, permission.FullPermission(g.Resource, a))
	}
	return out
}

// PermissionInfo is the catalog view of a stored permission.
type PermissionInfo struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Resource       string `json:"resource"`
	Actions        string `json:"actions"`
	FullPermission string `json:"full_permission"`
}

// Repository is the store boundary for the role/permission closure. Link
// mutations run transactionally: the duplicate / existence check and the
// write commit together or not at all.
type Repository interface {
	UserExists(ctx context.Context, userID int64) (bool, error)
	RoleExists(ctx context.Context, roleID int64) (bool, error)
	RoleIsSystem(ctx context.Context, roleID int64) (bool, error)
	RoleIDByName(ctx context.Context, name string) (int64, error)
	PermissionExists(ctx context.Context, permissionID int64) (bool, error)

	UserGrants(ctx context.Context, userID int64) ([]PermissionGrant, error)
	UserRoleNames(ctx context.Context, userID int64) ([]string, error)
	RoleGrants(ctx context.Context, roleID int64) ([]PermissionGrant, error)
	ListPermissions(ctx context.Context) ([]PermissionInfo, error)

	CreateUserRole(ctx context.Context, userID, roleID int64) error
	DeleteUserRole(ctx context.Context, userID, roleID int64) error
	CreateRolePermission(ctx context.Context, roleID, permissionID int64) error
	DeleteRolePermission(ctx context.Context, roleID, permissionID int64) error
}

// ServiceAPI answers effective-permission queries and manages the
// user-role and role-permission links.
type ServiceAPI interface {
	UserHasPermission(ctx context.Context, userID int64, permissionString string) (bool, error)
	UserHasResourceAction(ctx context.Context, userID int64, resource, action string) (bool, error)
	GetUserPermissions(ctx context.Context, userID int64) ([]string, error)
	GetUserRoles(ctx context.Context, userID int64) ([]string, error)
	RoleHasPermission(ctx context.Context, roleID int64, permissionString string) (bool, error)
	GetRolePermissions(ctx context.Context, roleID int64) ([]string, error)
	ListPermissions(ctx context.Context) ([]PermissionInfo, error)

	AssignPermissionToRole(ctx context.Context, roleID, permissionID int64) error
	RemovePermissionFromRole(ctx context.Context, roleID, permissionID int64) error
	AssignRoleToUser(ctx context.Context, userID, roleID int64) error
	AssignRoleToUserByName(ctx context.Context, userID int64, roleName string) error
	RemoveRoleFromUser(ctx context.Context, userID, roleID int64) error
}
