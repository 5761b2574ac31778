package postgres

import (
	"context"
	"database/sql"
	"errors"

	"gorm.io/gorm"

	appErrors "github.com/frahmantamala/access-management/internal"
	rbacDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/rbac"
	userDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/user"
	"github.com/frahmantamala/access-management/internal/permission"
	"github.com/frahmantamala/access-management/internal/rbac"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) UserExists(ctx context.Context, userID int64) (bool, error) {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	var count int64
	err := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ? AND is_deleted = ?", userID, false).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) RoleExists(ctx context.Context, roleID int64) (bool, error) {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	var count int64
	err := r.db.WithContext(ctx).
		Model(&rbacDatamodel.Role{}).
		Where("id = ? AND is_deleted = ?", roleID, false).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) RoleIsSystem(ctx context.Context, roleID int64) (bool, error) {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	var row rbacDatamodel.Role
	err := r.db.WithContext(ctx).
		Select("is_system_role").
		Where("id = ?", roleID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, appErrors.ErrRoleNotFound
		}
		return false, err
	}
	return row.IsSystemRole, nil
}

func (r *Repository) RoleIDByName(ctx context.Context, name string) (int64, error) {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	var row rbacDatamodel.Role
	err := r.db.WithContext(ctx).
		Select("id").
		Where("name = ? AND is_deleted = ?", name, false).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, appErrors.ErrRoleNotFound
		}
		return 0, err
	}
	return row.ID, nil
}

func (r *Repository) PermissionExists(ctx context.Context, permissionID int64) (bool, error) {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	var count int64
	err := r.db.WithContext(ctx).
		Model(&rbacDatamodel.Permission{}).
		Where("id = ?", permissionID).
		Count(&count).Error
	return count > 0, err
}

func (r *Repository) UserGrants(ctx context.Context, userID int64) ([]rbac.PermissionGrant, error) {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	rows, err := r.db.WithContext(ctx).
		Table("user_roles").
		Select("permissions.resource, permissions.action_mask").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Joins("JOIN role_permissions ON role_permissions.role_id = roles.id").
		Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
		Where("user_roles.user_id = ? AND roles.is_deleted = ?", userID, false).
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanGrants(rows)
}

func (r *Repository) UserRoleNames(ctx context.Context, userID int64) ([]string, error) {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	rows, err := r.db.WithContext(ctx).
		Table("user_roles").
		Select("roles.name").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("user_roles.user_id = ? AND roles.is_deleted = ?", userID, false).
		Order("roles.name").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *Repository) RoleGrants(ctx context.Context, roleID int64) ([]rbac.PermissionGrant, error) {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	rows, err := r.db.WithContext(ctx).
		Table("role_permissions").
		Select("permissions.resource, permissions.action_mask").
		Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
		Where("role_permissions.role_id = ?", roleID).
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanGrants(rows)
}

func (r *Repository) ListPermissions(ctx context.Context) ([]rbac.PermissionInfo, error) {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	var rows []rbacDatamodel.Permission
	if err := r.db.WithContext(ctx).Order("resource, action_mask").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]rbac.PermissionInfo, 0, len(rows))
	for _, row := range rows {
		actions := permission.Action(row.ActionMask)
		out = append(out, rbac.PermissionInfo{
			ID:             row.ID,
			Name:           row.Name,
			Description:    row.Description,
			Resource:       row.Resource,
			Actions:        actions.String(),
			FullPermission: permission.FullPermission(row.Resource, actions),
		})
	}
	return out, nil
}

// CreateUserRole inserts the link unless the pair already exists; check and
// insert share one transaction.
func (r *Repository) CreateUserRole(ctx context.Context, userID, roleID int64) error {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&rbacDatamodel.UserRole{}).
			Where("user_id = ? AND role_id = ?", userID, roleID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return appErrors.ErrRoleAlreadyAssigned
		}
		return tx.Create(&rbacDatamodel.UserRole{UserID: userID, RoleID: roleID}).Error
	})
}

func (r *Repository) DeleteUserRole(ctx context.Context, userID, roleID int64) error {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	res := r.db.WithContext(ctx).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Delete(&rbacDatamodel.UserRole{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return appErrors.ErrRoleNotAssigned
	}
	return nil
}

func (r *Repository) CreateRolePermission(ctx context.Context, roleID, permissionID int64) error {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&rbacDatamodel.RolePermission{}).
			Where("role_id = ? AND permission_id = ?", roleID, permissionID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return appErrors.ErrPermissionAlreadyAssigned
		}
		return tx.Create(&rbacDatamodel.RolePermission{RoleID: roleID, PermissionID: permissionID}).Error
	})
}

func (r *Repository) DeleteRolePermission(ctx context.Context, roleID, permissionID int64) error {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	res := r.db.WithContext(ctx).
		Where("role_id = ? AND permission_id = ?", roleID, permissionID).
		Delete(&rbacDatamodel.RolePermission{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return appErrors.ErrPermissionNotAssigned
	}
	return nil
}

func scanGrants(rows *sql.Rows) ([]rbac.PermissionGrant, error) {
	var out []rbac.PermissionGrant
	for rows.Next() {
		var resource string
		var mask int64
		if err := rows.Scan(&resource, &mask); err != nil {
			return nil, err
		}
		out = append(out, rbac.PermissionGrant{
			Resource: resource,
			Actions:  permission.Action(mask),
		})
	}
	return out, rows.Err()
}
