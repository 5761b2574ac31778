package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	appErrors "github.com/frahmantamala/access-management/internal"
	rbacDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/rbac"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetAll(ctx context.Context) ([]*rbacDatamodel.Role, error) {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	var rows []*rbacDatamodel.Role
	err := r.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("name").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*rbacDatamodel.Role, error) {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	var row rbacDatamodel.Role
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.ErrRoleNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *Repository) GetByName(ctx context.Context, name string) (*rbacDatamodel.Role, error) {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	var row rbacDatamodel.Role
	err := r.db.WithContext(ctx).
		Where("name = ? AND is_deleted = ?", name, false).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.ErrRoleNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *Repository) Create(ctx context.Context, role *rbacDatamodel.Role) error {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	return r.db.WithContext(ctx).Create(role).Error
}

func (r *Repository) Update(ctx context.Context, role *rbacDatamodel.Role) error {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	result := r.db.WithContext(ctx).
		Model(&rbacDatamodel.Role{}).
		Where("id = ? AND is_deleted = ?", role.ID, false).
		Updates(map[string]interface{}{
			"name":        role.Name,
			"description": role.Description,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return appErrors.ErrRoleNotFound
	}
	return nil
}

// SoftDelete marks the role deleted; the row stays for audit and the
// permission joins filter it out.
func (r *Repository) SoftDelete(ctx context.Context, id int64) error {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	result := r.db.WithContext(ctx).
		Model(&rbacDatamodel.Role{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Update("is_deleted", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return appErrors.ErrRoleNotFound
	}
	return nil
}
