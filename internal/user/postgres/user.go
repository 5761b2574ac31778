package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	appErrors "github.com/frahmantamala/access-management/internal"
	userDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetAll(ctx context.Context) ([]*userDatamodel.User, error) {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	var rows []*userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	var row userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	var row userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("email = ? AND is_deleted = ?", email, false).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, err
	}
	return &row, nil
}

func (r *Repository) Create(ctx context.Context, row *userDatamodel.User) error {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	return r.db.WithContext(ctx).Create(row).Error
}

func (r *Repository) Update(ctx context.Context, row *userDatamodel.User) error {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	result := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ? AND is_deleted = ?", row.ID, false).
		Updates(map[string]interface{}{
			"first_name":        row.FirstName,
			"last_name":         row.LastName,
			"phone_number":      row.PhoneNumber,
			"profile_image_url": row.ProfileImage,
			"password_hash":     row.PasswordHash,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return appErrors.ErrUserNotFound
	}
	return nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id int64, status string) error {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	result := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return appErrors.ErrUserNotFound
	}
	return nil
}

// SoftDelete marks the account deleted; the row stays for audit and every
// read path filters it out.
func (r *Repository) SoftDelete(ctx context.Context, id int64) error {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	result := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Update("is_deleted", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return appErrors.ErrUserNotFound
	}
	return nil
}
