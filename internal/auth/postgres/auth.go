package postgres

import (
	"context"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	appErrors "github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/auth"
	tokenDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/token"
	userDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/user"
	"github.com/frahmantamala/access-management/internal/permission"
)

// Repository backs both the identity lookups and the refresh token store the
// auth flows need. Store calls run under a bounded timeout.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
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
	return toAuthUser(&row), nil
}

// GetWithAccess loads the user together with its role and role-permission
// closure. Permission claims come out decomposed into single actions and
// de-duplicated.
func (r *Repository) GetWithAccess(ctx context.Context, userID int64) (*auth.User, error) {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	var row userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", userID, false).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.ErrUserNotFound
		}
		return nil, err
	}

	user := toAuthUser(&row)

	roleRows, err := r.db.WithContext(ctx).
		Table("user_roles").
		Select("roles.name").
		Joins("JOIN roles ON roles.id = user_roles.role_id").
		Where("user_roles.user_id = ? AND roles.is_deleted = ?", userID, false).
		Order("roles.name").
		Rows()
	if err != nil {
		return nil, err
	}
	defer roleRows.Close()

	for roleRows.Next() {
		var name string
		if err := roleRows.Scan(&name); err != nil {
			return nil, err
		}
		user.Roles = append(user.Roles, name)
	}
	if err := roleRows.Err(); err != nil {
		return nil, err
	}

	permRows, err := r.db.WithContext(ctx).
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
	defer permRows.Close()

	seen := map[string]struct{}{}
	for permRows.Next() {
		var resource string
		var mask int64
		if err := permRows.Scan(&resource, &mask); err != nil {
			return nil, err
		}
		for _, action := range permission.Action(mask).Decompose() {
			seen[permission.FullPermission(resource, action)] = struct{}{}
		}
	}
	if err := permRows.Err(); err != nil {
		return nil, err
	}

	for p := range seen {
		user.Permissions = append(user.Permissions, p)
	}
	sort.Strings(user.Permissions)

	return user, nil
}

func (r *Repository) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	return r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Update("last_login_at", at).Error
}

// ReplaceActive revokes every active token the user still holds and inserts
// the new one inside a single transaction, so two concurrent refreshes cannot
// both leave an active token behind.
func (r *Repository) ReplaceActive(ctx context.Context, t *tokenDatamodel.RefreshToken) error {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&tokenDatamodel.RefreshToken{}).
			Where("user_id = ? AND is_revoked = ?", t.UserID, false).
			Update("is_revoked", true).Error; err != nil {
			return err
		}
		return tx.Create(t).Error
	})
}

func (r *Repository) GetByToken(ctx context.Context, token string) (*tokenDatamodel.RefreshToken, error) {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	var row tokenDatamodel.RefreshToken
	err := r.db.WithContext(ctx).
		Where("token = ?", token).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.NewNotFoundError("Refresh token not found", appErrors.ErrCodeInvalidToken)
		}
		return nil, err
	}
	return &row, nil
}

// Revoke is a no-op for unknown tokens; existence must not leak through the
// error path.
func (r *Repository) Revoke(ctx context.Context, token string) error {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	return r.db.WithContext(ctx).
		Model(&tokenDatamodel.RefreshToken{}).
		Where("token = ?", token).
		Update("is_revoked", true).Error
}

func (r *Repository) RevokeAllForUser(ctx context.Context, userID int64) error {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	return r.db.WithContext(ctx).
		Model(&tokenDatamodel.RefreshToken{}).
		Where("user_id = ? AND is_revoked = ?", userID, false).
		Update("is_revoked", true).Error
}

func (r *Repository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	ctx, cancel := appErrors.WithTimeout(ctx, 0)
	defer cancel()

	res := r.db.WithContext(ctx).
		Where("expires_at <= ?", before).
		Delete(&tokenDatamodel.RefreshToken{})
	return res.RowsAffected, res.Error
}

func toAuthUser(row *userDatamodel.User) *auth.User {
	return &auth.User{
		ID:           row.ID,
		Email:        row.Email,
		FirstName:    row.FirstName,
		LastName:     row.LastName,
		PhoneNumber:  row.PhoneNumber,
		Status:       row.Status,
		PasswordHash: row.PasswordHash,
		LastLoginAt:  row.LastLoginAt,
	}
}
