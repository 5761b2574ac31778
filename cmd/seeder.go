package cmd

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/frahmantamala/access-management/internal/auth"
	rbacDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/rbac"
	userDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/user"
	"github.com/frahmantamala/access-management/internal/permission"
	"github.com/frahmantamala/access-management/internal/user"
)

const (
	adminRoleName  = "Admin"
	adminEmail     = "admin@example.com"
	adminPassword  = "ChangeMe123!"
	adminFirstName = "System"
	adminLastName  = "Administrator"
)

// defaultUserPermissions is what a self-registered account can do.
var defaultUserPermissions = []string{
	permission.FullPermission(permission.ResourceProfile, permission.ActionRead),
	permission.FullPermission(permission.ResourceProfile, permission.ActionUpdate),
	permission.FullPermission(permission.ResourceDashboard, permission.ActionRead),
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with the permission catalog and initial accounts",
	Long:  `Seed permissions from the registry, the Admin system role, the default User role, and an initial admin account.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gormDB, err := initGorm(db)
		if err != nil {
			log.Fatalf("failed to init orm: %v", err)
		}

		if clearData {
			clearTables(gormDB)
		}

		seedPermissions(gormDB)
		adminRoleID := seedRole(gormDB, adminRoleName, "Full administrative access", true)
		userRoleID := seedRole(gormDB, user.DefaultRoleName, "Default role for registered accounts", false)

		grantAllPermissions(gormDB, adminRoleID)
		grantPermissions(gormDB, userRoleID, defaultUserPermissions)

		seedAdminAccount(gormDB, cfg.Security.BCryptCost, adminRoleID)

		fmt.Println("Seeding complete")
	},
}

func clearTables(db *gorm.DB) {
	tables := []string{"role_permissions", "user_roles", "refresh_tokens", "permissions", "roles", "users"}
	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			log.Fatalf("failed to clear table %s: %v", table, err)
		}
	}
	fmt.Println("Cleared existing data")
}

// seedPermissions inserts one row per resource and single action defined in
// the registry.
func seedPermissions(db *gorm.DB) {
	for _, resource := range permission.Resources() {
		for _, action := range permission.Registry[resource].Decompose() {
			name := permission.FullPermission(resource, action)

			var count int64
			if err := db.Model(&rbacDatamodel.Permission{}).
				Where("name = ?", name).
				Count(&count).Error; err != nil {
				log.Fatalf("failed to check permission %s: %v", name, err)
			}
			if count > 0 {
				continue
			}

			row := rbacDatamodel.Permission{
				Name:        name,
				Description: fmt.Sprintf("%s access on %s", action.String(), resource),
				Resource:    resource,
				ActionMask:  int64(action),
			}
			if err := db.Create(&row).Error; err != nil {
				log.Fatalf("failed to insert permission %s: %v", name, err)
			}
			fmt.Println("Seeded permission:", name)
		}
	}
}

func seedRole(db *gorm.DB, name, description string, system bool) int64 {
	var existing rbacDatamodel.Role
	err := db.Where("name = ? AND is_deleted = ?", name, false).First(&existing).Error
	if err == nil {
		return existing.ID
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatalf("failed to check role %s: %v", name, err)
	}

	row := rbacDatamodel.Role{
		Name:         name,
		Description:  description,
		IsSystemRole: system,
	}
	if err := db.Create(&row).Error; err != nil {
		log.Fatalf("failed to insert role %s: %v", name, err)
	}
	fmt.Println("Seeded role:", name)
	return row.ID
}

func grantAllPermissions(db *gorm.DB, roleID int64) {
	grantPermissions(db, roleID, permission.All())
}

func grantPermissions(db *gorm.DB, roleID int64, names []string) {
	for _, name := range names {
		var perm rbacDatamodel.Permission
		if err := db.Where("name = ?", name).First(&perm).Error; err != nil {
			log.Fatalf("permission not found %s: %v", name, err)
		}

		var count int64
		if err := db.Model(&rbacDatamodel.RolePermission{}).
			Where("role_id = ? AND permission_id = ?", roleID, perm.ID).
			Count(&count).Error; err != nil {
			log.Fatalf("failed to check role permission %s: %v", name, err)
		}
		if count > 0 {
			continue
		}

		link := rbacDatamodel.RolePermission{RoleID: roleID, PermissionID: perm.ID}
		if err := db.Create(&link).Error; err != nil {
			log.Fatalf("failed to grant %s to role %d: %v", name, roleID, err)
		}
	}
}

func seedAdminAccount(db *gorm.DB, bcryptCost int, adminRoleID int64) {
	var existing userDatamodel.User
	err := db.Where("email = ? AND is_deleted = ?", adminEmail, false).First(&existing).Error
	if err == nil {
		ensureUserRole(db, existing.ID, adminRoleID)
		fmt.Println("Admin account already exists:", adminEmail)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Fatalf("failed to check admin account: %v", err)
	}

	hash, err := auth.HashPassword(adminPassword, bcryptCost)
	if err != nil {
		log.Fatalf("failed to hash admin password: %v", err)
	}

	row := userDatamodel.User{
		Email:          adminEmail,
		PasswordHash:   hash,
		FirstName:      adminFirstName,
		LastName:       adminLastName,
		Status:         userDatamodel.StatusActive,
		EmailConfirmed: true,
	}
	if err := db.Create(&row).Error; err != nil {
		log.Fatalf("failed to insert admin account: %v", err)
	}

	ensureUserRole(db, row.ID, adminRoleID)
	fmt.Println("Seeded admin account:", adminEmail)
}

func ensureUserRole(db *gorm.DB, userID, roleID int64) {
	var count int64
	if err := db.Model(&rbacDatamodel.UserRole{}).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Count(&count).Error; err != nil {
		log.Fatalf("failed to check user role: %v", err)
	}
	if count > 0 {
		return
	}

	link := rbacDatamodel.UserRole{UserID: userID, RoleID: roleID}
	if err := db.Create(&link).Error; err != nil {
		log.Fatalf("failed to assign role to user: %v", err)
	}
}
