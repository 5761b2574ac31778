package postgres

import (
	"context"
	"testing"

	appErrors "github.com/frahmantamala/access-management/internal"
	rbacDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/rbac"
	userDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/user"
	"github.com/frahmantamala/access-management/internal/permission"
	"github.com/frahmantamala/access-management/internal/rbac"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestRBACRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "RBACRepository Suite")
}

var _ = Describe("RBACRepository", func() {
	var (
		db   *gorm.DB
		repo *Repository
		ctx  context.Context
	)

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(
			&userDatamodel.User{},
			&rbacDatamodel.Role{},
			&rbacDatamodel.Permission{},
			&rbacDatamodel.UserRole{},
			&rbacDatamodel.RolePermission{},
		)
		Expect(err).NotTo(HaveOccurred())

		repo = NewRepository(db)
		ctx = context.Background()
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	createUser := func(email string) *userDatamodel.User {
		row := &userDatamodel.User{
			FirstName:    "Test",
			LastName:     "User",
			Email:        email,
			PasswordHash: "hash",
			Status:       userDatamodel.StatusActive,
		}
		Expect(db.Create(row).Error).To(Succeed())
		return row
	}

	createRole := func(name string, isSystem bool) *rbacDatamodel.Role {
		row := &rbacDatamodel.Role{Name: name, IsSystemRole: isSystem}
		Expect(db.Create(row).Error).To(Succeed())
		return row
	}

	createPermission := func(resource string, mask permission.Action) *rbacDatamodel.Permission {
		row := &rbacDatamodel.Permission{
			Name:       permission.FullPermission(resource, mask),
			Resource:   resource,
			ActionMask: int64(mask),
		}
		Expect(db.Create(row).Error).To(Succeed())
		return row
	}

	Describe("existence checks", func() {
		It("answers for users, roles and permissions", func() {
			user := createUser("jane@example.com")
			role := createRole("Editor", false)
			perm := createPermission(permission.ResourceReports, permission.ActionRead)

			Expect(repo.UserExists(ctx, user.ID)).To(BeTrue())
			Expect(repo.RoleExists(ctx, role.ID)).To(BeTrue())
			Expect(repo.PermissionExists(ctx, perm.ID)).To(BeTrue())

			Expect(repo.UserExists(ctx, 9999)).To(BeFalse())
			Expect(repo.RoleExists(ctx, 9999)).To(BeFalse())
			Expect(repo.PermissionExists(ctx, 9999)).To(BeFalse())
		})

		It("treats soft-deleted users and roles as absent", func() {
			user := createUser("jane@example.com")
			role := createRole("Editor", false)
			Expect(db.Model(user).Update("is_deleted", true).Error).To(Succeed())
			Expect(db.Model(role).Update("is_deleted", true).Error).To(Succeed())

			Expect(repo.UserExists(ctx, user.ID)).To(BeFalse())
			Expect(repo.RoleExists(ctx, role.ID)).To(BeFalse())
		})
	})

	Describe("RoleIsSystem", func() {
		It("distinguishes system from regular roles", func() {
			system := createRole("Admin", true)
			regular := createRole("Editor", false)

			Expect(repo.RoleIsSystem(ctx, system.ID)).To(BeTrue())
			Expect(repo.RoleIsSystem(ctx, regular.ID)).To(BeFalse())
		})
	})

	Describe("RoleIDByName", func() {
		It("resolves an existing role", func() {
			role := createRole("User", false)

			id, err := repo.RoleIDByName(ctx, "User")
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal(role.ID))
		})

		It("fails for unknown names", func() {
			_, err := repo.RoleIDByName(ctx, "Nonexistent")
			Expect(err).To(MatchError(appErrors.ErrRoleNotFound))
		})

		It("ignores soft-deleted roles", func() {
			role := createRole("User", false)
			Expect(db.Model(role).Update("is_deleted", true).Error).To(Succeed())

			_, err := repo.RoleIDByName(ctx, "User")
			Expect(err).To(MatchError(appErrors.ErrRoleNotFound))
		})
	})

	Describe("UserGrants", func() {
		It("collects grants across all roles", func() {
			user := createUser("jane@example.com")
			editor := createRole("Editor", false)
			viewer := createRole("Viewer", false)
			reportsRW := createPermission(permission.ResourceReports, permission.ActionReadWrite)
			dashRead := createPermission(permission.ResourceDashboard, permission.ActionRead)

			Expect(repo.CreateUserRole(ctx, user.ID, editor.ID)).To(Succeed())
			Expect(repo.CreateUserRole(ctx, user.ID, viewer.ID)).To(Succeed())
			Expect(repo.CreateRolePermission(ctx, editor.ID, reportsRW.ID)).To(Succeed())
			Expect(repo.CreateRolePermission(ctx, viewer.ID, dashRead.ID)).To(Succeed())

			grants, err := repo.UserGrants(ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(grants).To(ConsistOf(
				rbac.PermissionGrant{Resource: permission.ResourceReports, Actions: permission.ActionReadWrite},
				rbac.PermissionGrant{Resource: permission.ResourceDashboard, Actions: permission.ActionRead},
			))
		})

		It("drops grants from soft-deleted roles", func() {
			user := createUser("jane@example.com")
			editor := createRole("Editor", false)
			perm := createPermission(permission.ResourceReports, permission.ActionRead)
			Expect(repo.CreateUserRole(ctx, user.ID, editor.ID)).To(Succeed())
			Expect(repo.CreateRolePermission(ctx, editor.ID, perm.ID)).To(Succeed())
			Expect(db.Model(editor).Update("is_deleted", true).Error).To(Succeed())

			grants, err := repo.UserGrants(ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(grants).To(BeEmpty())
		})
	})

	Describe("UserRoleNames", func() {
		It("lists names sorted", func() {
			user := createUser("jane@example.com")
			viewer := createRole("Viewer", false)
			editor := createRole("Editor", false)
			Expect(repo.CreateUserRole(ctx, user.ID, viewer.ID)).To(Succeed())
			Expect(repo.CreateUserRole(ctx, user.ID, editor.ID)).To(Succeed())

			names, err := repo.UserRoleNames(ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(Equal([]string{"Editor", "Viewer"}))
		})
	})

	Describe("ListPermissions", func() {
		It("returns the catalog with display fields filled in", func() {
			createPermission(permission.ResourceUsers, permission.ActionFullAccess)
			createPermission(permission.ResourceDashboard, permission.ActionRead)

			infos, err := repo.ListPermissions(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(infos).To(HaveLen(2))

			Expect(infos[0].Resource).To(Equal(permission.ResourceDashboard))
			Expect(infos[0].Actions).To(Equal("Read"))
			Expect(infos[0].FullPermission).To(Equal("Dashboard.Read"))

			Expect(infos[1].Resource).To(Equal(permission.ResourceUsers))
			Expect(infos[1].Actions).To(Equal("FullAccess"))
			Expect(infos[1].FullPermission).To(Equal("Users.FullAccess"))
		})
	})

	Describe("CreateUserRole", func() {
		It("rejects a duplicate pair with the assignment conflict", func() {
			user := createUser("jane@example.com")
			role := createRole("Editor", false)

			Expect(repo.CreateUserRole(ctx, user.ID, role.ID)).To(Succeed())
			Expect(repo.CreateUserRole(ctx, user.ID, role.ID)).To(MatchError(appErrors.ErrRoleAlreadyAssigned))
		})
	})

	Describe("DeleteUserRole", func() {
		It("removes an existing link", func() {
			user := createUser("jane@example.com")
			role := createRole("Editor", false)
			Expect(repo.CreateUserRole(ctx, user.ID, role.ID)).To(Succeed())

			Expect(repo.DeleteUserRole(ctx, user.ID, role.ID)).To(Succeed())

			names, err := repo.UserRoleNames(ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(names).To(BeEmpty())
		})

		It("fails for a link that does not exist", func() {
			user := createUser("jane@example.com")
			role := createRole("Editor", false)

			Expect(repo.DeleteUserRole(ctx, user.ID, role.ID)).To(MatchError(appErrors.ErrRoleNotAssigned))
		})
	})

	Describe("CreateRolePermission", func() {
		It("rejects a duplicate pair with the assignment conflict", func() {
			role := createRole("Editor", false)
			perm := createPermission(permission.ResourceReports, permission.ActionRead)

			Expect(repo.CreateRolePermission(ctx, role.ID, perm.ID)).To(Succeed())
			Expect(repo.CreateRolePermission(ctx, role.ID, perm.ID)).To(MatchError(appErrors.ErrPermissionAlreadyAssigned))
		})
	})

	Describe("DeleteRolePermission", func() {
		It("removes an existing link", func() {
			role := createRole("Editor", false)
			perm := createPermission(permission.ResourceReports, permission.ActionRead)
			Expect(repo.CreateRolePermission(ctx, role.ID, perm.ID)).To(Succeed())

			Expect(repo.DeleteRolePermission(ctx, role.ID, perm.ID)).To(Succeed())

			grants, err := repo.RoleGrants(ctx, role.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(grants).To(BeEmpty())
		})

		It("fails for a link that does not exist", func() {
			role := createRole("Editor", false)
			perm := createPermission(permission.ResourceReports, permission.ActionRead)

			Expect(repo.DeleteRolePermission(ctx, role.ID, perm.ID)).To(MatchError(appErrors.ErrPermissionNotAssigned))
		})
	})
})
