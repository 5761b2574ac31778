package user_test

import (
	"context"
	"log/slog"
	"os"
	"testing"

	appErrors "github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/auth"
	userDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/user"
	"github.com/frahmantamala/access-management/internal/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestUserService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Service Suite")
}

// MockRepository implements user.RepositoryAPI for testing.
type MockRepository struct {
	users      map[int64]*userDatamodel.User
	nextID     int64
	shouldFail bool
	failError  error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{users: make(map[int64]*userDatamodel.User)}
}

func (m *MockRepository) GetAll(ctx context.Context) ([]*userDatamodel.User, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	var out []*userDatamodel.User
	for _, u := range m.users {
		if !u.IsDeleted {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *MockRepository) GetByID(ctx context.Context, id int64) (*userDatamodel.User, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	u, ok := m.users[id]
	if !ok || u.IsDeleted {
		return nil, appErrors.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *MockRepository) GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	for _, u := range m.users {
		if u.Email == email && !u.IsDeleted {
			copied := *u
			return &copied, nil
		}
	}
	return nil, appErrors.ErrUserNotFound
}

func (m *MockRepository) Create(ctx context.Context, row *userDatamodel.User) error {
	if m.shouldFail {
		return m.failError
	}
	m.nextID++
	row.ID = m.nextID
	copied := *row
	m.users[row.ID] = &copied
	return nil
}

func (m *MockRepository) Update(ctx context.Context, row *userDatamodel.User) error {
	if m.shouldFail {
		return m.failError
	}
	stored, ok := m.users[row.ID]
	if !ok || stored.IsDeleted {
		return appErrors.ErrUserNotFound
	}
	copied := *row
	m.users[row.ID] = &copied
	return nil
}

func (m *MockRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	if m.shouldFail {
		return m.failError
	}
	stored, ok := m.users[id]
	if !ok || stored.IsDeleted {
		return appErrors.ErrUserNotFound
	}
	stored.Status = status
	return nil
}

func (m *MockRepository) SoftDelete(ctx context.Context, id int64) error {
	if m.shouldFail {
		return m.failError
	}
	stored, ok := m.users[id]
	if !ok || stored.IsDeleted {
		return appErrors.ErrUserNotFound
	}
	stored.IsDeleted = true
	return nil
}

// MockAccessControl stands in for the RBAC service and the token store.
type MockAccessControl struct {
	rolesByUser map[int64][]string
	permsByUser map[int64][]string
	knownRoles  map[string]bool
	revoked     map[int64]int
}

func NewMockAccessControl() *MockAccessControl {
	return &MockAccessControl{
		rolesByUser: make(map[int64][]string),
		permsByUser: make(map[int64][]string),
		knownRoles:  map[string]bool{user.DefaultRoleName: true},
		revoked:     make(map[int64]int),
	}
}

func (m *MockAccessControl) GetUserRoles(ctx context.Context, userID int64) ([]string, error) {
	return m.rolesByUser[userID], nil
}

func (m *MockAccessControl) GetUserPermissions(ctx context.Context, userID int64) ([]string, error) {
	return m.permsByUser[userID], nil
}

func (m *MockAccessControl) AssignRoleToUserByName(ctx context.Context, userID int64, roleName string) error {
	if !m.knownRoles[roleName] {
		return appErrors.ErrRoleNotFound
	}
	m.rolesByUser[userID] = append(m.rolesByUser[userID], roleName)
	return nil
}

func (m *MockAccessControl) RevokeAllForUser(ctx context.Context, userID int64) error {
	m.revoked[userID]++
	return nil
}

var _ = Describe("User Service", func() {
	var (
		mockRepo   *MockRepository
		mockAccess *MockAccessControl
		service    *user.Service
		logger     *slog.Logger
		ctx        context.Context
	)

	BeforeEach(func() {
		mockRepo = NewMockRepository()
		mockAccess = NewMockAccessControl()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = user.NewService(mockRepo, mockAccess, mockAccess, mockAccess, nil, 10, logger)
		ctx = context.Background()
	})

	Describe("Create", func() {
		It("stores the account with a hashed password and lowercased email", func() {
			created, err := service.Create(ctx, user.CreateUserDTO{
				Email:     "Jane.Doe@Example.COM",
				Password:  "S3curePassword!",
				FirstName: "Jane",
				LastName:  "Doe",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Email).To(Equal("jane.doe@example.com"))
			Expect(created.Status).To(Equal(userDatamodel.StatusActive))

			stored := mockRepo.users[created.ID]
			Expect(stored.PasswordHash).NotTo(Equal("S3curePassword!"))
			Expect(auth.VerifyPassword(stored.PasswordHash, "S3curePassword!")).To(BeTrue())
		})

		It("honours an explicit status", func() {
			created, err := service.Create(ctx, user.CreateUserDTO{
				Email:     "jane@example.com",
				Password:  "S3curePassword!",
				FirstName: "Jane",
				LastName:  "Doe",
				Status:    userDatamodel.StatusPendingVerification,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(created.Status).To(Equal(userDatamodel.StatusPendingVerification))
		})

		It("rejects a duplicate email regardless of case", func() {
			_, err := service.Create(ctx, user.CreateUserDTO{
				Email: "jane@example.com", Password: "S3curePassword!", FirstName: "Jane", LastName: "Doe",
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Create(ctx, user.CreateUserDTO{
				Email: "JANE@example.com", Password: "S3curePassword!", FirstName: "Jane", LastName: "Doe",
			})
			Expect(err).To(MatchError(appErrors.ErrDuplicateEmail))
		})
	})

	Describe("Register", func() {
		It("creates an active account and grants the default role", func() {
			registered, err := service.Register(ctx, user.RegisterDTO{
				Email: "jane@example.com", Password: "S3curePassword!", FirstName: "Jane", LastName: "Doe",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(registered.Status).To(Equal(userDatamodel.StatusActive))
			Expect(registered.Roles).To(Equal([]string{user.DefaultRoleName}))
			Expect(mockAccess.rolesByUser[registered.ID]).To(Equal([]string{user.DefaultRoleName}))
		})

		It("fails when the default role is missing", func() {
			mockAccess.knownRoles = map[string]bool{}

			_, err := service.Register(ctx, user.RegisterDTO{
				Email: "jane@example.com", Password: "S3curePassword!", FirstName: "Jane", LastName: "Doe",
			})
			Expect(err).To(MatchError(appErrors.ErrRoleNotFound))
		})
	})

	Describe("GetByID", func() {
		It("enriches the account with roles and permissions", func() {
			created, err := service.Create(ctx, user.CreateUserDTO{
				Email: "jane@example.com", Password: "S3curePassword!", FirstName: "Jane", LastName: "Doe",
			})
			Expect(err).NotTo(HaveOccurred())
			mockAccess.rolesByUser[created.ID] = []string{"Admin"}
			mockAccess.permsByUser[created.ID] = []string{"Users.Read", "Users.Update"}

			found, err := service.GetByID(ctx, created.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(found.Roles).To(Equal([]string{"Admin"}))
			Expect(found.Permissions).To(Equal([]string{"Users.Read", "Users.Update"}))
		})

		It("fails for unknown ids", func() {
			_, err := service.GetByID(ctx, 99)
			Expect(err).To(MatchError(appErrors.ErrUserNotFound))
		})
	})

	Describe("UpdateProfile", func() {
		It("updates the mutable profile fields only", func() {
			created, err := service.Create(ctx, user.CreateUserDTO{
				Email: "jane@example.com", Password: "S3curePassword!", FirstName: "Jane", LastName: "Doe",
			})
			Expect(err).NotTo(HaveOccurred())

			updated, err := service.UpdateProfile(ctx, created.ID, user.UpdateProfileDTO{
				FirstName: "Janet", LastName: "Doe", PhoneNumber: "+6281234567890",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.FirstName).To(Equal("Janet"))
			Expect(updated.PhoneNumber).To(Equal("+6281234567890"))
			Expect(mockRepo.users[created.ID].Email).To(Equal("jane@example.com"))
		})
	})

	Describe("ChangeStatus", func() {
		var userID int64

		BeforeEach(func() {
			created, err := service.Create(ctx, user.CreateUserDTO{
				Email: "jane@example.com", Password: "S3curePassword!", FirstName: "Jane", LastName: "Doe",
			})
			Expect(err).NotTo(HaveOccurred())
			userID = created.ID
		})

		It("revokes refresh tokens when the account leaves active", func() {
			Expect(service.ChangeStatus(ctx, userID, userDatamodel.StatusBanned)).To(Succeed())
			Expect(mockRepo.users[userID].Status).To(Equal(userDatamodel.StatusBanned))
			Expect(mockAccess.revoked[userID]).To(Equal(1))
		})

		It("keeps tokens when moving back to active", func() {
			Expect(service.ChangeStatus(ctx, userID, userDatamodel.StatusBanned)).To(Succeed())
			Expect(service.ChangeStatus(ctx, userID, userDatamodel.StatusActive)).To(Succeed())
			Expect(mockAccess.revoked[userID]).To(Equal(1))
		})

		It("is a no-op when the status does not change", func() {
			Expect(service.ChangeStatus(ctx, userID, userDatamodel.StatusActive)).To(Succeed())
			Expect(mockAccess.revoked[userID]).To(BeZero())
		})
	})

	Describe("ChangePassword", func() {
		var userID int64

		BeforeEach(func() {
			created, err := service.Create(ctx, user.CreateUserDTO{
				Email: "jane@example.com", Password: "S3curePassword!", FirstName: "Jane", LastName: "Doe",
			})
			Expect(err).NotTo(HaveOccurred())
			userID = created.ID
		})

		It("rehashes the password and revokes existing sessions", func() {
			Expect(service.ChangePassword(ctx, userID, user.ChangePasswordDTO{
				CurrentPassword: "S3curePassword!",
				NewPassword:     "An0therPassword!",
			})).To(Succeed())

			stored := mockRepo.users[userID]
			Expect(auth.VerifyPassword(stored.PasswordHash, "An0therPassword!")).To(BeTrue())
			Expect(mockAccess.revoked[userID]).To(Equal(1))
		})

		It("rejects a wrong current password", func() {
			err := service.ChangePassword(ctx, userID, user.ChangePasswordDTO{
				CurrentPassword: "wrong",
				NewPassword:     "An0therPassword!",
			})
			Expect(err).To(MatchError(appErrors.ErrInvalidCredentials))
			Expect(mockAccess.revoked[userID]).To(BeZero())
		})
	})

	Describe("Delete", func() {
		It("soft-deletes and revokes sessions", func() {
			created, err := service.Create(ctx, user.CreateUserDTO{
				Email: "jane@example.com", Password: "S3curePassword!", FirstName: "Jane", LastName: "Doe",
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(service.Delete(ctx, created.ID)).To(Succeed())
			Expect(mockRepo.users[created.ID].IsDeleted).To(BeTrue())
			Expect(mockAccess.revoked[created.ID]).To(Equal(1))

			_, err = service.GetByID(ctx, created.ID)
			Expect(err).To(MatchError(appErrors.ErrUserNotFound))
		})

		It("fails for unknown ids", func() {
			Expect(service.Delete(ctx, 99)).To(MatchError(appErrors.ErrUserNotFound))
		})
	})
})

var _ = Describe("User DTO validation", func() {
	It("accepts a complete registration", func() {
		dto := user.RegisterDTO{
			Email: "jane@example.com", Password: "S3curePassword!", FirstName: "Jane", LastName: "Doe",
		}
		Expect(dto.Validate()).To(Succeed())
	})

	It("rejects a malformed email", func() {
		dto := user.RegisterDTO{
			Email: "not-an-email", Password: "S3curePassword!", FirstName: "Jane", LastName: "Doe",
		}
		Expect(dto.Validate()).To(HaveOccurred())
	})

	It("rejects a short password", func() {
		dto := user.RegisterDTO{
			Email: "jane@example.com", Password: "short", FirstName: "Jane", LastName: "Doe",
		}
		Expect(dto.Validate()).To(HaveOccurred())
	})

	It("rejects an unknown status on create", func() {
		dto := user.CreateUserDTO{
			Email: "jane@example.com", Password: "S3curePassword!", FirstName: "Jane", LastName: "Doe",
			Status: "frozen",
		}
		Expect(dto.Validate()).To(HaveOccurred())
	})

	It("requires a new password of minimum length on change", func() {
		Expect(user.ChangePasswordDTO{CurrentPassword: "old", NewPassword: "short"}.Validate()).To(HaveOccurred())
		Expect(user.ChangePasswordDTO{CurrentPassword: "old", NewPassword: "longenough1"}.Validate()).To(Succeed())
	})
})
