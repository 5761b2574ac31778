package user

import (
	"context"
	"log/slog"
	"strings"

	appErrors "github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/auth"
	userDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/user"
	"github.com/frahmantamala/access-management/internal/core/events"
)

// DefaultRoleName is granted to self-registered accounts.
const DefaultRoleName = "User"

type Service struct {
	repo       RepositoryAPI
	access     AccessResolver
	roles      RoleAssigner
	tokens     TokenRevoker
	bus        *events.EventBus
	bcryptCost int
	logger     *slog.Logger
}

func NewService(
	repo RepositoryAPI,
	access AccessResolver,
	roles RoleAssigner,
	tokens TokenRevoker,
	bus *events.EventBus,
	bcryptCost int,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:       repo,
		access:     access,
		roles:      roles,
		tokens:     tokens,
		bus:        bus,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *Service) Create(ctx context.Context, dto CreateUserDTO) (*User, error) {
	status := dto.Status
	if status == "" {
		status = userDatamodel.StatusActive
	}
	return s.createAccount(ctx, dto.Email, dto.Password, dto.FirstName, dto.LastName, dto.PhoneNumber, status)
}

// Register creates an account and grants the default role. The caller then
// logs in through the auth flow; registration itself returns no tokens.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (*User, error) {
	created, err := s.createAccount(ctx, dto.Email, dto.Password, dto.FirstName, dto.LastName, dto.PhoneNumber, userDatamodel.StatusActive)
	if err != nil {
		return nil, err
	}

	if err := s.roles.AssignRoleToUserByName(ctx, created.ID, DefaultRoleName); err != nil {
		s.logger.Error("failed to grant default role", "user_id", created.ID, "error", err)
		return nil, err
	}
	created.Roles = []string{DefaultRoleName}

	s.publish(ctx, events.NewUserRegisteredEvent(created.ID, created.Email))
	return created, nil
}

func (s *Service) createAccount(ctx context.Context, email, password, firstName, lastName, phone, status string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil && !appErrors.IsNotFound(err) {
		s.logger.Error("failed to check email", "error", err)
		return nil, err
	}
	if existing != nil {
		return nil, appErrors.ErrDuplicateEmail
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		s.logger.Error("failed to hash password", "error", err)
		return nil, err
	}

	row := &userDatamodel.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		PhoneNumber:  strings.TrimSpace(phone),
		Status:       status,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.logger.Error("failed to create user", "email", email, "error", err)
		return nil, err
	}

	s.logger.Info("user created", "user_id", row.ID, "email", email)
	return FromDataModel(row), nil
}

// GetByID returns the account with its role names and effective permissions.
func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	domainUser := FromDataModel(row)

	roles, err := s.access.GetUserRoles(ctx, id)
	if err != nil {
		return nil, err
	}
	perms, err := s.access.GetUserPermissions(ctx, id)
	if err != nil {
		return nil, err
	}
	domainUser.Roles = roles
	domainUser.Permissions = perms
	return domainUser, nil
}

func (s *Service) GetAll(ctx context.Context) ([]*User, error) {
	rows, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to list users", "error", err)
		return nil, err
	}

	users := make([]*User, 0, len(rows))
	for _, row := range rows {
		users = append(users, FromDataModel(row))
	}
	return users, nil
}

func (s *Service) UpdateProfile(ctx context.Context, id int64, dto UpdateProfileDTO) (*User, error) {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	row.FirstName = strings.TrimSpace(dto.FirstName)
	row.LastName = strings.TrimSpace(dto.LastName)
	row.PhoneNumber = strings.TrimSpace(dto.PhoneNumber)
	row.ProfileImage = strings.TrimSpace(dto.ProfileImage)

	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.Error("failed to update user", "user_id", id, "error", err)
		return nil, err
	}
	return FromDataModel(row), nil
}

// ChangeStatus moves the account to a new status. Leaving active revokes
// every refresh token so the account cannot mint new access tokens.
func (s *Service) ChangeStatus(ctx context.Context, id int64, status string) error {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if row.Status == status {
		return nil
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		s.logger.Error("failed to change status", "user_id", id, "status", status, "error", err)
		return err
	}

	if row.Status == userDatamodel.StatusActive && status != userDatamodel.StatusActive {
		s.revokeTokens(ctx, id, "status changed to "+status)
	}

	s.logger.Info("user status changed", "user_id", id, "from", row.Status, "to", status)
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, id int64, dto ChangePasswordDTO) error {
	row, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !auth.VerifyPassword(row.PasswordHash, dto.CurrentPassword) {
		return appErrors.ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(dto.NewPassword, s.bcryptCost)
	if err != nil {
		return err
	}

	row.PasswordHash = hash
	if err := s.repo.Update(ctx, row); err != nil {
		s.logger.Error("failed to change password", "user_id", id, "error", err)
		return err
	}

	// Old sessions stay out once their refresh tokens are gone.
	s.revokeTokens(ctx, id, "password changed")
	return nil
}

// Delete soft-deletes the account and revokes its refresh tokens.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}

	s.revokeTokens(ctx, id, "account deleted")
	s.logger.Info("user deleted", "user_id", id)
	return nil
}

func (s *Service) revokeTokens(ctx context.Context, userID int64, reason string) {
	if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		s.logger.Error("failed to revoke refresh tokens", "user_id", userID, "error", err)
		return
	}
	s.publish(ctx, events.NewTokensRevokedEvent(userID, reason))
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
