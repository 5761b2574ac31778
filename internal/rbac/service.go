package rbac

import (
	"context"
	"log/slog"
	"sort"

	appErrors "github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/core/events"
)

// Service resolves effective permission sets through the role membership
// closure. Role to permission is the only path; roles do not inherit from
// each other.
type Service struct {
	repo   Repository
	bus    *events.EventBus
	logger *slog.Logger
}

func NewService(repo Repository, bus *events.EventBus, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		bus:    bus,
		logger: logger,
	}
}

// GetUserPermissions returns the distinct union of decomposed permission
// strings across every role the user holds.
func (s *Service) GetUserPermissions(ctx context.Context, userID int64) ([]string, error) {
	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, appErrors.ErrUserNotFound
	}

	grants, err := s.repo.UserGrants(ctx, userID)
	if err != nil {
		return nil, err
	}
	return expandDistinct(grants), nil
}

func (s *Service) UserHasPermission(ctx context.Context, userID int64, permissionString string) (bool, error) {
	perms, err := s.GetUserPermissions(ctx, userID)
	if err != nil {
		return false, err
	}
	return contains(perms, permissionString), nil
}

func (s *Service) UserHasResourceAction(ctx context.Context, userID int64, resource, action string) (bool, error) {
	return s.UserHasPermission(ctx, userID, resource+"."+action)
}

func (s *Service) GetUserRoles(ctx context.Context, userID int64) ([]string, error) {
	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, appErrors.ErrUserNotFound
	}
	return s.repo.UserRoleNames(ctx, userID)
}

func (s *Service) GetRolePermissions(ctx context.Context, roleID int64) ([]string, error) {
	exists, err := s.repo.RoleExists(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, appErrors.ErrRoleNotFound
	}

	grants, err := s.repo.RoleGrants(ctx, roleID)
	if err != nil {
		return nil, err
	}
	return expandDistinct(grants), nil
}

func (s *Service) RoleHasPermission(ctx context.Context, roleID int64, permissionString string) (bool, error) {
	perms, err := s.GetRolePermissions(ctx, roleID)
	if err != nil {
		return false, err
	}
	return contains(perms, permissionString), nil
}

func (s *Service) ListPermissions(ctx context.Context) ([]PermissionInfo, error) {
	return s.repo.ListPermissions(ctx)
}

// AssignPermissionToRole links a permission to a role. System roles keep
// their permission set fixed.
func (s *Service) AssignPermissionToRole(ctx context.Context, roleID, permissionID int64) error {
	if err := s.checkMutableRole(ctx, roleID); err != nil {
		return err
	}

	exists, err := s.repo.PermissionExists(ctx, permissionID)
	if err != nil {
		return err
	}
	if !exists {
		return appErrors.ErrPermissionNotFound
	}

	return s.repo.CreateRolePermission(ctx, roleID, permissionID)
}

func (s *Service) RemovePermissionFromRole(ctx context.Context, roleID, permissionID int64) error {
	if err := s.checkMutableRole(ctx, roleID); err != nil {
		return err
	}
	return s.repo.DeleteRolePermission(ctx, roleID, permissionID)
}

func (s *Service) AssignRoleToUser(ctx context.Context, userID, roleID int64) error {
	exists, err := s.repo.UserExists(ctx, userID)
	if err != nil {
		return err
	}
	if !exists {
		return appErrors.ErrUserNotFound
	}

	exists, err = s.repo.RoleExists(ctx, roleID)
	if err != nil {
		return err
	}
	if !exists {
		return appErrors.ErrRoleNotFound
	}

	if err := s.repo.CreateUserRole(ctx, userID, roleID); err != nil {
		return err
	}

	s.publish(ctx, events.NewRoleAssignedEvent(userID, roleID))
	return nil
}

// AssignRoleToUserByName resolves the role by name first. Registration
// grants the default role this way.
func (s *Service) AssignRoleToUserByName(ctx context.Context, userID int64, roleName string) error {
	roleID, err := s.repo.RoleIDByName(ctx, roleName)
	if err != nil {
		return err
	}
	return s.AssignRoleToUser(ctx, userID, roleID)
}

func (s *Service) RemoveRoleFromUser(ctx context.Context, userID, roleID int64) error {
	return s.repo.DeleteUserRole(ctx, userID, roleID)
}

func (s *Service) checkMutableRole(ctx context.Context, roleID int64) error {
	exists, err := s.repo.RoleExists(ctx, roleID)
	if err != nil {
		return err
	}
	if !exists {
		return appErrors.ErrRoleNotFound
	}

	system, err := s.repo.RoleIsSystem(ctx, roleID)
	if err != nil {
		return err
	}
	if system {
		return appErrors.ErrSystemRoleImmutable
	}
	return nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}

func expandDistinct(grants []PermissionGrant) []string {
	seen := map[string]struct{}{}
	for _, g := range grants {
		for _, p := range g.Expand() {
			seen[p] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func contains(list []string, target string) bool {
	for _, s := range list {
		if s == target {
			return true
		}
	}
	return false
}
