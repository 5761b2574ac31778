package role

import (
	"context"
	"log/slog"
	"strings"

	appErrors "github.com/frahmantamala/access-management/internal"
)

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) GetAll(ctx context.Context) ([]*Role, error) {
	dataRoles, err := s.repo.GetAll(ctx)
	if err != nil {
		s.logger.Error("failed to list roles", "error", err)
		return nil, err
	}

	roles := make([]*Role, 0, len(dataRoles))
	for _, dataRole := range dataRoles {
		roles = append(roles, FromDataModel(dataRole))
	}
	return roles, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*Role, error) {
	dataRole, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(dataRole), nil
}

func (s *Service) Create(ctx context.Context, name, description string) (*Role, error) {
	name = strings.TrimSpace(name)

	existing, err := s.repo.GetByName(ctx, name)
	if err != nil && !appErrors.IsNotFound(err) {
		s.logger.Error("failed to check role name", "name", name, "error", err)
		return nil, err
	}
	if existing != nil {
		return nil, appErrors.ErrDuplicateRoleName
	}

	domainRole := NewRole(name, strings.TrimSpace(description))
	dataRole := ToDataModel(domainRole)
	if err := s.repo.Create(ctx, dataRole); err != nil {
		s.logger.Error("failed to create role", "name", name, "error", err)
		return nil, err
	}

	s.logger.Info("role created", "role_id", dataRole.ID, "name", name)
	return FromDataModel(dataRole), nil
}

func (s *Service) Update(ctx context.Context, id int64, name, description string) (*Role, error) {
	dataRole, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if dataRole.IsSystemRole {
		return nil, appErrors.ErrSystemRoleImmutable
	}

	name = strings.TrimSpace(name)
	if name != dataRole.Name {
		existing, err := s.repo.GetByName(ctx, name)
		if err != nil && !appErrors.IsNotFound(err) {
			return nil, err
		}
		if existing != nil {
			return nil, appErrors.ErrDuplicateRoleName
		}
	}

	dataRole.Name = name
	dataRole.Description = strings.TrimSpace(description)
	if err := s.repo.Update(ctx, dataRole); err != nil {
		s.logger.Error("failed to update role", "role_id", id, "error", err)
		return nil, err
	}

	return FromDataModel(dataRole), nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	dataRole, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if dataRole.IsSystemRole {
		return appErrors.ErrSystemRoleImmutable
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		s.logger.Error("failed to delete role", "role_id", id, "error", err)
		return err
	}

	s.logger.Info("role deleted", "role_id", id, "name", dataRole.Name)
	return nil
}
