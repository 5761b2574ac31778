package auth

import (
	"context"
	"errors"
	"log/slog"

	appErrors "github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/core/events"
)

// Service composes the credential verifier, token generator and refresh token
// manager into the login, refresh and logout flows.
type Service struct {
	users    UserRepository
	tokens   *RefreshTokenManager
	tokenGen TokenGenerator
	bus      *events.EventBus
	logger   *slog.Logger
}

func NewService(users UserRepository, tokens *RefreshTokenManager, tokenGen TokenGenerator, bus *events.EventBus, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:    users,
		tokens:   tokens,
		tokenGen: tokenGen,
		bus:      bus,
		logger:   logger,
	}
}

// Login verifies the credential and mints a token pair. A wrong password and
// an unknown email both fail with InvalidCredentials so callers cannot
// enumerate accounts. The last-login stamp is only written once both tokens
// exist.
func (s *Service) Login(ctx context.Context, dto LoginDTO, ipAddress, userAgent string) (*TokenPair, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, dto.Email)
	if err != nil {
		if isNotFound(err) {
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !VerifyPassword(user.PasswordHash, dto.Password) {
		return nil, appErrors.ErrInvalidCredentials
	}

	if user.Status != StatusActive {
		return nil, appErrors.ErrAccountNotActive
	}

	user, err = s.users.GetWithAccess(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.tokenGen.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.tokens.Issue(ctx, user.ID, ipAddress, userAgent)
	if err != nil {
		return nil, err
	}

	now := s.tokens.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		// Tokens are already out; a failed stamp is not worth failing the login.
		s.logger.Warn("failed to update last login", "user_id", user.ID, "error", err)
	}
	user.LastLoginAt = &now

	s.publish(ctx, events.NewUserLoggedInEvent(user.ID, user.Email, ipAddress, userAgent))

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken.Token,
		ExpiresAt:    refreshToken.ExpiresAt,
		User:         user,
	}, nil
}

// Refresh rotates a refresh token. The caller must present both the expired
// but authentic access token and an active refresh token bound to the same
// user; a leaked refresh token alone is not enough.
func (s *Service) Refresh(ctx context.Context, dto RefreshDTO, ipAddress, userAgent string) (*TokenPair, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	claims := s.tokenGen.ParseExpiredToken(dto.AccessToken)
	if claims == nil {
		return nil, appErrors.ErrInvalidToken
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, appErrors.ErrInvalidToken
	}

	stored, err := s.tokens.Get(ctx, dto.RefreshToken)
	if err != nil {
		if isNotFound(err) {
			return nil, appErrors.ErrInvalidToken
		}
		return nil, err
	}
	if stored.UserID != userID {
		return nil, appErrors.ErrInvalidToken
	}

	user, err := s.users.GetWithAccess(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, appErrors.ErrInvalidToken
		}
		return nil, err
	}

	rotated, err := s.tokens.Rotate(ctx, stored, ipAddress, userAgent)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.tokenGen.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: rotated.Token,
		ExpiresAt:    rotated.ExpiresAt,
		User:         user,
	}, nil
}

// Logout revokes the named refresh token. Idempotent: an unknown or already
// revoked token still succeeds.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.Revoke(ctx, refreshToken)
}

// LogoutEverywhere revokes every active token the user holds.
func (s *Service) LogoutEverywhere(ctx context.Context, userID int64) error {
	if err := s.tokens.RevokeAll(ctx, userID); err != nil {
		return err
	}
	s.publish(ctx, events.NewTokensRevokedEvent(userID, "logout_everywhere"))
	return nil
}

func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGen.ValidateToken(tokenString)
}

func (s *Service) GetUserWithAccess(ctx context.Context, userID int64) (*User, error) {
	return s.users.GetWithAccess(ctx, userID)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}

func isNotFound(err error) bool {
	var appErr *appErrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Type == appErrors.ErrorTypeNotFound
	}
	return false
}

// StatusActive mirrors the datamodel constant so callers of the auth package
// do not need the datamodel import.
const StatusActive = "active"
