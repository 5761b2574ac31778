package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	appErrors "github.com/frahmantamala/access-management/internal"
	tokenDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/token"
)

// refreshTokenBytes is the entropy of a refresh token value before encoding.
const refreshTokenBytes = 32

// RefreshTokenManager issues, rotates and revokes opaque refresh tokens.
// Issuing always revokes every active token the user holds first, so at most
// one refresh token per user is active at any time. Multi-device sessions are
// deliberately not supported under this policy.
type RefreshTokenManager struct {
	repo RefreshTokenRepository
	ttl  time.Duration
	now  func() time.Time
}

func NewRefreshTokenManager(repo RefreshTokenRepository, ttl time.Duration) *RefreshTokenManager {
	return &RefreshTokenManager{
		repo: repo,
		ttl:  ttl,
		now:  time.Now,
	}
}

// Issue creates a fresh token for the user, displacing any active one. The
// revoke-then-insert sequence runs as a single store transaction.
func (m *RefreshTokenManager) Issue(ctx context.Context, userID int64, ipAddress, userAgent string) (*tokenDatamodel.RefreshToken, error) {
	value, err := generateTokenValue()
	if err != nil {
		return nil, appErrors.NewInternalError("failed to generate refresh token", err)
	}

	t := &tokenDatamodel.RefreshToken{
		UserID:    userID,
		Token:     value,
		ExpiresAt: m.now().Add(m.ttl),
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}

	if err := m.repo.ReplaceActive(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Rotate consumes old and issues a replacement. The caller must already have
// verified that old belongs to the presenting user. A token that is revoked
// or expired fails with TokenNotActive; a replayed token lands here because
// its first use revoked it.
func (m *RefreshTokenManager) Rotate(ctx context.Context, old *tokenDatamodel.RefreshToken, ipAddress, userAgent string) (*tokenDatamodel.RefreshToken, error) {
	if !old.IsActive(m.now()) {
		return nil, appErrors.ErrTokenNotActive
	}

	if err := m.repo.Revoke(ctx, old.Token); err != nil {
		return nil, err
	}
	return m.Issue(ctx, old.UserID, ipAddress, userAgent)
}

// Get loads a stored token by its opaque value.
func (m *RefreshTokenManager) Get(ctx context.Context, token string) (*tokenDatamodel.RefreshToken, error) {
	return m.repo.GetByToken(ctx, token)
}

// Revoke marks one token revoked. Unknown tokens are a no-op so that the
// response does not leak whether a token ever existed.
func (m *RefreshTokenManager) Revoke(ctx context.Context, token string) error {
	return m.repo.Revoke(ctx, token)
}

// RevokeAll revokes every active token for a user; used on logout-everywhere
// and on status changes away from active.
func (m *RefreshTokenManager) RevokeAll(ctx context.Context, userID int64) error {
	return m.repo.RevokeAllForUser(ctx, userID)
}

// CleanupExpired purges tokens past expiry. Maintenance only, driven by the
// worker command.
func (m *RefreshTokenManager) CleanupExpired(ctx context.Context) (int64, error) {
	return m.repo.DeleteExpired(ctx, m.now())
}

func generateTokenValue() (string, error) {
	raw := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
