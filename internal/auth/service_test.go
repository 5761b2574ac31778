package auth_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	appErrors "github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/auth"
	tokenDatamodel "github.com/frahmantamala/access-management/internal/core/datamodel/token"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// MockUserRepository implements auth.UserRepository for testing.
type MockUserRepository struct {
	users      map[int64]*auth.User
	shouldFail bool
	failError  error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[int64]*auth.User)}
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, appErrors.ErrUserNotFound
}

func (m *MockUserRepository) GetWithAccess(ctx context.Context, userID int64) (*auth.User, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	u, ok := m.users[userID]
	if !ok {
		return nil, appErrors.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	if m.shouldFail {
		return m.failError
	}
	if u, ok := m.users[userID]; ok {
		u.LastLoginAt = &at
	}
	return nil
}

func (m *MockUserRepository) AddUser(u *auth.User) {
	m.users[u.ID] = u
}

// MockRefreshTokenRepository implements auth.RefreshTokenRepository in memory.
type MockRefreshTokenRepository struct {
	tokens     map[string]*tokenDatamodel.RefreshToken
	nextID     int64
	shouldFail bool
	failError  error
}

func NewMockRefreshTokenRepository() *MockRefreshTokenRepository {
	return &MockRefreshTokenRepository{tokens: make(map[string]*tokenDatamodel.RefreshToken)}
}

func (m *MockRefreshTokenRepository) ReplaceActive(ctx context.Context, t *tokenDatamodel.RefreshToken) error {
	if m.shouldFail {
		return m.failError
	}
	for _, stored := range m.tokens {
		if stored.UserID == t.UserID && !stored.IsRevoked {
			stored.IsRevoked = true
		}
	}
	m.nextID++
	t.ID = m.nextID
	copied := *t
	m.tokens[t.Token] = &copied
	return nil
}

func (m *MockRefreshTokenRepository) GetByToken(ctx context.Context, token string) (*tokenDatamodel.RefreshToken, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	stored, ok := m.tokens[token]
	if !ok {
		return nil, appErrors.NewNotFoundError("refresh token not found", appErrors.ErrCodeInvalidToken)
	}
	copied := *stored
	return &copied, nil
}

func (m *MockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	if m.shouldFail {
		return m.failError
	}
	if stored, ok := m.tokens[token]; ok {
		stored.IsRevoked = true
	}
	return nil
}

func (m *MockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID int64) error {
	if m.shouldFail {
		return m.failError
	}
	for _, stored := range m.tokens {
		if stored.UserID == userID {
			stored.IsRevoked = true
		}
	}
	return nil
}

func (m *MockRefreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	if m.shouldFail {
		return 0, m.failError
	}
	var deleted int64
	for value, stored := range m.tokens {
		if !stored.ExpiresAt.After(before) {
			delete(m.tokens, value)
			deleted++
		}
	}
	return deleted, nil
}

func (m *MockRefreshTokenRepository) ActiveTokensForUser(userID int64, now time.Time) []*tokenDatamodel.RefreshToken {
	var active []*tokenDatamodel.RefreshToken
	for _, stored := range m.tokens {
		if stored.UserID == userID && stored.IsActive(now) {
			active = append(active, stored)
		}
	}
	return active
}

var _ = Describe("Auth Service", func() {
	var (
		userRepo  *MockUserRepository
		tokenRepo *MockRefreshTokenRepository
		manager   *auth.RefreshTokenManager
		generator *auth.JWTTokenGenerator
		service   *auth.Service
		logger    *slog.Logger
		ctx       context.Context
	)

	const password = "S3curePassword!"

	addActiveUser := func(id int64, email string) *auth.User {
		hash, err := auth.HashPassword(password, 10)
		Expect(err).NotTo(HaveOccurred())
		u := &auth.User{
			ID:           id,
			Email:        email,
			FirstName:    "Test",
			LastName:     fmt.Sprintf("User%d", id),
			Status:       "active",
			PasswordHash: hash,
			Roles:        []string{"User"},
			Permissions:  []string{"Profile.Read", "Profile.Update"},
		}
		userRepo.AddUser(u)
		return u
	}

	BeforeEach(func() {
		userRepo = NewMockUserRepository()
		tokenRepo = NewMockRefreshTokenRepository()
		manager = auth.NewRefreshTokenManager(tokenRepo, 24*time.Hour)
		generator = auth.NewJWTTokenGenerator(testSecret, "access-management", "access-management-api", 15*time.Minute)
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = auth.NewService(userRepo, manager, generator, nil, logger)
		ctx = context.Background()
	})

	Describe("Login", func() {
		It("returns a token pair with the user's access closure", func() {
			addActiveUser(1, "jane@example.com")

			pair, err := service.Login(ctx, auth.LoginDTO{Email: "jane@example.com", Password: password}, "127.0.0.1", "test-agent")
			Expect(err).NotTo(HaveOccurred())
			Expect(pair.AccessToken).NotTo(BeEmpty())
			Expect(pair.RefreshToken).NotTo(BeEmpty())
			Expect(pair.User.Permissions).To(ConsistOf("Profile.Read", "Profile.Update"))

			claims, err := generator.ValidateToken(pair.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.Subject).To(Equal("1"))
			Expect(claims.Permissions).To(ConsistOf("Profile.Read", "Profile.Update"))
		})

		It("stamps last login", func() {
			u := addActiveUser(1, "jane@example.com")
			Expect(u.LastLoginAt).To(BeNil())

			_, err := service.Login(ctx, auth.LoginDTO{Email: "jane@example.com", Password: password}, "", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(userRepo.users[1].LastLoginAt).NotTo(BeNil())
		})

		It("fails an unknown email with InvalidCredentials", func() {
			_, err := service.Login(ctx, auth.LoginDTO{Email: "nobody@example.com", Password: password}, "", "")
			Expect(err).To(MatchError(appErrors.ErrInvalidCredentials))
		})

		It("fails a wrong password with the same InvalidCredentials", func() {
			addActiveUser(1, "jane@example.com")

			_, errWrongPassword := service.Login(ctx, auth.LoginDTO{Email: "jane@example.com", Password: "wrong"}, "", "")
			_, errUnknownEmail := service.Login(ctx, auth.LoginDTO{Email: "nobody@example.com", Password: password}, "", "")
			Expect(errWrongPassword).To(MatchError(appErrors.ErrInvalidCredentials))
			Expect(errUnknownEmail).To(MatchError(errWrongPassword))
		})

		It("rejects accounts that are not active", func() {
			u := addActiveUser(1, "jane@example.com")
			u.Status = "inactive"

			_, err := service.Login(ctx, auth.LoginDTO{Email: "jane@example.com", Password: password}, "", "")
			Expect(err).To(MatchError(appErrors.ErrAccountNotActive))
		})

		It("rejects empty credentials before touching the store", func() {
			_, err := service.Login(ctx, auth.LoginDTO{}, "", "")
			Expect(err).To(HaveOccurred())
			Expect(err).NotTo(MatchError(appErrors.ErrInvalidCredentials))
		})

		It("displaces the previous refresh token", func() {
			addActiveUser(1, "jane@example.com")

			first, err := service.Login(ctx, auth.LoginDTO{Email: "jane@example.com", Password: password}, "", "")
			Expect(err).NotTo(HaveOccurred())
			second, err := service.Login(ctx, auth.LoginDTO{Email: "jane@example.com", Password: password}, "", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(second.RefreshToken).NotTo(Equal(first.RefreshToken))

			active := tokenRepo.ActiveTokensForUser(1, time.Now())
			Expect(active).To(HaveLen(1))
			Expect(active[0].Token).To(Equal(second.RefreshToken))
		})
	})

	Describe("Refresh", func() {
		var pair *auth.TokenPair

		BeforeEach(func() {
			addActiveUser(1, "jane@example.com")
			var err error
			pair, err = service.Login(ctx, auth.LoginDTO{Email: "jane@example.com", Password: password}, "", "")
			Expect(err).NotTo(HaveOccurred())
		})

		It("rotates the refresh token and mints a new access token", func() {
			rotated, err := service.Refresh(ctx, auth.RefreshDTO{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, "", "")
			Expect(err).NotTo(HaveOccurred())
			Expect(rotated.RefreshToken).NotTo(Equal(pair.RefreshToken))

			claims, err := generator.ValidateToken(rotated.AccessToken)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.Subject).To(Equal("1"))
		})

		It("accepts an expired access token as long as it is authentic", func() {
			expiredGen := auth.NewJWTTokenGenerator(testSecret, "access-management", "access-management-api", -time.Minute)
			expired, err := expiredGen.GenerateAccessToken(userRepo.users[1])
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Refresh(ctx, auth.RefreshDTO{AccessToken: expired, RefreshToken: pair.RefreshToken}, "", "")
			Expect(err).NotTo(HaveOccurred())
		})

		It("revokes the old token on rotation", func() {
			_, err := service.Refresh(ctx, auth.RefreshDTO{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, "", "")
			Expect(err).NotTo(HaveOccurred())

			stored := tokenRepo.tokens[pair.RefreshToken]
			Expect(stored.IsRevoked).To(BeTrue())
		})

		It("rejects a replayed refresh token with TokenNotActive", func() {
			_, err := service.Refresh(ctx, auth.RefreshDTO{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, "", "")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Refresh(ctx, auth.RefreshDTO{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, "", "")
			Expect(err).To(MatchError(appErrors.ErrTokenNotActive))
		})

		It("rejects a forged access token", func() {
			other := auth.NewJWTTokenGenerator("another-secret-key-that-is-long-enough", "access-management", "access-management-api", 15*time.Minute)
			forged, err := other.GenerateAccessToken(userRepo.users[1])
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Refresh(ctx, auth.RefreshDTO{AccessToken: forged, RefreshToken: pair.RefreshToken}, "", "")
			Expect(err).To(MatchError(appErrors.ErrInvalidToken))
		})

		It("rejects an unknown refresh token", func() {
			_, err := service.Refresh(ctx, auth.RefreshDTO{AccessToken: pair.AccessToken, RefreshToken: "never-issued"}, "", "")
			Expect(err).To(MatchError(appErrors.ErrInvalidToken))
		})

		It("rejects a refresh token that belongs to another user", func() {
			addActiveUser(2, "john@example.com")
			otherPair, err := service.Login(ctx, auth.LoginDTO{Email: "john@example.com", Password: password}, "", "")
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Refresh(ctx, auth.RefreshDTO{AccessToken: pair.AccessToken, RefreshToken: otherPair.RefreshToken}, "", "")
			Expect(err).To(MatchError(appErrors.ErrInvalidToken))
		})
	})

	Describe("Logout", func() {
		It("revokes the presented refresh token", func() {
			addActiveUser(1, "jane@example.com")
			pair, err := service.Login(ctx, auth.LoginDTO{Email: "jane@example.com", Password: password}, "", "")
			Expect(err).NotTo(HaveOccurred())

			Expect(service.Logout(ctx, pair.RefreshToken)).To(Succeed())
			Expect(tokenRepo.tokens[pair.RefreshToken].IsRevoked).To(BeTrue())
		})

		It("is idempotent for unknown tokens", func() {
			Expect(service.Logout(ctx, "never-issued")).To(Succeed())
		})
	})

	Describe("LogoutEverywhere", func() {
		It("revokes every token the user holds", func() {
			addActiveUser(1, "jane@example.com")
			_, err := service.Login(ctx, auth.LoginDTO{Email: "jane@example.com", Password: password}, "", "")
			Expect(err).NotTo(HaveOccurred())

			Expect(service.LogoutEverywhere(ctx, 1)).To(Succeed())
			Expect(tokenRepo.ActiveTokensForUser(1, time.Now())).To(BeEmpty())
		})
	})
})

var _ = Describe("RefreshTokenManager", func() {
	var (
		repo    *MockRefreshTokenRepository
		manager *auth.RefreshTokenManager
		ctx     context.Context
	)

	BeforeEach(func() {
		repo = NewMockRefreshTokenRepository()
		manager = auth.NewRefreshTokenManager(repo, 24*time.Hour)
		ctx = context.Background()
	})

	It("issues url-safe opaque values", func() {
		t, err := manager.Issue(ctx, 1, "127.0.0.1", "agent")
		Expect(err).NotTo(HaveOccurred())
		Expect(t.Token).To(HaveLen(43))
		Expect(t.Token).NotTo(ContainSubstring("="))
		Expect(t.UserID).To(Equal(int64(1)))
		Expect(t.ExpiresAt).To(BeTemporally(">", time.Now()))
	})

	It("keeps at most one active token per user", func() {
		_, err := manager.Issue(ctx, 1, "", "")
		Expect(err).NotTo(HaveOccurred())
		second, err := manager.Issue(ctx, 1, "", "")
		Expect(err).NotTo(HaveOccurred())

		active := repo.ActiveTokensForUser(1, time.Now())
		Expect(active).To(HaveLen(1))
		Expect(active[0].Token).To(Equal(second.Token))
	})

	It("refuses to rotate a revoked token", func() {
		issued, err := manager.Issue(ctx, 1, "", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(manager.Revoke(ctx, issued.Token)).To(Succeed())

		issued.IsRevoked = true
		_, err = manager.Rotate(ctx, issued, "", "")
		Expect(err).To(MatchError(appErrors.ErrTokenNotActive))
	})

	It("refuses to rotate an expired token", func() {
		expired := &tokenDatamodel.RefreshToken{
			UserID:    1,
			Token:     "expired-token",
			ExpiresAt: time.Now().Add(-time.Hour),
		}
		_, err := manager.Rotate(ctx, expired, "", "")
		Expect(err).To(MatchError(appErrors.ErrTokenNotActive))
	})

	It("purges only expired tokens", func() {
		live, err := manager.Issue(ctx, 1, "", "")
		Expect(err).NotTo(HaveOccurred())
		repo.tokens["stale"] = &tokenDatamodel.RefreshToken{
			UserID:    2,
			Token:     "stale",
			ExpiresAt: time.Now().Add(-time.Hour),
		}

		deleted, err := manager.CleanupExpired(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(deleted).To(Equal(int64(1)))
		Expect(repo.tokens).To(HaveKey(live.Token))
		Expect(repo.tokens).NotTo(HaveKey("stale"))
	})
})
