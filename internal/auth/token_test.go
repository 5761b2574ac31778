package auth_test

import (
	"testing"
	"time"

	appErrors "github.com/frahmantamala/access-management/internal"
	"github.com/frahmantamala/access-management/internal/auth"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestAuth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Suite")
}

const testSecret = "test-secret-key-that-is-long-enough-0001"

func testUser() *auth.User {
	return &auth.User{
		ID:          42,
		Email:       "jane.doe@example.com",
		FirstName:   "Jane",
		LastName:    "Doe",
		Status:      "active",
		Roles:       []string{"Admin", "User"},
		Permissions: []string{"Users.Read", "Users.Update"},
	}
}

var _ = Describe("JWTTokenGenerator", func() {
	var generator *auth.JWTTokenGenerator

	BeforeEach(func() {
		generator = auth.NewJWTTokenGenerator(testSecret, "access-management", "access-management-api", 15*time.Minute)
	})

	Describe("GenerateAccessToken and ValidateToken", func() {
		It("round-trips the claim set", func() {
			signed, err := generator.GenerateAccessToken(testUser())
			Expect(err).NotTo(HaveOccurred())
			Expect(signed).NotTo(BeEmpty())

			claims, err := generator.ValidateToken(signed)
			Expect(err).NotTo(HaveOccurred())
			Expect(claims.Subject).To(Equal("42"))
			Expect(claims.Email).To(Equal("jane.doe@example.com"))
			Expect(claims.Name).To(Equal("Jane Doe"))
			Expect(claims.FirstName).To(Equal("Jane"))
			Expect(claims.LastName).To(Equal("Doe"))
			Expect(claims.Status).To(Equal("active"))
			Expect(claims.Roles).To(Equal([]string{"Admin", "User"}))
			Expect(claims.Permissions).To(Equal([]string{"Users.Read", "Users.Update"}))
			Expect(claims.Issuer).To(Equal("access-management"))
			Expect(claims.Audience).To(ContainElement("access-management-api"))
		})

		It("parses the numeric user id back out of the subject", func() {
			signed, err := generator.GenerateAccessToken(testUser())
			Expect(err).NotTo(HaveOccurred())

			claims, err := generator.ValidateToken(signed)
			Expect(err).NotTo(HaveOccurred())

			userID, err := claims.UserID()
			Expect(err).NotTo(HaveOccurred())
			Expect(userID).To(Equal(int64(42)))
		})

		It("rejects a token signed with a different secret", func() {
			other := auth.NewJWTTokenGenerator("another-secret-key-that-is-long-enough", "access-management", "access-management-api", 15*time.Minute)
			signed, err := other.GenerateAccessToken(testUser())
			Expect(err).NotTo(HaveOccurred())

			_, err = generator.ValidateToken(signed)
			Expect(err).To(MatchError(appErrors.ErrInvalidToken))
		})

		It("rejects a token from a different issuer", func() {
			other := auth.NewJWTTokenGenerator(testSecret, "someone-else", "access-management-api", 15*time.Minute)
			signed, err := other.GenerateAccessToken(testUser())
			Expect(err).NotTo(HaveOccurred())

			_, err = generator.ValidateToken(signed)
			Expect(err).To(MatchError(appErrors.ErrInvalidToken))
		})

		It("rejects a token for a different audience", func() {
			other := auth.NewJWTTokenGenerator(testSecret, "access-management", "some-other-api", 15*time.Minute)
			signed, err := other.GenerateAccessToken(testUser())
			Expect(err).NotTo(HaveOccurred())

			_, err = generator.ValidateToken(signed)
			Expect(err).To(MatchError(appErrors.ErrInvalidToken))
		})

		It("fails an expired token with TokenNotActive", func() {
			expiredGen := auth.NewJWTTokenGenerator(testSecret, "access-management", "access-management-api", -time.Minute)
			signed, err := expiredGen.GenerateAccessToken(testUser())
			Expect(err).NotTo(HaveOccurred())

			_, err = generator.ValidateToken(signed)
			Expect(err).To(MatchError(appErrors.ErrTokenNotActive))
		})

		It("rejects garbage input", func() {
			_, err := generator.ValidateToken("not-a-token")
			Expect(err).To(MatchError(appErrors.ErrInvalidToken))
		})
	})

	Describe("ParseExpiredToken", func() {
		It("recovers claims from an expired but authentic token", func() {
			expiredGen := auth.NewJWTTokenGenerator(testSecret, "access-management", "access-management-api", -time.Minute)
			signed, err := expiredGen.GenerateAccessToken(testUser())
			Expect(err).NotTo(HaveOccurred())

			claims := generator.ParseExpiredToken(signed)
			Expect(claims).NotTo(BeNil())
			Expect(claims.Subject).To(Equal("42"))
			Expect(claims.Roles).To(Equal([]string{"Admin", "User"}))
		})

		It("returns nil for a forged signature", func() {
			other := auth.NewJWTTokenGenerator("another-secret-key-that-is-long-enough", "access-management", "access-management-api", -time.Minute)
			signed, err := other.GenerateAccessToken(testUser())
			Expect(err).NotTo(HaveOccurred())

			Expect(generator.ParseExpiredToken(signed)).To(BeNil())
		})

		It("returns nil for a wrong issuer even when the signature checks out", func() {
			other := auth.NewJWTTokenGenerator(testSecret, "someone-else", "access-management-api", 15*time.Minute)
			signed, err := other.GenerateAccessToken(testUser())
			Expect(err).NotTo(HaveOccurred())

			Expect(generator.ParseExpiredToken(signed)).To(BeNil())
		})

		It("returns nil for a wrong audience", func() {
			other := auth.NewJWTTokenGenerator(testSecret, "access-management", "some-other-api", 15*time.Minute)
			signed, err := other.GenerateAccessToken(testUser())
			Expect(err).NotTo(HaveOccurred())

			Expect(generator.ParseExpiredToken(signed)).To(BeNil())
		})

		It("returns nil for garbage input", func() {
			Expect(generator.ParseExpiredToken("not-a-token")).To(BeNil())
		})
	})
})

var _ = Describe("Password hashing", func() {
	It("verifies the original password and nothing else", func() {
		hash, err := auth.HashPassword("correct horse battery staple", 10)
		Expect(err).NotTo(HaveOccurred())
		Expect(hash).NotTo(Equal("correct horse battery staple"))

		Expect(auth.VerifyPassword(hash, "correct horse battery staple")).To(BeTrue())
		Expect(auth.VerifyPassword(hash, "wrong password")).To(BeFalse())
	})
})
