package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	appErrors "github.com/frahmantamala/access-management/internal"
)

// JWTTokenGenerator signs access tokens with a symmetric key. The claim
// layout is part of the external contract; see Claims.
type JWTTokenGenerator struct {
	Secret   []byte
	Issuer   string
	Audience string
	TTL      time.Duration

	now func() time.Time
}

func NewJWTTokenGenerator(secret, issuer, audience string, ttl time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		Secret:   []byte(secret),
		Issuer:   issuer,
		Audience: audience,
		TTL:      ttl,
		now:      time.Now,
	}
}

// GenerateAccessToken builds the claim set from the user's resolved roles and
// permissions and signs it. The permission claims must already be decomposed
// single-action strings.
func (j *JWTTokenGenerator) GenerateAccessToken(user *User) (string, error) {
	issuedAt := j.now()

	claims := &Claims{
		Email:       user.Email,
		Name:        user.FullName(),
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Status:      user.Status,
		Roles:       user.Roles,
		Permissions: user.Permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			Issuer:    j.Issuer,
			Audience:  jwt.ClaimStrings{j.Audience},
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(j.TTL)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.Secret)
	if err != nil {
		return "", appErrors.NewInternalError("failed to sign access token", err)
	}
	return signed, nil
}

// ValidateToken performs full validation: signature, signing method, issuer,
// audience and lifetime.
func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, j.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(j.Issuer),
		jwt.WithAudience(j.Audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, appErrors.ErrTokenNotActive
		}
		return nil, appErrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, appErrors.ErrInvalidToken
	}
	return claims, nil
}

// ParseExpiredToken recovers the claims from an access token that may be past
// its lifetime but must be authentic in every other way. Returns nil on any
// failure instead of an error; callers only need a yes/no.
func (j *JWTTokenGenerator) ParseExpiredToken(tokenString string) *Claims {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	token, err := parser.ParseWithClaims(tokenString, &Claims{}, j.keyFunc)
	if err != nil {
		return nil
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil
	}

	// Lifetime is deliberately skipped; issuer and audience are not.
	if claims.Issuer != j.Issuer {
		return nil
	}
	audienceOK := false
	for _, aud := range claims.Audience {
		if aud == j.Audience {
			audienceOK = true
			break
		}
	}
	if !audienceOK {
		return nil
	}

	return claims
}

func (j *JWTTokenGenerator) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return j.Secret, nil
}
