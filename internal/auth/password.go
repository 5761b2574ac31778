package auth

import "golang.org/x/crypto/bcrypt"

// VerifyPassword reports whether plaintext matches the stored bcrypt hash.
// A mismatch is a normal negative outcome, not an error; the comparison is
// constant-time inside bcrypt.
func VerifyPassword(hashedPassword, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plaintext)) == nil
}

func HashPassword(plaintext string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
