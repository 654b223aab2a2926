package service

import "golang.org/x/crypto/bcrypt"

// HashPassword returns a salted bcrypt digest of the plaintext.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored digest. bcrypt's
// own comparison is used so no timing information about the plaintext leaks.
func VerifyPassword(digest, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
