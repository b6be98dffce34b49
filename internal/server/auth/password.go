package auth

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/backoffice/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// hashCost is a var so tests can lower it.
var hashCost = bcrypt.DefaultCost

// HashPassword returns a salted bcrypt digest of password. Passwords longer
// than bcrypt's 72-byte input limit are rejected as a validation error.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", fmt.Errorf("%w: password longer than 72 bytes", common.ErrorValidation)
		}
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches storedHash. It never
// fails: a malformed hash is simply a mismatch. bcrypt compares in
// constant time.
func VerifyPassword(password, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password)) == nil
}
