package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidHashFormat means the stored hash is structurally broken, not merely
// a mismatch. A row in this state cannot be verified against any password.
var ErrInvalidHashFormat = errors.New("stored password hash is malformed")

// HashPassword hashes a plain text password with bcrypt. The salt is embedded
// in the output, so hashing the same password twice yields different strings.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with a plaintext password. A nil error
// means the password matches. bcrypt.ErrMismatchedHashAndPassword is returned
// as-is for a wrong password; every other failure mode indicates a corrupt
// stored hash and comes back as ErrInvalidHashFormat.
func CheckPassword(hash, plain string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))

	if err == nil {
		return nil
	}

	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return err
	}

	return errors.Join(ErrInvalidHashFormat, err)
}
