// Package auth: password hashing for the backend's accounts.
//
// HOW PASSWORDS ARE STORED:
// Sign-up hashes the plaintext with bcrypt and stores only the hash in
// users.password_hash. Sign-in and the profile's old_password check hash the
// candidate again and compare. The plaintext is never written anywhere.
//
// bcrypt output carries its own salt and cost, so one column is enough:
//
//	$2a$12$<22-char salt><31-char hash>
//	    ^^
//	    cost: 2^12 rounds
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor for real accounts.
//
// COST VS. TESTS:
// Each step doubles the work. 12 keeps a sign-in in the low hundreds of
// milliseconds; tests use NewPasswordServiceForTest (bcrypt.MinCost) so that
// suites creating dozens of users stay fast.
const defaultCost = 12

// maxPasswordBytes is bcrypt's input limit.
//
// WHY CHECK IT OURSELVES?
// bcrypt rejects anything longer with ErrPasswordTooLong. Checking first lets
// Hash return a message that names the limit.
const maxPasswordBytes = 72

// ErrPasswordMismatch is returned by Verify when the password is wrong.
var ErrPasswordMismatch = errors.New("auth: password does not match")

// PasswordService hashes and checks user passwords with bcrypt.
type PasswordService struct {
	cost int
}

// NewPasswordService returns a service using defaultCost. The server builds
// one and shares it between sign-in, sign-up and profile updates.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest uses a low cost so tests stay fast.
func NewPasswordServiceForTest() *PasswordService {
	return &PasswordService{cost: bcrypt.MinCost}
}

// Hash returns the bcrypt hash of plaintext. Two calls with the same input
// give different hashes because each one draws a fresh salt.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", maxPasswordBytes)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify checks plaintext against a stored hash.
//
// ERROR CONTRACT:
//   - nil                  → password matches
//   - ErrPasswordMismatch  → wrong password (the service turns this into the
//     generic "Incorrect email/password combination.")
//   - anything else        → corrupt hash or bcrypt failure; a 500, not a 401
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrPasswordMismatch
	default:
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
}
