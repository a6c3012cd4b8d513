package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Admin is the single administrative principal. It is configured from the
// environment instead of a user table: the service has no accounts beyond
// the operator.
type Admin struct {
	Username     string
	passwordHash string
}

// NewAdmin builds the admin principal. A pre-computed bcrypt hash takes
// precedence; a plain password is hashed on the spot. With neither, the
// returned principal rejects every login.
func NewAdmin(username, password, passwordHash string) (*Admin, error) {
	admin := &Admin{Username: username}
	switch {
	case passwordHash != "":
		admin.passwordHash = passwordHash
	case password != "":
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash admin password: %w", err)
		}
		admin.passwordHash = string(hash)
	}
	return admin, nil
}

// Enabled reports whether the principal has a password configured at all.
func (a *Admin) Enabled() bool {
	return a.passwordHash != ""
}

// Verify reports whether the presented credentials match the principal.
// A principal without a configured password never matches.
func (a *Admin) Verify(username, password string) bool {
	if a.passwordHash == "" || username != a.Username {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(a.passwordHash), []byte(password)) == nil
}
