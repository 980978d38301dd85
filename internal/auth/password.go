package auth

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a salted bcrypt hash of password
func HashPassword(password string) (string, error) {
	return HashPasswordCost(password, bcrypt.DefaultCost)
}

// HashPasswordCost hashes with an explicit bcrypt cost
func HashPasswordCost(password string, cost int) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedPassword), nil
}

// CheckPassword reports whether password matches hashedPassword
func CheckPassword(password, hashedPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

var dummyHash = sync.OnceValue(func() string {
	hash, err := HashPassword("classroom-service-dummy-password")
	if err != nil {
		panic(err)
	}
	return hash
})

// RejectPassword spends the same bcrypt work as CheckPassword against a
// fixed hash and always reports false. Login calls it for unknown accounts
// so response time does not reveal which emails are registered.
func RejectPassword(password string) bool {
	CheckPassword(password, dummyHash())
	return false
}
