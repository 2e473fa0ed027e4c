package security

import (
	"errors"
	"runtime"

	"github.com/matthewhartstonge/argon2"
)

// ErrEmptyPassword is returned when an empty password is given to HashPassword.
var ErrEmptyPassword = errors.New("password must not be empty")

// hashSlots bounds how many argon2 computations run at once so CPU-bound
// hashing cannot starve request goroutines.
var hashSlots = make(chan struct{}, runtime.GOMAXPROCS(0))

// HashPassword hashes a raw password with argon2id using the library's
// recommended defaults. The raw value is never persisted or logged anywhere;
// only the encoded hash leaves this package.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	hashSlots <- struct{}{}
	defer func() { <-hashSlots }()

	cfg := argon2.DefaultConfig()

	encoded, err := cfg.HashEncoded([]byte(password))
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

// VerifyPassword reports whether the raw password matches the encoded hash.
// The underlying comparison is constant time.
func VerifyPassword(password, hash string) (bool, error) {
	hashSlots <- struct{}{}
	defer func() { <-hashSlots }()

	return argon2.VerifyEncoded([]byte(password), []byte(hash))
}

var dummyHash, _ = HashPassword("gV7kqeXcD2mN5sRw")

// VerifyDummy burns the cost of a real password verification against a
// throwaway hash and reports nothing. Callers use it on their account-not-
// found branch so a credential check takes the same time whether or not the
// identifier exists.
func VerifyDummy(password string) {
	if password == "" {
		password = " "
	}
	_, _ = VerifyPassword(password, dummyHash)
}
