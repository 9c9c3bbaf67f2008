package utils

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"sentinel-cctv/be/config"
)

// HashPassword prepares password for storage under mode. Plain mode stores
// the password as given.
func HashPassword(mode, password string) (string, error) {
	switch mode {
	case config.PasswordModePlain, "":
		return password, nil
	case config.PasswordModeBcrypt:
		hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return "", fmt.Errorf("failed to hash password: %w", err)
		}
		return string(hashed), nil
	}
	return "", fmt.Errorf("unknown password mode %q", mode)
}

// CheckPassword reports whether password matches the stored value.
func CheckPassword(mode, stored, password string) bool {
	if mode == config.PasswordModeBcrypt {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return stored == password
}
