package auth

import (
	"errors"

	"github.com/mbolis/quick-survey/apperr"
	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string) ([]byte, error) {
	if len(password) < 6 {
		return nil, apperr.Validationf("password must be at least 6 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, apperr.Validationf("password must be at most 72 bytes")
	}
	return hash, err
}

func CheckPassword(hash []byte, password string) error {
	err := bcrypt.CompareHashAndPassword(hash, []byte(password))
	if err != nil {
		return apperr.Unauthenticated("invalid credentials", err)
	}
	return nil
}
