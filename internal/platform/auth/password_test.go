package auth

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil || cost != PasswordCost {
		t.Errorf("expected cost %d, got %d (%v)", PasswordCost, cost, err)
	}

	if err := CheckPassword(hash, "s3cret-pass"); err != nil {
		t.Errorf("expected match, got %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestCheckPassword_MalformedHash(t *testing.T) {
	err := CheckPassword("not-a-bcrypt-hash", "x")
	if err == nil || errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("expected a non-mismatch error, got %v", err)
	}
}
