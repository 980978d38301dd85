package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPasswordCost("correct horse", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPasswordCost: %v", err)
	}
	if hash == "correct horse" {
		t.Fatal("hash must not equal the plaintext")
	}
	if !CheckPassword("correct horse", hash) {
		t.Error("CheckPassword rejected the right password")
	}
	if CheckPassword("battery staple", hash) {
		t.Error("CheckPassword accepted the wrong password")
	}

	again, err := HashPasswordCost("correct horse", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPasswordCost: %v", err)
	}
	if again == hash {
		t.Error("hashes of the same password should differ by salt")
	}
}

func TestCheckPassword_Garbage(t *testing.T) {
	if CheckPassword("anything", "not-a-bcrypt-hash") {
		t.Fatal("garbage hash must never match")
	}
}

func TestRejectPassword(t *testing.T) {
	if RejectPassword("classroom-service-dummy-password") {
		t.Fatal("RejectPassword must never accept")
	}
	cost, err := bcrypt.Cost([]byte(dummyHash()))
	if err != nil {
		t.Fatalf("dummy hash: %v", err)
	}
	if cost != bcrypt.DefaultCost {
		t.Fatalf("dummy hash cost = %d, want %d to match stored hashes", cost, bcrypt.DefaultCost)
	}
}
