package utils

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	password := "testpassword123"
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "" || hash == password {
		t.Errorf("HashPassword() hash inattendu: %q", hash)
	}
	if NeedsRehash(hash) {
		t.Error("un hash neuf ne doit pas nécessiter de rehash")
	}
}

func TestCheckPassword(t *testing.T) {
	password := "testpassword123"
	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if !CheckPassword(hash, password) {
		t.Error("CheckPassword() doit accepter le bon mot de passe")
	}
	if CheckPassword(hash, "wrongpassword") {
		t.Error("CheckPassword() doit refuser un mauvais mot de passe")
	}
	if CheckPassword("", password) {
		t.Error("CheckPassword() doit refuser un hash vide")
	}
}

func TestNeedsRehash(t *testing.T) {
	weak, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if !NeedsRehash(string(weak)) {
		t.Error("un hash au coût minimal doit nécessiter un rehash")
	}
	if !NeedsRehash("pas-un-hash") {
		t.Error("un hash illisible doit nécessiter un rehash")
	}
}
