package utils

import (
	"testing"
	"time"
)

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken("user123", "test@example.com", "admin", "test-secret-key", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() erreur = %v", err)
	}
	if token == "" {
		t.Error("GenerateToken() ne doit pas retourner une chaîne vide")
	}
}

func TestValidateToken(t *testing.T) {
	secret := "test-secret-key"

	token, err := GenerateToken("user456", "valid@example.com", "manager", secret, 0)
	if err != nil {
		t.Fatalf("GenerateToken() erreur = %v", err)
	}

	claims, err := ValidateToken(token, secret)
	if err != nil {
		t.Fatalf("ValidateToken() erreur = %v", err)
	}
	if claims.UserID != "user456" || claims.Subject != "user456" {
		t.Errorf("UserID = %v / Subject = %v", claims.UserID, claims.Subject)
	}
	if claims.Email != "valid@example.com" {
		t.Errorf("Email = %v", claims.Email)
	}
	if claims.Role != "manager" {
		t.Errorf("Role = %v, attendu manager", claims.Role)
	}
	if ttl := time.Until(claims.ExpiresAt.Time); ttl < 23*time.Hour {
		t.Errorf("TTL par défaut = %v, attendu ~24h", ttl)
	}
}

func TestValidateTokenMauvaisSecret(t *testing.T) {
	token, _ := GenerateToken("u", "e@e.com", "viewer", "secret1", time.Hour)
	if _, err := ValidateToken(token, "secret2"); err == nil {
		t.Error("ValidateToken() devrait échouer avec un mauvais secret")
	}
}

func TestGenerateTokenTTLNegatif(t *testing.T) {
	// un ttl négatif retombe sur la valeur par défaut
	token, _ := GenerateToken("u", "e@e.com", "viewer", "secret", -time.Minute)
	if _, err := ValidateToken(token, "secret"); err != nil {
		t.Errorf("ValidateToken() erreur = %v", err)
	}
}

func TestValidateTokenInvalide(t *testing.T) {
	if _, err := ValidateToken("invalid-token", "secret"); err == nil {
		t.Error("ValidateToken() devrait échouer avec un token invalide")
	}
}
