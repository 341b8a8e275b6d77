package utils

import (
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost est le coût bcrypt utilisé pour les nouveaux hashs
const PasswordCost = bcrypt.DefaultCost

// dummyHash sert à comparer quand l'utilisateur n'existe pas, pour garder un temps de réponse constant
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("offerhub-dummy-password"), PasswordCost)

// HashPassword hache un mot de passe en utilisant bcrypt
func HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// CheckPassword vérifie si un mot de passe correspond à son hash.
// Un hash vide déclenche quand même une comparaison complète.
func CheckPassword(hashedPassword, password string) bool {
	if hashedPassword == "" {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return false
	}
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	return err == nil
}

// NeedsRehash indique si le hash a été produit avec un coût différent du coût courant
func NeedsRehash(hashedPassword string) bool {
	cost, err := bcrypt.Cost([]byte(hashedPassword))
	return err != nil || cost != PasswordCost
}
