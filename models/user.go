package models

import (
	"strings"
	"time"

	"offerhub-backend/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rôles applicatifs
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleProvider = "provider"
	RoleViewer   = "viewer"
)

// Roles liste les rôles acceptés
var Roles = []string{RoleAdmin, RoleManager, RoleProvider, RoleViewer}

// User représente un utilisateur dans le système
type User struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Email       string             `json:"email" bson:"email"`
	Password    string             `json:"-" bson:"password"` // Le "-" empêche la sérialisation du mot de passe
	Role        string             `json:"role" bson:"role"`
	Active      bool               `json:"active" bson:"active"`
	LastLoginAt *time.Time         `json:"last_login_at,omitempty" bson:"last_login_at,omitempty"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// IsAdmin indique si l'utilisateur a le rôle admin
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Validate vérifie les champs persistés (hors mot de passe, déjà haché)
func (u *User) Validate() error {
	var errs utils.ValidationErrors
	errs.Add(utils.ValidateLength("name", u.Name, 2, 80))
	errs.Add(utils.ValidateEmail(u.Email))
	errs.Add(utils.ValidateEnum("role", u.Role, Roles))
	return errs.OrNil()
}

// RegisterRequest représente la requête d'inscription
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Normalize nettoie les champs saisis
func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

// Validate valide la requête d'inscription
func (r *RegisterRequest) Validate() error {
	var errs utils.ValidationErrors
	errs.Add(utils.ValidateLength("name", r.Name, 2, 80))
	errs.Add(utils.ValidateEmail(r.Email))
	errs.Add(utils.ValidatePassword(r.Password))
	return errs.OrNil()
}

// LoginRequest représente la requête de connexion
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest est la mise à jour d'un utilisateur par un admin.
// Les champs absents du JSON ne sont pas modifiés.
type UpdateUserRequest struct {
	Name   *string `json:"name"`
	Role   *string `json:"role"`
	Active *bool   `json:"active"`
}

// ApplyTo reporte les champs fournis sur l'utilisateur puis le valide
func (r *UpdateUserRequest) ApplyTo(u *User) error {
	if r.Name != nil {
		u.Name = strings.TrimSpace(*r.Name)
	}
	if r.Role != nil {
		u.Role = strings.TrimSpace(*r.Role)
	}
	if r.Active != nil {
		u.Active = *r.Active
	}
	return u.Validate()
}

// AuthResponse représente la réponse d'authentification
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
