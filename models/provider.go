package models

import (
	"strings"
	"time"

	"offerhub-backend/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Statuts d'un prestataire
const (
	ProviderPending  = "pending"
	ProviderActive   = "active"
	ProviderInactive = "inactive"
)

// ProviderStatuses liste les statuts acceptés
var ProviderStatuses = []string{ProviderPending, ProviderActive, ProviderInactive}

// ProviderCategories liste les catégories acceptées
var ProviderCategories = []string{"food", "travel", "wellness", "retail", "services", "entertainment", "other"}

// CategoryOther est la catégorie de repli
const CategoryOther = "other"

// Provider représente un prestataire de la marketplace
type Provider struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Email        string             `json:"email,omitempty" bson:"email,omitempty"`
	Phone        string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Website      string             `json:"website,omitempty" bson:"website,omitempty"`
	Category     string             `json:"category" bson:"category"`
	Status       string             `json:"status" bson:"status"`
	Description  string             `json:"description,omitempty" bson:"description,omitempty"`
	SalesforceID string             `json:"salesforce_id,omitempty" bson:"salesforce_id,omitempty"`
	LastSyncedAt *time.Time         `json:"last_synced_at,omitempty" bson:"last_synced_at,omitempty"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

// Normalize applique les valeurs par défaut et nettoie les champs
func (p *Provider) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	p.Phone = utils.NormalizePhone(p.Phone)
	p.Website = strings.TrimSpace(p.Website)
	if p.Status == "" {
		p.Status = ProviderPending
	}
	if p.Category == "" {
		p.Category = CategoryOther
	}
}

// Validate vérifie les contraintes de schéma du prestataire
func (p *Provider) Validate() error {
	var errs utils.ValidationErrors
	errs.Add(utils.ValidateLength("name", p.Name, 2, 120))
	if p.Email != "" {
		errs.Add(utils.ValidateEmail(p.Email))
	}
	errs.Add(utils.ValidatePhone(p.Phone))
	errs.Add(utils.ValidateURL("website", p.Website))
	errs.Add(utils.ValidateEnum("category", p.Category, ProviderCategories))
	errs.Add(utils.ValidateEnum("status", p.Status, ProviderStatuses))
	errs.Add(utils.ValidateLength("description", p.Description, 0, 2000))
	return errs.OrNil()
}

// ProviderRequest est le corps des requêtes de création et de mise à jour
type ProviderRequest struct {
	Name        *string `json:"name"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Website     *string `json:"website"`
	Category    *string `json:"category"`
	Status      *string `json:"status"`
	Description *string `json:"description"`
}

// ApplyTo reporte les champs fournis, normalise puis valide
func (r *ProviderRequest) ApplyTo(p *Provider) error {
	setString(&p.Name, r.Name)
	setString(&p.Email, r.Email)
	setString(&p.Phone, r.Phone)
	setString(&p.Website, r.Website)
	setString(&p.Category, r.Category)
	setString(&p.Status, r.Status)
	setString(&p.Description, r.Description)
	p.Normalize()
	return p.Validate()
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}
