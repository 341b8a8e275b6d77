package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"offerhub-backend/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Types de remise
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// Statuts d'une offre
const (
	OfferDraft   = "draft"
	OfferActive  = "active"
	OfferPaused  = "paused"
	OfferExpired = "expired"
)

var (
	DiscountTypes = []string{DiscountPercentage, DiscountFixed}
	OfferStatuses = []string{OfferDraft, OfferActive, OfferPaused, OfferExpired}
)

var offerCodeRegex = regexp.MustCompile(`^[A-Z0-9_-]{3,32}$`)

// Offer représente une offre proposée par un prestataire
type Offer struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ProviderID    primitive.ObjectID `json:"provider_id" bson:"provider_id"`
	Title         string             `json:"title" bson:"title"`
	Description   string             `json:"description,omitempty" bson:"description,omitempty"`
	Code          string             `json:"code,omitempty" bson:"code,omitempty"`
	DiscountType  string             `json:"discount_type" bson:"discount_type"`
	DiscountValue float64            `json:"discount_value" bson:"discount_value"`
	ValidFrom     time.Time          `json:"valid_from" bson:"valid_from"`
	ValidUntil    time.Time          `json:"valid_until" bson:"valid_until"`
	MaxUses       int                `json:"max_uses" bson:"max_uses"` // 0 = illimité
	UsesCount     int                `json:"uses_count" bson:"uses_count"`
	Status        string             `json:"status" bson:"status"`
	SalesforceID  string             `json:"salesforce_id,omitempty" bson:"salesforce_id,omitempty"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

// OfferWithProvider est la forme renvoyée par l'API avec le prestataire peuplé
type OfferWithProvider struct {
	Offer    `bson:",inline"`
	Provider *Provider `json:"provider,omitempty" bson:"provider,omitempty"`
}

// Normalize applique les valeurs par défaut et met le code en majuscules
func (o *Offer) Normalize() {
	o.Title = strings.TrimSpace(o.Title)
	o.Code = strings.ToUpper(strings.TrimSpace(o.Code))
	if o.DiscountType == "" {
		o.DiscountType = DiscountPercentage
	}
	if o.Status == "" {
		o.Status = OfferDraft
	}
	o.ValidFrom = o.ValidFrom.UTC()
	o.ValidUntil = o.ValidUntil.UTC()
}

// Validate vérifie les contraintes de schéma de l'offre
func (o *Offer) Validate() error {
	var errs utils.ValidationErrors
	if o.ProviderID.IsZero() {
		errs.Add(utils.ValidationError{Field: "provider_id", Message: "le prestataire est requis"})
	}
	errs.Add(utils.ValidateLength("title", o.Title, 2, 150))
	errs.Add(utils.ValidateLength("description", o.Description, 0, 2000))
	if o.Code != "" && !offerCodeRegex.MatchString(o.Code) {
		errs.Add(utils.ValidationError{Field: "code", Message: "code invalide (3 à 32 caractères A-Z, 0-9, _ ou -)"})
	}
	if err := utils.ValidateEnum("discount_type", o.DiscountType, DiscountTypes); err != nil {
		errs.Add(err)
	} else {
		errs.Add(validateDiscount(o.DiscountType, o.DiscountValue))
	}
	if o.ValidFrom.IsZero() {
		errs.Add(utils.ValidationError{Field: "valid_from", Message: "la date de début est requise"})
	}
	if o.ValidUntil.IsZero() {
		errs.Add(utils.ValidationError{Field: "valid_until", Message: "la date de fin est requise"})
	} else if !o.ValidFrom.IsZero() && !o.ValidUntil.After(o.ValidFrom) {
		errs.Add(utils.ValidationError{Field: "valid_until", Message: "la date de fin doit être après la date de début"})
	}
	if o.MaxUses < 0 {
		errs.Add(utils.ValidationError{Field: "max_uses", Message: "doit être positif ou nul"})
	}
	errs.Add(utils.ValidateEnum("status", o.Status, OfferStatuses))
	return errs.OrNil()
}

func validateDiscount(kind string, value float64) error {
	switch {
	case kind == DiscountPercentage && (value <= 0 || value > 100):
		return utils.ValidationError{Field: "discount_value", Message: "un pourcentage doit être compris entre 0 (exclu) et 100"}
	case kind == DiscountFixed && value <= 0:
		return utils.ValidationError{Field: "discount_value", Message: "un montant fixe doit être positif"}
	}
	return nil
}

// UsableAt explique pourquoi l'offre ne peut pas être utilisée à l'instant now
func (o *Offer) UsableAt(now time.Time) error {
	if o.Status != OfferActive {
		return fmt.Errorf("%w: statut %s", ErrOfferUnavailable, o.Status)
	}
	if now.Before(o.ValidFrom) || now.After(o.ValidUntil) {
		return fmt.Errorf("%w: hors période de validité", ErrOfferUnavailable)
	}
	if o.MaxUses > 0 && o.UsesCount >= o.MaxUses {
		return ErrOfferExhausted
	}
	return nil
}

// OfferRequest est le corps des requêtes de création et de mise à jour
type OfferRequest struct {
	ProviderID    *string       `json:"provider_id"`
	Title         *string       `json:"title"`
	Description   *string       `json:"description"`
	Code          *string       `json:"code"`
	DiscountType  *string       `json:"discount_type"`
	DiscountValue *float64      `json:"discount_value"`
	ValidFrom     *FlexibleTime `json:"valid_from"`
	ValidUntil    *FlexibleTime `json:"valid_until"`
	MaxUses       *int          `json:"max_uses"`
	Status        *string       `json:"status"`
}

// ApplyTo reporte les champs fournis, normalise puis valide
func (r *OfferRequest) ApplyTo(o *Offer) error {
	if r.ProviderID != nil {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(*r.ProviderID))
		if err != nil {
			return utils.ValidationErrors{{Field: "provider_id", Message: "identifiant de prestataire invalide"}}
		}
		o.ProviderID = id
	}
	setString(&o.Title, r.Title)
	setString(&o.Description, r.Description)
	setString(&o.Code, r.Code)
	setString(&o.DiscountType, r.DiscountType)
	setString(&o.Status, r.Status)
	if r.DiscountValue != nil {
		o.DiscountValue = *r.DiscountValue
	}
	if r.ValidFrom != nil {
		o.ValidFrom = r.ValidFrom.Time
	}
	if r.ValidUntil != nil {
		o.ValidUntil = r.ValidUntil.Time
	}
	if r.MaxUses != nil {
		o.MaxUses = *r.MaxUses
	}
	o.Normalize()
	return o.Validate()
}

// OfferUsage trace chaque utilisation d'une offre
type OfferUsage struct {
	ID      primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OfferID primitive.ObjectID `json:"offer_id" bson:"offer_id"`
	UserID  primitive.ObjectID `json:"user_id" bson:"user_id"`
	UsedAt  time.Time          `json:"used_at" bson:"used_at"`
}

// OfferTop est une ligne du classement des offres les plus utilisées
type OfferTop struct {
	ID        primitive.ObjectID `json:"id" bson:"_id"`
	Title     string             `json:"title" bson:"title"`
	Code      string             `json:"code,omitempty" bson:"code,omitempty"`
	UsesCount int                `json:"uses_count" bson:"uses_count"`
}

// OfferStats agrège les offres pour le tableau de bord
type OfferStats struct {
	Total       int64            `json:"total"`
	ByStatus    map[string]int64 `json:"by_status"`
	TotalUses   int64            `json:"total_uses"`
	TopOffers   []OfferTop       `json:"top_offers"`
	GeneratedAt time.Time        `json:"generated_at"`
}
