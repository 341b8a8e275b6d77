package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"offerhub-backend/models"
)

// Requêtes SOQL de la synchronisation
const (
	accountSOQL = "SELECT Id, Name, Phone, Website, Industry, Description, Email__c, Active__c FROM Account WHERE Partner__c = true"
	offerSOQL   = "SELECT Id, Name, Account__c, Code__c, Description__c, Discount_Type__c, Discount_Value__c, Valid_From__c, Valid_Until__c, Max_Uses__c, Status__c FROM Offer__c"
)

type sfAccount struct {
	ID          string `json:"Id"`
	Name        string `json:"Name"`
	Phone       string `json:"Phone"`
	Website     string `json:"Website"`
	Industry    string `json:"Industry"`
	Description string `json:"Description"`
	Email       string `json:"Email__c"`
	Active      *bool  `json:"Active__c"`
}

type sfOffer struct {
	ID            string   `json:"Id"`
	Name          string   `json:"Name"`
	AccountID     string   `json:"Account__c"`
	Code          string   `json:"Code__c"`
	Description   string   `json:"Description__c"`
	DiscountType  string   `json:"Discount_Type__c"`
	DiscountValue float64  `json:"Discount_Value__c"`
	ValidFrom     string   `json:"Valid_From__c"`
	ValidUntil    string   `json:"Valid_Until__c"`
	MaxUses       *float64 `json:"Max_Uses__c"`
	Status        string   `json:"Status__c"`
}

// industryCategories associe les secteurs Salesforce (en minuscules) aux catégories locales
var industryCategories = map[string]string{
	"food & beverage": "food",
	"food":            "food",
	"restaurant":      "food",
	"hospitality":     "travel",
	"travel":          "travel",
	"transportation":  "travel",
	"healthcare":      "wellness",
	"wellness":        "wellness",
	"fitness":         "wellness",
	"retail":          "retail",
	"apparel":         "retail",
	"consumer goods":  "retail",
	"consulting":      "services",
	"finance":         "services",
	"banking":         "services",
	"insurance":       "services",
	"technology":      "services",
	"services":        "services",
	"entertainment":   "entertainment",
	"media":           "entertainment",
	"recreation":      "entertainment",
}

func mapIndustry(industry string) string {
	if c, ok := industryCategories[strings.ToLower(strings.TrimSpace(industry))]; ok {
		return c
	}
	return models.CategoryOther
}

func mapOfferStatus(status string) string {
	s := strings.ToLower(strings.TrimSpace(status))
	for _, known := range models.OfferStatuses {
		if s == known {
			return s
		}
	}
	return models.OfferDraft
}

func mapDiscountType(kind string) string {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "fixed", "amount", "fixed amount":
		return models.DiscountFixed
	default:
		return models.DiscountPercentage
	}
}

// parseSalesforceDate lit une date ou un datetime Salesforce; une date seule
// utilisée comme borne de fin couvre toute la journée
func parseSalesforceDate(raw string, endOfDay bool) (time.Time, error) {
	ft, err := models.ParseFlexibleTime(raw)
	if err != nil || ft.IsZero() {
		return ft.Time, err
	}
	if endOfDay && len(strings.TrimSpace(raw)) == len("2006-01-02") {
		return ft.Time.Add(24*time.Hour - time.Millisecond), nil
	}
	return ft.Time, nil
}

// mapAccount convertit un Account en prestataire local validé
func mapAccount(raw json.RawMessage) (*models.Provider, error) {
	var a sfAccount
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("account illisible: %w", err)
	}
	if a.ID == "" {
		return nil, fmt.Errorf("account sans Id")
	}

	p := &models.Provider{
		Name:         a.Name,
		Email:        a.Email,
		Phone:        a.Phone,
		Website:      a.Website,
		Category:     mapIndustry(a.Industry),
		Description:  a.Description,
		SalesforceID: a.ID,
	}
	if a.Active != nil {
		p.Status = models.ProviderInactive
		if *a.Active {
			p.Status = models.ProviderActive
		}
	}
	if p.Website != "" && !strings.Contains(p.Website, "://") {
		p.Website = "https://" + p.Website
	}
	p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("account %s: %w", a.ID, err)
	}
	return p, nil
}

// mappedOffer est une offre Salesforce avant résolution de son prestataire
type mappedOffer struct {
	Offer     models.Offer
	AccountID string
}

// mapOffer convertit un Offer__c; la validation complète a lieu après résolution du prestataire
func mapOffer(raw json.RawMessage) (*mappedOffer, error) {
	var o sfOffer
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, fmt.Errorf("offre illisible: %w", err)
	}
	if o.ID == "" {
		return nil, fmt.Errorf("offre sans Id")
	}

	from, err := parseSalesforceDate(o.ValidFrom, false)
	if err != nil {
		return nil, fmt.Errorf("offre %s: Valid_From__c: %w", o.ID, err)
	}
	until, err := parseSalesforceDate(o.ValidUntil, true)
	if err != nil {
		return nil, fmt.Errorf("offre %s: Valid_Until__c: %w", o.ID, err)
	}

	m := &mappedOffer{
		AccountID: o.AccountID,
		Offer: models.Offer{
			Title:         o.Name,
			Description:   o.Description,
			Code:          o.Code,
			DiscountType:  mapDiscountType(o.DiscountType),
			DiscountValue: o.DiscountValue,
			ValidFrom:     from,
			ValidUntil:    until,
			Status:        mapOfferStatus(o.Status),
			SalesforceID:  o.ID,
		},
	}
	if o.MaxUses != nil && *o.MaxUses > 0 {
		m.Offer.MaxUses = int(*o.MaxUses)
	}
	m.Offer.Normalize()
	return m, nil
}
