package services

import (
	"encoding/json"
	"testing"
	"time"

	"offerhub-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapAccount(t *testing.T) {
	raw := json.RawMessage(`{"attributes":{"type":"Account"},"Id":"001A","Name":"Chez Luigi","Phone":"+33 1 23 45 67 89","Website":"luigi.example","Industry":"Food & Beverage","Email__c":"CONTACT@luigi.example","Active__c":true}`)
	p, err := mapAccount(raw)
	require.NoError(t, err)

	assert.Equal(t, "001A", p.SalesforceID)
	assert.Equal(t, "food", p.Category)
	assert.Equal(t, models.ProviderActive, p.Status)
	assert.Equal(t, "https://luigi.example", p.Website)
	assert.Equal(t, "contact@luigi.example", p.Email)
	assert.Equal(t, "+33123456789", p.Phone)
}

func TestMapAccount_Defaults(t *testing.T) {
	p, err := mapAccount(json.RawMessage(`{"Id":"001B","Name":"Acme","Industry":"Aerospace"}`))
	require.NoError(t, err)
	assert.Equal(t, models.CategoryOther, p.Category)
	assert.Equal(t, models.ProviderPending, p.Status)

	p, err = mapAccount(json.RawMessage(`{"Id":"001C","Name":"Acme","Active__c":false}`))
	require.NoError(t, err)
	assert.Equal(t, models.ProviderInactive, p.Status)
}

func TestMapAccount_Invalid(t *testing.T) {
	_, err := mapAccount(json.RawMessage(`{"Id":"001D","Name":"A"}`))
	assert.Error(t, err, "un nom d'un caractère est invalide")

	_, err = mapAccount(json.RawMessage(`{"Name":"Sans Id"}`))
	assert.Error(t, err)
}

func TestMapOffer(t *testing.T) {
	raw := json.RawMessage(`{"Id":"a01X","Name":"Spa -30%","Account__c":"001A","Code__c":"spa30","Discount_Type__c":"Percentage","Discount_Value__c":30,"Valid_From__c":"2025-06-01","Valid_Until__c":"2025-06-30","Max_Uses__c":100.0,"Status__c":"Active"}`)
	m, err := mapOffer(raw)
	require.NoError(t, err)

	assert.Equal(t, "001A", m.AccountID)
	assert.Equal(t, "SPA30", m.Offer.Code)
	assert.Equal(t, models.OfferActive, m.Offer.Status)
	assert.Equal(t, models.DiscountPercentage, m.Offer.DiscountType)
	assert.Equal(t, 100, m.Offer.MaxUses)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), m.Offer.ValidFrom)
	assert.Equal(t, time.Date(2025, 6, 30, 23, 59, 59, int(999*time.Millisecond), time.UTC), m.Offer.ValidUntil)
}

func TestMapOffer_Normalisation(t *testing.T) {
	raw := json.RawMessage(`{"Id":"a01Y","Name":"Bon 10€","Account__c":"001A","Discount_Type__c":"Amount","Discount_Value__c":10,"Valid_From__c":"2025-06-01T08:00:00.000+0000","Valid_Until__c":"2025-07-01T08:00:00.000+0000","Status__c":"Archived"}`)
	m, err := mapOffer(raw)
	require.NoError(t, err)

	assert.Equal(t, models.DiscountFixed, m.Offer.DiscountType)
	assert.Equal(t, models.OfferDraft, m.Offer.Status, "un statut inconnu retombe sur draft")
	assert.Equal(t, 0, m.Offer.MaxUses)
	assert.Equal(t, time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC), m.Offer.ValidUntil)

	_, err = mapOffer(json.RawMessage(`{"Id":"a01Z","Valid_From__c":"demain"}`))
	assert.Error(t, err)
}
