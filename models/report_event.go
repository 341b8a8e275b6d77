package models

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"offerhub-backend/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Limites d'ingestion des événements
const (
	MaxEventBatch      = 500
	MaxEventPayloadKey = 50
)

var eventTypeRegex = regexp.MustCompile(`^[a-z][a-z0-9_.]{1,63}$`)

// ReportEvent est un enregistrement ingéré par le store de reporting
type ReportEvent struct {
	ID         primitive.ObjectID     `json:"id" bson:"_id,omitempty"`
	Type       string                 `json:"type" bson:"type"`
	Source     string                 `json:"source,omitempty" bson:"source,omitempty"`
	UserID     primitive.ObjectID     `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Payload    map[string]interface{} `json:"payload,omitempty" bson:"payload,omitempty"`
	OccurredAt time.Time              `json:"occurred_at" bson:"occurred_at"`
	CreatedAt  time.Time              `json:"created_at" bson:"created_at"`
}

// Validate vérifie les contraintes de schéma de l'événement
func (e *ReportEvent) Validate() error {
	var errs utils.ValidationErrors
	if !eventTypeRegex.MatchString(e.Type) {
		errs.Add(utils.ValidationError{Field: "type", Message: "type invalide (minuscules, chiffres, _ et ., 2 à 64 caractères)"})
	}
	errs.Add(utils.ValidateLength("source", e.Source, 0, 64))
	if len(e.Payload) > MaxEventPayloadKey {
		errs.Add(utils.ValidationError{Field: "payload", Message: "50 clés maximum"})
	}
	return errs.OrNil()
}

// ReportEventInput est un événement tel qu'envoyé par les clients
type ReportEventInput struct {
	Type       string                 `json:"type"`
	Source     string                 `json:"source"`
	Payload    map[string]interface{} `json:"payload"`
	OccurredAt *FlexibleTime          `json:"occurred_at"`
}

// ToEvent construit l'événement à stocker; OccurredAt vaut now quand absent
func (in ReportEventInput) ToEvent(userID primitive.ObjectID, now time.Time) ReportEvent {
	occurred := now
	if in.OccurredAt != nil && !in.OccurredAt.IsZero() {
		occurred = in.OccurredAt.Time
	}
	return ReportEvent{
		Type:       strings.TrimSpace(in.Type),
		Source:     strings.TrimSpace(in.Source),
		UserID:     userID,
		Payload:    in.Payload,
		OccurredAt: occurred.UTC(),
		CreatedAt:  now,
	}
}

// ReportEventBatch accepte soit un événement seul soit {"events": [...]}
type ReportEventBatch struct {
	Events []ReportEventInput
}

// UnmarshalJSON détecte la forme du corps
func (b *ReportEventBatch) UnmarshalJSON(data []byte) error {
	var envelope struct {
		Events []ReportEventInput `json:"events"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Events != nil {
		b.Events = envelope.Events
		return nil
	}
	var single ReportEventInput
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	b.Events = []ReportEventInput{single}
	return nil
}

// ReportSummaryRow compte les événements d'un type pour un jour (AAAA-MM-JJ)
type ReportSummaryRow struct {
	Day   string `json:"day" bson:"day"`
	Type  string `json:"type" bson:"type"`
	Count int64  `json:"count" bson:"count"`
}

// ReportSummary est la réponse de /api/reports/summary
type ReportSummary struct {
	From  time.Time          `json:"from"`
	To    time.Time          `json:"to"`
	Total int64              `json:"total"`
	Rows  []ReportSummaryRow `json:"rows"`
}
