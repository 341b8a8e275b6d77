package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Déclencheurs et statuts d'une synchronisation Salesforce
const (
	SyncTriggerManual = "manual"
	SyncTriggerCron   = "cron"
	SyncTriggerCLI    = "cli"

	SyncRunning   = "running"
	SyncSucceeded = "succeeded"
	SyncFailed    = "failed"
)

// SyncCounters compte le devenir des enregistrements d'un objet Salesforce
type SyncCounters struct {
	Fetched int `json:"fetched" bson:"fetched"`
	Created int `json:"created" bson:"created"`
	Updated int `json:"updated" bson:"updated"`
	Skipped int `json:"skipped" bson:"skipped"`
	Failed  int `json:"failed" bson:"failed"`
}

// SyncRun trace une exécution de la synchronisation
type SyncRun struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Trigger    string             `json:"trigger" bson:"trigger"`
	Status     string             `json:"status" bson:"status"`
	StartedBy  string             `json:"started_by,omitempty" bson:"started_by,omitempty"`
	Providers  SyncCounters       `json:"providers" bson:"providers"`
	Offers     SyncCounters       `json:"offers" bson:"offers"`
	Error      string             `json:"error,omitempty" bson:"error,omitempty"`
	StartedAt  time.Time          `json:"started_at" bson:"started_at"`
	FinishedAt *time.Time         `json:"finished_at,omitempty" bson:"finished_at,omitempty"`
}

// Duration retourne la durée de l'exécution (0 tant qu'elle tourne)
func (r *SyncRun) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// SyncStatus est la réponse de GET /api/salesforce/sync/status
type SyncStatus struct {
	Enabled bool     `json:"enabled"`
	Locked  bool     `json:"locked"`
	LastRun *SyncRun `json:"last_run,omitempty"`
}
