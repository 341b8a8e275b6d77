package models

import "time"

// RateLimitDecision est le résultat d'une vérification de limite
type RateLimitDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RateLimitHit est une décision enregistrée pour les statistiques
type RateLimitHit struct {
	Key     string    `json:"key"`
	Route   string    `json:"route"`
	Blocked bool      `json:"blocked"`
	At      time.Time `json:"at"`
	Nonce   string    `json:"nonce"`
}

// RateLimitClient agrège les requêtes d'une clé sur la fenêtre
type RateLimitClient struct {
	Key       string         `json:"key" yaml:"key"`
	Total     int            `json:"total" yaml:"total"`
	Blocked   int            `json:"blocked" yaml:"blocked"`
	Routes    map[string]int `json:"routes" yaml:"routes"`
	FirstSeen time.Time      `json:"first_seen" yaml:"first_seen"`
	LastSeen  time.Time      `json:"last_seen" yaml:"last_seen"`
}

// RateLimitReport est la réponse de GET /api/rate-limit/stats
type RateLimitReport struct {
	Window  string            `json:"window" yaml:"window"`
	From    time.Time         `json:"from" yaml:"from"`
	To      time.Time         `json:"to" yaml:"to"`
	Total   int               `json:"total" yaml:"total"`
	Blocked int               `json:"blocked" yaml:"blocked"`
	Clients []RateLimitClient `json:"clients" yaml:"clients"`
}
