package models

import "time"

// Types d'événements diffusés en temps réel
const (
	EventOfferUsed          = "offer.used"
	EventSmartLinkPublished = "smartlink.published"
	EventSyncFinished       = "sync.finished"
)

// Notification est un événement métier diffusé sur le hub WebSocket.
// Roles vide = tous les clients authentifiés.
type Notification struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	At    time.Time   `json:"at"`
	Roles []string    `json:"-"`
}

// VisibleTo indique si un client de ce rôle doit recevoir la notification
func (n Notification) VisibleTo(role string) bool {
	if len(n.Roles) == 0 {
		return true
	}
	for _, r := range n.Roles {
		if r == role {
			return true
		}
	}
	return false
}
