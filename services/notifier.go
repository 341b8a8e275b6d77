package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"offerhub-backend/models"
)

// Publisher diffuse un événement aux clients WebSocket connectés
type Publisher interface {
	Publish(n models.Notification)
}

// DeviceTokenStore fournit les tokens FCM des appareils enregistrés
type DeviceTokenStore interface {
	TokensByRoles(ctx context.Context, roles []string) ([]string, error)
	DeleteTokens(ctx context.Context, tokens []string) error
}

type pushSender interface {
	Enabled() bool
	SendToAll(ctx context.Context, tokens []string, title, body string, data map[string]string) models.PushResult
}

type syncAlerter interface {
	SendSyncFailure(ctx context.Context, run *models.SyncRun)
}

// staffRoles reçoivent les événements d'exploitation
var staffRoles = []string{models.RoleAdmin, models.RoleManager}

// Notifier relaie les événements métier vers le hub, FCM et Slack
type Notifier struct {
	hub     Publisher
	devices DeviceTokenStore
	push    pushSender
	slack   syncAlerter
	now     func() time.Time
}

// NewNotifier crée un Notifier; devices, push et slack peuvent être nil
func NewNotifier(hub Publisher, devices DeviceTokenStore, push *FCMService, slack *SlackService) *Notifier {
	n := &Notifier{hub: hub, devices: devices, now: time.Now}
	if push != nil {
		n.push = push
	}
	if slack != nil {
		n.slack = slack
	}
	return n
}

func (n *Notifier) publish(kind string, data interface{}, roles []string) {
	if n == nil || n.hub == nil {
		return
	}
	n.hub.Publish(models.Notification{Type: kind, Data: data, At: n.now().UTC(), Roles: roles})
}

// OfferUsed signale l'utilisation d'une offre
func (n *Notifier) OfferUsed(offer *models.Offer, userID string) {
	n.publish(models.EventOfferUsed, map[string]interface{}{
		"offer_id":   offer.ID.Hex(),
		"title":      offer.Title,
		"uses_count": offer.UsesCount,
		"max_uses":   offer.MaxUses,
		"user_id":    userID,
	}, nil)
}

// SmartLinkPublished signale la publication d'un SmartLink
func (n *Notifier) SmartLinkPublished(link *models.SmartLink) {
	n.publish(models.EventSmartLinkPublished, map[string]interface{}{
		"smartlink_id": link.ID.Hex(),
		"slug":         link.Slug,
		"title":        link.Title,
	}, nil)
}

// SyncFinished diffuse la fin d'une synchronisation aux admins et managers,
// pousse une notification sur leurs appareils et alerte Slack en cas d'échec
func (n *Notifier) SyncFinished(ctx context.Context, run *models.SyncRun) {
	if n == nil {
		return
	}
	n.publish(models.EventSyncFinished, run, staffRoles)

	if run.Status == models.SyncFailed && n.slack != nil {
		n.slack.SendSyncFailure(ctx, run)
	}
	n.pushSyncResult(ctx, run)
}

func (n *Notifier) pushSyncResult(ctx context.Context, run *models.SyncRun) {
	if n.push == nil || !n.push.Enabled() || n.devices == nil {
		return
	}

	tokens, err := n.devices.TokensByRoles(ctx, staffRoles)
	if err != nil {
		log.Printf("❌ Erreur récupération des appareils à notifier: %v", err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	title := "✅ Synchronisation Salesforce terminée"
	body := fmt.Sprintf("%d prestataire(s) et %d offre(s) traités",
		run.Providers.Created+run.Providers.Updated, run.Offers.Created+run.Offers.Updated)
	if run.Status == models.SyncFailed {
		title = "🚨 Synchronisation Salesforce en échec"
		body = run.Error
	}

	result := n.push.SendToAll(ctx, tokens, title, body, map[string]string{
		"type":   models.EventSyncFinished,
		"run_id": run.ID.Hex(),
		"status": run.Status,
	})
	if len(result.FailedTokens) > 0 {
		if err := n.devices.DeleteTokens(ctx, result.FailedTokens); err != nil {
			log.Printf("⚠️  Impossible de purger %d token(s) invalides: %v", len(result.FailedTokens), err)
		} else {
			log.Printf("🧹 %d token(s) FCM invalides supprimés", len(result.FailedTokens))
		}
	}
}
