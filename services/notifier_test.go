package services

import (
	"context"
	"testing"
	"time"

	"offerhub-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type capturePublisher struct {
	sent []models.Notification
}

func (c *capturePublisher) Publish(n models.Notification) {
	c.sent = append(c.sent, n)
}

type fakeDevices struct {
	tokens  []string
	roles   []string
	deleted []string
}

func (f *fakeDevices) TokensByRoles(_ context.Context, roles []string) ([]string, error) {
	f.roles = roles
	return f.tokens, nil
}

func (f *fakeDevices) DeleteTokens(_ context.Context, tokens []string) error {
	f.deleted = append(f.deleted, tokens...)
	return nil
}

type fakePush struct {
	title  string
	body   string
	tokens []string
	failed []string
}

func (f *fakePush) Enabled() bool { return true }

func (f *fakePush) SendToAll(_ context.Context, tokens []string, title, body string, _ map[string]string) models.PushResult {
	f.tokens, f.title, f.body = tokens, title, body
	return models.PushResult{Success: len(tokens) - len(f.failed), Failed: len(f.failed), FailedTokens: f.failed}
}

type fakeAlerter struct {
	alerts int
}

func (f *fakeAlerter) SendSyncFailure(context.Context, *models.SyncRun) { f.alerts++ }

func newTestNotifier() (*Notifier, *capturePublisher, *fakeDevices, *fakePush, *fakeAlerter) {
	hub := &capturePublisher{}
	devices := &fakeDevices{tokens: []string{"tok-1", "tok-2"}}
	push := &fakePush{}
	alerter := &fakeAlerter{}
	n := &Notifier{
		hub:     hub,
		devices: devices,
		push:    push,
		slack:   alerter,
		now:     func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) },
	}
	return n, hub, devices, push, alerter
}

func TestNotifierOfferUsed(t *testing.T) {
	n, hub, _, push, _ := newTestNotifier()
	offer := &models.Offer{ID: primitive.NewObjectID(), Title: "Menu -20%", UsesCount: 3, MaxUses: 10}

	n.OfferUsed(offer, "user-1")

	require.Len(t, hub.sent, 1)
	assert.Equal(t, models.EventOfferUsed, hub.sent[0].Type)
	assert.Empty(t, hub.sent[0].Roles, "visible par tous les clients authentifiés")
	assert.Empty(t, push.tokens, "pas de push pour une utilisation d'offre")
}

func TestNotifierSyncFinishedSucces(t *testing.T) {
	n, hub, devices, push, alerter := newTestNotifier()
	run := &models.SyncRun{ID: primitive.NewObjectID(), Status: models.SyncSucceeded,
		Providers: models.SyncCounters{Created: 2, Updated: 1}, Offers: models.SyncCounters{Updated: 4}}

	n.SyncFinished(context.Background(), run)

	require.Len(t, hub.sent, 1)
	assert.Equal(t, models.EventSyncFinished, hub.sent[0].Type)
	assert.False(t, hub.sent[0].VisibleTo(models.RoleViewer))
	assert.True(t, hub.sent[0].VisibleTo(models.RoleManager))

	assert.ElementsMatch(t, []string{models.RoleAdmin, models.RoleManager}, devices.roles)
	assert.Equal(t, []string{"tok-1", "tok-2"}, push.tokens)
	assert.Equal(t, "3 prestataire(s) et 4 offre(s) traités", push.body)
	assert.Zero(t, alerter.alerts)
}

func TestNotifierSyncFinishedEchec(t *testing.T) {
	n, _, devices, push, alerter := newTestNotifier()
	push.failed = []string{"tok-2"}
	run := &models.SyncRun{ID: primitive.NewObjectID(), Status: models.SyncFailed, Error: "lecture des comptes: timeout"}

	n.SyncFinished(context.Background(), run)

	assert.Equal(t, 1, alerter.alerts)
	assert.Equal(t, "lecture des comptes: timeout", push.body)
	assert.Equal(t, []string{"tok-2"}, devices.deleted, "les tokens en échec sont purgés")
}

func TestNotifierNil(t *testing.T) {
	var n *Notifier
	assert.NotPanics(t, func() {
		n.SyncFinished(context.Background(), &models.SyncRun{})
		n.SmartLinkPublished(&models.SmartLink{})
	})
}
