package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"offerhub-backend/constants"
	"offerhub-backend/models"
)

const slackFooter = "OfferHub - Backend"

// SlackService gère l'envoi de notifications Slack
type SlackService struct {
	webhookURL string
	client     *http.Client
}

// SlackMessage représente un message Slack
type SlackMessage struct {
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment représente une pièce jointe Slack
type Attachment struct {
	Color     string  `json:"color,omitempty"`
	Title     string  `json:"title,omitempty"`
	Text      string  `json:"text,omitempty"`
	Fields    []Field `json:"fields,omitempty"`
	Timestamp int64   `json:"ts,omitempty"`
	Footer    string  `json:"footer,omitempty"`
}

// Field représente un champ dans une pièce jointe Slack
type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// NewSlackService crée une nouvelle instance de SlackService
func NewSlackService(webhookURL string) *SlackService {
	if webhookURL == "" {
		log.Println("⚠️  Slack webhook URL non configuré - notifications Slack désactivées")
	}
	return &SlackService{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

// Enabled indique si un webhook est configuré
func (s *SlackService) Enabled() bool {
	return s != nil && s.webhookURL != ""
}

// post envoie le message au webhook
func (s *SlackService) post(ctx context.Context, msg SlackMessage) error {
	if !s.Enabled() {
		return nil
	}

	jsonData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("erreur lors de la sérialisation du message Slack: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("erreur lors de la création de la requête: %w", err)
	}
	req.Header.Set(constants.HeaderContentType, constants.HeaderApplicationJSON)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("erreur lors de l'envoi à Slack: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Slack a retourné un code d'erreur: %d", resp.StatusCode)
	}
	return nil
}

// SendErrorNotification envoie une notification d'erreur HTTP sur Slack
func (s *SlackService) SendErrorNotification(ctx context.Context, errorType, method, path string, statusCode int, message, origin, requestID string) error {
	color := "danger"
	if statusCode == http.StatusForbidden {
		color = "warning"
	}

	fields := []Field{
		{Title: "Méthode", Value: method, Short: true},
		{Title: "Status Code", Value: strconv.Itoa(statusCode), Short: true},
		{Title: "Chemin", Value: path, Short: false},
	}
	if origin != "" {
		fields = append(fields, Field{Title: "Origin", Value: origin, Short: true})
	}
	if requestID != "" {
		fields = append(fields, Field{Title: "Request ID", Value: requestID, Short: true})
	}

	err := s.post(ctx, SlackMessage{Attachments: []Attachment{{
		Color:     color,
		Title:     fmt.Sprintf("🚨 Erreur serveur: %s", errorType),
		Text:      message,
		Timestamp: time.Now().Unix(),
		Footer:    slackFooter,
		Fields:    fields,
	}}})
	if err == nil && s.Enabled() {
		log.Printf("✓ Notification Slack envoyée pour l'erreur: %s %s", method, path)
	}
	return err
}

// SendHTTPError signale une réponse 5xx ou 403 (appelé par le middleware de logging)
func (s *SlackService) SendHTTPError(ctx context.Context, method, path string, statusCode int, origin, requestID string) {
	errorType, message := "Erreur Critique", http.StatusText(statusCode)
	if statusCode == http.StatusForbidden {
		errorType, message = "Accès refusé", fmt.Sprintf("Requête refusée (origine: %s)", origin)
	}
	if err := s.SendErrorNotification(ctx, errorType, method, path, statusCode, message, origin, requestID); err != nil {
		log.Printf("❌ Erreur lors de l'envoi de la notification Slack: %v", err)
	}
}

// SendSyncFailure signale une synchronisation Salesforce en échec
func (s *SlackService) SendSyncFailure(ctx context.Context, run *models.SyncRun) {
	err := s.post(ctx, SlackMessage{Attachments: []Attachment{{
		Color:     "danger",
		Title:     "🚨 Synchronisation Salesforce en échec",
		Text:      run.Error,
		Timestamp: time.Now().Unix(),
		Footer:    slackFooter,
		Fields: []Field{
			{Title: "Run", Value: run.ID.Hex(), Short: true},
			{Title: "Déclencheur", Value: run.Trigger, Short: true},
			{Title: "Prestataires", Value: formatCounters(run.Providers), Short: false},
			{Title: "Offres", Value: formatCounters(run.Offers), Short: false},
		},
	}}})
	if err != nil {
		log.Printf("❌ Erreur lors de l'envoi de la notification Slack: %v", err)
	}
}

func formatCounters(c models.SyncCounters) string {
	return fmt.Sprintf("lus %d · créés %d · mis à jour %d · ignorés %d · en échec %d", c.Fetched, c.Created, c.Updated, c.Skipped, c.Failed)
}
