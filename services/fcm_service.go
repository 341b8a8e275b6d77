package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"offerhub-backend/models"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// fcmBatchSize est la limite de tokens par requête multicast FCM
const fcmBatchSize = 500

// multicastSender est la partie du client messaging utilisée ici
type multicastSender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// FCMService gère l'envoi des notifications via Firebase Cloud Messaging
type FCMService struct {
	client multicastSender
}

// NewFCMService crée une nouvelle instance de FCMService.
// credentialsJSON (déploiement cloud) est prioritaire sur credentialsFile.
func NewFCMService(ctx context.Context, credentialsFile, credentialsJSON string) (*FCMService, error) {
	var opt option.ClientOption
	if credentialsJSON != "" {
		log.Println("📦 Utilisation des credentials Firebase depuis FIREBASE_CREDENTIALS_JSON")
		opt = option.WithCredentialsJSON([]byte(credentialsJSON))
	} else {
		log.Printf("📦 Utilisation des credentials Firebase depuis le fichier: %s", credentialsFile)
		opt = option.WithCredentialsFile(credentialsFile)
	}

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de l'initialisation de Firebase: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("erreur lors de la création du client FCM: %w", err)
	}

	log.Println("✓ Firebase Cloud Messaging initialisé")
	return &FCMService{client: client}, nil
}

// NewDisabledFCMService retourne un service qui n'envoie rien (credentials absents)
func NewDisabledFCMService() *FCMService {
	return &FCMService{}
}

// Enabled indique si le service peut envoyer
func (s *FCMService) Enabled() bool {
	return s != nil && s.client != nil
}

// sendBatch envoie un data message à au plus fcmBatchSize tokens
func (s *FCMService) sendBatch(ctx context.Context, tokens []string, title, body string, data map[string]string) (models.PushResult, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Uniquement des data messages, le client affiche lui-même la notification
	payload := make(map[string]string, len(data)+2)
	for k, v := range data {
		payload[k] = v
	}
	payload["title"] = title
	payload["message"] = body

	message := &messaging.MulticastMessage{
		Data:   payload,
		Tokens: tokens,
		Webpush: &messaging.WebpushConfig{
			Headers: map[string]string{"Urgency": "high"},
		},
	}

	response, err := s.client.SendEachForMulticast(ctx, message)
	if err != nil {
		return models.PushResult{}, fmt.Errorf("erreur lors de l'envoi multicast: %w", err)
	}

	result := models.PushResult{Success: response.SuccessCount, Failed: response.FailureCount}
	for idx, resp := range response.Responses {
		if !resp.Success {
			result.FailedTokens = append(result.FailedTokens, tokens[idx])
			log.Printf("❌ Échec pour le token %s: %v", truncateToken(tokens[idx]), resp.Error)
		}
	}
	return result, nil
}

// SendToAll envoie une notification à tous les tokens, par lots de 500
func (s *FCMService) SendToAll(ctx context.Context, tokens []string, title, body string, data map[string]string) models.PushResult {
	var total models.PushResult
	if !s.Enabled() || len(tokens) == 0 {
		return total
	}

	for i := 0; i < len(tokens); i += fcmBatchSize {
		end := i + fcmBatchSize
		if end > len(tokens) {
			end = len(tokens)
		}
		batch := tokens[i:end]

		res, err := s.sendBatch(ctx, batch, title, body, data)
		if err != nil {
			log.Printf("❌ Erreur pour le batch %d: %v", i/fcmBatchSize+1, err)
			total.Failed += len(batch)
			continue
		}
		total.Success += res.Success
		total.Failed += res.Failed
		total.FailedTokens = append(total.FailedTokens, res.FailedTokens...)
	}

	log.Printf("📊 Envoi FCM: %d succès, %d échecs sur %d total", total.Success, total.Failed, len(tokens))
	return total
}

func truncateToken(token string) string {
	if len(token) <= 20 {
		return token
	}
	return token[:20] + "..."
}
