package models

import (
	"strings"
	"time"

	"offerhub-backend/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DevicePlatforms liste les plateformes de notification acceptées
var DevicePlatforms = []string{"ios", "android", "web"}

// DeviceToken représente un token FCM enregistré pour un utilisateur
type DeviceToken struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID    primitive.ObjectID `json:"user_id" bson:"user_id"`
	Role      string             `json:"role" bson:"role"`
	Token     string             `json:"token" bson:"token"`
	Platform  string             `json:"platform" bson:"platform"`
	UserAgent string             `json:"user_agent,omitempty" bson:"user_agent,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// DeviceRequest est le corps de POST /api/devices
type DeviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

// Validate valide la requête d'enregistrement
func (r *DeviceRequest) Validate() error {
	r.Token = strings.TrimSpace(r.Token)
	r.Platform = strings.ToLower(strings.TrimSpace(r.Platform))
	if r.Platform == "" {
		r.Platform = "web"
	}
	var errs utils.ValidationErrors
	errs.Add(utils.ValidateLength("token", r.Token, 1, 4096))
	errs.Add(utils.ValidateEnum("platform", r.Platform, DevicePlatforms))
	return errs.OrNil()
}

// PushResult résume un envoi FCM
type PushResult struct {
	Success      int      `json:"success"`
	Failed       int      `json:"failed"`
	FailedTokens []string `json:"failed_tokens,omitempty"`
}
