package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contient toutes les configurations de l'application
type Config struct {
	Port        string
	Host        string
	Environment string
	CORSOrigins []string

	MongoURI string
	MongoDB  string

	JWTSecret string
	JWTTTL    time.Duration

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	CacheTTL                time.Duration
	RateLimitMax            int
	RateLimitWindow         time.Duration
	RateLimitStatsRetention time.Duration

	Salesforce SalesforceConfig

	SlackWebhookURL         string
	FirebaseCredentialsFile string
	FirebaseCredentialsJSON string
}

// SalesforceConfig regroupe les identifiants et réglages de la synchronisation CRM
type SalesforceConfig struct {
	LoginURL          string
	ClientID          string
	ClientSecret      string
	Username          string
	Password          string
	SecurityToken     string
	APIVersion        string
	SyncCron          string
	LockTTL           time.Duration
	RequestsPerSecond float64
}

// Load charge la configuration depuis les variables d'environnement
func Load() (*Config, error) {
	config, err := LoadCLI()
	if err != nil {
		return nil, err
	}
	if config.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET est requis")
	}
	return config, nil
}

// LoadCLI charge la configuration sans exiger JWT_SECRET (outils en ligne de commande)
func LoadCLI() (*Config, error) {
	// Charger le fichier .env s'il existe
	_ = godotenv.Load()

	config := &Config{
		Port:        getEnv("PORT", "8090"),
		Host:        getEnv("HOST", "0.0.0.0"),
		Environment: getEnv("ENVIRONMENT", "development"),
		CORSOrigins: getSliceEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),

		MongoURI: getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017")),
		MongoDB:  getEnv("MONGODB_DB", "offerhub"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTTTL:    getDurationEnv("JWT_TTL", 24*time.Hour),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		CacheTTL:                getDurationEnv("CACHE_TTL", time.Minute),
		RateLimitMax:            getIntEnv("RATE_LIMIT_MAX", 100),
		RateLimitWindow:         getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitStatsRetention: getDurationEnv("RATE_LIMIT_STATS_RETENTION", 24*time.Hour),

		Salesforce: SalesforceConfig{
			LoginURL:          getEnv("SALESFORCE_LOGIN_URL", "https://login.salesforce.com"),
			ClientID:          getEnv("SALESFORCE_CLIENT_ID", ""),
			ClientSecret:      getEnv("SALESFORCE_CLIENT_SECRET", ""),
			Username:          getEnv("SALESFORCE_USERNAME", ""),
			Password:          getEnv("SALESFORCE_PASSWORD", ""),
			SecurityToken:     getEnv("SALESFORCE_SECURITY_TOKEN", ""),
			APIVersion:        getEnv("SALESFORCE_API_VERSION", "v59.0"),
			SyncCron:          os.Getenv("SALESFORCE_SYNC_CRON"),
			LockTTL:           getDurationEnv("SALESFORCE_SYNC_LOCK_TTL", 5*time.Minute),
			RequestsPerSecond: getFloatEnv("SALESFORCE_REQUESTS_PER_SECOND", 5),
		},

		SlackWebhookURL:         getEnv("SLACK_WEBHOOK_URL", ""),
		FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		FirebaseCredentialsJSON: getEnv("FIREBASE_CREDENTIALS_JSON", ""),
	}

	if _, set := os.LookupEnv("SALESFORCE_SYNC_CRON"); !set {
		config.Salesforce.SyncCron = "@every 1h"
	}

	// Valider les configurations critiques
	if config.RateLimitMax <= 0 {
		return nil, fmt.Errorf("RATE_LIMIT_MAX doit être positif")
	}

	return config, nil
}

// RedisAddr retourne l'adresse host:port de Redis
func (c *Config) RedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// SalesforceEnabled indique si les identifiants Salesforce sont configurés
func (c *Config) SalesforceEnabled() bool {
	sf := c.Salesforce
	return sf.ClientID != "" && sf.Username != "" && sf.Password != ""
}

// PushEnabled indique si des identifiants Firebase sont fournis
func (c *Config) PushEnabled() bool {
	return c.FirebaseCredentialsFile != "" || c.FirebaseCredentialsJSON != ""
}

// IsProduction retourne true en production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv récupère une variable d'environnement avec une valeur par défaut
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getSliceEnv découpe une liste séparée par des virgules en ignorant les entrées vides
func getSliceEnv(key, defaultValue string) []string {
	raw := strings.Split(getEnv(key, defaultValue), ",")
	values := make([]string, 0, len(raw))
	for _, item := range raw {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
