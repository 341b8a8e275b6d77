package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	t.Run("erreur sans JWT_SECRET", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := Load()
		if err == nil {
			t.Fatal("Load() devrait échouer sans JWT_SECRET")
		}
		if err.Error() != "JWT_SECRET est requis" {
			t.Errorf("Load() erreur = %v, attendu 'JWT_SECRET est requis'", err)
		}
	})

	t.Run("valeurs par défaut", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("PORT", "")
		t.Setenv("CACHE_TTL", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() erreur = %v", err)
		}
		if cfg.Port != "8090" {
			t.Errorf("Port = %v, attendu 8090 (défaut)", cfg.Port)
		}
		if cfg.CacheTTL != time.Minute {
			t.Errorf("CacheTTL = %v, attendu 1m", cfg.CacheTTL)
		}
		if cfg.Salesforce.LockTTL != 5*time.Minute {
			t.Errorf("LockTTL = %v, attendu 5m", cfg.Salesforce.LockTTL)
		}
		if cfg.RedisAddr() != "localhost:6379" {
			t.Errorf("RedisAddr = %v", cfg.RedisAddr())
		}
	})

	t.Run("MONGO_URI accepté comme alias", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("MONGODB_URI", "")
		t.Setenv("MONGO_URI", "mongodb://legacy:27017")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() erreur = %v", err)
		}
		if cfg.MongoURI != "mongodb://legacy:27017" {
			t.Errorf("MongoURI = %v", cfg.MongoURI)
		}
	})

	t.Run("durées et entiers depuis env", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("RATE_LIMIT_MAX", "7")
		t.Setenv("RATE_LIMIT_WINDOW", "30s")
		t.Setenv("REDIS_DB", "pas-un-nombre")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() erreur = %v", err)
		}
		if cfg.RateLimitMax != 7 || cfg.RateLimitWindow != 30*time.Second {
			t.Errorf("rate limit = %d/%v", cfg.RateLimitMax, cfg.RateLimitWindow)
		}
		if cfg.RedisDB != 0 {
			t.Errorf("RedisDB = %d, attendu 0 quand la valeur est invalide", cfg.RedisDB)
		}
	})

	t.Run("CORS parsing", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.com, http://b.com , ,c.com")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() erreur = %v", err)
		}
		if len(cfg.CORSOrigins) != 3 {
			t.Errorf("CORSOrigins = %v, attendu 3 éléments", cfg.CORSOrigins)
		}
	})

	t.Run("cron Salesforce désactivable", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret")
		t.Setenv("SALESFORCE_SYNC_CRON", "")
		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() erreur = %v", err)
		}
		if cfg.Salesforce.SyncCron != "" {
			t.Errorf("SyncCron = %q, attendu vide", cfg.Salesforce.SyncCron)
		}
	})
}

func TestSalesforceEnabled(t *testing.T) {
	cfg := &Config{}
	if cfg.SalesforceEnabled() {
		t.Error("SalesforceEnabled() devrait être false sans identifiants")
	}
	cfg.Salesforce = SalesforceConfig{ClientID: "id", Username: "u", Password: "p"}
	if !cfg.SalesforceEnabled() {
		t.Error("SalesforceEnabled() devrait être true avec identifiants")
	}
}

func TestLoadCLISansJWT(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	cfg, err := LoadCLI()
	if err != nil {
		t.Fatalf("LoadCLI() erreur = %v", err)
	}
	if cfg.MongoDB == "" {
		t.Error("MongoDB ne doit pas être vide")
	}
}
