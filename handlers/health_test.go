package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHealthHandlerHealth(t *testing.T) {
	handler := NewHealthHandler("test", map[string]HealthCheck{
		"mongodb": func(ctx context.Context) error { return nil },
	})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rr := httptest.NewRecorder()

	handler.Health(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Health() status = %v, want %v", rr.Code, http.StatusOK)
	}

	ct := rr.Header().Get("Content-Type")
	if ct != "application/json" {
		t.Errorf("Health() Content-Type = %v, want application/json", ct)
	}

	body := rr.Body.String()
	expectedKeys := []string{"status", "env", "uptime", "go_version", "mongodb"}
	for _, key := range expectedKeys {
		if !strings.Contains(body, key) {
			t.Errorf("Health() body should contain %q, got %s", key, body)
		}
	}
}

func TestHealthHandlerDegraded(t *testing.T) {
	handler := NewHealthHandler("test", map[string]HealthCheck{
		"mongodb": func(ctx context.Context) error { return nil },
		"redis":   func(ctx context.Context) error { return errors.New("connection refused") },
	})

	rr := httptest.NewRecorder()
	handler.Health(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Health() status = %v, want 200", rr.Code)
	}
	var body struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("body JSON invalide: %v", err)
	}
	if body.Status != "degraded" {
		t.Errorf("status = %q, attendu degraded", body.Status)
	}
	if body.Dependencies["redis"] != "error" || body.Dependencies["mongodb"] != "ok" {
		t.Errorf("dependencies = %v", body.Dependencies)
	}
}
