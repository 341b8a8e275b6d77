package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"offerhub-backend/config"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// errSessionExpired déclenche une réauthentification
var errSessionExpired = errors.New("session Salesforce expirée")

// SalesforceError est une erreur renvoyée par l'API REST Salesforce
type SalesforceError struct {
	StatusCode int
	ErrorCode  string `json:"errorCode"`
	Message    string `json:"message"`
}

func (e *SalesforceError) Error() string {
	return fmt.Sprintf("salesforce %d %s: %s", e.StatusCode, e.ErrorCode, e.Message)
}

// queryResponse est une page de résultat SOQL
type queryResponse struct {
	TotalSize      int               `json:"totalSize"`
	Done           bool              `json:"done"`
	NextRecordsURL string            `json:"nextRecordsUrl"`
	Records        []json.RawMessage `json:"records"`
}

// SalesforceClient interroge l'API REST Salesforce (OAuth2 password grant)
type SalesforceClient struct {
	oauth      *oauth2.Config
	username   string
	password   string
	apiVersion string
	httpClient *http.Client
	limiter    *rate.Limiter

	mu          sync.Mutex
	token       *oauth2.Token
	instanceURL string
}

// NewSalesforceClient crée un client; l'authentification est faite à la première requête
func NewSalesforceClient(cfg config.SalesforceConfig) *SalesforceClient {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &SalesforceClient{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  strings.TrimRight(cfg.LoginURL, "/") + "/services/oauth2/token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		username:   cfg.Username,
		password:   cfg.Password + cfg.SecurityToken,
		apiVersion: cfg.APIVersion,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// session retourne un token valide, en s'authentifiant si besoin
func (c *SalesforceClient) session(ctx context.Context, renew bool) (*oauth2.Token, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != nil && !renew {
		return c.token, c.instanceURL, nil
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tok, err := c.oauth.PasswordCredentialsToken(ctx, c.username, c.password)
	if err != nil {
		return nil, "", fmt.Errorf("authentification Salesforce: %w", err)
	}
	instanceURL, _ := tok.Extra("instance_url").(string)
	if instanceURL == "" {
		return nil, "", fmt.Errorf("authentification Salesforce: instance_url absent de la réponse")
	}

	c.token, c.instanceURL = tok, strings.TrimRight(instanceURL, "/")
	log.Printf("✓ Authentifié sur Salesforce (%s)", c.instanceURL)
	return c.token, c.instanceURL, nil
}

// get exécute un GET authentifié; une session expirée est renouvelée une fois
func (c *SalesforceClient) get(ctx context.Context, path string, dest interface{}) error {
	err := c.doGet(ctx, path, dest, false)
	if errors.Is(err, errSessionExpired) {
		log.Println("🔄 Session Salesforce expirée, nouvelle authentification")
		err = c.doGet(ctx, path, dest, true)
	}
	return err
}

func (c *SalesforceClient) doGet(ctx context.Context, path string, dest interface{}, renew bool) error {
	tok, instanceURL, err := c.session(ctx, renew)
	if err != nil {
		return err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, instanceURL+path, nil)
	if err != nil {
		return err
	}
	tok.SetAuthHeader(req)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("requête Salesforce %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return fmt.Errorf("lecture de la réponse Salesforce: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized && !renew {
		return errSessionExpired
	}
	if resp.StatusCode >= 300 {
		return parseSalesforceError(resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("décodage de la réponse Salesforce: %w", err)
	}
	return nil
}

// parseSalesforceError lit le tableau [{errorCode, message}] renvoyé par l'API
func parseSalesforceError(status int, body []byte) error {
	var errs []SalesforceError
	if err := json.Unmarshal(body, &errs); err == nil && len(errs) > 0 {
		e := errs[0]
		e.StatusCode = status
		return &e
	}
	return &SalesforceError{StatusCode: status, ErrorCode: http.StatusText(status), Message: strings.TrimSpace(string(body))}
}

// QueryAll exécute une requête SOQL et suit nextRecordsUrl jusqu'au dernier lot
func (c *SalesforceClient) QueryAll(ctx context.Context, soql string) ([]json.RawMessage, error) {
	path := fmt.Sprintf("/services/data/%s/query?q=%s", c.apiVersion, url.QueryEscape(soql))

	var records []json.RawMessage
	for {
		var res queryResponse
		if err := c.get(ctx, path, &res); err != nil {
			return nil, err
		}
		records = append(records, res.Records...)
		if res.Done || res.NextRecordsURL == "" {
			break
		}
		path = res.NextRecordsURL
	}
	return records, nil
}
