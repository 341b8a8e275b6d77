package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"offerhub-backend/cache"
	"offerhub-backend/middleware"
	"offerhub-backend/models"
	"offerhub-backend/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// newTestCache retourne un cache JSON branché sur un Redis en mémoire
func newTestCache(t *testing.T) (*miniredis.Miniredis, *cache.JSONCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, cache.NewJSONCache(client, time.Minute)
}

func claimsFor(id primitive.ObjectID, role string) *utils.Claims {
	return &utils.Claims{UserID: id.Hex(), Email: role + "@offerhub.test", Role: role}
}

// newRequest construit une requête JSON avec claims et variables de route
func newRequest(t *testing.T, method, target string, body interface{}, claims *utils.Claims, vars map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	if claims != nil {
		req = req.WithContext(middleware.WithClaims(req.Context(), claims))
	}
	if vars != nil {
		req = mux.SetURLVars(req, vars)
	}
	return req
}

// decodeData lit le champ data d'une réponse de succès
func decodeData(t *testing.T, rr *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &envelope), rr.Body.String())
	require.True(t, envelope.Success, rr.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

func jsonUnmarshal(rr *httptest.ResponseRecorder, dest interface{}) error {
	return json.Unmarshal(rr.Body.Bytes(), dest)
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body utils.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return body.Message
}

type memoryUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[primitive.ObjectID]*models.User)}
}

func (m *memoryUsers) Create(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return models.ErrDuplicate
		}
	}
	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memoryUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memoryUsers) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (m *memoryUsers) List(ctx context.Context, q utils.ListQuery) ([]models.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, int64(len(out)), nil
}

func (m *memoryUsers) Update(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.ID]; !ok {
		return models.ErrNotFound
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memoryUsers) TouchLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.LastLoginAt = &at
		return nil
	}
	return models.ErrNotFound
}

func (m *memoryUsers) Delete(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

type memoryProviders struct {
	mu        sync.Mutex
	providers map[primitive.ObjectID]models.Provider
}

func newMemoryProviders() *memoryProviders {
	return &memoryProviders{providers: make(map[primitive.ObjectID]models.Provider)}
}

func (m *memoryProviders) Create(ctx context.Context, p *models.Provider) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = primitive.NewObjectID()
	m.providers[p.ID] = *p
	return nil
}

func (m *memoryProviders) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Provider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.providers[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (m *memoryProviders) List(ctx context.Context, q utils.ListQuery) ([]models.Provider, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Provider, 0, len(m.providers))
	for _, p := range m.providers {
		if status := q.Filter("status"); status != "" && p.Status != status {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, int64(len(out)), nil
}

func (m *memoryProviders) Update(ctx context.Context, p *models.Provider) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.providers[p.ID]; !ok {
		return models.ErrNotFound
	}
	m.providers[p.ID] = *p
	return nil
}

func (m *memoryProviders) Delete(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.providers[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.providers, id)
	return nil
}

type memoryOffers struct {
	mu         sync.Mutex
	offers     map[primitive.ObjectID]models.Offer
	usages     []models.OfferUsage
	statsCalls int
}

func newMemoryOffers() *memoryOffers {
	return &memoryOffers{offers: make(map[primitive.ObjectID]models.Offer)}
}

func (m *memoryOffers) Create(ctx context.Context, o *models.Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.offers {
		if o.Code != "" && existing.Code == o.Code {
			return models.ErrDuplicate
		}
	}
	o.ID = primitive.NewObjectID()
	o.UsesCount = 0
	m.offers[o.ID] = *o
	return nil
}

func (m *memoryOffers) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.offers[id]; ok {
		return &o, nil
	}
	return nil, nil
}

func (m *memoryOffers) FindWithProvider(ctx context.Context, id primitive.ObjectID) (*models.OfferWithProvider, error) {
	o, err := m.FindByID(ctx, id)
	if o == nil || err != nil {
		return nil, err
	}
	return &models.OfferWithProvider{Offer: *o}, nil
}

func (m *memoryOffers) List(ctx context.Context, q utils.ListQuery, now time.Time) ([]models.OfferWithProvider, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.OfferWithProvider, 0, len(m.offers))
	for _, o := range m.offers {
		if q.Filter("active") == "true" && o.UsableAt(now) != nil {
			continue
		}
		out = append(out, models.OfferWithProvider{Offer: o})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, int64(len(out)), nil
}

func (m *memoryOffers) Update(ctx context.Context, o *models.Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.offers[o.ID]
	if !ok {
		return models.ErrNotFound
	}
	o.UsesCount = existing.UsesCount
	m.offers[o.ID] = *o
	return nil
}

func (m *memoryOffers) Delete(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.offers[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.offers, id)
	return nil
}

func (m *memoryOffers) CountByProvider(ctx context.Context, providerID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, o := range m.offers {
		if o.ProviderID == providerID {
			n++
		}
	}
	return n, nil
}

func (m *memoryOffers) Use(ctx context.Context, id, userID primitive.ObjectID, now time.Time) (*models.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.offers[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if err := o.UsableAt(now); err != nil {
		return nil, err
	}
	o.UsesCount++
	m.offers[id] = o
	m.usages = append(m.usages, models.OfferUsage{OfferID: id, UserID: userID, UsedAt: now})
	return &o, nil
}

func (m *memoryOffers) Stats(ctx context.Context) (*models.OfferStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statsCalls++
	stats := &models.OfferStats{ByStatus: map[string]int64{}, GeneratedAt: time.Now().UTC()}
	for _, o := range m.offers {
		stats.Total++
		stats.ByStatus[o.Status]++
		stats.TotalUses += int64(o.UsesCount)
	}
	return stats, nil
}

type memoryArtists struct {
	mu      sync.Mutex
	artists map[primitive.ObjectID]models.Artist
}

func newMemoryArtists() *memoryArtists {
	return &memoryArtists{artists: make(map[primitive.ObjectID]models.Artist)}
}

func (m *memoryArtists) Create(ctx context.Context, a *models.Artist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.artists {
		if existing.Slug == a.Slug {
			return models.ErrDuplicate
		}
	}
	a.ID = primitive.NewObjectID()
	m.artists[a.ID] = *a
	return nil
}

func (m *memoryArtists) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Artist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.artists[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (m *memoryArtists) List(ctx context.Context, q utils.ListQuery) ([]models.Artist, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Artist, 0, len(m.artists))
	for _, a := range m.artists {
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

func (m *memoryArtists) Update(ctx context.Context, a *models.Artist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.artists[a.ID]; !ok {
		return models.ErrNotFound
	}
	m.artists[a.ID] = *a
	return nil
}

func (m *memoryArtists) Delete(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.artists[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.artists, id)
	return nil
}

type memorySmartLinks struct {
	mu        sync.Mutex
	links     map[primitive.ObjectID]models.SmartLink
	slugReads int
	// beforeUpdate s'exécute entre la lecture du handler et l'écriture
	beforeUpdate func()
}

func newMemorySmartLinks() *memorySmartLinks {
	return &memorySmartLinks{links: make(map[primitive.ObjectID]models.SmartLink)}
}

func (m *memorySmartLinks) Create(ctx context.Context, s *models.SmartLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.links {
		if existing.Slug == s.Slug {
			return models.ErrDuplicate
		}
	}
	s.ID = primitive.NewObjectID()
	m.links[s.ID] = *s
	return nil
}

func (m *memorySmartLinks) FindByID(ctx context.Context, id primitive.ObjectID) (*models.SmartLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.links[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (m *memorySmartLinks) FindWithArtist(ctx context.Context, id primitive.ObjectID) (*models.SmartLinkWithArtist, error) {
	s, err := m.FindByID(ctx, id)
	if s == nil || err != nil {
		return nil, err
	}
	return &models.SmartLinkWithArtist{SmartLink: *s}, nil
}

func (m *memorySmartLinks) FindPublishedBySlug(ctx context.Context, slug string) (*models.SmartLinkWithArtist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slugReads++
	for _, s := range m.links {
		if s.Slug == slug && s.IsPublished() {
			return &models.SmartLinkWithArtist{SmartLink: s}, nil
		}
	}
	return nil, nil
}

func (m *memorySmartLinks) List(ctx context.Context, q utils.ListQuery) ([]models.SmartLinkWithArtist, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.SmartLinkWithArtist, 0, len(m.links))
	for _, s := range m.links {
		out = append(out, models.SmartLinkWithArtist{SmartLink: s})
	}
	return out, int64(len(out)), nil
}

// Update reprend les compteurs stockés comme le fait le repository Mongo
func (m *memorySmartLinks) Update(ctx context.Context, s *models.SmartLink) error {
	if m.beforeUpdate != nil {
		m.beforeUpdate()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.links[s.ID]
	if !ok {
		return models.ErrNotFound
	}
	clicks := make(map[string]int64, len(stored.Platforms))
	for _, p := range stored.Platforms {
		clicks[p.Platform] = p.Clicks
	}
	platforms := make([]models.PlatformLink, len(s.Platforms))
	for i, p := range s.Platforms {
		platforms[i] = models.PlatformLink{Platform: p.Platform, URL: p.URL, Clicks: clicks[p.Platform]}
	}
	s.Platforms = platforms
	s.Clicks = stored.Clicks
	m.links[s.ID] = *s
	return nil
}

func (m *memorySmartLinks) Delete(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.links[id]; !ok {
		return models.ErrNotFound
	}
	delete(m.links, id)
	return nil
}

func (m *memorySmartLinks) CountByArtist(ctx context.Context, artistID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.links {
		if s.ArtistID == artistID {
			n++
		}
	}
	return n, nil
}

func (m *memorySmartLinks) RecordClick(ctx context.Context, slug, platform string) (*models.SmartLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.links {
		if s.Slug != slug || !s.IsPublished() {
			continue
		}
		for i := range s.Platforms {
			if s.Platforms[i].Platform == platform {
				s.Platforms[i].Clicks++
				s.Clicks++
				m.links[id] = s
				return &s, nil
			}
		}
		return nil, models.ErrSmartLinkNoTarget
	}
	return nil, models.ErrNotFound
}

func (m *memorySmartLinks) Stats(ctx context.Context) (*models.SmartLinkStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &models.SmartLinkStats{ClicksByPlatform: map[string]int64{}}
	for _, s := range m.links {
		stats.TotalLinks++
		stats.TotalClicks += s.Clicks
		for _, p := range s.Platforms {
			stats.ClicksByPlatform[p.Platform] += p.Clicks
		}
	}
	return stats, nil
}

type memoryReports struct {
	mu           sync.Mutex
	events       []models.ReportEvent
	summaryCalls int
	lastFrom     time.Time
	lastTo       time.Time
}

func (m *memoryReports) InsertMany(ctx context.Context, events []models.ReportEvent) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return len(events), nil
}

func (m *memoryReports) List(ctx context.Context, q utils.ListQuery) ([]models.ReportEvent, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.ReportEvent(nil), m.events...), int64(len(m.events)), nil
}

func (m *memoryReports) Summary(ctx context.Context, from, to time.Time) (*models.ReportSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.summaryCalls++
	m.lastFrom, m.lastTo = from, to
	return &models.ReportSummary{From: from, To: to, Total: int64(len(m.events)), Rows: []models.ReportSummaryRow{}}, nil
}

type memoryDevices struct {
	mu      sync.Mutex
	devices map[string]models.DeviceToken
}

func (m *memoryDevices) Upsert(ctx context.Context, d *models.DeviceToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.devices == nil {
		m.devices = make(map[string]models.DeviceToken)
	}
	m.devices[d.Token] = *d
	return nil
}

func (m *memoryDevices) Delete(ctx context.Context, userID primitive.ObjectID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.devices[token]
	if !ok || d.UserID != userID {
		return models.ErrNotFound
	}
	delete(m.devices, token)
	return nil
}

type recordingEvents struct {
	mu        sync.Mutex
	used      []string
	published []string
}

func (r *recordingEvents) OfferUsed(offer *models.Offer, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.used = append(r.used, offer.ID.Hex()+":"+userID)
}

func (r *recordingEvents) SmartLinkPublished(link *models.SmartLink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published = append(r.published, link.Slug)
}
