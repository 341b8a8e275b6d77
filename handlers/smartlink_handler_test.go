package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"offerhub-backend/cache"
	"offerhub-backend/constants"
	"offerhub-backend/models"
	"offerhub-backend/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type smartLinkFixture struct {
	links   *memorySmartLinks
	artists *memoryArtists
	events  *recordingEvents
	cache   *cache.JSONCache
	handler *SmartLinkHandler
	artist  models.Artist
	manager *utils.Claims
}

func newSmartLinkFixture(t *testing.T) *smartLinkFixture {
	t.Helper()
	_, c := newTestCache(t)
	f := &smartLinkFixture{
		links:   newMemorySmartLinks(),
		artists: newMemoryArtists(),
		events:  &recordingEvents{},
		cache:   c,
		manager: claimsFor(primitive.NewObjectID(), models.RoleManager),
	}
	f.artist = models.Artist{Name: "Nova", Slug: "nova"}
	require.NoError(t, f.artists.Create(context.Background(), &f.artist))
	f.handler = NewSmartLinkHandler(f.links, f.artists, c, f.events)
	return f
}

func (f *smartLinkFixture) create(t *testing.T, body map[string]interface{}) models.SmartLink {
	t.Helper()
	rr := httptest.NewRecorder()
	f.handler.Create(rr, newRequest(t, http.MethodPost, "/api/smartlinks", body, f.manager, nil))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var link models.SmartLink
	decodeData(t, rr, &link)
	return link
}

func TestSmartLinkCreateDeriveSlug(t *testing.T) {
	f := newSmartLinkFixture(t)

	link := f.create(t, map[string]interface{}{
		"artist_id": f.artist.ID.Hex(),
		"title":     "Été Électrique",
		"platforms": []map[string]string{{"platform": "Spotify", "url": "https://open.spotify.com/album/1"}},
	})
	assert.Equal(t, "ete-electrique", link.Slug)
	assert.Equal(t, models.SmartLinkDraft, link.Status)
	assert.Equal(t, "spotify", link.Platforms[0].Platform)
	assert.Empty(t, f.events.published, "un brouillon n'est pas diffusé")

	// artiste inconnu
	rr := httptest.NewRecorder()
	f.handler.Create(rr, newRequest(t, http.MethodPost, "/api/smartlinks", map[string]interface{}{
		"artist_id": primitive.NewObjectID().Hex(), "title": "Autre",
	}, f.manager, nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, constants.ErrArtistNotFound, errorMessage(t, rr))
}

func TestSmartLinkPublicationDiffusee(t *testing.T) {
	f := newSmartLinkFixture(t)
	link := f.create(t, map[string]interface{}{
		"artist_id": f.artist.ID.Hex(),
		"title":     "Single",
		"slug":      "single",
		"platforms": []map[string]string{{"platform": "deezer", "url": "https://deezer.com/track/1"}},
	})

	// la page publique d'un brouillon est introuvable
	rr := httptest.NewRecorder()
	f.handler.PublicGet(rr, newRequest(t, http.MethodGet, "/api/public/smartlinks/single", nil, nil, map[string]string{"slug": "single"}))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	f.handler.Update(rr, newRequest(t, http.MethodPut, "/api/smartlinks/x", map[string]interface{}{"status": "published"}, f.manager, map[string]string{"id": link.ID.Hex()}))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, []string{"single"}, f.events.published)

	// republier ne rediffuse pas
	rr = httptest.NewRecorder()
	f.handler.Update(rr, newRequest(t, http.MethodPut, "/api/smartlinks/x", map[string]interface{}{"title": "Single (edit)"}, f.manager, map[string]string{"id": link.ID.Hex()}))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, f.events.published, 1)

	for i := 0; i < 2; i++ {
		rr = httptest.NewRecorder()
		f.handler.PublicGet(rr, newRequest(t, http.MethodGet, "/api/public/smartlinks/single", nil, nil, map[string]string{"slug": "single"}))
		require.Equal(t, http.StatusOK, rr.Code)
	}
	// 1 lecture pour le brouillon (non mis en cache) + 1 pour la version publiée
	assert.Equal(t, 2, f.links.slugReads)
}

func TestSmartLinkPublierSansPlateforme(t *testing.T) {
	f := newSmartLinkFixture(t)

	rr := httptest.NewRecorder()
	f.handler.Create(rr, newRequest(t, http.MethodPost, "/api/smartlinks", map[string]interface{}{
		"artist_id": f.artist.ID.Hex(), "title": "Vide", "status": "published",
	}, f.manager, nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSmartLinkClick(t *testing.T) {
	f := newSmartLinkFixture(t)
	f.create(t, map[string]interface{}{
		"artist_id": f.artist.ID.Hex(),
		"title":     "Album",
		"slug":      "album",
		"status":    "published",
		"platforms": []map[string]string{
			{"platform": "spotify", "url": "https://open.spotify.com/album/2"},
			{"platform": "youtube", "url": "https://youtube.com/watch?v=2"},
		},
	})
	assert.Equal(t, []string{"album"}, f.events.published)

	rr := httptest.NewRecorder()
	f.handler.Click(rr, newRequest(t, http.MethodPost, "/api/public/smartlinks/album/click", map[string]string{"platform": "YouTube"}, nil, map[string]string{"slug": "album"}))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var resp struct {
		URL    string `json:"url"`
		Clicks int64  `json:"clicks"`
	}
	decodeData(t, rr, &resp)
	assert.Equal(t, "https://youtube.com/watch?v=2", resp.URL)
	assert.EqualValues(t, 1, resp.Clicks)

	tests := []struct {
		name     string
		slug     string
		platform string
		want     int
	}{
		{"plateforme absente", "album", "tidal", http.StatusNotFound},
		{"slug inconnu", "inconnu", "spotify", http.StatusNotFound},
		{"plateforme vide", "album", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			f.handler.Click(rr, newRequest(t, http.MethodPost, "/click", map[string]string{"platform": tt.platform}, nil, map[string]string{"slug": tt.slug}))
			assert.Equal(t, tt.want, rr.Code)
		})
	}

	rr = httptest.NewRecorder()
	f.handler.Stats(rr, newRequest(t, http.MethodGet, "/api/smartlinks/stats", nil, f.manager, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var stats models.SmartLinkStats
	decodeData(t, rr, &stats)
	assert.EqualValues(t, 1, stats.TotalClicks)
	assert.EqualValues(t, 1, stats.ClicksByPlatform["youtube"])
}

func TestArtistDeleteRefuseSiSmartLinks(t *testing.T) {
	f := newSmartLinkFixture(t)
	h := NewArtistHandler(f.artists, f.links)
	link := f.create(t, map[string]interface{}{"artist_id": f.artist.ID.Hex(), "title": "Démo"})

	rr := httptest.NewRecorder()
	h.Delete(rr, newRequest(t, http.MethodDelete, "/api/artists/x", nil, f.manager, map[string]string{"id": f.artist.ID.Hex()}))
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, constants.ErrArtistInUse, errorMessage(t, rr))

	rr = httptest.NewRecorder()
	f.handler.Delete(rr, newRequest(t, http.MethodDelete, "/api/smartlinks/x", nil, f.manager, map[string]string{"id": link.ID.Hex()}))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.Delete(rr, newRequest(t, http.MethodDelete, "/api/artists/x", nil, f.manager, map[string]string{"id": f.artist.ID.Hex()}))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestArtistCreateSlugDuplique(t *testing.T) {
	f := newSmartLinkFixture(t)
	h := NewArtistHandler(f.artists, f.links)

	rr := httptest.NewRecorder()
	h.Create(rr, newRequest(t, http.MethodPost, "/api/artists", map[string]interface{}{"name": "Nova", "genres": []string{"Pop", "pop", "Électro"}}, f.manager, nil))
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, constants.ErrSlugTaken, errorMessage(t, rr))

	rr = httptest.NewRecorder()
	h.Create(rr, newRequest(t, http.MethodPost, "/api/artists", map[string]interface{}{"name": "Luna Park", "genres": []string{"Pop", "pop"}}, f.manager, nil))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var artist models.Artist
	decodeData(t, rr, &artist)
	assert.Equal(t, "luna-park", artist.Slug)
	assert.Equal(t, []string{"pop"}, artist.Genres)
	assert.Equal(t, f.manager.UserID, artist.CreatedBy.Hex())
}

func TestSmartLinkUpdateConserveClicsConcurrents(t *testing.T) {
	f := newSmartLinkFixture(t)
	link := f.create(t, map[string]interface{}{
		"artist_id": f.artist.ID.Hex(),
		"title":     "Single",
		"slug":      "single",
		"status":    "published",
		"platforms": []map[string]string{
			{"platform": "spotify", "url": "https://open.spotify.com/track/1"},
			{"platform": "deezer", "url": "https://deezer.com/track/1"},
		},
	})
	ctx := context.Background()
	_, err := f.links.RecordClick(ctx, "single", "deezer")
	require.NoError(t, err)

	// un clic arrive entre la lecture du handler et l'écriture
	f.links.beforeUpdate = func() {
		f.links.beforeUpdate = nil
		_, err := f.links.RecordClick(ctx, "single", "spotify")
		require.NoError(t, err)
	}

	rr := httptest.NewRecorder()
	f.handler.Update(rr, newRequest(t, http.MethodPut, "/api/smartlinks/"+link.ID.Hex(), map[string]interface{}{
		"platforms": []map[string]string{
			{"platform": "spotify", "url": "https://open.spotify.com/track/1-remaster"},
			{"platform": "deezer", "url": "https://deezer.com/track/1"},
			{"platform": "tidal", "url": "https://tidal.com/track/1"},
		},
	}, f.manager, map[string]string{"id": link.ID.Hex()}))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var updated models.SmartLink
	decodeData(t, rr, &updated)
	assert.EqualValues(t, 2, updated.Clicks)

	stored, err := f.links.FindByID(ctx, link.ID)
	require.NoError(t, err)
	byPlatform := map[string]int64{}
	var sum int64
	for _, p := range stored.Platforms {
		byPlatform[p.Platform] = p.Clicks
		sum += p.Clicks
	}
	assert.Equal(t, map[string]int64{"spotify": 1, "deezer": 1, "tidal": 0}, byPlatform)
	assert.Equal(t, stored.Clicks, sum, "le total doit rester égal à la somme par plateforme")
	assert.Equal(t, "https://open.spotify.com/track/1-remaster", stored.Platforms[0].URL)
}
