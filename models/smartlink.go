package models

import (
	"strings"
	"time"

	"offerhub-backend/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Statuts d'un smartlink
const (
	SmartLinkDraft     = "draft"
	SmartLinkPublished = "published"
	SmartLinkArchived  = "archived"
)

var (
	SmartLinkStatuses = []string{SmartLinkDraft, SmartLinkPublished, SmartLinkArchived}
	Platforms         = []string{"spotify", "apple_music", "deezer", "youtube", "soundcloud", "amazon_music", "tidal"}
)

// PlatformLink est une destination de streaming d'un smartlink
type PlatformLink struct {
	Platform string `json:"platform" bson:"platform"`
	URL      string `json:"url" bson:"url"`
	Clicks   int64  `json:"clicks" bson:"clicks"`
}

// SmartLink est une page d'atterrissage qui redirige vers les plateformes
type SmartLink struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ArtistID    primitive.ObjectID `json:"artist_id" bson:"artist_id"`
	Title       string             `json:"title" bson:"title"`
	Slug        string             `json:"slug" bson:"slug"`
	Platforms   []PlatformLink     `json:"platforms" bson:"platforms"`
	CoverImage  string             `json:"cover_image,omitempty" bson:"cover_image,omitempty"`
	ReleaseDate *FlexibleTime      `json:"release_date,omitempty" bson:"release_date,omitempty"`
	Status      string             `json:"status" bson:"status"`
	Clicks      int64              `json:"clicks" bson:"clicks"`
	CreatedBy   primitive.ObjectID `json:"created_by,omitempty" bson:"created_by,omitempty"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// SmartLinkWithArtist est la forme renvoyée par l'API avec l'artiste peuplé
type SmartLinkWithArtist struct {
	SmartLink `bson:",inline"`
	Artist    *Artist `json:"artist,omitempty" bson:"artist,omitempty"`
}

// IsPublished indique si le lien est visible publiquement
func (s *SmartLink) IsPublished() bool {
	return s.Status == SmartLinkPublished
}

// PlatformURL retourne l'URL de la plateforme demandée
func (s *SmartLink) PlatformURL(platform string) (string, bool) {
	for _, p := range s.Platforms {
		if p.Platform == platform {
			return p.URL, true
		}
	}
	return "", false
}

// Normalize dérive le slug du titre quand il est vide
func (s *SmartLink) Normalize() {
	s.Title = strings.TrimSpace(s.Title)
	s.Slug = strings.TrimSpace(s.Slug)
	if s.Slug == "" {
		s.Slug = utils.Slugify(s.Title)
	}
	if s.Status == "" {
		s.Status = SmartLinkDraft
	}
	for i := range s.Platforms {
		s.Platforms[i].Platform = strings.ToLower(strings.TrimSpace(s.Platforms[i].Platform))
		s.Platforms[i].URL = strings.TrimSpace(s.Platforms[i].URL)
	}
	if s.Platforms == nil {
		s.Platforms = []PlatformLink{}
	}
}

// Validate vérifie les contraintes de schéma du smartlink
func (s *SmartLink) Validate() error {
	var errs utils.ValidationErrors
	if s.ArtistID.IsZero() {
		errs.Add(utils.ValidationError{Field: "artist_id", Message: "l'artiste est requis"})
	}
	errs.Add(utils.ValidateLength("title", s.Title, 1, 150))
	errs.Add(utils.ValidateSlug("slug", s.Slug))
	errs.Add(utils.ValidateURL("cover_image", s.CoverImage))
	errs.Add(utils.ValidateEnum("status", s.Status, SmartLinkStatuses))

	seen := make(map[string]bool, len(s.Platforms))
	for _, p := range s.Platforms {
		if err := utils.ValidateEnum("platforms.platform", p.Platform, Platforms); err != nil {
			errs.Add(err)
			continue
		}
		if seen[p.Platform] {
			errs.Add(utils.ValidationError{Field: "platforms", Message: "plateforme en double: " + p.Platform})
		}
		seen[p.Platform] = true
		if p.URL == "" {
			errs.Add(utils.ValidationError{Field: "platforms.url", Message: "URL requise pour " + p.Platform})
		} else {
			errs.Add(utils.ValidateURL("platforms.url", p.URL))
		}
	}
	if s.Status == SmartLinkPublished && len(s.Platforms) == 0 {
		errs.Add(utils.ValidationError{Field: "platforms", Message: "au moins une plateforme est requise pour publier"})
	}
	return errs.OrNil()
}

// SmartLinkRequest est le corps des requêtes de création et de mise à jour
type SmartLinkRequest struct {
	ArtistID    *string        `json:"artist_id"`
	Title       *string        `json:"title"`
	Slug        *string        `json:"slug"`
	Platforms   []PlatformLink `json:"platforms"`
	CoverImage  *string        `json:"cover_image"`
	ReleaseDate *FlexibleTime  `json:"release_date"`
	Status      *string        `json:"status"`
}

// ApplyTo reporte les champs fournis, normalise puis valide.
// Les compteurs de clics existants sont conservés pour les plateformes inchangées.
func (r *SmartLinkRequest) ApplyTo(s *SmartLink) error {
	if r.ArtistID != nil {
		id, err := primitive.ObjectIDFromHex(strings.TrimSpace(*r.ArtistID))
		if err != nil {
			return utils.ValidationErrors{{Field: "artist_id", Message: "identifiant d'artiste invalide"}}
		}
		s.ArtistID = id
	}
	setString(&s.Title, r.Title)
	setString(&s.Slug, r.Slug)
	setString(&s.CoverImage, r.CoverImage)
	setString(&s.Status, r.Status)
	if r.ReleaseDate != nil {
		if r.ReleaseDate.IsZero() {
			s.ReleaseDate = nil
		} else {
			rd := *r.ReleaseDate
			s.ReleaseDate = &rd
		}
	}
	if r.Platforms != nil {
		previous := make(map[string]int64, len(s.Platforms))
		for _, p := range s.Platforms {
			previous[p.Platform] = p.Clicks
		}
		platforms := make([]PlatformLink, len(r.Platforms))
		for i, p := range r.Platforms {
			p.Platform = strings.ToLower(strings.TrimSpace(p.Platform))
			p.Clicks = previous[p.Platform]
			platforms[i] = p
		}
		s.Platforms = platforms
	}
	s.Normalize()
	return s.Validate()
}

// SmartLinkClick est le corps du suivi de clic public
type SmartLinkClick struct {
	Platform string `json:"platform"`
}

// SmartLinkTop est une ligne du classement des liens les plus cliqués
type SmartLinkTop struct {
	ID     primitive.ObjectID `json:"id" bson:"_id"`
	Title  string             `json:"title" bson:"title"`
	Slug   string             `json:"slug" bson:"slug"`
	Clicks int64              `json:"clicks" bson:"clicks"`
}

// SmartLinkStats agrège les smartlinks pour le tableau de bord
type SmartLinkStats struct {
	TotalLinks       int64            `json:"total_links"`
	TotalClicks      int64            `json:"total_clicks"`
	ClicksByPlatform map[string]int64 `json:"clicks_by_platform"`
	TopLinks         []SmartLinkTop   `json:"top_links"`
	GeneratedAt      time.Time        `json:"generated_at"`
}
