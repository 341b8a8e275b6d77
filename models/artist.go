package models

import (
	"strings"
	"time"

	"offerhub-backend/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ArtistLinks regroupe les profils publics d'un artiste
type ArtistLinks struct {
	Instagram string `json:"instagram,omitempty" bson:"instagram,omitempty"`
	Twitter   string `json:"twitter,omitempty" bson:"twitter,omitempty"`
	Facebook  string `json:"facebook,omitempty" bson:"facebook,omitempty"`
	TikTok    string `json:"tiktok,omitempty" bson:"tiktok,omitempty"`
	Website   string `json:"website,omitempty" bson:"website,omitempty"`
}

// Artist représente un artiste géré dans le back-office SmartLink
type Artist struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name      string             `json:"name" bson:"name"`
	Slug      string             `json:"slug" bson:"slug"`
	Genres    []string           `json:"genres" bson:"genres"`
	Bio       string             `json:"bio,omitempty" bson:"bio,omitempty"`
	ImageURL  string             `json:"image_url,omitempty" bson:"image_url,omitempty"`
	Links     ArtistLinks        `json:"links" bson:"links"`
	CreatedBy primitive.ObjectID `json:"created_by,omitempty" bson:"created_by,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time          `json:"updated_at" bson:"updated_at"`
}

// Normalize dérive le slug du nom quand il est vide et dédoublonne les genres
func (a *Artist) Normalize() {
	a.Name = strings.TrimSpace(a.Name)
	a.Slug = strings.TrimSpace(a.Slug)
	if a.Slug == "" {
		a.Slug = utils.Slugify(a.Name)
	}
	seen := make(map[string]bool, len(a.Genres))
	genres := make([]string, 0, len(a.Genres))
	for _, g := range a.Genres {
		g = strings.ToLower(strings.TrimSpace(g))
		if g == "" || seen[g] {
			continue
		}
		seen[g] = true
		genres = append(genres, g)
	}
	a.Genres = genres
}

// Validate vérifie les contraintes de schéma de l'artiste
func (a *Artist) Validate() error {
	var errs utils.ValidationErrors
	errs.Add(utils.ValidateLength("name", a.Name, 1, 100))
	errs.Add(utils.ValidateSlug("slug", a.Slug))
	errs.Add(utils.ValidateLength("bio", a.Bio, 0, 1000))
	if len(a.Genres) > 10 {
		errs.Add(utils.ValidationError{Field: "genres", Message: "10 genres maximum"})
	}
	errs.Add(utils.ValidateURL("image_url", a.ImageURL))
	errs.Add(utils.ValidateURL("links.instagram", a.Links.Instagram))
	errs.Add(utils.ValidateURL("links.twitter", a.Links.Twitter))
	errs.Add(utils.ValidateURL("links.facebook", a.Links.Facebook))
	errs.Add(utils.ValidateURL("links.tiktok", a.Links.TikTok))
	errs.Add(utils.ValidateURL("links.website", a.Links.Website))
	return errs.OrNil()
}

// ArtistRequest est le corps des requêtes de création et de mise à jour
type ArtistRequest struct {
	Name     *string      `json:"name"`
	Slug     *string      `json:"slug"`
	Genres   []string     `json:"genres"`
	Bio      *string      `json:"bio"`
	ImageURL *string      `json:"image_url"`
	Links    *ArtistLinks `json:"links"`
}

// ApplyTo reporte les champs fournis, normalise puis valide
func (r *ArtistRequest) ApplyTo(a *Artist) error {
	setString(&a.Name, r.Name)
	setString(&a.Slug, r.Slug)
	setString(&a.Bio, r.Bio)
	setString(&a.ImageURL, r.ImageURL)
	if r.Genres != nil {
		a.Genres = r.Genres
	}
	if r.Links != nil {
		a.Links = *r.Links
	}
	a.Normalize()
	return a.Validate()
}
