package database

import (
	"testing"

	"offerhub-backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSmartLinkUpdatePipelineRelitLesCompteurs(t *testing.T) {
	s := &models.SmartLink{
		ID:     primitive.NewObjectID(),
		Title:  "$uicide",
		Slug:   "single",
		Status: models.SmartLinkPublished,
		Platforms: []models.PlatformLink{
			{Platform: "spotify", URL: "https://open.spotify.com/track/1", Clicks: 999},
		},
		Clicks: 999,
	}

	pipeline := smartLinkUpdatePipeline(s)
	if len(pipeline) != 1 || pipeline[0][0].Key != BSONSet {
		t.Fatalf("pipeline = %#v", pipeline)
	}
	set := pipeline[0][0].Value.(bson.M)

	if _, ok := set["clicks"]; ok {
		t.Error("le total de clics ne doit pas être écrit")
	}
	if set["title"].(bson.M)[BSONLiteral] != "$uicide" {
		t.Errorf("title = %#v, attendu un $literal", set["title"])
	}

	platforms := set["platforms"].(bson.A)
	if len(platforms) != 1 {
		t.Fatalf("platforms = %#v", platforms)
	}
	p := platforms[0].(bson.M)
	clicks, ok := p["clicks"].(bson.M)
	if !ok {
		t.Fatalf("clicks = %#v, attendu une expression relisant le document", p["clicks"])
	}
	input := clicks["$sum"].(bson.M)["$map"].(bson.M)["input"].(bson.M)["$filter"].(bson.M)
	if got := input["input"].(bson.M)["$ifNull"].(bson.A)[0]; got != "$platforms" {
		t.Errorf("source des compteurs = %v, attendu $platforms", got)
	}
	cond := input["cond"].(bson.M)["$eq"].(bson.A)
	if cond[1].(bson.M)[BSONLiteral] != "spotify" {
		t.Errorf("condition = %#v", cond)
	}
}
