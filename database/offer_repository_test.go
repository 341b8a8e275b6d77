package database

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestOfferActiveFilter(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f := OfferActiveFilter(now)

	if f["status"] != "active" {
		t.Errorf("status = %v", f["status"])
	}
	if f["valid_from"].(bson.M)["$lte"] != now || f["valid_until"].(bson.M)["$gte"] != now {
		t.Errorf("bornes de validité = %v / %v", f["valid_from"], f["valid_until"])
	}
}

func TestOfferUsableFilter(t *testing.T) {
	id := primitive.NewObjectID()
	f := offerUsableFilter(id, time.Now())

	if f["_id"] != id {
		t.Errorf("_id = %v", f["_id"])
	}
	or, ok := f["$or"].(bson.A)
	if !ok || len(or) != 2 {
		t.Fatalf("$or = %#v", f["$or"])
	}
	if or[0].(bson.M)["max_uses"] != 0 {
		t.Errorf("max_uses = 0 doit signifier illimité: %v", or[0])
	}
	// la requête ne doit pas modifier le filtre partagé
	if _, ok := OfferActiveFilter(time.Now())["$or"]; ok {
		t.Error("OfferActiveFilter ne doit pas contenir la contrainte de quota")
	}
}
