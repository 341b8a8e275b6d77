package models

import (
	"encoding/json"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

func TestFlexibleTime_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{"format ISO sans fuseau", `"2025-12-31T20:00:00"`, time.Date(2025, 12, 31, 20, 0, 0, 0, time.UTC), false},
		{"format court", `"2025-12-31T20:00"`, time.Date(2025, 12, 31, 20, 0, 0, 0, time.UTC), false},
		{"date seule", `"2025-06-01"`, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), false},
		{"RFC3339 avec fuseau", `"2025-06-01T12:00:00+02:00"`, time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC), false},
		{"datetime Salesforce", `"2025-06-01T12:00:00.000+0000"`, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), false},
		{"null", `null`, time.Time{}, false},
		{"vide", `""`, time.Time{}, false},
		{"invalide", `"invalid"`, time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ft FlexibleTime
			err := json.Unmarshal([]byte(tt.input), &ft)
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmarshalJSON() erreur = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !ft.Time.Equal(tt.want) {
				t.Errorf("UnmarshalJSON() = %v, attendu %v", ft.Time, tt.want)
			}
		})
	}
}

func TestFlexibleTime_MarshalJSON(t *testing.T) {
	ft, _ := ParseFlexibleTime("2025-12-31T20:00:00")
	data, err := json.Marshal(ft)
	if err != nil {
		t.Fatalf("MarshalJSON() erreur = %v", err)
	}
	if string(data) != `"2025-12-31T20:00:00Z"` {
		t.Errorf("MarshalJSON() = %s", data)
	}

	data, _ = json.Marshal(FlexibleTime{})
	if string(data) != "null" {
		t.Errorf("une date vide doit donner null, got %s", data)
	}
	if (FlexibleTime{}).Ptr() != nil {
		t.Error("Ptr() doit être nil pour une date vide")
	}
}

func TestFlexibleTime_BSON(t *testing.T) {
	type doc struct {
		At *FlexibleTime `bson:"at"`
	}
	ft, _ := ParseFlexibleTime("2025-03-10")
	raw, err := bson.Marshal(doc{At: &ft})
	if err != nil {
		t.Fatalf("bson.Marshal() erreur = %v", err)
	}
	var out doc
	if err := bson.Unmarshal(raw, &out); err != nil {
		t.Fatalf("bson.Unmarshal() erreur = %v", err)
	}
	if out.At == nil || !out.At.Time.Equal(ft.Time) {
		t.Errorf("aller-retour BSON = %v, attendu %v", out.At, ft.Time)
	}
}
