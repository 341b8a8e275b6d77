package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// flexibleLayouts couvre les formats envoyés par le back-office et par Salesforce
var flexibleLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000-0700", // Salesforce datetime
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// FlexibleTime accepte plusieurs formats de dates et les ramène en UTC.
// Une date sans fuseau est interprétée en UTC.
type FlexibleTime struct {
	time.Time
}

// ParseFlexibleTime essaie chaque format connu
func ParseFlexibleTime(s string) (FlexibleTime, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return FlexibleTime{}, nil
	}
	for _, layout := range flexibleLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return FlexibleTime{Time: t.UTC()}, nil
		}
	}
	return FlexibleTime{}, fmt.Errorf("format de date invalide: %s", s)
}

// Ptr retourne nil pour une date vide
func (ft FlexibleTime) Ptr() *time.Time {
	if ft.IsZero() {
		return nil
	}
	t := ft.Time
	return &t
}

// UnmarshalJSON implémente le unmarshaler pour accepter plusieurs formats de dates
func (ft *FlexibleTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), "\"")
	if s == "null" {
		ft.Time = time.Time{}
		return nil
	}
	parsed, err := ParseFlexibleTime(s)
	if err != nil {
		return err
	}
	*ft = parsed
	return nil
}

// MarshalJSON retourne la date en RFC3339 UTC
func (ft FlexibleTime) MarshalJSON() ([]byte, error) {
	if ft.Time.IsZero() {
		return []byte("null"), nil
	}
	return []byte("\"" + ft.Time.UTC().Format(time.RFC3339) + "\""), nil
}

// MarshalBSONValue stocke FlexibleTime comme une date MongoDB (pas un document)
func (ft *FlexibleTime) MarshalBSONValue() (bsontype.Type, []byte, error) {
	if ft == nil || ft.Time.IsZero() {
		return bsontype.Null, nil, nil
	}
	return bson.MarshalValue(ft.Time.UTC())
}

// UnmarshalBSONValue décode une date MongoDB en FlexibleTime
func (ft *FlexibleTime) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.Null, bsontype.Undefined:
		ft.Time = time.Time{}
		return nil
	case bsontype.DateTime:
		raw := bson.RawValue{Type: t, Value: data}
		tm, ok := raw.TimeOK()
		if !ok {
			return fmt.Errorf("date BSON invalide")
		}
		ft.Time = tm.UTC()
		return nil
	case bsontype.String:
		raw := bson.RawValue{Type: t, Value: data}
		parsed, err := ParseFlexibleTime(raw.StringValue())
		if err != nil {
			return err
		}
		*ft = parsed
		return nil
	}
	return fmt.Errorf("impossible de décoder %v en FlexibleTime", t)
}
