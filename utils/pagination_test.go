package utils

import (
	"net/url"
	"strings"
	"testing"
)

func TestParseListQueryDefaults(t *testing.T) {
	q := ParseListQuery(url.Values{}, []string{"name", "created_at"}, "-created_at")

	if q.Page != 1 || q.Limit != 20 {
		t.Errorf("page/limit = %d/%d, attendu 1/20", q.Page, q.Limit)
	}
	if q.Sort != "created_at" || !q.SortDesc {
		t.Errorf("tri = %q desc=%v, attendu created_at desc", q.Sort, q.SortDesc)
	}
	if q.Skip() != 0 {
		t.Errorf("Skip() = %d", q.Skip())
	}
}

func TestParseListQueryBounds(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		wantPage  int
		wantLimit int
	}{
		{"valeurs normales", "page=3&limit=10", 3, 10},
		{"limit trop grand", "limit=1000", 1, 100},
		{"limit nul", "limit=0", 1, 1},
		{"page négative", "page=-4", 1, 20},
		{"non numérique", "page=abc&limit=x", 1, 20},
		{"page énorme", "page=9000000000000000000&limit=20", MaxPage, 20},
		{"page hors int64", "page=99999999999999999999999", MaxPage, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			q := ParseListQuery(values, nil, "")
			if q.Page != tt.wantPage || q.Limit != tt.wantLimit {
				t.Errorf("page/limit = %d/%d, attendu %d/%d", q.Page, q.Limit, tt.wantPage, tt.wantLimit)
			}
		})
	}
}

func TestListQuerySkipSansDebordement(t *testing.T) {
	q := ParseListQuery(url.Values{"page": {"9000000000000000000"}, "limit": {"100"}}, nil, "")
	if q.Skip() < 0 {
		t.Fatalf("Skip() = %d, ne doit jamais être négatif", q.Skip())
	}
	if want := int64(MaxPage-1) * MaxLimit; q.Skip() != want {
		t.Errorf("Skip() = %d, attendu %d", q.Skip(), want)
	}

	if skip := (ListQuery{}).Skip(); skip != 0 {
		t.Errorf("Skip() sur une requête vide = %d", skip)
	}
}

func TestParseListQuerySortAndFilters(t *testing.T) {
	values, _ := url.ParseQuery("sort=-password&status=active&search=%20pizza%20&page=2&limit=5&empty=")
	q := ParseListQuery(values, []string{"name"}, "name")

	if q.Sort != "name" || q.SortDesc {
		t.Errorf("un tri non autorisé doit retomber sur le défaut, got %q desc=%v", q.Sort, q.SortDesc)
	}
	if q.Search != "pizza" {
		t.Errorf("Search = %q", q.Search)
	}
	if q.Filter("status") != "active" {
		t.Errorf("Filter(status) = %q", q.Filter("status"))
	}
	if _, ok := q.Filters["page"]; ok {
		t.Error("page ne doit pas apparaître dans les filtres")
	}
	if _, ok := q.Filters["empty"]; ok {
		t.Error("un filtre vide doit être ignoré")
	}
	if q.Skip() != 5 {
		t.Errorf("Skip() = %d, attendu 5", q.Skip())
	}

	values, _ = url.ParseQuery("sort=-name")
	q = ParseListQuery(values, []string{"name"}, "created_at")
	if q.Sort != "name" || !q.SortDesc {
		t.Errorf("tri = %q desc=%v", q.Sort, q.SortDesc)
	}
}

func TestParseListQuerySearchTronquee(t *testing.T) {
	values := url.Values{"search": {strings.Repeat("é", 150)}}
	q := ParseListQuery(values, nil, "")
	if n := len([]rune(q.Search)); n != MaxSearchLength {
		t.Errorf("len(search) = %d, attendu %d", n, MaxSearchLength)
	}
}

func TestNewPage(t *testing.T) {
	q := ListQuery{Page: 2, Limit: 20}
	p := NewPage[string](nil, q, 41)
	if p.Items == nil || len(p.Items) != 0 {
		t.Error("Items doit être un tableau vide")
	}
	if p.TotalPages != 3 || p.Total != 41 || p.Page != 2 {
		t.Errorf("page = %+v", p)
	}
}
