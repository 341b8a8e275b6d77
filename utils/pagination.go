package utils

import (
	"errors"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Bornes de pagination des listes
const (
	DefaultPage     = 1
	DefaultLimit    = 20
	MaxLimit        = 100
	MaxSearchLength = 100

	// MaxPage garde (page-1)*limit dans un int, y compris sur 32 bits
	MaxPage = math.MaxInt32 / MaxLimit
)

// ListQuery regroupe les paramètres communs des endpoints de liste
type ListQuery struct {
	Page     int
	Limit    int
	Sort     string
	SortDesc bool
	Search   string
	// Filters contient les autres paramètres bruts (status, provider, from, to...)
	Filters map[string]string
}

// Skip retourne le nombre de documents à sauter
func (q ListQuery) Skip() int64 {
	if q.Page <= 1 || q.Limit <= 0 {
		return 0
	}
	return int64(q.Page-1) * int64(q.Limit)
}

// Filter retourne la valeur brute d'un filtre (vide si absent)
func (q ListQuery) Filter(key string) string {
	return q.Filters[key]
}

// ParseListQuery lit page, limit, sort et search depuis la query string.
// Un tri hors de allowedSorts retombe sur defaultSort ("-created_at" = décroissant).
func ParseListQuery(values url.Values, allowedSorts []string, defaultSort string) ListQuery {
	q := ListQuery{
		Page:    parseBoundedInt(values.Get("page"), DefaultPage, 1, MaxPage),
		Limit:   parseBoundedInt(values.Get("limit"), DefaultLimit, 1, MaxLimit),
		Filters: make(map[string]string),
	}

	sort := strings.TrimSpace(values.Get("sort"))
	if !sortAllowed(sort, allowedSorts) {
		sort = defaultSort
	}
	q.Sort, q.SortDesc = strings.TrimPrefix(sort, "-"), strings.HasPrefix(sort, "-")

	search := strings.TrimSpace(values.Get("search"))
	if r := []rune(search); len(r) > MaxSearchLength {
		search = string(r[:MaxSearchLength])
	}
	q.Search = search

	for key, vals := range values {
		switch key {
		case "page", "limit", "sort", "search":
			continue
		}
		if len(vals) > 0 {
			if v := strings.TrimSpace(vals[0]); v != "" {
				q.Filters[key] = v
			}
		}
	}
	return q
}

func sortAllowed(sort string, allowed []string) bool {
	if sort == "" {
		return false
	}
	field := strings.TrimPrefix(sort, "-")
	for _, a := range allowed {
		if a == field {
			return true
		}
	}
	return false
}

// parseBoundedInt borne la valeur à [min, max]; max <= 0 signifie sans plafond
func parseBoundedInt(raw string, def, min, max int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return def
	}
	// hors plage, Atoi sature déjà n à ±MaxInt
	if n < min {
		return min
	}
	if max > 0 && n > max {
		return max
	}
	return n
}

// Page est la réponse paginée des endpoints de liste
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// NewPage construit une page; items nil devient un tableau vide en JSON
func NewPage[T any](items []T, q ListQuery, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	var pages int64
	if q.Limit > 0 {
		pages = (total + int64(q.Limit) - 1) / int64(q.Limit)
	}
	return Page[T]{Items: items, Page: q.Page, Limit: q.Limit, Total: total, TotalPages: pages}
}
