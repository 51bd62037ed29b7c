package services

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/codyseavey/grading-arbitrage/internal/models"
)

var leadingInt = regexp.MustCompile(`^\s*([+-]?\d+)`)

// parseLeadingInt reads the integer prefix of s ("12abc" → 12). Values that
// do not start with a number are reported as unset.
func parseLeadingInt(s string) (int, bool) {
	m := leadingInt.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func optionalInt(q url.Values, key string) *int {
	raw := q.Get(key)
	if raw == "" {
		return nil
	}
	n, ok := parseLeadingInt(raw)
	if !ok {
		return nil
	}
	return &n
}

// ParseListParams coerces query parameters into list params using the
// built-in list preferences
func ParseListParams(q url.Values) models.ListParams {
	return ParseListParamsWith(q, models.DefaultListPreferences())
}

// ParseListParamsWith coerces query parameters into list params. A parameter
// that is absent takes its value from prefs; a malformed one falls back to
// the default instead of failing the request.
func ParseListParamsWith(q url.Values, prefs models.ListPreferences) models.ListParams {
	prefs = prefs.Normalized()
	p := models.ListParams{
		Sort:               prefs.DefaultSort,
		Order:              prefs.DefaultOrder,
		Page:               1,
		FavoriteOnly:       prefs.FavoriteOnly,
		IncludeBlacklisted: !prefs.ExcludeBlacklisted,
		SalesDestination:   prefs.DefaultSalesDestination,
	}

	if sort := models.SortKey(q.Get("sort")); sort.Valid() {
		p.Sort = sort
	}
	if order := q.Get("order"); order != "" {
		p.Order = models.OrderDesc
		if order == string(models.OrderAsc) {
			p.Order = models.OrderAsc
		}
	}
	if page, ok := parseLeadingInt(q.Get("page")); ok && page >= 1 {
		p.Page = page
	}

	p.Query = strings.TrimSpace(q.Get("q"))
	p.BrandPokeca = q.Get("brand_pokeca") == "1"
	p.BrandOnePiece = q.Get("brand_onepiece") == "1"
	if q.Has("favorite") {
		p.FavoriteOnly = q.Get("favorite") == "1"
	}
	if q.Has("include_blacklisted") {
		p.IncludeBlacklisted = q.Get("include_blacklisted") == "1"
	}

	switch dest := models.SalesDestination(q.Get("sales_destination")); dest {
	case models.SalesSnkrdunk, models.SalesMercari:
		p.SalesDestination = dest
	}

	ranges := map[string]**int{
		"minProfit": &p.MinProfit, "minRoi": &p.MinROI,
		"minPsa10": &p.MinPSA10, "maxPsa10": &p.MaxPSA10,
		"minBase": &p.MinBase, "maxBase": &p.MaxBase,
		"minYear": &p.MinYear, "maxYear": &p.MaxYear,
		"minPsa10Rate": &p.MinPSA10Rate,
	}
	for _, d := range prefs.RangeDefaults() {
		target := ranges[d.Param]
		if q.Get(d.Param) == "" {
			if d.Value != nil {
				v := *d.Value
				*target = &v
			}
			continue
		}
		*target = optionalInt(q, d.Param)
	}
	return p
}

// ListParamsValues renders params back into query form, omitting defaults
func ListParamsValues(p models.ListParams) url.Values {
	v := url.Values{}
	if p.Sort != "" && p.Sort != models.SortUpdatedAt {
		v.Set("sort", string(p.Sort))
	}
	if p.Order == models.OrderAsc {
		v.Set("order", string(models.OrderAsc))
	}
	if p.Page > 1 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Query != "" {
		v.Set("q", p.Query)
	}
	flags := []struct {
		key string
		on  bool
	}{
		{"brand_pokeca", p.BrandPokeca},
		{"brand_onepiece", p.BrandOnePiece},
		{"favorite", p.FavoriteOnly},
		{"include_blacklisted", p.IncludeBlacklisted},
	}
	for _, f := range flags {
		if f.on {
			v.Set(f.key, "1")
		}
	}
	if p.SalesDestination != "" {
		v.Set("sales_destination", string(p.SalesDestination))
	}
	ranges := []struct {
		key string
		val *int
	}{
		{"minProfit", p.MinProfit}, {"minRoi", p.MinROI},
		{"minPsa10", p.MinPSA10}, {"maxPsa10", p.MaxPSA10},
		{"minBase", p.MinBase}, {"maxBase", p.MaxBase},
		{"minYear", p.MinYear}, {"maxYear", p.MaxYear},
		{"minPsa10Rate", p.MinPSA10Rate},
	}
	for _, r := range ranges {
		if r.val != nil {
			v.Set(r.key, strconv.Itoa(*r.val))
		}
	}
	return v
}
