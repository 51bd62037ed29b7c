package models

// SortKey is a column of the product list that can be ordered on
type SortKey string

const (
	SortExpectedProfit SortKey = "expectedProfit"
	SortROI            SortKey = "roi"
	SortLatestPSA10    SortKey = "latestPsa10"
	SortPSA10Rate      SortKey = "psa10Rate"
	SortReleaseDate    SortKey = "release_date"
	SortRecentTrend    SortKey = "recentTrend"
	SortUpdatedAt      SortKey = "updated_at"
)

// SortOption describes a sort key for the list controls
type SortOption struct {
	Value SortKey `json:"value"`
	Label string  `json:"label"`
}

// SortOptions lists every accepted sort key in display order
func SortOptions() []SortOption {
	return []SortOption{
		{SortExpectedProfit, "予想利益"},
		{SortROI, "ROI"},
		{SortLatestPSA10, "PSA10 最新"},
		{SortPSA10Rate, "PSA10取得率"},
		{SortReleaseDate, "発売日"},
		{SortRecentTrend, "値動き"},
		{SortUpdatedAt, "更新日"},
	}
}

// Valid reports whether k is one of the known sort keys
func (k SortKey) Valid() bool {
	for _, o := range SortOptions() {
		if o.Value == k {
			return true
		}
	}
	return false
}

// StoreSortable reports whether the store can order by k without computed stats
func (k SortKey) StoreSortable() bool {
	return k == SortUpdatedAt || k == SortReleaseDate
}

// SortOrder is asc or desc
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// ListParams is the request-scoped list configuration. Nil range filters are unset.
type ListParams struct {
	Sort               SortKey
	Order              SortOrder
	Page               int
	Query              string
	BrandPokeca        bool
	BrandOnePiece      bool
	FavoriteOnly       bool
	SalesDestination   SalesDestination // empty = mercari
	IncludeBlacklisted bool

	MinProfit    *int
	MinROI       *int
	MinPSA10     *int
	MaxPSA10     *int
	MinBase      *int
	MaxBase      *int
	MinYear      *int
	MaxYear      *int
	MinPSA10Rate *int
}

// HasComputedFilter reports whether any range filter depending on computed values is set
func (p ListParams) HasComputedFilter() bool {
	for _, v := range []*int{p.MinProfit, p.MinROI, p.MinPSA10, p.MaxPSA10, p.MinBase, p.MaxBase, p.MinYear, p.MaxYear, p.MinPSA10Rate} {
		if v != nil {
			return true
		}
	}
	return false
}

// Brands returns the brand substrings selected by the toggles
func (p ListParams) Brands() []string {
	var brands []string
	if p.BrandPokeca {
		brands = append(brands, BrandPokeca)
	}
	if p.BrandOnePiece {
		brands = append(brands, BrandOnePiece)
	}
	return brands
}
