package models

import "strings"

// GradingStat is one row of the external population report (gemrate).
// SeriesName is "pack|year"; some rows use the full-width pipe "｜".
type GradingStat struct {
	ID              uint     `json:"id" gorm:"primaryKey;autoIncrement"`
	SeriesName      string   `json:"series_name" gorm:"index"`
	CardNumber      string   `json:"card_number"` // may be "217/187"
	CardDescription string   `json:"card_description"`
	GemRate         *float64 `json:"gem_rate"`
	PSA10Count      *int     `json:"psa10_count" gorm:"column:psa10_count"`
	TotalGraded     *int     `json:"total_graded"`
}

// TableName keeps the table name used by the scraper
func (GradingStat) TableName() string {
	return "gemrate_stats"
}

// GradingMapping links a series key to its gemrate page
type GradingMapping struct {
	SeriesName string `json:"series_name" gorm:"primaryKey"`
	GemrateURL string `json:"gemrate_url"`
}

func (GradingMapping) TableName() string {
	return "gemrate_mappings"
}

// GradingSeriesCount is the number of stats rows stored for one series key
type GradingSeriesCount struct {
	SeriesName string `json:"series_name"`
	Rows       int64  `json:"rows"`
}

// GradingSeriesStatus is one line of the mapping overview: a series known
// from stats rows or from a mapping, with its row count and mapped URL
type GradingSeriesStatus struct {
	SeriesName  string `json:"series_name"`
	PackName    string `json:"pack_name"`
	ReleaseYear string `json:"release_year"`
	Rows        int64  `json:"rows"`
	GemrateURL  string `json:"gemrate_url,omitempty"`
	Mapped      bool   `json:"mapped"`
}

// GradingMatch is the result of matching a product against gemrate rows
type GradingMatch struct {
	GemRate     float64 `json:"gem_rate"`
	SeriesName  string  `json:"series_name"`
	PSA10Count  *int    `json:"psa10_count"`
	TotalGraded *int    `json:"total_graded"`
}

const fullWidthPipe = "｜"

// NormalizeSeriesName trims s and folds the full-width pipe into "|"
func NormalizeSeriesName(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), fullWidthPipe, "|")
}

// SeriesNameVariants returns both stored spellings of a series key
func SeriesNameVariants(s string) []string {
	n := NormalizeSeriesName(s)
	if n == "" {
		return nil
	}
	if !strings.Contains(n, "|") {
		return []string{n}
	}
	return []string{n, strings.ReplaceAll(n, "|", fullWidthPipe)}
}

// SplitSeriesName separates "pack|year". A key without a pipe has no year.
func SplitSeriesName(s string) (pack, year string) {
	pack, year, _ = strings.Cut(NormalizeSeriesName(s), "|")
	return strings.TrimSpace(pack), strings.TrimSpace(year)
}
