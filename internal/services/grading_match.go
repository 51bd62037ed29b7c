package services

import (
	"math"
	"strings"

	"github.com/codyseavey/grading-arbitrage/internal/metrics"
	"github.com/codyseavey/grading-arbitrage/internal/models"
)

// normalizeCardNumber keeps the part before "/" ("217/187" → "217")
func normalizeCardNumber(s string) string {
	t := strings.TrimSpace(s)
	before, _, _ := strings.Cut(t, "/")
	return strings.TrimSpace(before)
}

// EffectiveSeriesKey prefers the manually assigned key over the derived one
func EffectiveSeriesKey(p *models.Product) string {
	if manual := strings.TrimSpace(p.GemrateSeriesName); manual != "" {
		return manual
	}
	return BuildSeriesKey(p.NameJP, p.ReleaseDate)
}

func usableGemRate(row *models.GradingStat) bool {
	return row.GemRate != nil && !math.IsNaN(*row.GemRate) && !math.IsInf(*row.GemRate, 0)
}

func toMatch(row *models.GradingStat) *models.GradingMatch {
	return &models.GradingMatch{
		GemRate:     *row.GemRate,
		SeriesName:  strings.TrimSpace(row.SeriesName),
		PSA10Count:  row.PSA10Count,
		TotalGraded: row.TotalGraded,
	}
}

// MatchGradingStats finds the gemrate row for a product.
// The (series key, card number) pair wins; an exact card description match
// is the fallback. Rows without a finite gem rate never match.
func MatchGradingStats(p *models.Product, rows []models.GradingStat) *models.GradingMatch {
	series := EffectiveSeriesKey(p)
	key := ParseCatalogKey(p.NameJP, p.ReleaseDate)

	if series != "" && key != nil {
		wantSeries := models.NormalizeSeriesName(series)
		wantCard := normalizeCardNumber(key.CardNumber)
		for i := range rows {
			row := &rows[i]
			if models.NormalizeSeriesName(row.SeriesName) != wantSeries ||
				normalizeCardNumber(row.CardNumber) != wantCard {
				continue
			}
			if usableGemRate(row) {
				metrics.GradingMatchesTotal.WithLabelValues("series").Inc()
				return toMatch(row)
			}
			break
		}
	}

	if desc := strings.TrimSpace(p.CardDescription); desc != "" {
		for i := range rows {
			row := &rows[i]
			if strings.TrimSpace(row.CardDescription) != desc {
				continue
			}
			if usableGemRate(row) {
				metrics.GradingMatchesTotal.WithLabelValues("description").Inc()
				return toMatch(row)
			}
			break
		}
	}

	metrics.GradingMatchesTotal.WithLabelValues("none").Inc()
	return nil
}

// MatchGradingStatsBatch matches each product independently. Unmatched
// products are absent from the map.
func MatchGradingStatsBatch(products []models.Product, rows []models.GradingStat) map[string]*models.GradingMatch {
	out := make(map[string]*models.GradingMatch, len(products))
	for i := range products {
		if m := MatchGradingStats(&products[i], rows); m != nil {
			out[products[i].ID] = m
		}
	}
	return out
}

// roundedGemRate converts a match into the integer percentage shown in lists
func roundedGemRate(m *models.GradingMatch) *int {
	if m == nil {
		return nil
	}
	r := jsRound(m.GemRate)
	return &r
}
