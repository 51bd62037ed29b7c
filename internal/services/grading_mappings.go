package services

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/codyseavey/grading-arbitrage/internal/models"
)

// ErrBlankMapping is returned when a mapping has no series name or URL
var ErrBlankMapping = errors.New("series name and gemrate url are required")

// GradingMappingService manages the series key to gemrate page links
type GradingMappingService struct {
	store Store
}

func NewGradingMappingService(store Store) *GradingMappingService {
	return &GradingMappingService{store: store}
}

// SeriesOverview lists every series found in the stats rows or in a mapping,
// sorted by key, with its row count and mapped URL
func (s *GradingMappingService) SeriesOverview(ctx context.Context) ([]models.GradingSeriesStatus, error) {
	counts, err := s.store.FetchGradingSeriesCounts(ctx)
	if err != nil {
		return nil, storeFailure("fetch grading series counts", err)
	}
	mappings, err := s.store.FetchGradingMappings(ctx)
	if err != nil {
		return nil, storeFailure("fetch grading mappings", err)
	}

	byKey := make(map[string]*models.GradingSeriesStatus, len(counts)+len(mappings))
	entry := func(key string) *models.GradingSeriesStatus {
		if st, ok := byKey[key]; ok {
			return st
		}
		pack, year := models.SplitSeriesName(key)
		st := &models.GradingSeriesStatus{SeriesName: key, PackName: pack, ReleaseYear: year}
		byKey[key] = st
		return st
	}
	for _, c := range counts {
		key := models.NormalizeSeriesName(c.SeriesName)
		if key == "" {
			continue
		}
		entry(key).Rows += c.Rows
	}
	for _, m := range mappings {
		key := models.NormalizeSeriesName(m.SeriesName)
		if key == "" || strings.TrimSpace(m.GemrateURL) == "" {
			continue
		}
		st := entry(key)
		st.GemrateURL = strings.TrimSpace(m.GemrateURL)
		st.Mapped = true
	}

	out := make([]models.GradingSeriesStatus, 0, len(byKey))
	for _, st := range byKey {
		out = append(out, *st)
	}
	slices.SortFunc(out, func(a, b models.GradingSeriesStatus) int {
		return strings.Compare(a.SeriesName, b.SeriesName)
	})
	return out, nil
}

// UpsertMapping trims both values, stores the key with the ASCII pipe and
// replaces any URL already linked to it
func (s *GradingMappingService) UpsertMapping(ctx context.Context, seriesName, gemrateURL string) (*models.GradingMapping, error) {
	mapping := models.GradingMapping{
		SeriesName: models.NormalizeSeriesName(seriesName),
		GemrateURL: strings.TrimSpace(gemrateURL),
	}
	if mapping.SeriesName == "" || mapping.GemrateURL == "" {
		return nil, ErrBlankMapping
	}
	if err := s.store.UpsertGradingMapping(ctx, mapping); err != nil {
		return nil, storeFailure("upsert grading mapping", err)
	}
	log.Info().Str("series", mapping.SeriesName).Msg("Saved gemrate mapping")
	return &mapping, nil
}
