package services

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/codyseavey/grading-arbitrage/internal/models"
)

const seriesKeyScanLimit = 2500

// ErrEmptyPatch is returned when a flag patch sets nothing
var ErrEmptyPatch = errors.New("patch sets neither is_favorite nor is_blacklisted")

// ProductEditService applies the user edits made from the product page
type ProductEditService struct {
	store Store
}

func NewProductEditService(store Store) *ProductEditService {
	return &ProductEditService{store: store}
}

// SetFlags toggles favourite and/or blacklist
func (s *ProductEditService) SetFlags(ctx context.Context, id string, patch models.ProductPatch) (*models.ProductFlags, error) {
	if patch.Empty() {
		return nil, ErrEmptyPatch
	}
	flags, err := s.store.PatchProduct(ctx, id, patch)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, err
		}
		return nil, storeFailure("patch product", err)
	}
	return flags, nil
}

// SetCardDescription stores the trimmed description used for gemrate fallback matching
func (s *ProductEditService) SetCardDescription(ctx context.Context, id, description string) error {
	err := s.store.UpdateCardDescription(ctx, id, strings.TrimSpace(description))
	if err != nil && !errors.Is(err, ErrProductNotFound) {
		return storeFailure("update card description", err)
	}
	return err
}

// AssignSeriesKey sets the series key override on the product and on every
// product from the same pack and release year. An empty key clears it.
// It returns the ids that were updated.
func (s *ProductEditService) AssignSeriesKey(ctx context.Context, id, seriesKey string) ([]string, error) {
	key := models.NormalizeSeriesName(seriesKey)

	product, err := s.store.FetchProduct(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, err
		}
		return nil, storeFailure("fetch product", err)
	}
	if err := s.store.UpdateSeriesKey(ctx, []string{id}, key); err != nil {
		return nil, storeFailure("update series key", err)
	}
	updated := []string{id}

	pack, _ := ParseCatalogName(product.NameJP)
	year, ok := ReleaseYear(product.ReleaseDate)
	if pack == "" || !ok {
		return updated, nil
	}

	candidates, err := s.store.FetchProductsReleasedIn(ctx, year)
	if err != nil {
		return nil, storeFailure("fetch products by year", err)
	}
	var siblings []string
	for _, c := range candidates {
		if c.ID == id {
			continue
		}
		cPack, _ := ParseCatalogName(c.NameJP)
		cYear, ok := ReleaseYear(c.ReleaseDate)
		if cPack == pack && ok && cYear == year {
			siblings = append(siblings, c.ID)
		}
	}
	if len(siblings) == 0 {
		return updated, nil
	}
	if err := s.store.UpdateSeriesKey(ctx, siblings, key); err != nil {
		return nil, storeFailure("update series key", err)
	}
	return append(updated, siblings...), nil
}

// PacksByYear lists known series keys released in year ("pack|2025" or
// "pack_2025"), from mappings and stats, deduplicated and sorted
func (s *ProductEditService) PacksByYear(ctx context.Context, year int) ([]string, error) {
	y := strconv.Itoa(year)
	suffixes := []string{"|" + y, "_" + y}

	mappings, err := s.store.FetchGradingMappings(ctx)
	if err != nil {
		return nil, storeFailure("fetch grading mappings", err)
	}
	fromStats, err := s.store.FetchSeriesKeysWithSuffix(ctx, []string{"|" + y, "｜" + y, "_" + y}, seriesKeyScanLimit)
	if err != nil {
		return nil, storeFailure("fetch series keys", err)
	}

	names := make([]string, 0, len(mappings)+len(fromStats))
	for _, m := range mappings {
		names = append(names, m.SeriesName)
	}
	names = append(names, fromStats...)

	seen := make(map[string]struct{}, len(names))
	var out []string
	for _, n := range names {
		n = models.NormalizeSeriesName(n)
		if n == "" || !hasAnySuffix(n, suffixes) {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	slices.Sort(out)
	return out, nil
}

func hasAnySuffix(s string, suffixes []string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(s, suf) {
			return true
		}
	}
	return false
}
