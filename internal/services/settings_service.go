package services

import (
	"context"
	"fmt"

	"github.com/codyseavey/grading-arbitrage/internal/models"
)

// SettingsService reads and writes the settings row: fees and list preferences
type SettingsService struct {
	store Store
}

func NewSettingsService(store Store) *SettingsService {
	return &SettingsService{store: store}
}

// StoredFees returns the stored fees, or nil when none were saved. The list
// engine falls back to its own defaults in that case.
func (s *SettingsService) StoredFees(ctx context.Context) (*models.FeeSettings, error) {
	settings, err := s.store.LoadAppSettings(ctx)
	if err != nil {
		return nil, storeFailure("load settings", err)
	}
	return settings.Fees(), nil
}

// GetFees returns the stored fees merged over the defaults
func (s *SettingsService) GetFees(ctx context.Context) (models.FeeSettings, error) {
	fees, err := s.StoredFees(ctx)
	if err != nil {
		return models.FeeSettings{}, err
	}
	if fees == nil {
		return models.DefaultFeeSettings(), nil
	}
	return *fees, nil
}

// SaveFees validates and stores fee settings
func (s *SettingsService) SaveFees(ctx context.Context, fees models.FeeSettings) error {
	if err := ValidateFees(fees); err != nil {
		return err
	}
	if err := s.store.SaveFeeSettings(ctx, fees); err != nil {
		return storeFailure("save settings", err)
	}
	return nil
}

// ValidateFees rejects negative prices and fee rates outside 0-100%
func ValidateFees(f models.FeeSettings) error {
	rates := []struct {
		name string
		pct  float64
	}{
		{"mercariFeePercent", f.MercariFeePercent},
		{"snkrdunkFeePercent", f.SnkrdunkFeePercent},
	}
	for _, r := range rates {
		if r.pct < 0 || r.pct >= 100 {
			return fmt.Errorf("%s must be between 0 and 100", r.name)
		}
	}
	for _, plan := range f.PSAPlans() {
		if plan.Price < 0 {
			return fmt.Errorf("%s must not be negative", plan.ID)
		}
	}
	return nil
}

// ListSettings loads the list preferences and stored fees with one read
func (s *SettingsService) ListSettings(ctx context.Context) (models.ListPreferences, *models.FeeSettings, error) {
	settings, err := s.store.LoadAppSettings(ctx)
	if err != nil {
		return models.DefaultListPreferences(), nil, storeFailure("load settings", err)
	}
	return settings.ListPreferences(), settings.Fees(), nil
}

// GetListPreferences returns the saved preferences or the defaults
func (s *SettingsService) GetListPreferences(ctx context.Context) (models.ListPreferences, error) {
	prefs, _, err := s.ListSettings(ctx)
	return prefs, err
}

// SaveListPreferences validates and stores list preferences
func (s *SettingsService) SaveListPreferences(ctx context.Context, prefs models.ListPreferences) error {
	if err := ValidateListPreferences(prefs); err != nil {
		return err
	}
	if err := s.store.SaveListPreferences(ctx, prefs); err != nil {
		return storeFailure("save settings", err)
	}
	return nil
}

// ValidateListPreferences rejects unknown sort keys, orders and destinations
// and range pairs whose minimum exceeds the maximum
func ValidateListPreferences(p models.ListPreferences) error {
	if !p.DefaultSort.Valid() {
		return fmt.Errorf("defaultSort %q is not a sort key", p.DefaultSort)
	}
	if p.DefaultOrder != models.OrderAsc && p.DefaultOrder != models.OrderDesc {
		return fmt.Errorf("defaultOrder must be asc or desc")
	}
	switch p.DefaultSalesDestination {
	case "", models.SalesMercari, models.SalesSnkrdunk:
	default:
		return fmt.Errorf("defaultSalesDestination must be mercari or snkrdunk")
	}
	pairs := []struct {
		name     string
		min, max *int
	}{
		{"Psa10", p.DefaultMinPSA10, p.DefaultMaxPSA10},
		{"Base", p.DefaultMinBase, p.DefaultMaxBase},
		{"Year", p.DefaultMinYear, p.DefaultMaxYear},
	}
	for _, r := range pairs {
		if r.min != nil && r.max != nil && *r.min > *r.max {
			return fmt.Errorf("defaultMin%s must not exceed defaultMax%s", r.name, r.name)
		}
	}
	return nil
}
