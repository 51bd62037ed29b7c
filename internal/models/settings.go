package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// SalesDestination selects the marketplace fee rate
type SalesDestination string

const (
	SalesMercari  SalesDestination = "mercari"
	SalesSnkrdunk SalesDestination = "snkrdunk"
)

// FeeSettings holds marketplace fees (percent) and PSA grading plan prices (yen)
type FeeSettings struct {
	MercariFeePercent  float64 `json:"mercariFeePercent"`
	SnkrdunkFeePercent float64 `json:"snkrdunkFeePercent"`
	PSAValueBulk       float64 `json:"psaValueBulk"`
	PSAValue           float64 `json:"psaValue"`
	PSAValuePlus       float64 `json:"psaValuePlus"`
	PSAValueMax        float64 `json:"psaValueMax"`
	PSARegular         float64 `json:"psaRegular"`
	PSAExpress         float64 `json:"psaExpress"`
}

// DefaultFeeSettings mirrors the values shipped with the settings page
func DefaultFeeSettings() FeeSettings {
	return FeeSettings{
		MercariFeePercent:  10,
		SnkrdunkFeePercent: 8,
		PSAValueBulk:       3980,
		PSAValue:           4980,
		PSAValuePlus:       7980,
		PSAValueMax:        8980,
		PSARegular:         11980,
		PSAExpress:         22980,
	}
}

// UnmarshalJSON fills fields missing from stored settings with the defaults
func (f *FeeSettings) UnmarshalJSON(data []byte) error {
	type plain FeeSettings
	v := plain(DefaultFeeSettings())
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = FeeSettings(v)
	return nil
}

// PSAPlan is one grading service level offered in the ROI simulator
type PSAPlan struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Price float64 `json:"price"`
}

// DefaultPSAPlanID is the plan whose price is used as the grading fee
const DefaultPSAPlanID = "psaValue"

// PSAPlans lists the grading plans in price order
func (f FeeSettings) PSAPlans() []PSAPlan {
	return []PSAPlan{
		{"psaValueBulk", "Value Bulk", f.PSAValueBulk},
		{DefaultPSAPlanID, "Value", f.PSAValue},
		{"psaValuePlus", "Value Plus", f.PSAValuePlus},
		{"psaValueMax", "Value Max", f.PSAValueMax},
		{"psaRegular", "Regular", f.PSARegular},
		{"psaExpress", "Express", f.PSAExpress},
	}
}

// SellingFeeRate returns the fee as a fraction for the given destination.
// Anything other than snkrdunk is charged at the mercari rate.
func (f FeeSettings) SellingFeeRate(dest SalesDestination) float64 {
	if dest == SalesSnkrdunk {
		return f.SnkrdunkFeePercent / 100
	}
	return f.MercariFeePercent / 100
}

// AppSettings is the single settings row (id = 1)
type AppSettings struct {
	ID            uint                             `json:"id" gorm:"primaryKey"`
	FeeSettings   *datatypes.JSONType[FeeSettings] `json:"fee_settings"`
	GemrateURLs   datatypes.JSONMap                `json:"gemrate_urls"`
	UIPreferences datatypes.JSONMap                `json:"ui_preferences"`
}

func (AppSettings) TableName() string {
	return "app_settings"
}

// Fees returns the stored fee settings, or nil when none were saved
func (s *AppSettings) Fees() *FeeSettings {
	if s == nil || s.FeeSettings == nil {
		return nil
	}
	fees := s.FeeSettings.Data()
	return &fees
}

// GemrateURL looks up a configured URL by series key, then product id, then product code
func (s *AppSettings) GemrateURL(seriesName, productID, productCode string) string {
	if s == nil || len(s.GemrateURLs) == 0 {
		return ""
	}
	for _, key := range []string{seriesName, productID, productCode} {
		if key == "" {
			continue
		}
		if url, ok := s.GemrateURLs[key].(string); ok && url != "" {
			return url
		}
	}
	return ""
}

// ListPreferencesKey is where list preferences live inside ui_preferences
const ListPreferencesKey = "list_preferences"

// ListPreferences are the defaults applied to list requests that leave a
// parameter out. Nil range filters are unset.
type ListPreferences struct {
	DefaultSort             SortKey          `json:"defaultSort"`
	DefaultOrder            SortOrder        `json:"defaultOrder"`
	ExcludeBlacklisted      bool             `json:"excludeBlacklisted"`
	FavoriteOnly            bool             `json:"favoriteOnly"`
	DefaultSalesDestination SalesDestination `json:"defaultSalesDestination,omitempty"`

	DefaultMinProfit    *int `json:"defaultMinProfit,omitempty"`
	DefaultMinROI       *int `json:"defaultMinRoi,omitempty"`
	DefaultMinPSA10     *int `json:"defaultMinPsa10,omitempty"`
	DefaultMaxPSA10     *int `json:"defaultMaxPsa10,omitempty"`
	DefaultMinBase      *int `json:"defaultMinBase,omitempty"`
	DefaultMaxBase      *int `json:"defaultMaxBase,omitempty"`
	DefaultMinYear      *int `json:"defaultMinYear,omitempty"`
	DefaultMaxYear      *int `json:"defaultMaxYear,omitempty"`
	DefaultMinPSA10Rate *int `json:"defaultMinPsa10Rate,omitempty"`
}

// DefaultListPreferences is used until preferences are saved
func DefaultListPreferences() ListPreferences {
	return ListPreferences{
		DefaultSort:        SortUpdatedAt,
		DefaultOrder:       OrderDesc,
		ExcludeBlacklisted: true,
	}
}

// UnmarshalJSON starts from the defaults so missing fields keep them
func (p *ListPreferences) UnmarshalJSON(data []byte) error {
	type plain ListPreferences
	v := plain(DefaultListPreferences())
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*p = ListPreferences(v)
	return nil
}

// Normalized replaces unknown sort keys, orders and destinations with the defaults
func (p ListPreferences) Normalized() ListPreferences {
	def := DefaultListPreferences()
	if !p.DefaultSort.Valid() {
		p.DefaultSort = def.DefaultSort
	}
	if p.DefaultOrder != OrderAsc && p.DefaultOrder != OrderDesc {
		p.DefaultOrder = def.DefaultOrder
	}
	if p.DefaultSalesDestination != SalesMercari && p.DefaultSalesDestination != SalesSnkrdunk {
		p.DefaultSalesDestination = ""
	}
	return p
}

// RangeDefault is a default range filter keyed by its query parameter
type RangeDefault struct {
	Param string
	Value *int
}

// RangeDefaults lists every default range filter
func (p ListPreferences) RangeDefaults() []RangeDefault {
	return []RangeDefault{
		{"minProfit", p.DefaultMinProfit}, {"minRoi", p.DefaultMinROI},
		{"minPsa10", p.DefaultMinPSA10}, {"maxPsa10", p.DefaultMaxPSA10},
		{"minBase", p.DefaultMinBase}, {"maxBase", p.DefaultMaxBase},
		{"minYear", p.DefaultMinYear}, {"maxYear", p.DefaultMaxYear},
		{"minPsa10Rate", p.DefaultMinPSA10Rate},
	}
}

// ListPreferences returns the saved list preferences, or the defaults when
// none were saved or the stored value cannot be read
func (s *AppSettings) ListPreferences() ListPreferences {
	if s == nil || s.UIPreferences == nil {
		return DefaultListPreferences()
	}
	raw, ok := s.UIPreferences[ListPreferencesKey]
	if !ok || raw == nil {
		return DefaultListPreferences()
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return DefaultListPreferences()
	}
	var prefs ListPreferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return DefaultListPreferences()
	}
	return prefs.Normalized()
}
