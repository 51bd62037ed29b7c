package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestFeeSettingsUnmarshalFillsDefaults(t *testing.T) {
	var f FeeSettings
	require.NoError(t, json.Unmarshal([]byte(`{"psaValue": 3000, "snkrdunkFeePercent": 0}`), &f))

	want := DefaultFeeSettings()
	want.PSAValue = 3000
	want.SnkrdunkFeePercent = 0
	assert.Equal(t, want, f)

	assert.Error(t, json.Unmarshal([]byte(`{"psaValue": "x"}`), &f))
}

func TestSellingFeeRate(t *testing.T) {
	f := DefaultFeeSettings()
	assert.InDelta(t, 0.08, f.SellingFeeRate(SalesSnkrdunk), 1e-12)
	assert.InDelta(t, 0.1, f.SellingFeeRate(SalesMercari), 1e-12)
	assert.InDelta(t, 0.1, f.SellingFeeRate(""), 1e-12)
}

func TestPSAPlans(t *testing.T) {
	plans := DefaultFeeSettings().PSAPlans()
	require.Len(t, plans, 6)
	for i := 1; i < len(plans); i++ {
		assert.Less(t, plans[i-1].Price, plans[i].Price)
	}
	assert.Equal(t, DefaultPSAPlanID, plans[1].ID)
	assert.Equal(t, 4980.0, plans[1].Price)
}

func TestAppSettingsAccessors(t *testing.T) {
	var nilSettings *AppSettings
	assert.Nil(t, nilSettings.Fees())
	assert.Empty(t, nilSettings.GemrateURL("a|2025", "p1", "c1"))

	doc := datatypes.NewJSONType(DefaultFeeSettings())
	s := &AppSettings{
		FeeSettings: &doc,
		GemrateURLs: datatypes.JSONMap{"p1": "https://www.gemrate.com/by-id", "a|2025": 12},
	}
	require.NotNil(t, s.Fees())
	assert.Equal(t, DefaultFeeSettings(), *s.Fees())
	assert.Equal(t, "https://www.gemrate.com/by-id", s.GemrateURL("a|2025", "p1", "c1"))
	assert.Empty(t, s.GemrateURL("", "", "c1"))
}
