package models

// Product is a catalog entry maintained by the ingestion process.
// Name usually embeds the card number and pack, e.g.
// "[OP13-120](ブースターパック「受け継がれる意志」)".
type Product struct {
	ID              string `json:"id" gorm:"primaryKey"`
	NameJP          string `json:"name_jp" gorm:"column:name_jp;index"`
	Brand           string `json:"brand" gorm:"index"`
	Category        string `json:"category"`
	ReleaseDate     string `json:"release_date" gorm:"index"` // ISO or "2025年10月25日"
	ProductCode     string `json:"product_code"`
	ImageURL        string `json:"image_url"`
	IsTarget        bool   `json:"is_target" gorm:"index"`
	IsFavorite      bool   `json:"is_favorite"`
	IsBlacklisted   bool   `json:"is_blacklisted"`
	CardDescription string `json:"card_description"`
	// GemrateSeriesName overrides the series key derived from NameJP + ReleaseDate.
	GemrateSeriesName string `json:"gemrate_series_name,omitempty" gorm:"column:gemrate_series_name"`
	LastUpdated       string `json:"updated_at" gorm:"column:updated_at;index"`
}

// ProductFlags is the subset returned after a favourite/blacklist toggle
type ProductFlags struct {
	ID            string `json:"id"`
	IsFavorite    bool   `json:"is_favorite"`
	IsBlacklisted bool   `json:"is_blacklisted"`
}

// ProductPatch carries the user-toggleable flags. Nil fields are left untouched.
type ProductPatch struct {
	IsFavorite    *bool `json:"is_favorite"`
	IsBlacklisted *bool `json:"is_blacklisted"`
}

// Empty reports whether the patch would change nothing
func (p ProductPatch) Empty() bool {
	return p.IsFavorite == nil && p.IsBlacklisted == nil
}

// Brand tags used by the list filters (substring match on Product.Brand)
const (
	BrandPokeca   = "ポケカ"
	BrandOnePiece = "ワンピース"
)
