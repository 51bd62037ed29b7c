package models

// Liquidity ranks recent trade volume, S being the most liquid
type Liquidity string

const (
	LiquidityS Liquidity = "S"
	LiquidityA Liquidity = "A"
	LiquidityB Liquidity = "B"
	LiquidityC Liquidity = "C"
)

// Stats is derived per product and never persisted.
//
// ExpectedProfit == 0 and ROI == 0 mean "not enough price data" as well as a
// literal zero. Callers rely on that (a ¥0 profit is hidden in the UI), so the
// ambiguity is kept rather than introducing a separate null.
type Stats struct {
	ExpectedProfit int       `json:"expectedProfit"`
	ROI            int       `json:"roi"`
	Liquidity      Liquidity `json:"liquidity"`
	LatestPSA10    float64   `json:"latestPsa10"` // 0 = unknown
	LatestBase     float64   `json:"latestBase"`  // 0 = unknown
	PSA10Rate      *int      `json:"psa10Rate"`
	RecentTrend    *int      `json:"recentTrend"`
}

// DefaultStats is used for products without any history
func DefaultStats() Stats {
	return Stats{Liquidity: LiquidityC}
}

// ListItem pairs a product with its computed stats
type ListItem struct {
	Item  Product `json:"item"`
	Stats Stats   `json:"stats"`
}

// ListError describes a store failure. It is distinct from an empty result.
type ListError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// ListResult is one page of the product list
type ListResult struct {
	List       []ListItem `json:"list"`
	TotalCount int        `json:"totalCount"`
	TotalPages int        `json:"totalPages"`
	Error      *ListError `json:"error"`
}
