package models

// TradeHistory is one scraped sale. TradeDate is either an absolute timestamp
// or relative text such as "3日前"; ScrapedAt anchors the relative form.
type TradeHistory struct {
	ID        uint     `json:"id" gorm:"primaryKey;autoIncrement"`
	ProductID string   `json:"product_id" gorm:"not null;index"`
	Condition string   `json:"condition"`
	Price     *float64 `json:"price"`
	TradeDate string   `json:"trade_date"`
	ScrapedAt string   `json:"scraped_at" gorm:"index"`
}

// ConditionBucket groups free-text condition labels for price aggregation
type ConditionBucket string

const (
	BucketPSA10 ConditionBucket = "psa10"
	BucketBase  ConditionBucket = "base" // raw, ungraded state A
	BucketOther ConditionBucket = ""
)
