package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/codyseavey/grading-arbitrage/internal/models"
)

// ProductFilter narrows the eligible products. Only is_target products are
// ever returned.
type ProductFilter struct {
	FavoriteOnly bool
	// Brands are OR-ed substring matches on the brand column
	Brands []string
}

// ProductOrder asks the store to order by a plain column. It is a hint: the
// list engine applies its own stable sort afterwards.
type ProductOrder struct {
	Column    models.SortKey
	Ascending bool
}

// Store is the row store the services read from. Implementations must be
// safe for concurrent use.
type Store interface {
	FetchProducts(ctx context.Context, filter ProductFilter, order *ProductOrder) ([]models.Product, error)
	FetchProduct(ctx context.Context, id string) (*models.Product, error)
	// FetchTradeHistories returns at most limit rows, newest scraped_at first
	FetchTradeHistories(ctx context.Context, productIDs []string, limit int) ([]models.TradeHistory, error)
	// FetchGradingStats returns rows for the given series keys with the
	// series name normalised to the ASCII pipe. With no keys it returns up to
	// limit rows unfiltered.
	FetchGradingStats(ctx context.Context, seriesKeys []string, limit int) ([]models.GradingStat, error)
	// FetchGradingStatsByDescription returns every row whose trimmed card
	// description is one of descriptions, series name normalised
	FetchGradingStatsByDescription(ctx context.Context, descriptions []string) ([]models.GradingStat, error)
	FetchGradingMappings(ctx context.Context) ([]models.GradingMapping, error)
	// UpsertGradingMapping inserts or replaces the URL for a series key
	UpsertGradingMapping(ctx context.Context, mapping models.GradingMapping) error
	// FetchGradingSeriesCounts returns the stats row count per normalised series key
	FetchGradingSeriesCounts(ctx context.Context) ([]models.GradingSeriesCount, error)
	FetchSeriesKeysWithSuffix(ctx context.Context, suffixes []string, limit int) ([]string, error)
	FetchProductsReleasedIn(ctx context.Context, year int) ([]models.Product, error)
	PatchProduct(ctx context.Context, id string, patch models.ProductPatch) (*models.ProductFlags, error)
	UpdateCardDescription(ctx context.Context, id string, description string) error
	UpdateSeriesKey(ctx context.Context, ids []string, seriesKey string) error
	LoadAppSettings(ctx context.Context) (*models.AppSettings, error)
	SaveFeeSettings(ctx context.Context, fees models.FeeSettings) error
	// SaveListPreferences stores prefs under ui_preferences, keeping other keys
	SaveListPreferences(ctx context.Context, prefs models.ListPreferences) error
}

// ErrProductNotFound is returned when a product id does not exist
var ErrProductNotFound = errors.New("product not found")

// StoreError wraps a failed store call
type StoreError struct {
	Op   string
	Code string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// codedError is implemented by driver errors that carry a code (e.g. SQLSTATE)
type codedError interface {
	SQLState() string
}

func wrapStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	code := "STORE_FETCH"
	var ce codedError
	if errors.As(err, &ce) && ce.SQLState() != "" {
		code = ce.SQLState()
	}
	return &StoreError{Op: op, Code: code, Err: err}
}

// toListError converts a store failure for the list response
func toListError(err error) *models.ListError {
	var se *StoreError
	if errors.As(err, &se) {
		return &models.ListError{Code: se.Code, Message: se.Err.Error()}
	}
	return &models.ListError{Message: err.Error()}
}
