package database

import (
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// RunMigrations runs data migrations after schema changes. Each step is
// idempotent.
func RunMigrations(db *gorm.DB) error {
	if err := normalizeSeriesPipes(db); err != nil {
		return err
	}
	return clearBlankSeriesOverrides(db)
}

// normalizeSeriesPipes rewrites full-width pipes in series keys to ASCII so
// a key has one stored form. The ingestion job has written both.
func normalizeSeriesPipes(db *gorm.DB) error {
	for _, table := range []string{"gemrate_stats", "gemrate_mappings", "products"} {
		column := "series_name"
		if table == "products" {
			column = "gemrate_series_name"
		}
		if !db.Migrator().HasColumn(table, column) {
			continue
		}
		result := db.Exec(
			"UPDATE "+table+" SET "+column+" = REPLACE("+column+", ?, ?) WHERE "+column+" LIKE ?",
			"｜", "|", "%｜%",
		)
		if result.Error != nil {
			if table == "gemrate_mappings" {
				// series_name is the primary key; a row may already exist in ASCII form
				log.Warn().Err(result.Error).Str("table", table).Msg("failed to normalise series pipes")
				continue
			}
			return result.Error
		}
		if result.RowsAffected > 0 {
			log.Info().Str("table", table).Int64("rows", result.RowsAffected).Msg("Normalised full-width series pipes")
		}
	}
	return nil
}

// clearBlankSeriesOverrides turns whitespace-only overrides into empty strings
// so they fall back to the derived series key
func clearBlankSeriesOverrides(db *gorm.DB) error {
	if !db.Migrator().HasColumn("products", "gemrate_series_name") {
		return nil
	}
	return db.Exec(`UPDATE products SET gemrate_series_name = '' WHERE gemrate_series_name IS NOT NULL AND TRIM(gemrate_series_name) = '' AND gemrate_series_name <> ''`).Error
}
