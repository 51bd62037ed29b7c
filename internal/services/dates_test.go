package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseReleaseDate(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
		ok   bool
	}{
		{"2025-10-25", time.Date(2025, 10, 25, 0, 0, 0, 0, time.UTC), true},
		{"2025年10月25日", time.Date(2025, 10, 25, 0, 0, 0, 0, Location), true},
		{"2025年1月5日", time.Date(2025, 1, 5, 0, 0, 0, 0, Location), true},
		{"2025/10/25", time.Date(2025, 10, 25, 0, 0, 0, 0, Location), true},
		{"", time.Time{}, false},
		{"近日発売", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseReleaseDate(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, got.Equal(tt.want), "got %s", got)
			}
		})
	}
}

func TestReleaseDateMillisUnparseableIsZero(t *testing.T) {
	assert.Equal(t, int64(0), ReleaseDateMillis("未定"))
	assert.Equal(t, time.Date(2025, 10, 25, 0, 0, 0, 0, time.UTC).UnixMilli(), ReleaseDateMillis("2025-10-25"))
}

func TestReleaseYear(t *testing.T) {
	tests := []struct {
		raw  string
		want int
		ok   bool
	}{
		{"2025-10-25", 2025, true},
		{"2024年12月", 2024, true},
		{"2023年", 2023, true},
		{"2025/03/01", 2025, true},
		{"", 0, false},
		{"TBD", 0, false},
	}
	for _, tt := range tests {
		got, ok := ReleaseYear(tt.raw)
		assert.Equal(t, tt.ok, ok, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestFormatReleaseDate(t *testing.T) {
	assert.Equal(t, "2025/10/25", FormatReleaseDate("2025-10-25"))
	assert.Equal(t, "2025/10/25", FormatReleaseDate("2025年10月25日"))
	assert.Equal(t, "—", FormatReleaseDate(""))
	assert.Equal(t, "—", FormatReleaseDate("soon"))
}
