package services

import (
	"regexp"
	"strconv"
	"strings"
)

// CatalogKey identifies a card inside the grading report
type CatalogKey struct {
	PackName   string
	CardNumber string
	Year       int // 0 when the release year is unknown
}

var (
	// pack name: 「…」 inside a (…) group
	packPattern    = regexp.MustCompile(`\([^)]*?「([^」]+)」[^)]*\)`)
	bracketPattern = regexp.MustCompile(`\[([^\]]+)\]`)
	slashNumber    = regexp.MustCompile(`\s*(\d+)\s*/\s*\d+`)
	hyphenNumber   = regexp.MustCompile(`-\s*(\d+)\s*$`)
	anyNumber      = regexp.MustCompile(`(\d+)`)
)

// ParseCatalogName extracts the pack name and card number from a display name.
//
//	[OP13-120](ブースターパック「受け継がれる意志」)    → 受け継がれる意志, 120
//	[M2a 240/193](ハイクラスパック「MEGAドリームex」) → MEGAドリームex, 240
func ParseCatalogName(name string) (packName, cardNumber string) {
	s := strings.TrimSpace(name)
	if s == "" {
		return "", ""
	}
	if m := packPattern.FindStringSubmatch(s); m != nil {
		packName = strings.TrimSpace(m[1])
	}

	m := bracketPattern.FindStringSubmatch(s)
	if m == nil {
		return packName, ""
	}
	inner := strings.TrimSpace(m[1])
	switch {
	case slashNumber.MatchString(inner):
		cardNumber = slashNumber.FindStringSubmatch(inner)[1]
	case hyphenNumber.MatchString(inner):
		cardNumber = hyphenNumber.FindStringSubmatch(inner)[1]
	default:
		if n := anyNumber.FindStringSubmatch(inner); n != nil {
			cardNumber = n[1]
		}
	}
	return packName, cardNumber
}

// BuildSeriesKey returns "pack|year", or "" unless both parts are known
func BuildSeriesKey(name, releaseDate string) string {
	pack, _ := ParseCatalogName(name)
	year, ok := ReleaseYear(releaseDate)
	if pack == "" || !ok {
		return ""
	}
	return pack + "|" + strconv.Itoa(year)
}

// ParseCatalogKey returns nil unless both pack name and card number are present
func ParseCatalogKey(name, releaseDate string) *CatalogKey {
	pack, number := ParseCatalogName(name)
	if pack == "" || number == "" {
		return nil
	}
	key := &CatalogKey{PackName: pack, CardNumber: number}
	if y, ok := ReleaseYear(releaseDate); ok {
		key.Year = y
	}
	return key
}
