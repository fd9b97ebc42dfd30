package track

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"
)

// Filter returns the tracks whose title contains query, compared
// case-insensitively. Relative order is preserved and an empty query
// yields a copy of the whole catalog. The result is never nil.
func Filter(catalog []Track, query string) []Track {
	if query == "" {
		result := make([]Track, len(catalog))
		copy(result, catalog)
		return result
	}

	needle := strings.ToLower(query)
	result := lo.Filter(catalog, func(t Track, _ int) bool {
		return strings.Contains(strings.ToLower(t.Title), needle)
	})
	if result == nil {
		return []Track{}
	}
	return result
}

// FormatTime renders seconds as m:ss.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	total := int(math.Floor(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
