package geo

import (
	"sort"
	"strings"

	"newsmap/pkg/models"
)

// DefaultRecentLimit is how many places the cold-start list shows.
const DefaultRecentLimit = 9

// SummarizeRecent ranks recently mentioned places by count, highest first,
// and keeps the top n (DefaultRecentLimit when n <= 0). Ties keep their
// input order.
func SummarizeRecent(rows []models.RecentLocationStat, n int) []models.RecentLocation {
	if n <= 0 {
		n = DefaultRecentLimit
	}

	out := make([]models.RecentLocation, 0, len(rows))
	for _, row := range rows {
		var count int64
		if row.Count != nil {
			count = *row.Count
		}
		out = append(out, models.RecentLocation{
			PlaceID: row.PlaceID,
			Name:    displayName(row),
			Count:   count,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})

	if len(out) > n {
		out = out[:n]
	}
	return out
}

// displayName prefers the curated name, then the mention text articles
// used most, then the geocoder's address.
func displayName(row models.RecentLocationStat) string {
	for _, candidate := range []*string{row.ManualName, row.ArticleLocationName, row.FormattedAddress} {
		if candidate != nil && strings.TrimSpace(*candidate) != "" {
			return strings.TrimSpace(*candidate)
		}
	}
	return row.PlaceID
}
