package geo

import "newsmap/pkg/models"

// Normalize keeps the rows that can be drawn, i.e. both coordinates are
// present and finite, in their original order.
func Normalize(rows []models.LocationStat) []models.LocationStat {
	out := make([]models.LocationStat, 0, len(rows))
	for _, row := range rows {
		if row.HasCoordinates() {
			out = append(out, row)
		}
	}
	return out
}
