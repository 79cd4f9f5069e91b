package geo

import (
	"math"
	"time"

	"newsmap/pkg/models"
)

// coordinatePrecision keeps five decimals (about a metre), which is plenty
// for a dot and trims the payload.
const coordinatePrecision = 1e5

// BuildFeatureCollection normalizes and weights the rows and returns the
// feature collection for the map. The output depends only on its inputs.
func BuildFeatureCollection(rows []models.LocationStat, today time.Time, p Palette) models.FeatureCollection {
	fc := models.EmptyFeatureCollection()

	for _, row := range Normalize(rows) {
		var count float64
		if row.Count != nil {
			count = float64(*row.Count)
		}
		var pubDate time.Time
		if row.PubDate != nil {
			pubDate = *row.PubDate
		}

		fc.Features = append(fc.Features, models.Feature{
			Type: "Feature",
			Geometry: models.Point{
				Type:        "Point",
				Coordinates: [2]float64{round(*row.Lon), round(*row.Lat)},
			},
			Properties: models.FeatureProperties{
				PlaceID:       row.PlaceID,
				Title:         row.FormattedAddress,
				DotColor:      p.RecencyColor(today, pubDate),
				DotSizeFactor: SizeFactor(count),
			},
		})
	}
	return fc
}

func round(v float64) float64 {
	return math.Round(v*coordinatePrecision) / coordinatePrecision
}
