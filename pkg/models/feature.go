package models

// FeatureCollection is the GeoJSON payload handed to the map renderer.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a single map point.
type Feature struct {
	Type       string            `json:"type"`
	Geometry   Point             `json:"geometry"`
	Properties FeatureProperties `json:"properties"`
}

// Point is a GeoJSON point. Coordinates are [lon, lat].
type Point struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// FeatureProperties carries what the renderer needs to style a dot and what
// the click handler needs to open the place.
type FeatureProperties struct {
	PlaceID       string  `json:"place_id"`
	Title         *string `json:"title"`
	DotColor      string  `json:"dot_color"`
	DotSizeFactor float64 `json:"dot_size_factor"`
}

// EmptyFeatureCollection returns a collection with a non-nil, empty feature
// list so it encodes as [] rather than null.
func EmptyFeatureCollection() FeatureCollection {
	return FeatureCollection{Type: "FeatureCollection", Features: []Feature{}}
}
