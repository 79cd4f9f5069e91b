package selection

import (
	"net/url"
	"strings"
)

// DefaultBase is the map route.
const DefaultBase = "/nyc"

// Paths maps a selected place to a URL and back. With Query empty the
// place is the last path segment (/nyc/{place_id}); otherwise it is the
// named query parameter (/nyc?place={place_id}).
type Paths struct {
	Base  string
	Query string
}

func (p Paths) base() string {
	b := strings.TrimRight(p.Base, "/")
	if b == "" {
		return DefaultBase
	}
	return b
}

// Path returns the URL for placeID, or the base path when placeID is empty.
func (p Paths) Path(placeID string) string {
	if placeID == "" {
		return p.base()
	}
	if p.Query != "" {
		return p.base() + "?" + url.Values{p.Query: {placeID}}.Encode()
	}
	return p.base() + "/" + url.PathEscape(placeID)
}

// Parse extracts the place id from a URL path. It returns "" when the path
// selects no place or lies outside the base path.
func (p Paths) Parse(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	rest, ok := strings.CutPrefix(strings.TrimRight(u.EscapedPath(), "/"), p.base())
	if !ok || (rest != "" && rest[0] != '/') {
		return ""
	}

	if p.Query != "" {
		return strings.TrimSpace(u.Query().Get(p.Query))
	}

	rest = strings.TrimPrefix(rest, "/")
	if rest == "" || strings.Contains(rest, "/") {
		return ""
	}
	id, err := url.PathUnescape(rest)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(id)
}
