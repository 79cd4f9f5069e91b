package handlers

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Validation limits for path parameters.
const (
	maxPlaceIDLen     = 512
	maxArticleUUIDLen = 64
)

// validatePlaceID checks a place id path segment and returns the first
// error found.
func validatePlaceID(id string) string {
	return validateID("place_id", id, maxPlaceIDLen)
}

// validateArticleUUID checks an article uuid path segment.
func validateArticleUUID(id string) string {
	return validateID("article_uuid", id, maxArticleUUIDLen)
}

func validateID(name, id string, maxLen int) string {
	if strings.TrimSpace(id) == "" {
		return name + " is required"
	}
	if !utf8.ValidString(id) {
		return name + " is not valid UTF-8"
	}
	if utf8.RuneCountInString(id) > maxLen {
		return fmt.Sprintf("%s is too long (max %d characters)", name, maxLen)
	}
	if strings.IndexFunc(id, unicode.IsControl) >= 0 {
		return name + " contains control characters"
	}
	return ""
}
