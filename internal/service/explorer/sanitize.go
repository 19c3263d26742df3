package explorer

import (
	"regexp"
	"strings"
)

var (
	angleBrackets   = regexp.MustCompile(`[<>]`)
	javascriptURL   = regexp.MustCompile(`(?i)javascript:`)
	inlineHandler   = regexp.MustCompile(`(?i)on\w+=`)
	invalidNameChar = regexp.MustCompile(`[/\\:*?"<>|\x00-\x1f\x7f]`)
)

// SanitizeText strips markup and script fragments from user text.
// Applied to every name and description before validation.
func SanitizeText(s string) string {
	s = angleBrackets.ReplaceAllString(s, "")
	s = javascriptURL.ReplaceAllString(s, "")
	s = inlineHandler.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// sanitizeOptional sanitizes a description-like pointer. An empty result
// becomes nil so blank descriptions are stored as null.
func sanitizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	clean := SanitizeText(*s)
	if clean == "" {
		return nil
	}
	return &clean
}

// storageName turns a sanitized display name into the blob key suffix.
// Whitespace runs become a single dash.
func storageName(name string) string {
	return strings.Join(strings.Fields(name), "-")
}
