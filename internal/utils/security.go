package utils

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

// xssPatterns matches content that should never survive into a template
// substitution or a log line unescaped.
var xssPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script[^>]*>.*?</script>`),
	regexp.MustCompile(`(?i)<iframe[^>]*>.*?</iframe>`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)onerror\s*=`),
	regexp.MustCompile(`(?i)onload\s*=`),
}

// ValidateInput checks a query or chunk text for control characters, invalid
// UTF-8, and obvious script injection before it is used to build a search
// query or substituted into an injection template.
func ValidateInput(input string) (string, bool) {
	if input == "" {
		return "", true
	}

	for _, r := range input {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return "", false
		}
	}

	if !utf8.ValidString(input) {
		return "", false
	}

	for _, pattern := range xssPatterns {
		if pattern.MatchString(input) {
			return "", false
		}
	}

	return strings.TrimSpace(input), true
}

// SanitizeForLog strips newlines and control characters from a value before
// it is written to a structured log field, preventing log-injection via
// chunk text or chat content.
func SanitizeForLog(input string) string {
	if input == "" {
		return ""
	}

	sanitized := strings.ReplaceAll(input, "\n", " ")
	sanitized = strings.ReplaceAll(sanitized, "\r", " ")
	sanitized = strings.ReplaceAll(sanitized, "\t", " ")

	var builder strings.Builder
	for _, r := range sanitized {
		if r >= 32 || r == ' ' {
			builder.WriteRune(r)
		}
	}
	return builder.String()
}

// SanitizeForLogArray applies SanitizeForLog across a slice.
func SanitizeForLogArray(input []string) []string {
	if len(input) == 0 {
		return []string{}
	}
	sanitized := make([]string, 0, len(input))
	for _, item := range input {
		sanitized = append(sanitized, SanitizeForLog(item))
	}
	return sanitized
}

// EscapeHTML escapes HTML special characters for safe display.
func EscapeHTML(input string) string {
	if input == "" {
		return ""
	}
	return html.EscapeString(input)
}
