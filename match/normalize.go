package match

import (
	"regexp"
	"strings"
)

var (
	nonAlnumRegex     = regexp.MustCompile(`[^a-z0-9\s]`)
	whitespaceRegex   = regexp.MustCompile(`\s+`)
	seasonTokensRegex = regexp.MustCompile(`(?i)\b(?:(?:season|part|cour)\s*\d+|\d+(?:st|nd|rd|th)\s+(?:season|part|cour)|s\d+)\b`)
	punctuationRegex  = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
)

// Normalize lowercases s, strips everything but letters, digits and spaces, and collapses whitespace.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = nonAlnumRegex.ReplaceAllString(s, "")
	s = whitespaceRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Simplify strips season, part and cour tokens and punctuation from a query.
//
//	Simplify("Attack on Titan Season 3: Part 2") // "Attack on Titan"
func Simplify(query string) string {
	query = seasonTokensRegex.ReplaceAllString(query, " ")
	query = punctuationRegex.ReplaceAllString(query, " ")
	query = whitespaceRegex.ReplaceAllString(query, " ")
	return strings.TrimSpace(query)
}

func words(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, " ")
}
