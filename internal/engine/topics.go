package engine

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/aulaprep/backend/internal/models"
)

// stripAccents decomposes to NFD, drops combining marks, and recomposes,
// so "Álgebra" and "algebra" compare equal after lowercasing.
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func normalizeTopic(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	out, _, err := transform.String(stripAccents, s)
	if err != nil {
		return s
	}
	return out
}

// splitTopicFilter breaks a comma-joined filter expression into normalized
// keywords, skipping empty segments.
func splitTopicFilter(filter string) []string {
	var keywords []string
	for _, part := range strings.Split(filter, ",") {
		if k := normalizeTopic(part); k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}

// topicMatches reports whether a question satisfies any of the filter
// keywords. A keyword matches when it contains, or is contained by, the
// question's subtopic or any of its topic tags (all normalized).
func topicMatches(q models.Question, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}

	var fields []string
	if q.Subtopic != nil {
		if f := normalizeTopic(*q.Subtopic); f != "" {
			fields = append(fields, f)
		}
	}
	for _, tag := range q.TopicTags {
		if f := normalizeTopic(tag); f != "" {
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		return false
	}

	for _, k := range keywords {
		for _, f := range fields {
			if strings.Contains(f, k) || strings.Contains(k, f) {
				return true
			}
		}
	}
	return false
}
