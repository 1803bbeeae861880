package engine

import (
	"testing"

	"github.com/aulaprep/backend/internal/models"
)

func TestNormalizeTopic(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Álgebra", "algebra"},
		{"  Comprensión Lectora  ", "comprension lectora"},
		{"número", "numero"},
		{"geometry", "geometry"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := normalizeTopic(tt.in); got != tt.want {
			t.Errorf("normalizeTopic(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSplitTopicFilter(t *testing.T) {
	got := splitTopicFilter("Álgebra, , fracciones ,")
	want := []string{"algebra", "fracciones"}
	if len(got) != len(want) {
		t.Fatalf("splitTopicFilter returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("keyword %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTopicMatches(t *testing.T) {
	sub := "Álgebra básica"
	q := models.Question{
		Subtopic:  &sub,
		TopicTags: []string{"Ecuaciones", "números enteros"},
	}

	// Accent-insensitive containment against the subtopic
	if !topicMatches(q, []string{"algebra"}) {
		t.Error("expected 'algebra' to match subtopic 'Álgebra básica'")
	}

	// Keyword containing the field also matches
	if !topicMatches(q, []string{"ecuaciones lineales"}) {
		t.Error("expected containment in either direction to match")
	}

	// Tag match
	if !topicMatches(q, []string{"numeros"}) {
		t.Error("expected 'numeros' to match tag 'números enteros'")
	}

	// No keyword overlap
	if topicMatches(q, []string{"geometria"}) {
		t.Error("expected 'geometria' not to match")
	}

	// Empty keyword list matches everything
	if !topicMatches(q, nil) {
		t.Error("expected empty keywords to match")
	}

	// A question with no topic fields never matches a non-empty filter
	bare := models.Question{}
	if topicMatches(bare, []string{"algebra"}) {
		t.Error("expected question without topic fields not to match")
	}
}
