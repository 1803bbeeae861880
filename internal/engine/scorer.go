package engine

import (
	"math"

	"github.com/aulaprep/backend/internal/models"
)

// Score converts a leveled answer log into a 0-100 score. Each record is
// weighted by the level it was presented at, so sustained correctness at
// higher levels outweighs the same raw accuracy at the minimum level.
// A log with no answers scores 0 (the expected-points denominator would
// otherwise be a division by zero).
func Score(answers []models.SessionAnswer) int {
	expected := 0
	obtained := 0
	for _, a := range answers {
		expected += a.QuestionLevel
		if a.Correct {
			obtained += a.QuestionLevel
		}
	}
	if expected == 0 {
		return 0
	}

	ratio := 100 * float64(obtained) / float64(expected)
	if ratio > 100 {
		ratio = 100
	}
	return int(math.Round(ratio))
}
