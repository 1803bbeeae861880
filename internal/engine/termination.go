package engine

import "github.com/aulaprep/backend/internal/models"

// Termination reasons stored on the session and returned to clients.
const (
	ReasonCompletedAllItems = "completed all items"
	ReasonBurnout           = "burnout: too many consecutive failures at minimum level"
	ReasonPoolExhausted     = "item pool exhausted"
	ReasonTimeExpired       = "time expired"
	ReasonNoReviewItems     = "no pending review items"
)

// SessionQuota resolves the effective item quota for a session.
func (c Config) SessionQuota(sess *models.Session) int {
	if sess.Quota > 0 {
		return sess.Quota
	}
	return c.DefaultQuota
}

// ShouldTerminate evaluates the stop conditions that can be decided from
// the answer log alone, before any item selection happens. Pool exhaustion
// is reported by the selector, not here.
func (c Config) ShouldTerminate(sess *models.Session, answers []models.SessionAnswer) (string, bool) {
	if len(answers) >= c.SessionQuota(sess) {
		return ReasonCompletedAllItems, true
	}

	// Burnout: the last BurnoutWindow answers were all wrong, all at the
	// minimum level. Not evaluated until that many answers exist.
	if len(answers) >= c.BurnoutWindow {
		burned := true
		for _, a := range answers[len(answers)-c.BurnoutWindow:] {
			if a.Correct || a.QuestionLevel != c.MinLevel {
				burned = false
				break
			}
		}
		if burned {
			return ReasonBurnout, true
		}
	}

	return "", false
}
