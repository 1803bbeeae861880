package engine

import (
	"time"

	"github.com/aulaprep/backend/internal/models"
)

// SessionStore is the persistence contract for sessions and their
// append-only answer logs.
type SessionStore interface {
	// GetSession returns models.ErrSessionNotFound for unknown ids.
	GetSession(id int64) (*models.Session, error)
	CreateSession(sess *models.Session) error
	UpdateSessionLevel(id int64, level int) error
	// CompleteSession transitions status to completed and stores the final
	// score and reason. It must be a no-op refused by the caller if the
	// session is already completed (the service guards this under the
	// per-session lock).
	CompleteSession(id int64, score int, reason string, completedAt time.Time) error
	// ListAnswers returns the session's answer records ordered by
	// ascending order index.
	ListAnswers(sessionID int64) ([]models.SessionAnswer, error)
	InsertAnswer(ans *models.SessionAnswer) error
}

// QuestionStore is the engine's read-only view of the item bank.
type QuestionStore interface {
	// GetQuestion returns models.ErrQuestionNotFound for unknown ids.
	GetQuestion(id int64) (*models.Question, error)
	// QuestionsInArea returns items in an area, optionally pinned to one
	// level (level 0 means any level), excluding the given ids.
	QuestionsInArea(area string, level int, excludeIDs []int64) ([]models.Question, error)
	// QuestionsByIDs returns the subset of the given ids that exist,
	// optionally pinned to one level (0 = any).
	QuestionsByIDs(ids []int64, level int) ([]models.Question, error)
	// MissedQuestionIDs returns the distinct question ids the learner has
	// ever answered incorrectly, across all sessions.
	MissedQuestionIDs(userID int64) ([]int64, error)
}
