package models

import "time"

type SessionMode string

const (
	ModeStandard     SessionMode = "standard"
	ModeSpacedReview SessionMode = "spaced_review"
)

// SpacedReviewArea is the area name legacy clients send to request a
// spaced-review session. It is interpreted once, at session creation;
// after that only Session.Mode matters.
const SpacedReviewArea = "Repaso Espaciado"

type SessionStatus string

const (
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
)

// Session is one adaptive run for one learner. CurrentLevel is the mutable
// calibration pointer; the level each question was served at lives on the
// answer record, not here.
type Session struct {
	ID              int64         `json:"id"`
	UserID          int64         `json:"user_id"`
	EvaluationID    *int64        `json:"evaluation_id,omitempty"` // nil = free practice
	Mode            SessionMode   `json:"mode"`
	Area            string        `json:"area"`
	TopicFilter     *string       `json:"topic_filter,omitempty"` // comma-joined keywords
	CurrentLevel    int           `json:"current_level"`
	Quota           int           `json:"quota"`
	DurationMinutes *int          `json:"duration_minutes,omitempty"`
	Status          SessionStatus `json:"status"`
	FinalScore      *int          `json:"final_score,omitempty"`
	ResultReason    *string       `json:"result_reason,omitempty"`
	StartedAt       time.Time     `json:"started_at"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
}

// SessionAnswer is the append-only log of served items. QuestionLevel is
// snapshotted at presentation time and is what scoring sums over; it must
// never be read from the session's mutable CurrentLevel.
type SessionAnswer struct {
	ID               int64     `json:"id"`
	SessionID        int64     `json:"session_id"`
	QuestionID       int64     `json:"question_id"`
	SelectedOptionID *int64    `json:"selected_option_id,omitempty"` // nil = unanswered/expired
	Correct          bool      `json:"correct"`
	QuestionLevel    int       `json:"question_level"`
	OrderIndex       int       `json:"order_index"`
	PresentedAt      time.Time `json:"presented_at"`
	AnsweredAt       time.Time `json:"answered_at"`
}

// NextItemResult is the outcome of a next-item request: either a question to
// present or a terminal result, never both.
type NextItemResult struct {
	Finished bool      `json:"finished"`
	Question *Question `json:"question,omitempty"`
	Score    int       `json:"score,omitempty"`
	Reason   string    `json:"reason,omitempty"`
}
