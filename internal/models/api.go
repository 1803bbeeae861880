package models

type CreateSessionRequest struct {
	Area            string  `json:"area"`
	Topic           *string `json:"topic,omitempty"`
	EvaluationID    *int64  `json:"evaluation_id,omitempty"`
	Quota           int     `json:"quota,omitempty"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
}

type SubmitAnswerRequest struct {
	QuestionID       int64  `json:"question_id"`
	SelectedOptionID *int64 `json:"selected_option_id"` // null = expired/blank
	UsedHint         bool   `json:"used_hint"`
}

type SubmitAnswerResponse struct {
	Correct       bool  `json:"correct"`
	QuestionLevel int   `json:"question_level"`
	OrderIndex    int   `json:"order_index"`
	NewLevel      int   `json:"new_level"`
	XPAwarded     int   `json:"xp_awarded"`
	AnswerID      int64 `json:"answer_id"`
}

type ForceFinishRequest struct {
	Reason string `json:"reason,omitempty"`
}

type NextItemResponse struct {
	Finished bool              `json:"finished"`
	Question *ServableQuestion `json:"question,omitempty"`
	Score    *int              `json:"score,omitempty"`
	Reason   string            `json:"reason,omitempty"`
}

type SessionDetailResponse struct {
	Session Session         `json:"session"`
	Answers []SessionAnswer `json:"answers"`
}

type ProgressResponse struct {
	Profile       LearnerProfile `json:"profile"`
	Level         int            `json:"level"`
	XPToNextLevel int64          `json:"xp_to_next_level"`
}

type HintResponse struct {
	QuestionID int64  `json:"question_id"`
	Hint       string `json:"hint"`
}
