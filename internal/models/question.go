package models

import "time"

// Question is read-only from the engine's perspective: the item bank is
// authored elsewhere, the engine only filters and serves.
type Question struct {
	ID        int64            `json:"id"`
	Area      string           `json:"area"`
	Subtopic  *string          `json:"subtopic,omitempty"`
	TopicTags []string         `json:"topic_tags,omitempty"`
	Level     int              `json:"level"`
	Content   string           `json:"content"`
	Options   []QuestionOption `json:"options,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}

type QuestionOption struct {
	ID         int64  `json:"id"`
	QuestionID int64  `json:"question_id"`
	Label      string `json:"label"`
	Text       string `json:"text"`
	IsCorrect  bool   `json:"is_correct"`
}

// CorrectOption reports whether the given option id is one of the
// marked-correct options.
func (q *Question) CorrectOption(optionID int64) bool {
	for _, o := range q.Options {
		if o.ID == optionID && o.IsCorrect {
			return true
		}
	}
	return false
}

// ServableQuestion is the client-facing view of a question: same item,
// answer flags stripped.
type ServableQuestion struct {
	ID       int64            `json:"id"`
	Area     string           `json:"area"`
	Subtopic *string          `json:"subtopic,omitempty"`
	Level    int              `json:"level"`
	Content  string           `json:"content"`
	Options  []ServableOption `json:"options"`
}

type ServableOption struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

func (q *Question) ToServable() ServableQuestion {
	sq := ServableQuestion{
		ID:       q.ID,
		Area:     q.Area,
		Subtopic: q.Subtopic,
		Level:    q.Level,
		Content:  q.Content,
	}
	for _, o := range q.Options {
		sq.Options = append(sq.Options, ServableOption{ID: o.ID, Label: o.Label, Text: o.Text})
	}
	return sq
}
