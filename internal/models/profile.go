package models

import "time"

// LearnerProfile is shared state across all of a learner's sessions.
// XP only ever goes up; streak bookkeeping is driven by last_active_date.
type LearnerProfile struct {
	UserID         int64      `json:"user_id"`
	XP             int64      `json:"xp"`
	CurrentStreak  int        `json:"current_streak"`
	LastActiveDate *time.Time `json:"last_active_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
