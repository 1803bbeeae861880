package progress

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aulaprep/backend/internal/models"
)

// ProfileStore is the persistence contract for learner profiles. XP adds
// must be atomic relative to concurrent sessions for the same learner.
type ProfileStore interface {
	GetOrCreate(userID int64) (*models.LearnerProfile, error)
	AddXP(userID int64, amount int) error
	// SetStreak writes the streak transition computed from prevLastActive;
	// the write only lands if last_active_date still matches that value.
	SetStreak(userID int64, streak int, lastActive time.Time, prevLastActive *time.Time) error
}

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetOrCreate(userID int64) (*models.LearnerProfile, error) {
	_, err := s.db.Exec(
		`INSERT INTO learner_profiles (user_id) VALUES ($1)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}

	var p models.LearnerProfile
	err = s.db.QueryRow(
		`SELECT user_id, xp, current_streak, last_active_date, created_at, updated_at
		 FROM learner_profiles WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &p.XP, &p.CurrentStreak, &p.LastActiveDate, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &p, nil
}

// AddXP is a single atomic increment; concurrent sessions for the same
// learner never lose an award.
func (s *Store) AddXP(userID int64, amount int) error {
	_, err := s.db.Exec(
		`UPDATE learner_profiles SET xp = xp + $2, updated_at = NOW()
		 WHERE user_id = $1`,
		userID, amount,
	)
	return err
}

// SetStreak is an optimistic update: the guard on last_active_date drops
// the write when another finalize advanced the streak in between, instead
// of overwriting it with a stale transition.
func (s *Store) SetStreak(userID int64, streak int, lastActive time.Time, prevLastActive *time.Time) error {
	_, err := s.db.Exec(
		`UPDATE learner_profiles SET current_streak = $2, last_active_date = $3, updated_at = NOW()
		 WHERE user_id = $1 AND last_active_date IS NOT DISTINCT FROM $4`,
		userID, streak, lastActive, prevLastActive,
	)
	return err
}
