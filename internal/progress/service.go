package progress

import (
	"fmt"
	"time"

	"github.com/aulaprep/backend/internal/models"
)

type Service struct {
	store ProfileStore
	now   func() time.Time
}

func NewService(store ProfileStore) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) GetProfile(userID int64) (*models.LearnerProfile, error) {
	return s.store.GetOrCreate(userID)
}

// AwardAnswerXP credits per-answer XP. Zero awards are dropped early so a
// wrong answer never touches the profile row.
func (s *Service) AwardAnswerXP(userID int64, amount int) error {
	if amount <= 0 {
		return nil
	}
	if _, err := s.store.GetOrCreate(userID); err != nil {
		return err
	}
	return s.store.AddXP(userID, amount)
}

// RecordCompletion applies the end-of-session profile updates: the daily
// streak transition and the completion XP bonus.
func (s *Service) RecordCompletion(userID int64, bonusXP int) error {
	profile, err := s.store.GetOrCreate(userID)
	if err != nil {
		return fmt.Errorf("get profile: %w", err)
	}

	now := s.now().UTC()
	streak := NextStreak(profile.CurrentStreak, profile.LastActiveDate, now)
	if err := s.store.SetStreak(userID, streak, now.Truncate(24*time.Hour), profile.LastActiveDate); err != nil {
		return fmt.Errorf("update streak: %w", err)
	}

	if bonusXP > 0 {
		if err := s.store.AddXP(userID, bonusXP); err != nil {
			return fmt.Errorf("add completion bonus: %w", err)
		}
	}
	return nil
}

// NextStreak computes the new daily streak given the previous last-active
// date: unchanged within the same calendar day, incremented on the next
// day, reset to 1 after any longer gap or on first activity.
func NextStreak(current int, lastActive *time.Time, now time.Time) int {
	if lastActive == nil {
		return 1
	}

	today := now.UTC().Truncate(24 * time.Hour)
	last := lastActive.UTC().Truncate(24 * time.Hour)

	switch days := int(today.Sub(last).Hours() / 24); {
	case days == 0:
		return current
	case days == 1:
		return current + 1
	default:
		return 1
	}
}
