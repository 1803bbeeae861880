package engine

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/aulaprep/backend/internal/models"
	"github.com/aulaprep/backend/internal/progress"
)

// Service is the adaptive assessment engine. Every call for a given
// session runs under that session's lock, so order indices stay gapless
// and level transitions happen exactly once even when a client
// double-submits.
type Service struct {
	cfg      Config
	sessions SessionStore
	selector *Selector
	progress *progress.Service
	locks    *sessionLocks
	now      func() time.Time
}

func NewService(cfg Config, sessions SessionStore, questions QuestionStore, prog *progress.Service) *Service {
	return &Service{
		cfg:      cfg,
		sessions: sessions,
		selector: NewSelector(questions, rand.New(rand.NewSource(time.Now().UnixNano()))),
		progress: prog,
		locks:    newSessionLocks(),
		now:      time.Now,
	}
}

func (s *Service) Config() Config {
	return s.cfg
}

// CreateSession starts a new adaptive run. The practice mode is decided
// here, once: the spaced-review sentinel area is never re-parsed later.
func (s *Service) CreateSession(userID int64, req models.CreateSessionRequest) (*models.Session, error) {
	mode := models.ModeStandard
	if req.Area == models.SpacedReviewArea {
		mode = models.ModeSpacedReview
	}

	quota := req.Quota
	if quota <= 0 {
		quota = s.cfg.DefaultQuota
	}

	sess := &models.Session{
		UserID:          userID,
		EvaluationID:    req.EvaluationID,
		Mode:            mode,
		Area:            req.Area,
		TopicFilter:     req.Topic,
		CurrentLevel:    s.cfg.MinLevel,
		Quota:           quota,
		DurationMinutes: req.DurationMinutes,
		Status:          models.SessionInProgress,
		StartedAt:       s.now(),
	}
	if err := s.sessions.CreateSession(sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

func (s *Service) GetQuestion(questionID int64) (*models.Question, error) {
	return s.selector.questions.GetQuestion(questionID)
}

func (s *Service) GetSession(sessionID int64) (*models.Session, []models.SessionAnswer, error) {
	sess, err := s.sessions.GetSession(sessionID)
	if err != nil {
		return nil, nil, err
	}
	answers, err := s.sessions.ListAnswers(sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("list answers: %w", err)
	}
	return sess, answers, nil
}

// RecordAnswer appends an answer record, steps the session level, and
// awards per-answer XP. The record snapshots the level the question was
// presented at, before the adjustment.
func (s *Service) RecordAnswer(sessionID, questionID int64, selectedOptionID *int64, correct, usedHint bool) (*models.SessionAnswer, int, int, error) {
	mu := s.locks.lock(sessionID)
	defer mu.Unlock()

	sess, err := s.sessions.GetSession(sessionID)
	if err != nil {
		return nil, 0, 0, err
	}
	if sess.Status == models.SessionCompleted {
		return nil, 0, 0, models.ErrSessionCompleted
	}

	answers, err := s.sessions.ListAnswers(sessionID)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("list answers: %w", err)
	}
	nextIndex := 1
	for _, a := range answers {
		if a.OrderIndex >= nextIndex {
			nextIndex = a.OrderIndex + 1
		}
	}

	now := s.now()
	rec := &models.SessionAnswer{
		SessionID:        sessionID,
		QuestionID:       questionID,
		SelectedOptionID: selectedOptionID,
		Correct:          correct,
		QuestionLevel:    sess.CurrentLevel,
		OrderIndex:       nextIndex,
		PresentedAt:      now,
		AnsweredAt:       now,
	}
	if err := s.sessions.InsertAnswer(rec); err != nil {
		return nil, 0, 0, fmt.Errorf("insert answer: %w", err)
	}

	newLevel := s.cfg.NextLevel(sess.CurrentLevel, correct)
	if err := s.sessions.UpdateSessionLevel(sessionID, newLevel); err != nil {
		return nil, 0, 0, fmt.Errorf("update level: %w", err)
	}

	xp := s.cfg.AnswerXP(rec.QuestionLevel, correct, usedHint)
	if xp > 0 {
		if err := s.progress.AwardAnswerXP(sess.UserID, xp); err != nil {
			return nil, 0, 0, fmt.Errorf("award xp: %w", err)
		}
	}

	return rec, newLevel, xp, nil
}

// NextItem evaluates the stop conditions and, if none fire, selects the
// next item. A completed session returns its stored result unchanged, so
// client retries are harmless. A call never both terminates and serves.
func (s *Service) NextItem(sessionID int64) (*models.NextItemResult, error) {
	mu := s.locks.lock(sessionID)
	defer mu.Unlock()

	sess, err := s.sessions.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == models.SessionCompleted {
		return storedResult(sess), nil
	}

	answers, err := s.sessions.ListAnswers(sessionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}

	if reason, stop := s.cfg.ShouldTerminate(sess, answers); stop {
		return s.finalize(sess, Score(answers), reason)
	}

	var question *models.Question
	if sess.Mode == models.ModeSpacedReview {
		missed, err := s.selector.questions.MissedQuestionIDs(sess.UserID)
		if err != nil {
			return nil, fmt.Errorf("load missed questions: %w", err)
		}
		if len(missed) == 0 && len(answers) == 0 {
			// Nothing to review: the run ends immediately as a success.
			return s.finalize(sess, 100, ReasonNoReviewItems)
		}
		question, err = s.selector.NextReview(sess, answers, missed)
		if err != nil {
			return nil, err
		}
	} else {
		question, err = s.selector.Next(sess, answers)
		if err != nil {
			return nil, err
		}
	}

	if question == nil {
		return s.finalize(sess, Score(answers), ReasonPoolExhausted)
	}

	return &models.NextItemResult{Finished: false, Question: question}, nil
}

// ForceFinish closes a session on behalf of the caller, e.g. when an
// external time-box elapses. Finishing an already-completed session
// returns the stored result.
func (s *Service) ForceFinish(sessionID int64, reason string) (*models.NextItemResult, error) {
	mu := s.locks.lock(sessionID)
	defer mu.Unlock()

	sess, err := s.sessions.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == models.SessionCompleted {
		return storedResult(sess), nil
	}

	answers, err := s.sessions.ListAnswers(sessionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	if reason == "" {
		reason = ReasonTimeExpired
	}
	return s.finalize(sess, Score(answers), reason)
}

// finalize is called with the session lock held and the session still in
// progress, so profile rewards apply exactly once. Rewards are written
// before the status flip: if either write fails the session stays in
// progress and the caller's retry runs the whole finalize again.
func (s *Service) finalize(sess *models.Session, score int, reason string) (*models.NextItemResult, error) {
	bonus := s.cfg.CompletionBonusXP(score)
	if err := s.progress.RecordCompletion(sess.UserID, bonus); err != nil {
		return nil, fmt.Errorf("record completion: %w", err)
	}

	if err := s.sessions.CompleteSession(sess.ID, score, reason, s.now()); err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}

	return &models.NextItemResult{Finished: true, Score: score, Reason: reason}, nil
}

func storedResult(sess *models.Session) *models.NextItemResult {
	res := &models.NextItemResult{Finished: true}
	if sess.FinalScore != nil {
		res.Score = *sess.FinalScore
	}
	if sess.ResultReason != nil {
		res.Reason = *sess.ResultReason
	}
	return res
}
