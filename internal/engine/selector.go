package engine

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/aulaprep/backend/internal/models"
)

// Selector picks the next unseen, on-topic, on-level item for a session,
// relaxing constraints stage by stage when a stage yields no candidates:
// area+level+topic, then area+level, then area at any level. A nil question
// with a nil error means the pool is exhausted.
//
// The rng is shared across sessions (engine locks are per-session), so
// pick serializes access to it.
type Selector struct {
	questions QuestionStore
	rngMu     sync.Mutex
	rng       *rand.Rand
}

func NewSelector(questions QuestionStore, rng *rand.Rand) *Selector {
	return &Selector{questions: questions, rng: rng}
}

// Next runs the cascade for a standard session.
func (sel *Selector) Next(sess *models.Session, answered []models.SessionAnswer) (*models.Question, error) {
	excludeIDs := answeredIDs(answered)

	seenTexts, err := sel.presentedTexts(answered)
	if err != nil {
		return nil, err
	}

	var keywords []string
	if sess.TopicFilter != nil {
		keywords = splitTopicFilter(*sess.TopicFilter)
	}

	// Each stage is only evaluated if every prior stage came up empty.
	stages := []func() ([]models.Question, error){
		func() ([]models.Question, error) {
			if len(keywords) == 0 {
				return nil, nil
			}
			pool, err := sel.questions.QuestionsInArea(sess.Area, sess.CurrentLevel, excludeIDs)
			if err != nil {
				return nil, err
			}
			return filterTopics(pool, keywords), nil
		},
		func() ([]models.Question, error) {
			return sel.questions.QuestionsInArea(sess.Area, sess.CurrentLevel, excludeIDs)
		},
		func() ([]models.Question, error) {
			return sel.questions.QuestionsInArea(sess.Area, 0, excludeIDs)
		},
	}

	for _, stage := range stages {
		pool, err := stage()
		if err != nil {
			return nil, fmt.Errorf("select candidates: %w", err)
		}
		pool = dropDuplicateContent(pool, seenTexts)
		if len(pool) > 0 {
			return sel.pick(pool), nil
		}
	}

	return nil, nil
}

// NextReview runs the cascade for a spaced-review session: the candidate
// pool is the learner's historically-missed question ids, current level
// first, then any level.
func (sel *Selector) NextReview(sess *models.Session, answered []models.SessionAnswer, missedIDs []int64) (*models.Question, error) {
	exclude := make(map[int64]bool, len(answered))
	for _, a := range answered {
		exclude[a.QuestionID] = true
	}

	var candidates []int64
	for _, id := range missedIDs {
		if !exclude[id] {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	seenTexts, err := sel.presentedTexts(answered)
	if err != nil {
		return nil, err
	}

	for _, level := range []int{sess.CurrentLevel, 0} {
		pool, err := sel.questions.QuestionsByIDs(candidates, level)
		if err != nil {
			return nil, fmt.Errorf("select review candidates: %w", err)
		}
		pool = dropDuplicateContent(pool, seenTexts)
		if len(pool) > 0 {
			return sel.pick(pool), nil
		}
	}

	return nil, nil
}

func (sel *Selector) pick(pool []models.Question) *models.Question {
	sel.rngMu.Lock()
	i := sel.rng.Intn(len(pool))
	sel.rngMu.Unlock()
	q := pool[i]
	return &q
}

// presentedTexts collects the content text of every item already served,
// so near-duplicate entries with different ids never appear twice.
func (sel *Selector) presentedTexts(answered []models.SessionAnswer) (map[string]bool, error) {
	texts := make(map[string]bool, len(answered))
	for _, a := range answered {
		q, err := sel.questions.GetQuestion(a.QuestionID)
		if err != nil {
			return nil, fmt.Errorf("load presented question %d: %w", a.QuestionID, err)
		}
		texts[q.Content] = true
	}
	return texts, nil
}

func answeredIDs(answered []models.SessionAnswer) []int64 {
	ids := make([]int64, 0, len(answered))
	for _, a := range answered {
		ids = append(ids, a.QuestionID)
	}
	return ids
}

func filterTopics(pool []models.Question, keywords []string) []models.Question {
	var out []models.Question
	for _, q := range pool {
		if topicMatches(q, keywords) {
			out = append(out, q)
		}
	}
	return out
}

func dropDuplicateContent(pool []models.Question, seenTexts map[string]bool) []models.Question {
	var out []models.Question
	for _, q := range pool {
		if !seenTexts[q.Content] {
			out = append(out, q)
		}
	}
	return out
}
