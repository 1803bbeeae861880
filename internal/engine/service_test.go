package engine

import (
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/aulaprep/backend/internal/models"
	"github.com/aulaprep/backend/internal/progress"
)

// ── In-memory fakes ─────────────────────────────────────

// fakeSessionStore guards its maps so concurrency tests can drive several
// sessions at once, the way the Postgres store tolerates parallel callers.
type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[int64]*models.Session
	answers  map[int64][]models.SessionAnswer
	nextID   int64
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		sessions: make(map[int64]*models.Session),
		answers:  make(map[int64][]models.SessionAnswer),
	}
}

func (f *fakeSessionStore) GetSession(id int64) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[id]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	copied := *sess
	return &copied, nil
}

func (f *fakeSessionStore) CreateSession(sess *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	sess.ID = f.nextID
	copied := *sess
	f.sessions[sess.ID] = &copied
	return nil
}

func (f *fakeSessionStore) UpdateSessionLevel(id int64, level int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[id].CurrentLevel = level
	return nil
}

func (f *fakeSessionStore) CompleteSession(id int64, score int, reason string, completedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess := f.sessions[id]
	sess.Status = models.SessionCompleted
	sess.FinalScore = &score
	sess.ResultReason = &reason
	sess.CompletedAt = &completedAt
	return nil
}

func (f *fakeSessionStore) ListAnswers(sessionID int64) ([]models.SessionAnswer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	answers := append([]models.SessionAnswer(nil), f.answers[sessionID]...)
	sort.Slice(answers, func(i, j int) bool { return answers[i].OrderIndex < answers[j].OrderIndex })
	return answers, nil
}

func (f *fakeSessionStore) InsertAnswer(ans *models.SessionAnswer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ans.ID = int64(len(f.answers[ans.SessionID]) + 1)
	f.answers[ans.SessionID] = append(f.answers[ans.SessionID], *ans)
	return nil
}

func (f *fakeSessionStore) session(id int64) *models.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sessions[id]
}

type fakeQuestionStore struct {
	questions []models.Question
	missed    []int64
}

func (f *fakeQuestionStore) GetQuestion(id int64) (*models.Question, error) {
	for _, q := range f.questions {
		if q.ID == id {
			copied := q
			return &copied, nil
		}
	}
	return nil, models.ErrQuestionNotFound
}

func (f *fakeQuestionStore) QuestionsInArea(area string, level int, excludeIDs []int64) ([]models.Question, error) {
	excluded := make(map[int64]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}

	var out []models.Question
	for _, q := range f.questions {
		if q.Area != area || excluded[q.ID] {
			continue
		}
		if level > 0 && q.Level != level {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

func (f *fakeQuestionStore) QuestionsByIDs(ids []int64, level int) ([]models.Question, error) {
	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	var out []models.Question
	for _, q := range f.questions {
		if !wanted[q.ID] {
			continue
		}
		if level > 0 && q.Level != level {
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

func (f *fakeQuestionStore) MissedQuestionIDs(userID int64) ([]int64, error) {
	return f.missed, nil
}

type fakeProfileStore struct {
	mu         sync.Mutex
	xp         int
	addCalls   int
	streak     int
	streakSets int
	addErr     error
	streakErr  error
}

func (f *fakeProfileStore) GetOrCreate(userID int64) (*models.LearnerProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &models.LearnerProfile{UserID: userID, XP: int64(f.xp), CurrentStreak: f.streak}, nil
}

func (f *fakeProfileStore) AddXP(userID int64, amount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.xp += amount
	f.addCalls++
	return nil
}

func (f *fakeProfileStore) SetStreak(userID int64, streak int, lastActive time.Time, prevLastActive *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.streakErr != nil {
		return f.streakErr
	}
	f.streak = streak
	f.streakSets++
	return nil
}

func (f *fakeProfileStore) totalXP() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.xp
}

func newTestService(questions *fakeQuestionStore, profiles *fakeProfileStore) (*Service, *fakeSessionStore) {
	sessions := newFakeSessionStore()
	svc := NewService(DefaultConfig(), sessions, questions, progress.NewService(profiles))
	return svc, sessions
}

func mathQuestion(id int64, level int, content string) models.Question {
	return models.Question{
		ID: id, Area: "Matemáticas", Level: level, Content: content,
		Options: []models.QuestionOption{
			{ID: id*10 + 1, QuestionID: id, Label: "A", Text: "sí", IsCorrect: true},
			{ID: id*10 + 2, QuestionID: id, Label: "B", Text: "no"},
		},
	}
}

// ── Tests ───────────────────────────────────────────────

func TestCreateSessionModes(t *testing.T) {
	svc, _ := newTestService(&fakeQuestionStore{}, &fakeProfileStore{})

	sess, err := svc.CreateSession(1, models.CreateSessionRequest{Area: "Matemáticas"})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if sess.Mode != models.ModeStandard {
		t.Errorf("mode = %q, want standard", sess.Mode)
	}
	if sess.CurrentLevel != 1 {
		t.Errorf("starting level = %d, want 1", sess.CurrentLevel)
	}
	if sess.Quota != 10 {
		t.Errorf("quota = %d, want default 10", sess.Quota)
	}

	review, err := svc.CreateSession(1, models.CreateSessionRequest{Area: models.SpacedReviewArea})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if review.Mode != models.ModeSpacedReview {
		t.Errorf("mode = %q, want spaced_review", review.Mode)
	}
}

func TestRecordAnswerOrderAndLevel(t *testing.T) {
	questions := &fakeQuestionStore{questions: []models.Question{
		mathQuestion(1, 1, "q1"), mathQuestion(2, 2, "q2"), mathQuestion(3, 1, "q3"),
	}}
	profiles := &fakeProfileStore{}
	svc, sessions := newTestService(questions, profiles)

	sess, _ := svc.CreateSession(1, models.CreateSessionRequest{Area: "Matemáticas"})

	// Correct at level 1: index 1, level snapshot 1, session steps to 2
	rec, newLevel, xp, err := svc.RecordAnswer(sess.ID, 1, nil, true, false)
	if err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}
	if rec.OrderIndex != 1 || rec.QuestionLevel != 1 {
		t.Errorf("first answer index/level = %d/%d, want 1/1", rec.OrderIndex, rec.QuestionLevel)
	}
	if newLevel != 2 {
		t.Errorf("level after correct = %d, want 2", newLevel)
	}
	if xp != 10 {
		t.Errorf("xp = %d, want 10", xp)
	}

	// Wrong at level 2: index 2, snapshot 2, back down to 1, no XP
	rec, newLevel, xp, err = svc.RecordAnswer(sess.ID, 2, nil, false, false)
	if err != nil {
		t.Fatalf("RecordAnswer: %v", err)
	}
	if rec.OrderIndex != 2 || rec.QuestionLevel != 2 {
		t.Errorf("second answer index/level = %d/%d, want 2/2", rec.OrderIndex, rec.QuestionLevel)
	}
	if newLevel != 1 {
		t.Errorf("level after wrong = %d, want 1", newLevel)
	}
	if xp != 0 {
		t.Errorf("xp for wrong answer = %d, want 0", xp)
	}

	if profiles.xp != 10 {
		t.Errorf("profile xp = %d, want 10", profiles.xp)
	}

	stored := sessions.session(sess.ID)
	if stored.CurrentLevel != 1 {
		t.Errorf("persisted level = %d, want 1", stored.CurrentLevel)
	}
}

func TestRecordAnswerRejectsCompleted(t *testing.T) {
	svc, sessions := newTestService(&fakeQuestionStore{}, &fakeProfileStore{})

	sess, _ := svc.CreateSession(1, models.CreateSessionRequest{Area: "Matemáticas"})
	sessions.CompleteSession(sess.ID, 50, ReasonTimeExpired, time.Now())

	_, _, _, err := svc.RecordAnswer(sess.ID, 1, nil, true, false)
	if err != models.ErrSessionCompleted {
		t.Errorf("err = %v, want ErrSessionCompleted", err)
	}
}

func TestNextItemQuotaTermination(t *testing.T) {
	questions := &fakeQuestionStore{questions: []models.Question{
		mathQuestion(1, 1, "q1"), mathQuestion(2, 2, "q2"),
	}}
	profiles := &fakeProfileStore{}
	svc, sessions := newTestService(questions, profiles)

	sess, _ := svc.CreateSession(1, models.CreateSessionRequest{Area: "Matemáticas", Quota: 2})

	if _, _, _, err := svc.RecordAnswer(sess.ID, 1, nil, true, false); err != nil {
		t.Fatal(err)
	}
	if _, _, _, err := svc.RecordAnswer(sess.ID, 2, nil, true, false); err != nil {
		t.Fatal(err)
	}
	answerXP := profiles.xp

	result, err := svc.NextItem(sess.ID)
	if err != nil {
		t.Fatalf("NextItem: %v", err)
	}
	if !result.Finished {
		t.Fatal("expected session to finish at quota")
	}
	if result.Reason != ReasonCompletedAllItems {
		t.Errorf("reason = %q, want %q", result.Reason, ReasonCompletedAllItems)
	}
	if result.Score != 100 {
		t.Errorf("score = %d, want 100", result.Score)
	}
	if sessions.session(sess.ID).Status != models.SessionCompleted {
		t.Error("session not marked completed")
	}

	// Passing score earns the pass bonus exactly once
	if profiles.xp != answerXP+50 {
		t.Errorf("profile xp = %d, want %d", profiles.xp, answerXP+50)
	}

	// Repeat calls return the stored result without touching the profile
	again, err := svc.NextItem(sess.ID)
	if err != nil {
		t.Fatalf("NextItem (repeat): %v", err)
	}
	if !again.Finished || again.Score != result.Score || again.Reason != result.Reason {
		t.Errorf("repeat result = %+v, want %+v", again, result)
	}
	if profiles.xp != answerXP+50 {
		t.Errorf("repeat call changed profile xp to %d", profiles.xp)
	}
	if profiles.streakSets != 1 {
		t.Errorf("streak updated %d times, want 1", profiles.streakSets)
	}
}

func TestNextItemServesQuestion(t *testing.T) {
	questions := &fakeQuestionStore{questions: []models.Question{
		mathQuestion(1, 1, "q1"),
	}}
	svc, _ := newTestService(questions, &fakeProfileStore{})

	sess, _ := svc.CreateSession(1, models.CreateSessionRequest{Area: "Matemáticas"})

	result, err := svc.NextItem(sess.ID)
	if err != nil {
		t.Fatalf("NextItem: %v", err)
	}
	if result.Finished {
		t.Fatalf("finished prematurely with reason %q", result.Reason)
	}
	if result.Question == nil || result.Question.ID != 1 {
		t.Fatalf("question = %+v, want id 1", result.Question)
	}
}

func TestNextItemPoolExhausted(t *testing.T) {
	questions := &fakeQuestionStore{questions: []models.Question{
		mathQuestion(1, 1, "q1"),
	}}
	profiles := &fakeProfileStore{}
	svc, _ := newTestService(questions, profiles)

	sess, _ := svc.CreateSession(1, models.CreateSessionRequest{Area: "Matemáticas"})
	if _, _, _, err := svc.RecordAnswer(sess.ID, 1, nil, true, false); err != nil {
		t.Fatal(err)
	}

	result, err := svc.NextItem(sess.ID)
	if err != nil {
		t.Fatalf("NextItem: %v", err)
	}
	if !result.Finished || result.Reason != ReasonPoolExhausted {
		t.Fatalf("result = %+v, want pool exhaustion", result)
	}
	// One level-1 correct answer out of one is a full score
	if result.Score != 100 {
		t.Errorf("score = %d, want 100", result.Score)
	}
}

func TestNextItemSpacedReviewEmptyHistory(t *testing.T) {
	profiles := &fakeProfileStore{}
	svc, sessions := newTestService(&fakeQuestionStore{}, profiles)

	sess, _ := svc.CreateSession(1, models.CreateSessionRequest{Area: models.SpacedReviewArea})

	result, err := svc.NextItem(sess.ID)
	if err != nil {
		t.Fatalf("NextItem: %v", err)
	}
	if !result.Finished || result.Reason != ReasonNoReviewItems {
		t.Fatalf("result = %+v, want immediate no-review finish", result)
	}
	if result.Score != 100 {
		t.Errorf("score = %d, want 100", result.Score)
	}
	if sessions.session(sess.ID).Status != models.SessionCompleted {
		t.Error("session not marked completed")
	}
}

func TestNextItemSpacedReviewServesMissed(t *testing.T) {
	questions := &fakeQuestionStore{
		questions: []models.Question{
			mathQuestion(1, 1, "q1"), mathQuestion(2, 2, "q2"),
		},
		missed: []int64{2},
	}
	svc, _ := newTestService(questions, &fakeProfileStore{})

	sess, _ := svc.CreateSession(1, models.CreateSessionRequest{Area: models.SpacedReviewArea})

	result, err := svc.NextItem(sess.ID)
	if err != nil {
		t.Fatalf("NextItem: %v", err)
	}
	if result.Finished {
		t.Fatalf("finished prematurely with reason %q", result.Reason)
	}
	if result.Question == nil || result.Question.ID != 2 {
		t.Fatalf("question = %+v, want missed question 2", result.Question)
	}
}

func TestForceFinish(t *testing.T) {
	questions := &fakeQuestionStore{questions: []models.Question{
		mathQuestion(1, 1, "q1"),
	}}
	profiles := &fakeProfileStore{}
	svc, _ := newTestService(questions, profiles)

	sess, _ := svc.CreateSession(1, models.CreateSessionRequest{Area: "Matemáticas"})
	if _, _, _, err := svc.RecordAnswer(sess.ID, 1, nil, false, false); err != nil {
		t.Fatal(err)
	}

	result, err := svc.ForceFinish(sess.ID, "")
	if err != nil {
		t.Fatalf("ForceFinish: %v", err)
	}
	if !result.Finished || result.Reason != ReasonTimeExpired {
		t.Fatalf("result = %+v, want time-expired finish", result)
	}
	if result.Score != 0 {
		t.Errorf("score = %d, want 0", result.Score)
	}
	// Below the passing score: fail bonus applies
	if profiles.xp != 20 {
		t.Errorf("profile xp = %d, want 20", profiles.xp)
	}

	// Finishing again is a no-op returning the stored result
	again, err := svc.ForceFinish(sess.ID, "whatever")
	if err != nil {
		t.Fatalf("ForceFinish (repeat): %v", err)
	}
	if again.Reason != ReasonTimeExpired || profiles.xp != 20 {
		t.Errorf("repeat finish changed state: %+v, xp %d", again, profiles.xp)
	}
}

func TestRecordAnswerConcurrentSubmits(t *testing.T) {
	profiles := &fakeProfileStore{}
	svc, sessions := newTestService(&fakeQuestionStore{}, profiles)

	sess, _ := svc.CreateSession(1, models.CreateSessionRequest{Area: "Matemáticas", Quota: 50})

	// Fire parallel submits at one session; every outcome below must hold
	// regardless of arrival order.
	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, _, _, err := svc.RecordAnswer(sess.ID, int64(i+1), nil, i%3 != 0, false); err != nil {
				t.Errorf("RecordAnswer: %v", err)
			}
		}(i)
	}
	wg.Wait()

	answers, err := sessions.ListAnswers(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(answers) != n {
		t.Fatalf("recorded %d answers, want %d", len(answers), n)
	}

	// Order indices are gapless and strictly increasing
	for i, a := range answers {
		if a.OrderIndex != i+1 {
			t.Fatalf("answer %d has order index %d, want %d", i, a.OrderIndex, i+1)
		}
	}

	// Each answer saw the level produced by exactly one transition per
	// preceding answer: replaying the log reproduces every snapshot and
	// the persisted level
	cfg := DefaultConfig()
	level := cfg.MinLevel
	wantXP := 0
	for i, a := range answers {
		if a.QuestionLevel != level {
			t.Fatalf("answer %d snapshot level %d, want %d", i, a.QuestionLevel, level)
		}
		wantXP += cfg.AnswerXP(a.QuestionLevel, a.Correct, false)
		level = cfg.NextLevel(level, a.Correct)
	}
	if got := sessions.session(sess.ID).CurrentLevel; got != level {
		t.Errorf("persisted level = %d, want %d", got, level)
	}
	if got := profiles.totalXP(); got != wantXP {
		t.Errorf("profile xp = %d, want %d", got, wantXP)
	}
}

func TestNextItemConcurrentSessions(t *testing.T) {
	questions := &fakeQuestionStore{questions: []models.Question{
		mathQuestion(1, 1, "q1"), mathQuestion(2, 1, "q2"), mathQuestion(3, 1, "q3"),
	}}
	svc, _ := newTestService(questions, &fakeProfileStore{})

	a, _ := svc.CreateSession(1, models.CreateSessionRequest{Area: "Matemáticas"})
	b, _ := svc.CreateSession(2, models.CreateSessionRequest{Area: "Matemáticas"})

	// Different sessions hold different locks, so these selections run
	// truly in parallel and share the selector
	var wg sync.WaitGroup
	for _, id := range []int64{a.ID, b.ID} {
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(id int64) {
				defer wg.Done()
				result, err := svc.NextItem(id)
				if err != nil {
					t.Errorf("NextItem(%d): %v", id, err)
					return
				}
				if result.Finished || result.Question == nil {
					t.Errorf("NextItem(%d) = %+v, want a served question", id, result)
				}
			}(id)
		}
	}
	wg.Wait()
}

func TestRecordAnswerPropagatesProfileFailure(t *testing.T) {
	dbDown := errors.New("connection refused")
	profiles := &fakeProfileStore{addErr: dbDown}
	svc, _ := newTestService(&fakeQuestionStore{}, profiles)

	sess, _ := svc.CreateSession(1, models.CreateSessionRequest{Area: "Matemáticas"})

	_, _, _, err := svc.RecordAnswer(sess.ID, 1, nil, true, false)
	if !errors.Is(err, dbDown) {
		t.Fatalf("err = %v, want wrapped profile failure", err)
	}
}

func TestFinalizePropagatesProfileFailure(t *testing.T) {
	dbDown := errors.New("connection refused")
	profiles := &fakeProfileStore{streakErr: dbDown}
	svc, sessions := newTestService(&fakeQuestionStore{}, profiles)

	sess, _ := svc.CreateSession(1, models.CreateSessionRequest{Area: "Matemáticas", Quota: 1})
	if _, _, _, err := svc.RecordAnswer(sess.ID, 1, nil, false, false); err != nil {
		t.Fatal(err)
	}

	// The reward write fails before the status flip, so the caller sees
	// the error and the session stays open for a retry
	_, err := svc.NextItem(sess.ID)
	if !errors.Is(err, dbDown) {
		t.Fatalf("err = %v, want wrapped profile failure", err)
	}
	if sessions.session(sess.ID).Status != models.SessionInProgress {
		t.Fatal("session completed despite reward failure")
	}

	// Retry succeeds end to end and applies the bonus exactly once
	profiles.mu.Lock()
	profiles.streakErr = nil
	profiles.mu.Unlock()

	result, err := svc.NextItem(sess.ID)
	if err != nil {
		t.Fatalf("NextItem (retry): %v", err)
	}
	if !result.Finished || result.Reason != ReasonCompletedAllItems {
		t.Fatalf("retry result = %+v, want quota finish", result)
	}
	if profiles.totalXP() != 20 {
		t.Errorf("profile xp = %d, want fail bonus 20", profiles.totalXP())
	}
	if profiles.streakSets != 1 {
		t.Errorf("streak updated %d times, want 1", profiles.streakSets)
	}
}
