package engine

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/aulaprep/backend/internal/models"
)

// PostgresStore implements SessionStore and QuestionStore on the shared
// database handle.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// ── Sessions ────────────────────────────────────────────

func (s *PostgresStore) CreateSession(sess *models.Session) error {
	err := s.db.QueryRow(
		`INSERT INTO sessions
		 (user_id, evaluation_id, mode, area, topic_filter, current_level, quota, duration_minutes, status, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		sess.UserID, sess.EvaluationID, sess.Mode, sess.Area, sess.TopicFilter,
		sess.CurrentLevel, sess.Quota, sess.DurationMinutes, sess.Status, sess.StartedAt,
	).Scan(&sess.ID)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetSession(id int64) (*models.Session, error) {
	var sess models.Session
	err := s.db.QueryRow(
		`SELECT id, user_id, evaluation_id, mode, area, topic_filter, current_level,
		        quota, duration_minutes, status, final_score, result_reason,
		        started_at, completed_at
		 FROM sessions WHERE id = $1`,
		id,
	).Scan(&sess.ID, &sess.UserID, &sess.EvaluationID, &sess.Mode, &sess.Area,
		&sess.TopicFilter, &sess.CurrentLevel, &sess.Quota, &sess.DurationMinutes,
		&sess.Status, &sess.FinalScore, &sess.ResultReason,
		&sess.StartedAt, &sess.CompletedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &sess, nil
}

func (s *PostgresStore) UpdateSessionLevel(id int64, level int) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET current_level = $1 WHERE id = $2`,
		level, id,
	)
	if err != nil {
		return fmt.Errorf("update session level: %w", err)
	}
	return nil
}

func (s *PostgresStore) CompleteSession(id int64, score int, reason string, completedAt time.Time) error {
	_, err := s.db.Exec(
		`UPDATE sessions
		 SET status = $1, final_score = $2, result_reason = $3, completed_at = $4
		 WHERE id = $5 AND status <> $1`,
		models.SessionCompleted, score, reason, completedAt, id,
	)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAnswers(sessionID int64) ([]models.SessionAnswer, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, question_id, selected_option_id, correct,
		        question_level, order_index, presented_at, answered_at
		 FROM session_answers
		 WHERE session_id = $1
		 ORDER BY order_index ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	var answers []models.SessionAnswer
	for rows.Next() {
		var a models.SessionAnswer
		if err := rows.Scan(&a.ID, &a.SessionID, &a.QuestionID, &a.SelectedOptionID,
			&a.Correct, &a.QuestionLevel, &a.OrderIndex, &a.PresentedAt, &a.AnsweredAt); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

func (s *PostgresStore) InsertAnswer(ans *models.SessionAnswer) error {
	err := s.db.QueryRow(
		`INSERT INTO session_answers
		 (session_id, question_id, selected_option_id, correct, question_level, order_index, presented_at, answered_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		ans.SessionID, ans.QuestionID, ans.SelectedOptionID, ans.Correct,
		ans.QuestionLevel, ans.OrderIndex, ans.PresentedAt, ans.AnsweredAt,
	).Scan(&ans.ID)
	if err != nil {
		return fmt.Errorf("insert answer: %w", err)
	}
	return nil
}

// ── Questions ───────────────────────────────────────────

func (s *PostgresStore) GetQuestion(id int64) (*models.Question, error) {
	var q models.Question
	err := s.db.QueryRow(
		`SELECT id, area, subtopic, topic_tags, level, content, created_at
		 FROM questions WHERE id = $1`,
		id,
	).Scan(&q.ID, &q.Area, &q.Subtopic, pq.Array(&q.TopicTags), &q.Level, &q.Content, &q.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, models.ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}

	options, err := s.getOptionsForQuestion(id)
	if err != nil {
		return nil, err
	}
	q.Options = options

	return &q, nil
}

func (s *PostgresStore) QuestionsInArea(area string, level int, excludeIDs []int64) ([]models.Question, error) {
	args := []interface{}{area}
	paramIdx := 2

	var filterClauses []string

	if level > 0 {
		filterClauses = append(filterClauses, fmt.Sprintf("AND q.level = $%d", paramIdx))
		args = append(args, level)
		paramIdx++
	}

	if len(excludeIDs) > 0 {
		placeholders := make([]string, len(excludeIDs))
		for i, id := range excludeIDs {
			placeholders[i] = fmt.Sprintf("$%d", paramIdx)
			args = append(args, id)
			paramIdx++
		}
		filterClauses = append(filterClauses, fmt.Sprintf("AND q.id NOT IN (%s)", strings.Join(placeholders, ",")))
	}

	query := fmt.Sprintf(`
		SELECT q.id, q.area, q.subtopic, q.topic_tags, q.level, q.content, q.created_at,
		       o.id, o.label, o.option_text, o.is_correct
		FROM questions q
		JOIN question_options o ON o.question_id = q.id
		WHERE q.area = $1
		  %s
		ORDER BY q.id, o.label`, strings.Join(filterClauses, " "))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("questions in area: %w", err)
	}
	defer rows.Close()

	return scanQuestionsWithOptions(rows)
}

func (s *PostgresStore) QuestionsByIDs(ids []int64, level int) ([]models.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	args := []interface{}{pq.Array(ids)}
	levelClause := ""
	if level > 0 {
		levelClause = "AND q.level = $2"
		args = append(args, level)
	}

	query := fmt.Sprintf(`
		SELECT q.id, q.area, q.subtopic, q.topic_tags, q.level, q.content, q.created_at,
		       o.id, o.label, o.option_text, o.is_correct
		FROM questions q
		JOIN question_options o ON o.question_id = q.id
		WHERE q.id = ANY($1)
		  %s
		ORDER BY q.id, o.label`, levelClause)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("questions by ids: %w", err)
	}
	defer rows.Close()

	return scanQuestionsWithOptions(rows)
}

func (s *PostgresStore) MissedQuestionIDs(userID int64) ([]int64, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT sa.question_id
		 FROM session_answers sa
		 JOIN sessions s ON s.id = sa.session_id
		 WHERE s.user_id = $1 AND NOT sa.correct`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("missed question ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan missed id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanQuestionsWithOptions(rows *sql.Rows) ([]models.Question, error) {
	questionMap := make(map[int64]*models.Question)
	var questionOrder []int64

	for rows.Next() {
		var q models.Question
		var opt models.QuestionOption

		if err := rows.Scan(
			&q.ID, &q.Area, &q.Subtopic, pq.Array(&q.TopicTags), &q.Level, &q.Content, &q.CreatedAt,
			&opt.ID, &opt.Label, &opt.Text, &opt.IsCorrect,
		); err != nil {
			return nil, fmt.Errorf("scan question row: %w", err)
		}

		opt.QuestionID = q.ID

		if existing, ok := questionMap[q.ID]; ok {
			existing.Options = append(existing.Options, opt)
		} else {
			q.Options = []models.QuestionOption{opt}
			questionMap[q.ID] = &q
			questionOrder = append(questionOrder, q.ID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	questions := make([]models.Question, 0, len(questionOrder))
	for _, id := range questionOrder {
		questions = append(questions, *questionMap[id])
	}
	return questions, nil
}

func (s *PostgresStore) getOptionsForQuestion(questionID int64) ([]models.QuestionOption, error) {
	rows, err := s.db.Query(
		`SELECT id, question_id, label, option_text, is_correct
		 FROM question_options WHERE question_id = $1 ORDER BY label`,
		questionID,
	)
	if err != nil {
		return nil, fmt.Errorf("get options: %w", err)
	}
	defer rows.Close()

	var options []models.QuestionOption
	for rows.Next() {
		var o models.QuestionOption
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Label, &o.Text, &o.IsCorrect); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		options = append(options, o)
	}
	return options, rows.Err()
}
