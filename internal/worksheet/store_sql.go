package worksheet

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/stepwise-learn/stepwise/internal/grading"
)

// SQLStore persists worksheets and attempts as JSON documents in SQL rows.
// Works against sqlite (modernc) and postgres (pgx stdlib); the schema
// lives in internal/db.
type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
	eval   *grading.Evaluator
}

func NewSQLStore(db *sql.DB, driver string, eval *grading.Evaluator) *SQLStore {
	return &SQLStore{db: db, driver: driver, eval: eval}
}

func (s *SQLStore) PutWorksheet(ctx context.Context, ws Worksheet) error {
	qj, err := json.Marshal(ws.Questions)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO worksheets (id,title,questions_json,created_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, questions_json=EXCLUDED.questions_json`,
		ws.ID, ws.Title, string(qj), time.Now().Unix())
	return err
}

func (s *SQLStore) GetWorksheet(ctx context.Context, id string) (Worksheet, error) {
	ws, err := s.GetWorksheetFull(ctx, id)
	if err != nil {
		return Worksheet{}, err
	}
	return StudentView(ws), nil
}

func (s *SQLStore) GetWorksheetFull(ctx context.Context, id string) (Worksheet, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,questions_json,created_at FROM worksheets WHERE id=$1`, id)
	var ws Worksheet
	var qjson string
	if err := row.Scan(&ws.ID, &ws.Title, &qjson, &ws.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Worksheet{}, ErrNotFound
		}
		return Worksheet{}, err
	}
	if err := json.Unmarshal([]byte(qjson), &ws.Questions); err != nil {
		return Worksheet{}, err
	}
	return ws, nil
}

func (s *SQLStore) NewAttempt(ctx context.Context, worksheetID, userID string) (Attempt, error) {
	var exist int
	if err := s.db.QueryRowContext(ctx, `SELECT 1 FROM worksheets WHERE id=$1`, worksheetID).Scan(&exist); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, ErrNotFound
		}
		return Attempt{}, err
	}
	a := Attempt{
		ID:          uuid.NewString(),
		WorksheetID: worksheetID,
		UserID:      userID,
		Status:      StatusInProgress,
		Answers:     map[string]interface{}{},
		Reviews:     map[string]grading.AIReview{},
		StartedAt:   time.Now().Unix(),
	}
	aj, _ := json.Marshal(a.Answers)
	rj, _ := json.Marshal(a.Reviews)
	_, err := s.db.ExecContext(ctx, `INSERT INTO attempts (id,worksheet_id,user_id,status,answers_json,reviews_json,total_marks,max_marks,rewards_json,started_at)
		VALUES ($1,$2,$3,$4,$5,$6,0,0,'{}',$7)`,
		a.ID, a.WorksheetID, a.UserID, a.Status, string(aj), string(rj), a.StartedAt)
	if err != nil {
		return Attempt{}, err
	}
	return a, nil
}

func (s *SQLStore) SaveAnswers(ctx context.Context, attemptID string, answers map[string]interface{}) (Attempt, error) {
	a, err := s.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if a.Status == StatusSubmitted {
		return Attempt{}, ErrFinalized
	}
	if a.Answers == nil {
		a.Answers = map[string]interface{}{}
	}
	for k, v := range answers {
		a.Answers[k] = v
	}
	aj, err := json.Marshal(a.Answers)
	if err != nil {
		return Attempt{}, err
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE attempts SET answers_json=$1 WHERE id=$2`, string(aj), attemptID); err != nil {
		return Attempt{}, err
	}
	return a, nil
}

func (s *SQLStore) AttachReview(ctx context.Context, attemptID, questionID string, review grading.AIReview) (Attempt, error) {
	a, err := s.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if a.Reviews == nil {
		a.Reviews = map[string]grading.AIReview{}
	}
	a.Reviews[questionID] = review
	ws, err := s.GetWorksheetFull(ctx, a.WorksheetID)
	if err != nil {
		return Attempt{}, err
	}
	Recompute(ws, &a, s.eval)
	if err := s.persistGrades(ctx, a); err != nil {
		return Attempt{}, err
	}
	return a, nil
}

func (s *SQLStore) Submit(ctx context.Context, attemptID string) (Attempt, error) {
	a, err := s.GetAttempt(ctx, attemptID)
	if err != nil {
		return Attempt{}, err
	}
	if a.Status == StatusSubmitted {
		return Attempt{}, ErrFinalized
	}
	ws, err := s.GetWorksheetFull(ctx, a.WorksheetID)
	if err != nil {
		return Attempt{}, err
	}
	Recompute(ws, &a, s.eval)
	a.Status = StatusSubmitted
	a.SubmittedAt = time.Now().Unix()
	if err := s.persistGrades(ctx, a); err != nil {
		return Attempt{}, err
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE attempts SET status=$1, submitted_at=$2 WHERE id=$3`,
		a.Status, a.SubmittedAt, a.ID); err != nil {
		return Attempt{}, err
	}
	return a, nil
}

func (s *SQLStore) persistGrades(ctx context.Context, a Attempt) error {
	rj, err := json.Marshal(a.Reviews)
	if err != nil {
		return err
	}
	wj, err := json.Marshal(a.Rewards)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `UPDATE attempts SET reviews_json=$1, total_marks=$2, max_marks=$3, rewards_json=$4 WHERE id=$5`,
		string(rj), a.TotalMarks, a.MaxMarks, string(wj), a.ID)
	return err
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,worksheet_id,user_id,status,answers_json,reviews_json,total_marks,max_marks,rewards_json,started_at,COALESCE(submitted_at,0)
		FROM attempts WHERE id=$1`, id)
	return scanAttempt(row)
}

func (s *SQLStore) Score(ctx context.Context, attemptID string) (grading.AttemptScore, error) {
	a, err := s.GetAttempt(ctx, attemptID)
	if err != nil {
		return grading.AttemptScore{}, err
	}
	ws, err := s.GetWorksheetFull(ctx, a.WorksheetID)
	if err != nil {
		return grading.AttemptScore{}, err
	}
	Recompute(ws, &a, s.eval)
	return grading.AttemptScore{
		TotalMarks: a.TotalMarks,
		MaxMarks:   a.MaxMarks,
		Percent:    percent(a.TotalMarks, a.MaxMarks),
		Rewards:    a.Rewards,
	}, nil
}

func (s *SQLStore) ListAttempts(ctx context.Context, opts ListOpts) ([]Attempt, error) {
	q := `SELECT id,worksheet_id,user_id,status,answers_json,reviews_json,total_marks,max_marks,rewards_json,started_at,COALESCE(submitted_at,0) FROM attempts WHERE 1=1`
	args := []interface{}{}
	n := 0
	add := func(clause string, v interface{}) {
		n++
		q += clause + placeholder(n)
		args = append(args, v)
	}
	if opts.WorksheetID != "" {
		add(` AND worksheet_id=`, opts.WorksheetID)
	}
	if opts.UserID != "" {
		add(` AND user_id=`, opts.UserID)
	}
	if opts.Status != "" {
		add(` AND status=`, opts.Status)
	}
	q += ` ORDER BY started_at DESC`
	if opts.Limit > 0 {
		add(` LIMIT `, opts.Limit)
	}
	if opts.Offset > 0 {
		add(` OFFSET `, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// $N placeholders work on both drivers: native for pgx, named params for
// sqlite.
func placeholder(n int) string { return "$" + strconv.Itoa(n) }

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAttempt(row rowScanner) (Attempt, error) {
	var a Attempt
	var ajson, rjson, wjson string
	if err := row.Scan(&a.ID, &a.WorksheetID, &a.UserID, &a.Status, &ajson, &rjson,
		&a.TotalMarks, &a.MaxMarks, &wjson, &a.StartedAt, &a.SubmittedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, ErrNotFound
		}
		return Attempt{}, err
	}
	if err := json.Unmarshal([]byte(ajson), &a.Answers); err != nil {
		return Attempt{}, err
	}
	if rjson != "" {
		if err := json.Unmarshal([]byte(rjson), &a.Reviews); err != nil {
			return Attempt{}, err
		}
	}
	if wjson != "" {
		if err := json.Unmarshal([]byte(wjson), &a.Rewards); err != nil {
			return Attempt{}, err
		}
	}
	return a, nil
}
