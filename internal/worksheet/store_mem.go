package worksheet

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stepwise-learn/stepwise/internal/grading"
)

type memoryStore struct {
	mu         sync.RWMutex
	worksheets map[string]Worksheet
	attempts   map[string]Attempt
	eval       *grading.Evaluator
}

func NewInMemoryStore(eval *grading.Evaluator) Store {
	return &memoryStore{
		worksheets: map[string]Worksheet{},
		attempts:   map[string]Attempt{},
		eval:       eval,
	}
}

func (m *memoryStore) PutWorksheet(_ context.Context, ws Worksheet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ws.CreatedAt == 0 {
		ws.CreatedAt = time.Now().Unix()
	}
	m.worksheets[ws.ID] = ws
	return nil
}

func (m *memoryStore) GetWorksheet(_ context.Context, id string) (Worksheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ws, ok := m.worksheets[id]
	if !ok {
		return Worksheet{}, ErrNotFound
	}
	return StudentView(ws), nil
}

func (m *memoryStore) GetWorksheetFull(_ context.Context, id string) (Worksheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ws, ok := m.worksheets[id]
	if !ok {
		return Worksheet{}, ErrNotFound
	}
	return ws, nil
}

func (m *memoryStore) NewAttempt(_ context.Context, worksheetID, userID string) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.worksheets[worksheetID]; !ok {
		return Attempt{}, ErrNotFound
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
	m.attempts[a.ID] = a
	return a, nil
}

func (m *memoryStore) SaveAnswers(_ context.Context, attemptID string, answers map[string]interface{}) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return Attempt{}, ErrNotFound
	}
	if a.Status == StatusSubmitted {
		return Attempt{}, ErrFinalized
	}
	for k, v := range answers {
		a.Answers[k] = v
	}
	m.attempts[attemptID] = a
	return a, nil
}

func (m *memoryStore) AttachReview(_ context.Context, attemptID, questionID string, review grading.AIReview) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return Attempt{}, ErrNotFound
	}
	if a.Reviews == nil {
		a.Reviews = map[string]grading.AIReview{}
	}
	a.Reviews[questionID] = review
	Recompute(m.worksheets[a.WorksheetID], &a, m.eval)
	m.attempts[attemptID] = a
	return a, nil
}

func (m *memoryStore) Submit(_ context.Context, attemptID string) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return Attempt{}, ErrNotFound
	}
	if a.Status == StatusSubmitted {
		return Attempt{}, ErrFinalized
	}
	Recompute(m.worksheets[a.WorksheetID], &a, m.eval)
	a.Status = StatusSubmitted
	a.SubmittedAt = time.Now().Unix()
	m.attempts[attemptID] = a
	return a, nil
}

func (m *memoryStore) GetAttempt(_ context.Context, id string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, ErrNotFound
	}
	return a, nil
}

func (m *memoryStore) Score(_ context.Context, attemptID string) (grading.AttemptScore, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return grading.AttemptScore{}, ErrNotFound
	}
	ws := m.worksheets[a.WorksheetID]
	Recompute(ws, &a, m.eval)
	return grading.AttemptScore{
		TotalMarks: a.TotalMarks,
		MaxMarks:   a.MaxMarks,
		Percent:    percent(a.TotalMarks, a.MaxMarks),
		Rewards:    a.Rewards,
	}, nil
}

func (m *memoryStore) ListAttempts(_ context.Context, opts ListOpts) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Attempt{}
	for _, a := range m.attempts {
		if opts.WorksheetID != "" && a.WorksheetID != opts.WorksheetID {
			continue
		}
		if opts.UserID != "" && a.UserID != opts.UserID {
			continue
		}
		if opts.Status != "" && a.Status != opts.Status {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func percent(total, max float64) float64 {
	if max <= 0 {
		return 0
	}
	return total / max * 100
}
