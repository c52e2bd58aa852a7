package progress

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/pai-course/internal/quiz"
)

// Record is a user's progress on one topic. There is at most one record per
// (user, topic); the last submission wins.
type Record struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	CourseID       string          `json:"course_id"`
	TopicID        string          `json:"topic_id"`
	Completed      bool            `json:"completed"`
	Score          int             `json:"score"`
	TotalQuestions int             `json:"total_questions"`
	Difficulty     quiz.Difficulty `json:"difficulty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Store persists progress records.
type Store interface {
	// Upsert creates or replaces the record for (UserID, TopicID).
	Upsert(ctx context.Context, r Record) (Record, error)
	Get(ctx context.Context, userID, topicID string) (Record, bool, error)
	ListByCourse(ctx context.Context, userID, courseID string) ([]Record, error)
}

type recordKey struct {
	user, topic string
}

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[recordKey]Record
}

// NewMemoryStore creates a new in-memory progress store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[recordKey]Record)}
}

func (s *MemoryStore) Upsert(_ context.Context, r Record) (Record, error) {
	if r.UserID == "" || r.TopicID == "" {
		return Record{}, fmt.Errorf("user_id and topic_id are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey{r.UserID, r.TopicID}
	if existing, ok := s.records[key]; ok {
		r.ID = existing.ID
	} else {
		r.ID = uuid.NewString()
	}
	r.UpdatedAt = time.Now()
	s.records[key] = r
	return r, nil
}

func (s *MemoryStore) Get(_ context.Context, userID, topicID string) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[recordKey{userID, topicID}]
	return r, ok, nil
}

func (s *MemoryStore) ListByCourse(_ context.Context, userID, courseID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Record{}
	for _, r := range s.records {
		if r.UserID == userID && r.CourseID == courseID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return out, nil
}
