package course

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of Store.
type MemoryStore struct {
	mu      sync.RWMutex
	courses map[string]Course
	topics  map[string]Topic
}

// NewMemoryStore creates a new in-memory course store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		courses: make(map[string]Course),
		topics:  make(map[string]Topic),
	}
}

func (s *MemoryStore) CreateCourse(_ context.Context, c Course) (Course, error) {
	if c.UserID == "" {
		return Course{}, fmt.Errorf("user_id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = uuid.NewString()
	c.CreatedAt = time.Now()
	s.courses[c.ID] = c
	return c, nil
}

func (s *MemoryStore) GetCourse(_ context.Context, id string) (Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.courses[id]
	if !ok {
		return Course{}, fmt.Errorf("course %s: %w", id, ErrNotFound)
	}
	return c, nil
}

func (s *MemoryStore) ListCourses(_ context.Context, userID string, t Type) ([]Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Course{}
	for _, c := range s.courses {
		if c.UserID == userID && (t == "" || c.Type == t) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) CreateTopic(_ context.Context, t Topic) (Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[t.CourseID]; !ok {
		return Topic{}, fmt.Errorf("course %s: %w", t.CourseID, ErrNotFound)
	}
	if t.OrderIndex < 1 {
		return Topic{}, fmt.Errorf("order_index must be >= 1, got %d", t.OrderIndex)
	}
	for _, existing := range s.topics {
		if existing.CourseID == t.CourseID && existing.OrderIndex == t.OrderIndex {
			return Topic{}, fmt.Errorf("order %d: %w", t.OrderIndex, ErrDuplicateOrder)
		}
	}

	t.ID = uuid.NewString()
	t.CreatedAt = time.Now()
	s.topics[t.ID] = t
	return t, nil
}

func (s *MemoryStore) GetTopic(_ context.Context, id string) (Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.topics[id]
	if !ok {
		return Topic{}, fmt.Errorf("topic %s: %w", id, ErrNotFound)
	}
	return t, nil
}

func (s *MemoryStore) ListTopics(_ context.Context, courseID string) ([]Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []Topic{}
	for _, t := range s.topics {
		if t.CourseID == courseID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return out, nil
}
