// Package course generates AI-written courses and stores them with their
// ordered chapters (topics).
package course

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when a course or topic does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateOrder is returned when a course already has a topic at an order index.
	ErrDuplicateOrder = errors.New("topic order index already used in course")
)

// Type is the course flavour: a full course or a one-shot revision.
type Type string

const (
	Full    Type = "FULL"
	OneShot Type = "ONESHOT"
)

// ParseType accepts "FULL" or "ONESHOT" in any case.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToUpper(strings.TrimSpace(s))) {
	case Full:
		return Full, nil
	case OneShot:
		return OneShot, nil
	default:
		return "", fmt.Errorf("unknown course type %q", s)
	}
}

// Course is a generated course owned by one user.
type Course struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Type        Type      `json:"course_type"`
	CreatedAt   time.Time `json:"created_at"`
}

// NotebookCell is one cell of a topic's interactive notebook.
type NotebookCell struct {
	Type    string `json:"type"` // "markdown" or "code"
	Content string `json:"content"`
}

// DefaultNotebook is served for topics without a notebook of their own.
func DefaultNotebook() []NotebookCell {
	return []NotebookCell{
		{Type: "markdown", Content: "### Interactive Notebook"},
		{Type: "code", Content: "print('Welcome to the interactive coding environment!');"},
	}
}

// Topic is one chapter of a course. OrderIndex is 1-based and dense.
type Topic struct {
	ID          string         `json:"id"`
	CourseID    string         `json:"course_id"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	AISummary   string         `json:"ai_summary"`
	OrderIndex  int            `json:"order_index"`
	Notebook    []NotebookCell `json:"notebook"`
	Placeholder bool           `json:"is_placeholder"`
	CreatedAt   time.Time      `json:"created_at"`
}

// WithTopics is a course together with its topics in order.
type WithTopics struct {
	Course
	Topics []Topic `json:"topics"`
}

// Store persists courses and topics.
type Store interface {
	CreateCourse(ctx context.Context, c Course) (Course, error)
	GetCourse(ctx context.Context, id string) (Course, error)
	ListCourses(ctx context.Context, userID string, t Type) ([]Course, error)
	CreateTopic(ctx context.Context, t Topic) (Topic, error)
	GetTopic(ctx context.Context, id string) (Topic, error)
	// ListTopics returns the topics of a course ordered by OrderIndex.
	ListTopics(ctx context.Context, courseID string) ([]Topic, error)
}

// Load fetches a course and its topics.
func Load(ctx context.Context, s Store, courseID string) (WithTopics, error) {
	c, err := s.GetCourse(ctx, courseID)
	if err != nil {
		return WithTopics{}, err
	}
	topics, err := s.ListTopics(ctx, courseID)
	if err != nil {
		return WithTopics{}, err
	}
	return WithTopics{Course: c, Topics: topics}, nil
}
