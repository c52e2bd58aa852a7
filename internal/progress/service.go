package progress

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/p-n-ai/pai-course/internal/course"
	"github.com/p-n-ai/pai-course/internal/events"
	"github.com/p-n-ai/pai-course/internal/quiz"
)

// Submission is one quiz attempt. Correct answers are supplied by the client.
type Submission struct {
	UserID  string
	TopicID string
	Answers []string
	Correct []string
}

// Service records quiz results against course topics.
type Service struct {
	courses course.Store
	store   Store
	events  events.Logger
}

// NewService creates a progress service.
func NewService(courses course.Store, store Store, ev events.Logger) *Service {
	if ev == nil {
		ev = events.Nop{}
	}
	return &Service{courses: courses, store: store, events: ev}
}

// Submit scores a submission and stores the outcome as the user's progress on
// the topic. A failed store write is logged and the result is still returned;
// the only effect is that the next chapter stays locked.
func (s *Service) Submit(ctx context.Context, sub Submission) (Result, error) {
	topic, err := s.courses.GetTopic(ctx, sub.TopicID)
	if err != nil {
		return Result{}, err
	}

	res, err := Score(sub.Answers, sub.Correct)
	if err != nil {
		return Result{}, err
	}

	if _, err := s.store.Upsert(ctx, Record{
		UserID:         sub.UserID,
		CourseID:       topic.CourseID,
		TopicID:        topic.ID,
		Completed:      true,
		Score:          res.Score,
		TotalQuestions: res.Total,
		Difficulty:     res.NextDifficulty,
	}); err != nil {
		slog.Warn("failed to save quiz progress",
			"user_id", sub.UserID,
			"topic_id", topic.ID,
			"error", err,
		)
	}

	events.Emit(ctx, s.events, events.Event{
		UserID:    sub.UserID,
		EventType: events.QuizSubmitted,
		Data: map[string]any{
			"course_id":       topic.CourseID,
			"topic_id":        topic.ID,
			"score":           res.Score,
			"total":           res.Total,
			"next_difficulty": string(res.NextDifficulty),
		},
	})
	return res, nil
}

// CourseProgress returns the user's records for a course.
func (s *Service) CourseProgress(ctx context.Context, userID, courseID string) ([]Record, error) {
	records, err := s.store.ListByCourse(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("loading progress: %w", err)
	}
	return records, nil
}

// GatedCourse returns the course topics with their unlocked flags for userID.
func (s *Service) GatedCourse(ctx context.Context, userID string, c course.WithTopics) ([]GatedTopic, error) {
	records, err := s.CourseProgress(ctx, userID, c.ID)
	if err != nil {
		return nil, err
	}
	return WithGates(c.Topics, records), nil
}

// DifficultyFor picks the quiz tier for userID on topic. Lookup failures fall
// back to Medium.
func (s *Service) DifficultyFor(ctx context.Context, userID string, topic course.Topic) quiz.Difficulty {
	topics, err := s.courses.ListTopics(ctx, topic.CourseID)
	if err != nil {
		slog.Warn("failed to load topics for quiz difficulty", "topic_id", topic.ID, "error", err)
		return quiz.Medium
	}
	records, err := s.store.ListByCourse(ctx, userID, topic.CourseID)
	if err != nil {
		slog.Warn("failed to load progress for quiz difficulty", "topic_id", topic.ID, "error", err)
		return quiz.Medium
	}
	return QuizDifficulty(topics, records, topic.ID)
}
