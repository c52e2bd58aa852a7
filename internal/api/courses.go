package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/p-n-ai/pai-course/internal/auth"
	"github.com/p-n-ai/pai-course/internal/course"
	"github.com/p-n-ai/pai-course/internal/progress"
)

// courseResponse is a course with its topics and their unlocked flags.
type courseResponse struct {
	course.Course
	Topics []progress.GatedTopic `json:"topics"`
}

func (s *Server) handleCreateCourse(t course.Type) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		up, err := s.readUpload(w, r)
		if err != nil {
			s.uploadFailed(w, err)
			return
		}

		userID, _ := auth.UserID(r.Context())
		built, err := s.Assembler.Build(r.Context(), course.BuildRequest{
			UserID: userID,
			Type:   t,
			Title:  up.Title,
			Source: up.Text,
		})
		if err != nil {
			respondError(w, r, err, http.StatusInternalServerError, msgGenerationFailed)
			return
		}

		writeJSON(w, http.StatusCreated, courseResponse{
			Course: built.Course,
			Topics: progress.WithGates(built.Topics, nil),
		})
	}
}

func (s *Server) handleListCourses(t course.Type) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _ := auth.UserID(r.Context())
		courses, err := s.Courses.ListCourses(r.Context(), userID, t)
		if err != nil {
			respondError(w, r, err, http.StatusInternalServerError, msgInternal)
			return
		}
		if courses == nil {
			courses = []course.Course{}
		}
		writeJSON(w, http.StatusOK, courses)
	}
}

func (s *Server) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	c, err := s.ownedCourse(r.Context(), userID, chi.URLParam(r, "course_id"))
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError, msgInternal)
		return
	}
	gated, err := s.Progress.GatedCourse(r.Context(), userID, c)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, courseResponse{Course: c.Course, Topics: gated})
}

// ownedCourse loads a course with its topics. A course owned by someone else
// is reported as not found.
func (s *Server) ownedCourse(ctx context.Context, userID, courseID string) (course.WithTopics, error) {
	c, err := course.Load(ctx, s.Courses, courseID)
	if err != nil {
		return course.WithTopics{}, err
	}
	if c.UserID != userID {
		slog.Warn("course access denied", "course_id", courseID, "user_id", userID)
		return course.WithTopics{}, fmt.Errorf("course %s: %w", courseID, course.ErrNotFound)
	}
	return c, nil
}

// ownedTopic loads a topic whose course belongs to userID.
func (s *Server) ownedTopic(ctx context.Context, userID, topicID string) (course.Topic, error) {
	t, err := s.Courses.GetTopic(ctx, topicID)
	if err != nil {
		return course.Topic{}, err
	}
	c, err := s.Courses.GetCourse(ctx, t.CourseID)
	if err != nil {
		return course.Topic{}, err
	}
	if c.UserID != userID {
		return course.Topic{}, fmt.Errorf("topic %s: %w", topicID, course.ErrNotFound)
	}
	return t, nil
}
