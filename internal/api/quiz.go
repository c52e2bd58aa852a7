package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/p-n-ai/pai-course/internal/auth"
	"github.com/p-n-ai/pai-course/internal/course"
	"github.com/p-n-ai/pai-course/internal/progress"
	"github.com/p-n-ai/pai-course/internal/report"
)

type submitRequest struct {
	TopicID        string   `json:"topic_id"`
	Answers        []string `json:"answers"`
	CorrectAnswers []string `json:"correct_answers"`
}

func (s *Server) handleChapterQuiz(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	topic, err := s.ownedTopic(r.Context(), userID, chi.URLParam(r, "topic_id"))
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError, msgInternal)
		return
	}

	d := s.Progress.DifficultyFor(r.Context(), userID, topic)
	q, err := s.Quizzes.ChapterQuiz(r.Context(), topic.Content, d)
	if err != nil {
		respondError(w, r, err, http.StatusBadGateway, msgQuizFailed)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *Server) handleFullTest(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	topic, err := s.ownedTopic(r.Context(), userID, chi.URLParam(r, "topic_id"))
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError, msgInternal)
		return
	}

	questions, err := s.Quizzes.FullTest(r.Context(), topic.Content)
	if err != nil {
		respondError(w, r, err, http.StatusBadGateway, msgQuizFailed)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.TopicID) == "" {
		writeError(w, http.StatusBadRequest, "topic_id is required")
		return
	}

	userID, _ := auth.UserID(r.Context())
	if _, err := s.ownedTopic(r.Context(), userID, req.TopicID); err != nil {
		respondError(w, r, err, http.StatusInternalServerError, msgInternal)
		return
	}

	res, err := s.Progress.Submit(r.Context(), progress.Submission{
		UserID:  userID,
		TopicID: req.TopicID,
		Answers: req.Answers,
		Correct: req.CorrectAnswers,
	})
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleNotebook(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	topic, err := s.ownedTopic(r.Context(), userID, chi.URLParam(r, "topic_id"))
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError, msgInternal)
		return
	}

	cells := topic.Notebook
	if len(cells) == 0 {
		cells = course.DefaultNotebook()
	}
	writeJSON(w, http.StatusOK, map[string]any{"cells": cells})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	c, err := s.ownedCourse(r.Context(), userID, chi.URLParam(r, "course_id"))
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError, msgInternal)
		return
	}

	records, err := s.Progress.CourseProgress(r.Context(), userID, c.ID)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError, msgInternal)
		return
	}
	if records == nil {
		records = []progress.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserID(r.Context())
	c, err := s.ownedCourse(r.Context(), userID, chi.URLParam(r, "course_id"))
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError, msgInternal)
		return
	}

	records, err := s.Progress.CourseProgress(r.Context(), userID, c.ID)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError, msgInternal)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteProgress(&buf, c.Course, progress.WithGates(c.Topics, records), records); err != nil {
		respondError(w, r, err, http.StatusInternalServerError, msgInternal)
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="progress-%s.xlsx"`, c.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
