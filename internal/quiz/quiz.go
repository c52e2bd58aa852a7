// Package quiz generates multiple-choice quizzes from chapter content.
package quiz

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidQuiz is returned when a generated quiz does not have the required shape.
var ErrInvalidQuiz = errors.New("invalid quiz")

const (
	// ChapterQuestions is the size of a chapter quiz.
	ChapterQuestions = 5
	// FullTestQuestions is the size of a full test.
	FullTestQuestions = 15
	// DefaultSubject stands in for a chapter without content.
	DefaultSubject = "AI Basics"
)

// Difficulty is a quiz tier.
type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// ParseDifficulty accepts a tier name in any case.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	default:
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
}

// Question is one multiple-choice question. CorrectAnswer is always one of Options.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
	Difficulty    string   `json:"difficulty,omitempty"`
}

// Quiz is a generated chapter quiz. It is never stored.
type Quiz struct {
	Difficulty Difficulty `json:"difficulty"`
	Questions  []Question `json:"questions"`
}

// Validate checks each question and trims surrounding whitespace in place.
func Validate(questions []Question) error {
	for i := range questions {
		q := &questions[i]
		q.Question = strings.TrimSpace(q.Question)
		q.CorrectAnswer = strings.TrimSpace(q.CorrectAnswer)
		q.Explanation = strings.TrimSpace(q.Explanation)

		if q.Question == "" {
			return fmt.Errorf("%w: question %d has no text", ErrInvalidQuiz, i+1)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %d has %d options, want at least 2", ErrInvalidQuiz, i+1, len(q.Options))
		}

		seen := make(map[string]bool, len(q.Options))
		matches := 0
		for j, opt := range q.Options {
			opt = strings.TrimSpace(opt)
			q.Options[j] = opt
			if opt == "" {
				return fmt.Errorf("%w: question %d has an empty option", ErrInvalidQuiz, i+1)
			}
			if seen[opt] {
				return fmt.Errorf("%w: question %d repeats option %q", ErrInvalidQuiz, i+1, opt)
			}
			seen[opt] = true
			if opt == q.CorrectAnswer {
				matches++
			}
		}
		if matches != 1 {
			return fmt.Errorf("%w: question %d correct answer %q is not one of its options", ErrInvalidQuiz, i+1, q.CorrectAnswer)
		}
	}
	return nil
}
