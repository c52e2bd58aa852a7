// Package progress scores quiz submissions, tracks per-chapter progress and
// decides which chapters are unlocked.
package progress

import (
	"errors"
	"fmt"
	"math"

	"github.com/p-n-ai/pai-course/internal/quiz"
)

var (
	// ErrLengthMismatch is returned when answers and correct answers differ in length.
	ErrLengthMismatch = errors.New("answers and correct answers differ in length")
	// ErrNoAnswers is returned for an empty submission.
	ErrNoAnswers = errors.New("no answers submitted")
)

// Difficulty thresholds, in percent.
const (
	hardThreshold = 80
	easyThreshold = 50
)

// Result is the outcome of one quiz submission.
type Result struct {
	Score          int             `json:"score"`
	Total          int             `json:"total"`
	Percentage     float64         `json:"percentage"`
	NextDifficulty quiz.Difficulty `json:"next_difficulty"`
	Message        string          `json:"message"`
}

// Score compares answers with correct index by index.
func Score(answers, correct []string) (Result, error) {
	if len(answers) == 0 {
		return Result{}, ErrNoAnswers
	}
	if len(answers) != len(correct) {
		return Result{}, fmt.Errorf("%w: %d answers, %d correct answers", ErrLengthMismatch, len(answers), len(correct))
	}

	score := 0
	for i := range answers {
		if answers[i] == correct[i] {
			score++
		}
	}

	pct := float64(score*100) / float64(len(answers))
	return Result{
		Score:          score,
		Total:          len(answers),
		Percentage:     math.Round(pct*100) / 100,
		NextDifficulty: NextDifficulty(pct),
		Message:        Message(pct),
	}, nil
}

// NextDifficulty maps a percentage to the tier unlocked for the next attempt.
func NextDifficulty(percentage float64) quiz.Difficulty {
	switch {
	case percentage >= hardThreshold:
		return quiz.Hard
	case percentage < easyThreshold:
		return quiz.Easy
	default:
		return quiz.Medium
	}
}

// Message is the feedback line shown with a result.
func Message(percentage float64) string {
	if percentage >= hardThreshold {
		return "Excellent work!"
	}
	return "Keep practicing!"
}
