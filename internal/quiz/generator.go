package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/p-n-ai/pai-course/internal/ai"
)

const (
	chapterMaxTokens  = 2048
	fullTestMaxTokens = 4096
	maxContentChars   = 12000
)

const questionSchema = `{
  "type": "object",
  "required": ["question", "options", "correct_answer"],
  "properties": {
    "question": {"type": "string"},
    "options": {"type": "array", "items": {"type": "string"}},
    "correct_answer": {"type": "string"},
    "explanation": {"type": "string"},
    "difficulty": {"type": "string"}
  }
}`

var (
	quizSchema = `{
  "type": "object",
  "required": ["questions"],
  "properties": {
    "difficulty": {"type": "string"},
    "questions": {"type": "array", "items": ` + questionSchema + `}
  }
}`
	questionListSchema = `{"type": "array", "items": ` + questionSchema + `}`
)

// Generator produces quizzes through the completion gateway.
type Generator struct {
	ai    ai.Completer
	model string
}

// NewGenerator creates a quiz generator. An empty model uses the provider default.
func NewGenerator(completer ai.Completer, model string) *Generator {
	return &Generator{ai: completer, model: model}
}

func subject(content string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return DefaultSubject
	}
	return ai.Truncate(content, maxContentChars)
}

// ChapterQuiz generates a ChapterQuestions-question quiz at difficulty d.
func (g *Generator) ChapterQuiz(ctx context.Context, content string, d Difficulty) (Quiz, error) {
	if d == "" {
		d = Medium
	}

	system := fmt.Sprintf(`Generate a %s difficulty multiple-choice quiz for the content provided.
Respond with a JSON object:
{"difficulty": "%s", "questions": [{"question": "...", "options": ["...", "...", "...", "..."], "correct_answer": "one of the options, verbatim", "explanation": "..."}]}
Generate exactly %d questions.`, d, d, ChapterQuestions)

	resp, err := g.ai.Complete(ctx, ai.CompletionRequest{
		Messages:  []ai.Message{ai.System(system), ai.User(subject(content))},
		Model:     g.model,
		MaxTokens: chapterMaxTokens,
		Task:      ai.TaskQuiz,
		JSON:      true,
	})
	if err != nil {
		return Quiz{}, fmt.Errorf("generating quiz: %w", err)
	}

	var out Quiz
	if err := ai.DecodeJSON(resp.Content, quizSchema, &out); err != nil {
		return Quiz{}, fmt.Errorf("%w: %w", ErrInvalidQuiz, err)
	}
	out.Questions, err = exactly(out.Questions, ChapterQuestions)
	if err != nil {
		return Quiz{}, err
	}
	if err := Validate(out.Questions); err != nil {
		return Quiz{}, err
	}
	out.Difficulty = d
	return out, nil
}

// FullTest generates FullTestQuestions mixed-difficulty questions.
func (g *Generator) FullTest(ctx context.Context, content string) ([]Question, error) {
	system := fmt.Sprintf(`Generate a %d-question mixed difficulty multiple-choice test for the content provided.
Respond with a JSON object:
{"questions": [{"question": "...", "options": ["...", "...", "...", "..."], "correct_answer": "one of the options, verbatim", "explanation": "...", "difficulty": "Easy|Medium|Hard"}]}`,
		FullTestQuestions)

	resp, err := g.ai.Complete(ctx, ai.CompletionRequest{
		Messages:  []ai.Message{ai.System(system), ai.User(subject(content))},
		Model:     g.model,
		MaxTokens: fullTestMaxTokens,
		Task:      ai.TaskQuiz,
		JSON:      true,
	})
	if err != nil {
		return nil, fmt.Errorf("generating full test: %w", err)
	}

	questions, err := decodeQuestions(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidQuiz, err)
	}
	if questions, err = exactly(questions, FullTestQuestions); err != nil {
		return nil, err
	}
	if err := Validate(questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// decodeQuestions accepts a bare array or an object with a questions field.
func decodeQuestions(content string) ([]Question, error) {
	raw := ai.StripCodeFence(content)
	if strings.HasPrefix(raw, "[") {
		var qs []Question
		err := ai.DecodeJSON(raw, questionListSchema, &qs)
		return qs, err
	}
	var wrapped struct {
		Questions []Question `json:"questions"`
	}
	err := ai.DecodeJSON(raw, quizSchema, &wrapped)
	return wrapped.Questions, err
}

// exactly truncates extra questions and rejects too few.
func exactly(qs []Question, n int) ([]Question, error) {
	if len(qs) < n {
		return nil, fmt.Errorf("%w: got %d questions, want %d", ErrInvalidQuiz, len(qs), n)
	}
	if len(qs) > n {
		slog.Debug("truncating quiz", "got", len(qs), "want", n)
		qs = qs[:n]
	}
	return qs, nil
}
