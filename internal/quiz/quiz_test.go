package quiz_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/p-n-ai/pai-course/internal/ai"
	"github.com/p-n-ai/pai-course/internal/quiz"
)

func questions(n int) []quiz.Question {
	out := make([]quiz.Question, n)
	for i := range out {
		out[i] = quiz.Question{
			Question:      fmt.Sprintf("Q%d?", i+1),
			Options:       []string{"A", "B", "C", "D"},
			CorrectAnswer: "B",
			Explanation:   "Because B.",
		}
	}
	return out
}

func quizJSON(difficulty string, qs []quiz.Question) string {
	b, _ := json.Marshal(map[string]any{"difficulty": difficulty, "questions": qs})
	return string(b)
}

func TestChapterQuiz(t *testing.T) {
	mock := ai.NewMockProvider(quizJSON("Hard", questions(5)))
	gen := quiz.NewGenerator(mock, "")

	q, err := gen.ChapterQuiz(context.Background(), "Goroutines are cheap.", quiz.Easy)
	if err != nil {
		t.Fatalf("ChapterQuiz() error = %v", err)
	}
	if len(q.Questions) != quiz.ChapterQuestions {
		t.Errorf("questions = %d, want 5", len(q.Questions))
	}
	if q.Difficulty != quiz.Easy {
		t.Errorf("difficulty = %q, want the requested Easy", q.Difficulty)
	}

	req := mock.LastRequest
	if !req.JSON || req.MaxTokens != 2048 || req.Task != ai.TaskQuiz {
		t.Errorf("request = %+v", req)
	}
	if !strings.Contains(req.Messages[0].Content, "Easy") {
		t.Error("prompt should carry the difficulty")
	}
	if req.Messages[1].Content != "Goroutines are cheap." {
		t.Errorf("user prompt = %q", req.Messages[1].Content)
	}
}

func TestChapterQuiz_EmptyContentUsesDefaultSubject(t *testing.T) {
	mock := ai.NewMockProvider(quizJSON("Medium", questions(5)))
	gen := quiz.NewGenerator(mock, "")

	q, err := gen.ChapterQuiz(context.Background(), "  ", "")
	if err != nil {
		t.Fatalf("ChapterQuiz() error = %v", err)
	}
	if mock.LastRequest.Messages[1].Content != quiz.DefaultSubject {
		t.Errorf("user prompt = %q, want default subject", mock.LastRequest.Messages[1].Content)
	}
	if q.Difficulty != quiz.Medium {
		t.Errorf("difficulty = %q, want Medium default", q.Difficulty)
	}
}

func TestChapterQuiz_ExtraQuestionsTruncated(t *testing.T) {
	gen := quiz.NewGenerator(ai.NewMockProvider(quizJSON("Medium", questions(8))), "")

	q, err := gen.ChapterQuiz(context.Background(), "c", quiz.Medium)
	if err != nil {
		t.Fatalf("ChapterQuiz() error = %v", err)
	}
	if len(q.Questions) != 5 {
		t.Errorf("questions = %d, want 5", len(q.Questions))
	}
}

func TestChapterQuiz_Invalid(t *testing.T) {
	wrongAnswer := questions(5)
	wrongAnswer[2].CorrectAnswer = "E"

	dupOptions := questions(5)
	dupOptions[0].Options = []string{"A", "A", "B"}

	oneOption := questions(5)
	oneOption[4].Options = []string{"B"}

	noText := questions(5)
	noText[1].Question = " "

	tests := []struct {
		name     string
		response string
	}{
		{"too few", quizJSON("Medium", questions(3))},
		{"answer not in options", quizJSON("Medium", wrongAnswer)},
		{"duplicate options", quizJSON("Medium", dupOptions)},
		{"single option", quizJSON("Medium", oneOption)},
		{"blank question", quizJSON("Medium", noText)},
		{"not json", "Sure! Here is a quiz."},
		{"missing questions", `{"difficulty": "Medium"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := quiz.NewGenerator(ai.NewMockProvider(tt.response), "")
			_, err := gen.ChapterQuiz(context.Background(), "c", quiz.Medium)
			if !errors.Is(err, quiz.ErrInvalidQuiz) {
				t.Errorf("ChapterQuiz() error = %v, want ErrInvalidQuiz", err)
			}
		})
	}
}

func TestChapterQuiz_GatewayError(t *testing.T) {
	gen := quiz.NewGenerator(&ai.MockProvider{Err: errors.New("down")}, "")
	_, err := gen.ChapterQuiz(context.Background(), "c", quiz.Medium)
	if err == nil || errors.Is(err, quiz.ErrInvalidQuiz) {
		t.Errorf("ChapterQuiz() error = %v, want a gateway error", err)
	}
}

func TestFullTest_Shapes(t *testing.T) {
	bare, _ := json.Marshal(questions(15))
	tests := []struct {
		name     string
		response string
	}{
		{"bare array", string(bare)},
		{"wrapped", quizJSON("", questions(15))},
		{"fenced array", "```json\n" + string(bare) + "\n```"},
		{"extra questions", quizJSON("", questions(18))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := ai.NewMockProvider(tt.response)
			qs, err := quiz.NewGenerator(mock, "").FullTest(context.Background(), "content")
			if err != nil {
				t.Fatalf("FullTest() error = %v", err)
			}
			if len(qs) != quiz.FullTestQuestions {
				t.Errorf("questions = %d, want 15", len(qs))
			}
			if mock.LastRequest.MaxTokens != 4096 {
				t.Errorf("MaxTokens = %d, want 4096", mock.LastRequest.MaxTokens)
			}
		})
	}
}

func TestFullTest_TooFew(t *testing.T) {
	_, err := quiz.NewGenerator(ai.NewMockProvider(quizJSON("", questions(10))), "").FullTest(context.Background(), "c")
	if !errors.Is(err, quiz.ErrInvalidQuiz) {
		t.Errorf("FullTest() error = %v, want ErrInvalidQuiz", err)
	}
}

func TestValidate_TrimsWhitespace(t *testing.T) {
	qs := []quiz.Question{{Question: " Q ", Options: []string{" A", "B "}, CorrectAnswer: "B"}}
	if err := quiz.Validate(qs); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if qs[0].Options[1] != "B" || qs[0].Question != "Q" {
		t.Errorf("question = %+v, want trimmed", qs[0])
	}
}

func TestParseDifficulty(t *testing.T) {
	for in, want := range map[string]quiz.Difficulty{"easy": quiz.Easy, "MEDIUM": quiz.Medium, " Hard ": quiz.Hard} {
		got, err := quiz.ParseDifficulty(in)
		if err != nil || got != want {
			t.Errorf("ParseDifficulty(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := quiz.ParseDifficulty("extreme"); err == nil {
		t.Error("ParseDifficulty(extreme) should fail")
	}
}
