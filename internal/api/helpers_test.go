package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/p-n-ai/pai-course/internal/ai"
	"github.com/p-n-ai/pai-course/internal/api"
	"github.com/p-n-ai/pai-course/internal/auth"
	"github.com/p-n-ai/pai-course/internal/comprehension"
	"github.com/p-n-ai/pai-course/internal/course"
	"github.com/p-n-ai/pai-course/internal/events"
	"github.com/p-n-ai/pai-course/internal/progress"
	"github.com/p-n-ai/pai-course/internal/quiz"
)

type harness struct {
	t        *testing.T
	handler  http.Handler
	mock     *ai.MockProvider
	courses  *course.MemoryStore
	progress *progress.MemoryStore
	events   *events.Memory
	users    *auth.Service
}

// stubAI answers every task with well-formed JSON. Outlines have five topics.
func stubAI(req ai.CompletionRequest) (string, error) {
	switch req.Task {
	case ai.TaskOutline:
		return mustJSON(map[string]any{
			"title":  "Intro to AI",
			"topics": []string{"Agents", "Search", "Logic", "Learning", "Ethics"},
		}), nil
	case ai.TaskChapter:
		return mustJSON(map[string]string{"content": "## Body", "aiSummary": "One. Two."}), nil
	case ai.TaskQuiz:
		if req.MaxTokens > 2048 {
			return mustJSON(questions(quiz.FullTestQuestions)), nil
		}
		return mustJSON(map[string]any{"difficulty": "Medium", "questions": questions(quiz.ChapterQuestions)}), nil
	case ai.TaskAnswer:
		return "It is in the text.", nil
	}
	return "", fmt.Errorf("unexpected task %s", req.Task)
}

func questions(n int) []quiz.Question {
	out := make([]quiz.Question, n)
	for i := range out {
		out[i] = quiz.Question{
			Question:      fmt.Sprintf("Question %d?", i+1),
			Options:       []string{"A", "B", "C", "D"},
			CorrectAnswer: "A",
		}
	}
	return out
}

func mustJSON(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func newHarness(t *testing.T, handler func(ai.CompletionRequest) (string, error)) *harness {
	t.Helper()

	mock := ai.NewMockHandler(handler)
	ev := events.NewMemory()
	courses := course.NewMemoryStore()
	records := progress.NewMemoryStore()
	tokens := auth.NewTokens("test-secret", time.Hour)
	users := auth.NewService(auth.NewMemoryStore(), tokens, ev).WithCost(bcrypt.MinCost)

	gen := course.NewGenerator(mock, nil, course.DefaultGeneratorConfig())
	srv := api.New(api.Deps{
		Auth:          users,
		Tokens:        tokens,
		Courses:       courses,
		Assembler:     course.NewAssembler(gen, courses, ev, 2),
		Quizzes:       quiz.NewGenerator(mock, ""),
		Progress:      progress.NewService(courses, records, ev),
		Comprehension: comprehension.NewService(mock, nil, comprehension.Config{}),
		Checks: map[string]api.Check{
			"database": func(context.Context) error { return nil },
		},
		MaxUploadBytes: 1 << 16,
	})

	return &harness{
		t:        t,
		handler:  srv.Handler(),
		mock:     mock,
		courses:  courses,
		progress: records,
		events:   ev,
		users:    users,
	}
}

// signUp registers a user and returns its token and id.
func (h *harness) signUp(email string) (string, string) {
	h.t.Helper()
	sess, err := h.users.Register(context.Background(), email, "secret1", "Test User")
	if err != nil {
		h.t.Fatalf("Register(%s): %v", email, err)
	}
	return sess.AccessToken, sess.User.ID
}

func (h *harness) do(method, path, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	h.t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) get(path, token string) *httptest.ResponseRecorder {
	return h.do(http.MethodGet, path, token, nil, "")
}

func (h *harness) postJSON(path, token string, v any) *httptest.ResponseRecorder {
	return h.do(http.MethodPost, path, token, bytes.NewBufferString(mustJSON(v)), "application/json")
}

// postMultipart sends fields and an optional file part.
func (h *harness) postMultipart(path, token string, fields map[string]string, file []byte) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if file != nil {
		fw, err := mw.CreateFormFile("file", "syllabus.txt")
		if err != nil {
			h.t.Fatal(err)
		}
		_, _ = fw.Write(file)
	}
	_ = mw.Close()
	return h.do(http.MethodPost, path, token, &buf, mw.FormDataContentType())
}

// createCourse builds a full course for token and returns it.
func (h *harness) createCourse(token string) courseBody {
	h.t.Helper()
	rec := h.postMultipart("/api/fullcourse/create", token, nil, []byte("Syllabus: AI"))
	if rec.Code != http.StatusCreated {
		h.t.Fatalf("create course status = %d, body = %s", rec.Code, rec.Body)
	}
	return decode[courseBody](h.t, rec)
}

type topicBody struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	OrderIndex  int    `json:"order_index"`
	Unlocked    bool   `json:"unlocked"`
	Placeholder bool   `json:"is_placeholder"`
}

type courseBody struct {
	ID     string      `json:"id"`
	Title  string      `json:"title"`
	Type   string      `json:"course_type"`
	Topics []topicBody `json:"topics"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["message"]
}
