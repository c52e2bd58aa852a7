// Package comprehension answers questions about an uploaded document or a
// video transcript. The text travels with every request; nothing is stored.
package comprehension

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/p-n-ai/pai-course/internal/ai"
)

var (
	ErrEmptyQuestion = errors.New("question is required")
	ErrEmptyText     = errors.New("text is required")
	ErrInvalidURL    = errors.New("url must be an absolute http or https address")
)

const (
	// SampleText stands in for an upload with no readable content.
	SampleText = "Sample text"
	// NotFoundAnswer is the exact reply when the text does not contain the answer.
	NotFoundAnswer = "I don't know"

	DefaultMaxContextChars = 12000
	DefaultAnswerMaxTokens = 1024
)

// Source says what kind of text a question is asked against.
type Source string

const (
	Document Source = "document"
	Video    Source = "video"
)

func (s Source) label() string {
	if s == Video {
		return "Transcript"
	}
	return "Document"
}

// Session is returned by upload and extract; clients send the text back with each question.
type Session struct {
	ID   string `json:"session_id"`
	Text string `json:"text"`
}

// Transcriber turns a video URL into a transcript.
type Transcriber interface {
	Transcript(ctx context.Context, videoURL string) (string, error)
}

// PlaceholderTranscriber returns a fixed transcript line naming the URL.
type PlaceholderTranscriber struct{}

func (PlaceholderTranscriber) Transcript(_ context.Context, videoURL string) (string, error) {
	return "Extracted video transcript from YouTube URL: " + videoURL, nil
}

// Config tunes the answer call.
type Config struct {
	MaxContextChars int
	AnswerMaxTokens int
	Model           string
}

// Service implements upload, extract and ask.
type Service struct {
	ai          ai.Completer
	transcriber Transcriber
	cfg         Config
}

// NewService creates a comprehension service. A nil transcriber uses PlaceholderTranscriber.
func NewService(completer ai.Completer, transcriber Transcriber, cfg Config) *Service {
	if transcriber == nil {
		transcriber = PlaceholderTranscriber{}
	}
	if cfg.MaxContextChars <= 0 {
		cfg.MaxContextChars = DefaultMaxContextChars
	}
	if cfg.AnswerMaxTokens <= 0 {
		cfg.AnswerMaxTokens = DefaultAnswerMaxTokens
	}
	return &Service{ai: completer, transcriber: transcriber, cfg: cfg}
}

// UploadDocument opens a session over text.
func (s *Service) UploadDocument(text string) Session {
	if strings.TrimSpace(text) == "" {
		text = SampleText
	}
	return Session{ID: uuid.NewString(), Text: text}
}

// ExtractVideo opens a session over the transcript of rawURL.
func (s *Service) ExtractVideo(ctx context.Context, rawURL string) (Session, error) {
	rawURL = strings.TrimSpace(rawURL)
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Session{}, ErrInvalidURL
	}

	text, err := s.transcriber.Transcript(ctx, rawURL)
	if err != nil {
		return Session{}, fmt.Errorf("fetching transcript: %w", err)
	}
	return Session{ID: uuid.NewString(), Text: text}, nil
}

// Ask answers question from text alone.
func (s *Service) Ask(ctx context.Context, question, sessionID, text string, source Source) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	system := fmt.Sprintf(`Answer the question using only the %s text provided.
If the answer is not in the text, reply exactly "%s".`, strings.ToLower(source.label()), NotFoundAnswer)
	user := fmt.Sprintf("%s: %s\nQuestion: %s", source.label(), ai.Truncate(text, s.cfg.MaxContextChars), question)

	resp, err := s.ai.Complete(ctx, ai.CompletionRequest{
		Messages:  []ai.Message{ai.System(system), ai.User(user)},
		Model:     s.cfg.Model,
		MaxTokens: s.cfg.AnswerMaxTokens,
		Task:      ai.TaskAnswer,
	})
	if err != nil {
		slog.Warn("comprehension answer failed", "session_id", sessionID, "error", err)
		return "", fmt.Errorf("answering question: %w", err)
	}
	return strings.TrimSpace(resp.Content), nil
}
