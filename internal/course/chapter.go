package course

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/p-n-ai/pai-course/internal/ai"
)

// PlaceholderMarker appears in the content of every placeholder chapter.
const PlaceholderMarker = "Content generation failed"

const chapterSchema = `{
  "type": "object",
  "required": ["content"],
  "properties": {
    "content": {"type": "string"},
    "aiSummary": {"type": "string"}
  }
}`

// ChapterRequest is the context one chapter is written with.
type ChapterRequest struct {
	CourseTitle string
	Title       string
	Index       int // 0-based
	Total       int
	Syllabus    string
	Type        Type
}

// ChapterResult is either a generated chapter or, when Err is set, the
// reason it could not be generated.
type ChapterResult struct {
	Content string
	Summary string
	Err     error
}

// Failed reports whether the chapter could not be generated.
func (r ChapterResult) Failed() bool { return r.Err != nil }

type chapterReply struct {
	Content   string `json:"content"`
	AISummary string `json:"aiSummary"`
}

// Chapter writes one chapter. It never returns an error: failures come back
// as a failed ChapterResult so that one chapter cannot abort a course.
func (g *Generator) Chapter(ctx context.Context, req ChapterRequest) ChapterResult {
	profile := g.Profile(req.Type)

	system := fmt.Sprintf(`You are a professional course author writing one chapter of a %s.
Respond with a JSON object: {"content": "chapter body in markdown", "aiSummary": "exactly two sentences summarizing the chapter"}.
Guidelines:
%s`, profile.Label, strings.TrimSpace(profile.Guidelines))
	user := fmt.Sprintf("Course: %s\nChapter %d of %d: %s\n\nSource material:\n%s",
		req.CourseTitle, req.Index+1, req.Total, req.Title,
		ai.Truncate(syllabusOrDefault(req.Syllabus), g.cfg.ChapterContextChars))

	resp, err := g.ai.Complete(ctx, ai.CompletionRequest{
		Messages:  []ai.Message{ai.System(system), ai.User(user)},
		Model:     g.cfg.Model,
		MaxTokens: profile.ChapterMaxTokens,
		Task:      ai.TaskChapter,
		JSON:      true,
	})
	if err != nil {
		return ChapterResult{Err: fmt.Errorf("chapter %d: %w", req.Index+1, err)}
	}

	var reply chapterReply
	if err := ai.DecodeJSON(resp.Content, chapterSchema, &reply); err != nil {
		return ChapterResult{Err: fmt.Errorf("chapter %d: %w", req.Index+1, err)}
	}
	content := strings.TrimSpace(reply.Content)
	if content == "" {
		return ChapterResult{Err: fmt.Errorf("chapter %d: %w: empty content", req.Index+1, ai.ErrInvalidJSON)}
	}

	summary := strings.TrimSpace(reply.AISummary)
	if summary == "" {
		summary = fmt.Sprintf("This chapter covers %s. It is chapter %d of %s.", req.Title, req.Index+1, req.CourseTitle)
	}
	return ChapterResult{Content: content, Summary: summary}
}

// Placeholder builds the deterministic stand-in for a chapter that could not
// be generated. The title is preserved and the content carries
// PlaceholderMarker.
func Placeholder(title string, cause error) (content, summary string) {
	reason := "the content service did not respond"
	if errors.Is(cause, ai.ErrInvalidJSON) {
		reason = "the generated chapter was not in the expected format"
	} else if errors.Is(cause, ai.ErrBudgetExceeded) {
		reason = "the AI usage budget was exhausted"
	}

	content = fmt.Sprintf("## %s\n\n%s for this chapter because %s. Regenerate the course to try again.",
		title, PlaceholderMarker, reason)
	summary = fmt.Sprintf("Content for %q could not be generated. Regenerate the course to fill in this chapter.", title)
	return content, summary
}
