package course

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/p-n-ai/pai-course/internal/ai"
)

// ErrOutlineFailed wraps every outline failure. Without an outline there is
// nothing to build, so it is fatal to course assembly.
var ErrOutlineFailed = errors.New("outline generation failed")

const outlineSchema = `{
  "type": "object",
  "required": ["title", "topics"],
  "properties": {
    "title": {"type": "string"},
    "topics": {"type": "array", "items": {"type": "string"}}
  }
}`

// Outline is a course title and its ordered chapter titles.
type Outline struct {
	Title  string   `json:"title"`
	Topics []string `json:"topics"`
}

// Outline asks for a course title and exactly as many chapter titles as the
// profile of t requires. titleHint replaces a blank generated title.
func (g *Generator) Outline(ctx context.Context, syllabus string, t Type, titleHint string) (Outline, error) {
	profile := g.Profile(t)
	syllabus = syllabusOrDefault(syllabus)

	system := fmt.Sprintf(`You are a professional course creator. Plan a %s from the syllabus provided.
Respond with a JSON object: {"title": "Course Title", "topics": ["Chapter 1 title", ...]}.
Return exactly %d chapter titles in teaching order. Titles only, no chapter content.`,
		profile.Label, profile.Chapters)
	user := fmt.Sprintf("Syllabus:\n%s\n\nCourse Type: %s", ai.Truncate(syllabus, g.cfg.OutlineContextChars), t)
	if hint := normalizeTitle(titleHint); hint != "" {
		user += "\nPreferred title: " + hint
	}

	resp, err := g.ai.Complete(ctx, ai.CompletionRequest{
		Messages:  []ai.Message{ai.System(system), ai.User(user)},
		Model:     g.cfg.Model,
		MaxTokens: g.cfg.OutlineMaxTokens,
		Task:      ai.TaskOutline,
		JSON:      true,
	})
	if err != nil {
		return Outline{}, fmt.Errorf("%w: %w", ErrOutlineFailed, err)
	}

	var out Outline
	if err := ai.DecodeJSON(resp.Content, outlineSchema, &out); err != nil {
		return Outline{}, fmt.Errorf("%w: %w", ErrOutlineFailed, err)
	}

	out.Title = normalizeTitle(out.Title)
	if out.Title == "" {
		out.Title = normalizeTitle(titleHint)
	}
	if out.Title == "" {
		return Outline{}, fmt.Errorf("%w: empty course title", ErrOutlineFailed)
	}

	for i, topic := range out.Topics {
		out.Topics[i] = normalizeTitle(topic)
		if out.Topics[i] == "" {
			return Outline{}, fmt.Errorf("%w: chapter %d has an empty title", ErrOutlineFailed, i+1)
		}
	}
	switch {
	case len(out.Topics) < profile.Chapters:
		return Outline{}, fmt.Errorf("%w: got %d chapters, want %d", ErrOutlineFailed, len(out.Topics), profile.Chapters)
	case len(out.Topics) > profile.Chapters:
		slog.Debug("truncating outline", "got", len(out.Topics), "want", profile.Chapters)
		out.Topics = out.Topics[:profile.Chapters]
	}

	return out, nil
}
