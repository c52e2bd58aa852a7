package course

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/p-n-ai/pai-course/internal/events"
)

// ErrPersistFailed wraps store failures during assembly. Rows written before
// the failure are left in place.
var ErrPersistFailed = errors.New("course persistence failed")

// DefaultChapterConcurrency is the number of chapters generated at once.
const DefaultChapterConcurrency = 3

// BuildRequest asks for a new course.
type BuildRequest struct {
	UserID string
	Type   Type
	Title  string // optional hint, used when the outline has no title
	Source string // syllabus or document text
}

// Assembler runs outline, chapter generation and persistence for one course.
type Assembler struct {
	gen         *Generator
	store       Store
	events      events.Logger
	concurrency int
}

// NewAssembler creates an Assembler. concurrency < 1 generates chapters one
// at a time.
func NewAssembler(gen *Generator, store Store, ev events.Logger, concurrency int) *Assembler {
	if concurrency < 1 {
		concurrency = 1
	}
	if ev == nil {
		ev = events.Nop{}
	}
	return &Assembler{gen: gen, store: store, events: ev, concurrency: concurrency}
}

// Build generates and stores a course. It fails only when the outline cannot
// be produced or the store rejects a write; chapters that cannot be generated
// are stored as placeholders.
func (a *Assembler) Build(ctx context.Context, req BuildRequest) (WithTopics, error) {
	outline, err := a.gen.Outline(ctx, req.Source, req.Type, req.Title)
	if err != nil {
		return WithTopics{}, err
	}

	// Once the outline exists the course is finished even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	profile := a.gen.Profile(req.Type)
	c, err := a.store.CreateCourse(ctx, Course{
		UserID:      req.UserID,
		Title:       outline.Title,
		Description: fmt.Sprintf("A %d-chapter %s.", len(outline.Topics), profile.Label),
		Type:        req.Type,
	})
	if err != nil {
		return WithTopics{}, fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	results := a.generateChapters(ctx, outline, req)

	out := WithTopics{Course: c, Topics: make([]Topic, 0, len(results))}
	placeholders := 0
	for i, res := range results {
		t := Topic{
			CourseID:   c.ID,
			Title:      outline.Topics[i],
			Content:    res.Content,
			AISummary:  res.Summary,
			OrderIndex: i + 1,
		}
		if res.Failed() {
			placeholders++
			t.Content, t.AISummary = Placeholder(t.Title, res.Err)
			t.Placeholder = true
			slog.Warn("chapter generation failed, using placeholder",
				"course_id", c.ID,
				"chapter", i+1,
				"title", t.Title,
				"error", res.Err,
			)
			events.Emit(ctx, a.events, events.Event{
				UserID:    req.UserID,
				EventType: events.ChapterGenerationFailed,
				Data: map[string]any{
					"course_id": c.ID,
					"chapter":   i + 1,
					"error":     res.Err.Error(),
				},
			})
		}

		stored, err := a.store.CreateTopic(ctx, t)
		if err != nil {
			return WithTopics{}, fmt.Errorf("%w: chapter %d: %w", ErrPersistFailed, i+1, err)
		}
		out.Topics = append(out.Topics, stored)
	}

	slog.Info("course generated",
		"course_id", c.ID,
		"type", req.Type,
		"chapters", len(out.Topics),
		"placeholders", placeholders,
	)
	events.Emit(ctx, a.events, events.Event{
		UserID:    req.UserID,
		EventType: events.CourseGenerated,
		Data: map[string]any{
			"course_id":    c.ID,
			"course_type":  string(req.Type),
			"chapters":     len(out.Topics),
			"placeholders": placeholders,
		},
	})
	return out, nil
}

// generateChapters fans chapter generation out and returns the results in
// outline order.
func (a *Assembler) generateChapters(ctx context.Context, outline Outline, req BuildRequest) []ChapterResult {
	results := make([]ChapterResult, len(outline.Topics))

	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, title := range outline.Topics {
		g.Go(func() error {
			results[i] = a.gen.Chapter(ctx, ChapterRequest{
				CourseTitle: outline.Title,
				Title:       title,
				Index:       i,
				Total:       len(outline.Topics),
				Syllabus:    req.Source,
				Type:        req.Type,
			})
			return nil
		})
	}
	_ = g.Wait()

	return results
}
