package report_test

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-course/internal/course"
	"github.com/p-n-ai/pai-course/internal/progress"
	"github.com/p-n-ai/pai-course/internal/quiz"
	"github.com/p-n-ai/pai-course/internal/report"
)

func TestWriteProgress(t *testing.T) {
	c := course.Course{ID: "c1", Title: "Intro to AI"}
	topics := []course.Topic{
		{ID: "t1", CourseID: "c1", Title: "What is AI", OrderIndex: 1},
		{ID: "t2", CourseID: "c1", Title: "Search", OrderIndex: 2},
		{ID: "t3", CourseID: "c1", Title: "Learning", OrderIndex: 3},
	}
	records := []progress.Record{
		{TopicID: "t1", CourseID: "c1", Completed: true, Score: 4, TotalQuestions: 5, Difficulty: quiz.Hard},
	}

	var buf bytes.Buffer
	if err := report.WriteProgress(&buf, c, progress.WithGates(topics, records), records); err != nil {
		t.Fatalf("WriteProgress() error = %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(report.SheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}

	if got := rows[0]; len(got) < 2 || got[1] != "Intro to AI" {
		t.Errorf("title row = %v", got)
	}
	if got := rows[2][0]; got != "Chapter" {
		t.Errorf("header starts with %q", got)
	}

	tests := []struct {
		row       int
		title     string
		unlocked  string
		completed string
	}{
		{3, "What is AI", "yes", "yes"},
		{4, "Search", "yes", "no"},
		{5, "Learning", "no", "no"},
	}
	for _, tt := range tests {
		r := rows[tt.row]
		if r[1] != tt.title || r[2] != tt.unlocked || r[3] != tt.completed {
			t.Errorf("row %d = %v", tt.row, r)
		}
	}
	if r := rows[3]; r[4] != "4" || r[5] != "5" || r[6] != "80" || r[7] != "Hard" {
		t.Errorf("scored row = %v", r)
	}
	if r := rows[7]; r[0] != "Completed" || r[1] != "1 of 3" {
		t.Errorf("summary row = %v", r)
	}
}
