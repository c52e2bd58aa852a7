// Package report renders a learner's course progress as an xlsx workbook.
package report

import (
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-course/internal/course"
	"github.com/p-n-ai/pai-course/internal/progress"
)

// SheetName is the single sheet of the workbook.
const SheetName = "Progress"

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var header = []any{"Chapter", "Title", "Unlocked", "Completed", "Score", "Total", "Percentage", "Next Difficulty"}

// WriteProgress writes one row per topic, in chapter order, followed by a
// summary row. Topics without a record show as not completed.
func WriteProgress(w io.Writer, c course.Course, topics []progress.GatedTopic, records []progress.Record) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	byTopic := make(map[string]progress.Record, len(records))
	for _, r := range records {
		byTopic[r.TopicID] = r
	}

	if err := f.SetSheetRow(SheetName, "A1", &[]any{"Course", c.Title}); err != nil {
		return fmt.Errorf("writing title: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A3", &header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating style: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "A1", bold); err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A3", "H3", bold); err != nil {
		return err
	}

	row := 4
	completed := 0
	for _, t := range topics {
		values := []any{t.OrderIndex, t.Title, yesNo(t.Unlocked), "no", "", "", "", ""}
		if r, ok := byTopic[t.ID]; ok {
			if r.Completed {
				completed++
			}
			values[3] = yesNo(r.Completed)
			values[4] = r.Score
			values[5] = r.TotalQuestions
			values[6] = percentage(r.Score, r.TotalQuestions)
			values[7] = string(r.Difficulty)
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("writing row %d: %w", row, err)
		}
		row++
	}

	cell, err := excelize.CoordinatesToCellName(1, row+1)
	if err != nil {
		return err
	}
	summary := []any{"Completed", fmt.Sprintf("%d of %d", completed, len(topics))}
	if err := f.SetSheetRow(SheetName, cell, &summary); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}

	if err := f.SetColWidth(SheetName, "B", "B", 40); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func percentage(score, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(score)/float64(total)*10000) / 100
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
