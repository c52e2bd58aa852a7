package course_test

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/p-n-ai/pai-course/internal/ai"
)

var chapterNumber = regexp.MustCompile(`Chapter (\d+) of (\d+): (.+)`)

// chapterOf extracts the 1-based chapter number from a chapter prompt.
func chapterOf(req ai.CompletionRequest) int {
	for _, m := range req.Messages {
		if sm := chapterNumber.FindStringSubmatch(m.Content); sm != nil {
			n, _ := strconv.Atoi(sm[1])
			return n
		}
	}
	return 0
}

func outlineJSON(title string, topics ...string) string {
	b, _ := json.Marshal(map[string]any{"title": title, "topics": topics})
	return string(b)
}

func chapterJSON(content, summary string) string {
	b, _ := json.Marshal(map[string]string{"content": content, "aiSummary": summary})
	return string(b)
}

func topicTitles(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Topic %d", i+1)
	}
	return out
}

// courseHandler answers outline requests with n topics and chapter requests
// with generated bodies, failing the chapters listed in fail.
func courseHandler(n int, fail map[int]bool) func(ai.CompletionRequest) (string, error) {
	return func(req ai.CompletionRequest) (string, error) {
		switch req.Task {
		case ai.TaskOutline:
			return outlineJSON("Intro to Go", topicTitles(n)...), nil
		case ai.TaskChapter:
			ch := chapterOf(req)
			if fail[ch] {
				return "", fmt.Errorf("upstream timeout on chapter %d", ch)
			}
			return chapterJSON(fmt.Sprintf("## Chapter %d\n\nBody.", ch), fmt.Sprintf("Summary %d. Second sentence.", ch)), nil
		}
		return "", fmt.Errorf("unexpected task %s", req.Task)
	}
}
