package progress

import (
	"sort"

	"github.com/p-n-ai/pai-course/internal/course"
	"github.com/p-n-ai/pai-course/internal/quiz"
)

func byOrder(topics []course.Topic) []course.Topic {
	sorted := append([]course.Topic(nil), topics...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].OrderIndex < sorted[j].OrderIndex })
	return sorted
}

// Unlocked reports, for each topic sorted by order index, whether the user
// may open it. Order 1 is always unlocked; order k > 1 is unlocked once the
// topic at order k-1 has a completed record.
func Unlocked(topics []course.Topic, records []Record) []bool {
	sorted := byOrder(topics)

	completed := make(map[string]bool, len(records))
	for _, r := range records {
		if r.Completed {
			completed[r.TopicID] = true
		}
	}
	idAt := make(map[int]string, len(sorted))
	for _, t := range sorted {
		idAt[t.OrderIndex] = t.ID
	}

	out := make([]bool, len(sorted))
	for i, t := range sorted {
		if t.OrderIndex == 1 {
			out[i] = true
			continue
		}
		prev, ok := idAt[t.OrderIndex-1]
		out[i] = ok && completed[prev]
	}
	return out
}

// GatedTopic pairs a topic with its gate.
type GatedTopic struct {
	course.Topic
	Unlocked bool `json:"unlocked"`
}

// WithGates returns the topics in order with their unlocked flags.
func WithGates(topics []course.Topic, records []Record) []GatedTopic {
	sorted := byOrder(topics)
	gates := Unlocked(sorted, records)

	out := make([]GatedTopic, len(sorted))
	for i, t := range sorted {
		out[i] = GatedTopic{Topic: t, Unlocked: gates[i]}
	}
	return out
}

// QuizDifficulty picks the tier for a quiz on topicID: the user's own record
// for that topic, else the record of the topic before it, else Medium.
func QuizDifficulty(topics []course.Topic, records []Record, topicID string) quiz.Difficulty {
	byTopic := make(map[string]Record, len(records))
	for _, r := range records {
		byTopic[r.TopicID] = r
	}
	if r, ok := byTopic[topicID]; ok && r.Difficulty != "" {
		return r.Difficulty
	}

	sorted := byOrder(topics)
	for i, t := range sorted {
		if t.ID != topicID || i == 0 {
			continue
		}
		if r, ok := byTopic[sorted[i-1].ID]; ok && r.Difficulty != "" {
			return r.Difficulty
		}
	}
	return quiz.Medium
}
