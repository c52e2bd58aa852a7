package course

import (
	"strings"

	"github.com/p-n-ai/pai-course/internal/ai"
)

// DefaultSubject stands in for an empty syllabus.
const DefaultSubject = "Artificial Intelligence Basics"

// GeneratorConfig bounds the prompts and completions of a Generator.
type GeneratorConfig struct {
	OutlineContextChars int
	ChapterContextChars int
	OutlineMaxTokens    int
	// Model is passed through to the gateway; empty uses the provider default.
	Model string
}

// DefaultGeneratorConfig returns the production limits.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		OutlineContextChars: 6000,
		ChapterContextChars: 2000,
		OutlineMaxTokens:    512,
	}
}

// Generator produces course outlines and chapter bodies through the
// completion gateway. It holds no per-course state and is safe for
// concurrent use.
type Generator struct {
	ai       ai.Completer
	profiles Profiles
	cfg      GeneratorConfig
}

// NewGenerator creates a Generator. Zero config fields take the defaults.
func NewGenerator(completer ai.Completer, profiles Profiles, cfg GeneratorConfig) *Generator {
	def := DefaultGeneratorConfig()
	if cfg.OutlineContextChars <= 0 {
		cfg.OutlineContextChars = def.OutlineContextChars
	}
	if cfg.ChapterContextChars <= 0 {
		cfg.ChapterContextChars = def.ChapterContextChars
	}
	if cfg.OutlineMaxTokens <= 0 {
		cfg.OutlineMaxTokens = def.OutlineMaxTokens
	}
	if profiles == nil {
		profiles = DefaultProfiles()
	}
	return &Generator{ai: completer, profiles: profiles, cfg: cfg}
}

// Profile returns the generation profile for t, falling back to FULL.
func (g *Generator) Profile(t Type) Profile {
	if p, ok := g.profiles[t]; ok {
		return p
	}
	return g.profiles[Full]
}

// syllabusOrDefault returns the trimmed syllabus, or DefaultSubject when blank.
func syllabusOrDefault(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultSubject
	}
	return s
}

// normalizeTitle collapses runs of whitespace.
func normalizeTitle(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
