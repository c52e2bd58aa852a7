package course

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed profiles.yaml
var defaultProfiles []byte

// Profile controls how a course type is generated.
type Profile struct {
	Label            string `yaml:"label"`
	Chapters         int    `yaml:"chapters"`
	ChapterMaxTokens int    `yaml:"chapter_max_tokens"`
	Guidelines       string `yaml:"guidelines"`
}

// Profiles maps each course type to its profile.
type Profiles map[Type]Profile

// DefaultProfiles returns the built-in profiles.
func DefaultProfiles() Profiles {
	p, err := parseProfiles(defaultProfiles, nil)
	if err != nil {
		panic(fmt.Sprintf("embedded profiles: %v", err))
	}
	return p
}

// LoadProfiles returns the built-in profiles overlaid with the YAML file at
// path. An empty path returns the built-in profiles.
func LoadProfiles(path string) (Profiles, error) {
	base := DefaultProfiles()
	if path == "" {
		return base, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading course profiles: %w", err)
	}
	p, err := parseProfiles(data, base)
	if err != nil {
		return nil, fmt.Errorf("loading course profiles %s: %w", path, err)
	}
	slog.Info("course profiles loaded", "path", path)
	return p, nil
}

func parseProfiles(data []byte, base Profiles) (Profiles, error) {
	var raw map[string]Profile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	out := Profiles{}
	for t, p := range base {
		out[t] = p
	}
	for key, p := range raw {
		t, err := ParseType(key)
		if err != nil {
			return nil, err
		}
		out[t] = merge(out[t], p)
	}

	for _, t := range []Type{Full, OneShot} {
		p, ok := out[t]
		if !ok {
			return nil, fmt.Errorf("missing profile for %s", t)
		}
		if p.Chapters < 1 {
			return nil, fmt.Errorf("%s: chapters must be at least 1, got %d", t, p.Chapters)
		}
		if p.ChapterMaxTokens < 1 {
			return nil, fmt.Errorf("%s: chapter_max_tokens must be positive, got %d", t, p.ChapterMaxTokens)
		}
	}
	return out, nil
}

func merge(base, over Profile) Profile {
	if over.Label != "" {
		base.Label = over.Label
	}
	if over.Chapters != 0 {
		base.Chapters = over.Chapters
	}
	if over.ChapterMaxTokens != 0 {
		base.ChapterMaxTokens = over.ChapterMaxTokens
	}
	if over.Guidelines != "" {
		base.Guidelines = over.Guidelines
	}
	return base
}
