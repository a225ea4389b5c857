package align

// #region imports
import (
	"context"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"refocusd/internal/activity"
)

// #endregion

// #region markers

// planningMarkers mark activity that organizes work instead of doing it.
var planningMarkers = []string{
	"plan", "roadmap", "backlog", "sprint", "todo", "kanban",
	"prioriti", "organize", "reorganize", "board",
}

// researchMarkers mark reading-about-work activity.
var researchMarkers = []string{
	"docs", "documentation", "tutorial", "article", "guide",
	"stackoverflow", "stack overflow", "how to", "best practices",
	"comparison", "benchmark", "awesome list", "readme",
}

// tinkeringMarkers mark tool fiddling that feels like progress.
var tinkeringMarkers = []string{
	"dotfiles", "vimrc", "zshrc", "config", "keybinding",
	"theme", "color scheme", "setup", "install",
}

// #endregion

// #region keyword-classifier

// Keyword is the deterministic fallback classifier: distraction globs
// first, then token overlap with the commitment, then work-shaped
// markers. It never returns an error.
type Keyword struct {
	globs func() []string
}

// NewKeyword builds a classifier over a fixed distraction glob list.
// Globs match app names and URLs, e.g. "*.reddit.com/**" or "Steam".
func NewKeyword(globs []string) *Keyword {
	return NewKeywordSource(func() []string { return globs })
}

// NewKeywordSource builds a classifier that re-reads its distraction
// globs on every call, so a profile edit reaches classification without
// a daemon restart.
func NewKeywordSource(source func() []string) *Keyword {
	return &Keyword{globs: source}
}

// Analyze implements Classifier.
func (k *Keyword) Analyze(_ context.Context, description, commitment string) (Assessment, error) {
	if strings.TrimSpace(description) == "" {
		return Assessment{
			Alignment:  activity.OnTrack,
			Confidence: 0.1,
			Reasoning:  "nothing observed",
		}, nil
	}

	if glob, ok := k.matchDistraction(description); ok {
		return Assessment{
			Alignment:  activity.OffTrack,
			Confidence: 0.9,
			Reasoning:  fmt.Sprintf("matches distraction pattern %q", glob),
		}, nil
	}

	if strings.TrimSpace(commitment) == "" {
		// An undeclared day never nags.
		return Assessment{
			Alignment:  activity.OnTrack,
			Confidence: 0.2,
			Reasoning:  "no commitment declared",
		}, nil
	}

	descTokens := tokenize(description)
	commitTokens := tokenize(commitment)
	if len(commitTokens) > 0 {
		shared := sharedTokens(commitTokens, descTokens)
		overlap := float64(shared) / float64(len(commitTokens))
		if overlap >= 0.3 {
			conf := 0.5 + overlap/2
			if conf > 0.9 {
				conf = 0.9
			}
			return Assessment{
				Alignment:  activity.OnTrack,
				Confidence: conf,
				Reasoning:  fmt.Sprintf("keyword overlap %.2f with commitment", overlap),
			}, nil
		}
	}

	lower := strings.ToLower(description)
	for _, set := range []struct {
		markers []string
		label   string
	}{
		{planningMarkers, "planning-shaped"},
		{researchMarkers, "research-shaped"},
		{tinkeringMarkers, "tool-setup-shaped"},
	} {
		for _, m := range set.markers {
			if strings.Contains(lower, m) {
				return Assessment{
					Alignment:  activity.ProductiveProcrastination,
					Confidence: 0.6,
					Reasoning:  fmt.Sprintf("%s activity without commitment overlap (%q)", set.label, m),
				}, nil
			}
		}
	}

	return Assessment{
		Alignment:  activity.OffTrack,
		Confidence: 0.6,
		Reasoning:  "no overlap with the commitment",
	}, nil
}

// #endregion

// #region glob-matching

// matchDistraction checks every pipe-separated description part against
// the distraction globs. URLs are matched with and without scheme, and
// by host alone, so "reddit.com/**" and "*.reddit.com/**" both behave.
func (k *Keyword) matchDistraction(description string) (string, bool) {
	globs := k.globs()
	if len(globs) == 0 {
		return "", false
	}
	var candidates []string
	for _, part := range strings.Split(description, "|") {
		p := strings.ToLower(strings.TrimSpace(part))
		if p == "" {
			continue
		}
		candidates = append(candidates, p)
		trimmed := strings.TrimPrefix(strings.TrimPrefix(p, "https://"), "http://")
		if trimmed != p {
			candidates = append(candidates, trimmed)
			if i := strings.IndexByte(trimmed, '/'); i > 0 {
				candidates = append(candidates, trimmed[:i])
			}
		}
	}
	for _, glob := range globs {
		g := strings.ToLower(glob)
		for _, c := range candidates {
			if ok, err := doublestar.Match(g, c); err == nil && ok {
				return glob, true
			}
		}
	}
	return "", false
}

// #endregion
