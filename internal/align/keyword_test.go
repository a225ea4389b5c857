package align

import (
	"context"
	"errors"
	"testing"
	"time"

	"refocusd/internal/activity"
)

const commitment = "finish the payment service refactor"

func TestKeywordOverlapIsOnTrack(t *testing.T) {
	k := NewKeyword(nil)
	got, err := k.Analyze(context.Background(), "Code | payment service handler refactor", commitment)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if got.Alignment != activity.OnTrack {
		t.Fatalf("got %q (%s), want on_track", got.Alignment, got.Reasoning)
	}
	if !got.Aligned() {
		t.Error("Aligned() must be true for on_track")
	}
	if got.Confidence <= 0.5 {
		t.Errorf("confidence %.2f, want above the 0.5 floor", got.Confidence)
	}
}

func TestKeywordNoOverlapIsOffTrack(t *testing.T) {
	k := NewKeyword(nil)
	got, err := k.Analyze(context.Background(), "Firefox | best mechanical keyboards 2026", commitment)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if got.Alignment != activity.OffTrack {
		t.Fatalf("got %q (%s), want off_track", got.Alignment, got.Reasoning)
	}
}

func TestKeywordMarkersAreProductiveProcrastination(t *testing.T) {
	tests := []struct {
		name        string
		description string
	}{
		{"planning", "Notion | Q2 roadmap and backlog grooming"},
		{"research", "Firefox | gRPC best practices guide"},
		{"tinkering", "Terminal | tweaking dotfiles and vimrc"},
	}
	k := NewKeyword(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := k.Analyze(context.Background(), tt.description, commitment)
			if err != nil {
				t.Fatalf("analyze: %v", err)
			}
			if got.Alignment != activity.ProductiveProcrastination {
				t.Errorf("got %q (%s), want productive_procrastination", got.Alignment, got.Reasoning)
			}
		})
	}
}

func TestKeywordEmptyCommitmentNeverNags(t *testing.T) {
	k := NewKeyword(nil)
	got, err := k.Analyze(context.Background(), "Firefox | cat videos", "")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if got.Alignment != activity.OnTrack {
		t.Fatalf("got %q, want on_track on an undeclared day", got.Alignment)
	}
	if got.Confidence != 0.2 {
		t.Errorf("confidence %.2f, want 0.2", got.Confidence)
	}
}

func TestKeywordDistractionGlobs(t *testing.T) {
	k := NewKeyword([]string{"*.reddit.com/**", "reddit.com/**", "Steam"})

	tests := []struct {
		name        string
		description string
		wantHit     bool
	}{
		{"url-with-subdomain", "Firefox | r/golang | https://www.reddit.com/r/golang", true},
		{"url-bare-host", "Firefox | front page | https://reddit.com/", true},
		{"app-name", "Steam | Library", true},
		{"unrelated", "Code | payment service refactor", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := k.Analyze(context.Background(), tt.description, commitment)
			if err != nil {
				t.Fatalf("analyze: %v", err)
			}
			hit := got.Alignment == activity.OffTrack && got.Confidence == 0.9
			if hit != tt.wantHit {
				t.Errorf("glob hit=%v, want %v (%s)", hit, tt.wantHit, got.Reasoning)
			}
		})
	}

	// Globs outrank commitment overlap: a declared distraction is off track
	// even when its title shares words with the commitment.
	got, err := k.Analyze(context.Background(), "Firefox | payment refactor discussion | https://reddit.com/r/programming", commitment)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if got.Alignment != activity.OffTrack {
		t.Errorf("got %q, want glob to win over overlap", got.Alignment)
	}
}

func TestTokenizeKeepsShortDomainTokens(t *testing.T) {
	got := tokenize("the Q2 db migration for payment")
	want := map[string]bool{"q2": true, "db": true, "migration": true, "payment": true}
	if len(got) != len(want) {
		t.Fatalf("tokens %v, want exactly %v", got, want)
	}
	for _, tok := range got {
		if !want[tok] {
			t.Errorf("unexpected token %q in %v", tok, got)
		}
	}
}

func TestKeywordSourcePicksUpGlobEdits(t *testing.T) {
	var globs []string
	k := NewKeywordSource(func() []string { return globs })
	desc := "Code | payment service refactor"

	got, err := k.Analyze(context.Background(), desc, commitment)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if got.Alignment != activity.OnTrack {
		t.Fatalf("before the edit: got %q, want on_track", got.Alignment)
	}

	globs = []string{"Code"}
	got, err = k.Analyze(context.Background(), desc, commitment)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if got.Alignment != activity.OffTrack {
		t.Errorf("after the edit: got %q (%s), want the new glob to apply", got.Alignment, got.Reasoning)
	}
}

// countingClassifier records calls and can be told to fail.
type countingClassifier struct {
	calls int
	fail  bool
	out   Assessment
}

func (c *countingClassifier) Analyze(context.Context, string, string) (Assessment, error) {
	c.calls++
	if c.fail {
		return Assessment{}, errors.New("classifier offline")
	}
	return c.out, nil
}

func TestCachedServesRepeatLookups(t *testing.T) {
	inner := &countingClassifier{out: Assessment{Alignment: activity.OnTrack, Confidence: 0.8}}
	c := NewCached(inner, 16, time.Minute)

	for i := 0; i < 5; i++ {
		got, err := c.Analyze(context.Background(), "Code | main.go", commitment)
		if err != nil {
			t.Fatalf("analyze: %v", err)
		}
		if got.Alignment != activity.OnTrack {
			t.Fatalf("got %q, want on_track", got.Alignment)
		}
	}
	if inner.calls != 1 {
		t.Errorf("inner calls: got %d, want 1", inner.calls)
	}

	// A different commitment is a different key.
	if _, err := c.Analyze(context.Background(), "Code | main.go", "other goal"); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("inner calls: got %d, want 2", inner.calls)
	}
}

func TestCachedDoesNotCacheErrors(t *testing.T) {
	inner := &countingClassifier{fail: true}
	c := NewCached(inner, 16, time.Minute)

	if _, err := c.Analyze(context.Background(), "Code | main.go", commitment); err == nil {
		t.Fatal("want error from failing inner classifier")
	}
	inner.fail = false
	inner.out = Assessment{Alignment: activity.OffTrack, Confidence: 0.6}
	got, err := c.Analyze(context.Background(), "Code | main.go", commitment)
	if err != nil {
		t.Fatalf("analyze after recovery: %v", err)
	}
	if got.Alignment != activity.OffTrack {
		t.Errorf("got %q, want recovered verdict", got.Alignment)
	}
	if inner.calls != 2 {
		t.Errorf("inner calls: got %d, want 2", inner.calls)
	}
}

func TestCachedPurgeDropsStaleVerdicts(t *testing.T) {
	inner := &countingClassifier{out: Assessment{Alignment: activity.OnTrack, Confidence: 0.8}}
	c := NewCached(inner, 16, time.Minute)

	if _, err := c.Analyze(context.Background(), "Code | main.go", commitment); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	c.Purge()
	if c.Len() != 0 {
		t.Fatalf("cache holds %d entries after purge, want 0", c.Len())
	}

	inner.out = Assessment{Alignment: activity.OffTrack, Confidence: 0.9}
	got, err := c.Analyze(context.Background(), "Code | main.go", commitment)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if got.Alignment != activity.OffTrack {
		t.Errorf("got %q, want the re-classified verdict", got.Alignment)
	}
	if inner.calls != 2 {
		t.Errorf("inner calls: got %d, want 2", inner.calls)
	}
}

func TestResilientFallsBack(t *testing.T) {
	primary := &countingClassifier{fail: true}
	r := NewResilient(primary, NewKeyword(nil))

	got, err := r.Analyze(context.Background(), "Code | payment service refactor", commitment)
	if err != nil {
		t.Fatalf("fallback must absorb the primary error, got %v", err)
	}
	if got.Alignment != activity.OnTrack {
		t.Errorf("got %q, want keyword verdict", got.Alignment)
	}

	// Healthy primary wins.
	primary.fail = false
	primary.out = Assessment{Alignment: activity.OffTrack, Confidence: 0.95}
	got, err = r.Analyze(context.Background(), "Code | payment service refactor", commitment)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if got.Alignment != activity.OffTrack {
		t.Errorf("got %q, want primary verdict", got.Alignment)
	}
}
