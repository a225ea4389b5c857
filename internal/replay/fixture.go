// Package replay runs recorded activity timelines through the real
// detection and intervention pipeline with a virtual clock and scripted
// responses, so gate and learner behavior can be checked
// deterministically against expected outcomes.
package replay

// #region imports
import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"refocusd/internal/activity"
	"refocusd/internal/profile"
)

// #endregion

// #region fixture-types

// Fixture is the top-level JSON structure for a replay run. Steps carry
// pre-labeled category and alignment, so a run never depends on a live
// classifier.
type Fixture struct {
	Description string    `json:"description"`
	Commitment  string    `json:"commitment"`
	Start       time.Time `json:"start"`
	Profile     *Profile  `json:"profile,omitempty"`
	Steps       []Step    `json:"steps"`
}

// Profile is the subset of the user profile a fixture can pin down.
type Profile struct {
	Primary           profile.Strategy  `json:"primary_strategy"`
	Fallback          profile.Strategy  `json:"fallback_strategy"`
	Tone              profile.Tone      `json:"tone"`
	Formality         profile.Formality `json:"formality"`
	AdaptationEnabled bool              `json:"adaptation_enabled"`
}

// Step is one observed span on the timeline plus the scripted user
// response and the expected gate outcome.
type Step struct {
	OffsetSeconds   int    `json:"offset_seconds"`
	App             string `json:"app"`
	WindowTitle     string `json:"window_title"`
	URL             string `json:"url,omitempty"`
	DurationSeconds int    `json:"duration_seconds"`
	Category        string `json:"category"`
	Alignment       string `json:"alignment"`

	// Scripted user response, used only when an intervention shows.
	Response       string `json:"response,omitempty"`
	RefocusSeconds int    `json:"refocus_seconds,omitempty"`

	Expect Expectation `json:"expect"`
}

// Expectation is what the gate should have decided at this step.
type Expectation struct {
	Intervened bool            `json:"intervened"`
	Trigger    profile.Trigger `json:"trigger,omitempty"`
}

// #endregion

// #region loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("fixture %s: %w", path, err)
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	if len(f.Steps) == 0 {
		return fmt.Errorf("no steps")
	}
	for i, s := range f.Steps {
		if s.App == "" {
			return fmt.Errorf("step %d: missing app", i)
		}
		switch activity.Category(s.Category) {
		case activity.CategoryCoding, activity.CategoryPlanning, activity.CategoryResearch,
			activity.CategoryCommunication, activity.CategoryOther:
		default:
			return fmt.Errorf("step %d: unknown category %q", i, s.Category)
		}
		switch activity.Alignment(s.Alignment) {
		case activity.OnTrack, activity.OffTrack, activity.ProductiveProcrastination:
		default:
			return fmt.Errorf("step %d: unknown alignment %q", i, s.Alignment)
		}
	}
	return nil
}

// #endregion

// #region conversion

// record converts a step into the activity record the detectors see.
func (s Step) record(start time.Time, commitment string) activity.Record {
	return activity.Record{
		Timestamp:   start.Add(time.Duration(s.OffsetSeconds) * time.Second),
		App:         s.App,
		WindowTitle: s.WindowTitle,
		URL:         s.URL,
		Duration:    time.Duration(s.DurationSeconds) * time.Second,
		Category:    activity.Category(s.Category),
		Alignment:   activity.Alignment(s.Alignment),
		Commitment:  commitment,
	}
}

// at is the virtual-clock instant of this step: its span end.
func (s Step) at(start time.Time) time.Time {
	return start.Add(time.Duration(s.OffsetSeconds+s.DurationSeconds) * time.Second)
}

// toProfile builds the full profile document the run mutates.
func (f *Fixture) toProfile() *profile.Profile {
	p := profile.Default("replay")
	p.Commitment = profile.Commitment{Text: f.Commitment, Date: f.Start.Format("2006-01-02")}
	if fp := f.Profile; fp != nil {
		if fp.Primary != "" {
			p.Intervention.Primary = fp.Primary
		}
		if fp.Fallback != "" {
			p.Intervention.Fallback = fp.Fallback
		}
		if fp.Tone != "" {
			p.Intervention.Tone = fp.Tone
		}
		if fp.Formality != "" {
			p.Intervention.Formality = fp.Formality
		}
		p.Learning.AdaptationEnabled = fp.AdaptationEnabled
		p.Behavior = profile.NewBehaviorState(p.Intervention.Primary)
	}
	return &p
}

// #endregion
