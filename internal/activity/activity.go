package activity

// #region imports
import (
	"strings"
	"time"
)

// #endregion

// #region category

// Category buckets an observed activity by the kind of work it is.
type Category string

const (
	CategoryCoding        Category = "coding"
	CategoryPlanning      Category = "planning"
	CategoryResearch      Category = "research"
	CategoryCommunication Category = "communication"
	CategoryOther         Category = "other"
)

// #endregion

// #region alignment

// Alignment relates an activity to the declared commitment.
type Alignment string

const (
	OnTrack  Alignment = "on_track"
	OffTrack Alignment = "off_track"
	// ProductiveProcrastination is real work, just not the committed work.
	ProductiveProcrastination Alignment = "productive_procrastination"
)

// #endregion

// #region snapshot

// Snapshot is one foreground observation as reported by an ActivitySource.
type Snapshot struct {
	Timestamp   time.Time
	App         string
	WindowTitle string
	URL         string // empty outside browsers
}

// Description renders the text the alignment classifier sees.
func (s Snapshot) Description() string {
	parts := make([]string, 0, 3)
	if s.App != "" {
		parts = append(parts, s.App)
	}
	if s.WindowTitle != "" {
		parts = append(parts, s.WindowTitle)
	}
	if s.URL != "" {
		parts = append(parts, s.URL)
	}
	return strings.Join(parts, " | ")
}

// Continues reports whether s is the same foreground activity as prev.
// A change in app, title, or URL closes the current span.
func (s Snapshot) Continues(prev Snapshot) bool {
	return s.App == prev.App && s.WindowTitle == prev.WindowTitle && s.URL == prev.URL
}

// #endregion

// #region record

// Record is a classified activity span. Duration is back-filled when the
// next transition closes the span, so an open span carries zero.
type Record struct {
	ID          string
	Timestamp   time.Time
	App         string
	WindowTitle string
	URL         string
	Duration    time.Duration
	Category    Category
	Alignment   Alignment
	Commitment  string
}

// End returns the span's closing instant.
func (r Record) End() time.Time {
	return r.Timestamp.Add(r.Duration)
}

// #endregion

// #region window-helpers

// Since filters records whose span overlaps [cutoff, now). Records are
// assumed oldest-first and stay that way.
func Since(records []Record, cutoff time.Time) []Record {
	var out []Record
	for _, r := range records {
		if r.End().After(cutoff) || r.Timestamp.After(cutoff) || r.Timestamp.Equal(cutoff) {
			out = append(out, r)
		}
	}
	return out
}

// #endregion
