package intervene

// #region imports
import (
	"sync"

	"refocusd/internal/profile"
)

// #endregion

// #region profile-store

// ProfileStore is the slice of the profile store the engine mutates:
// snapshot reads and closure-based updates. profile.FileStore satisfies
// it; tests and replay runs use MemoryProfiles.
type ProfileStore interface {
	Get() (profile.Profile, bool)
	Update(mutate func(*profile.Profile)) error
}

// MemoryProfiles is an in-process ProfileStore with no disk behind it.
type MemoryProfiles struct {
	mu sync.Mutex
	p  *profile.Profile
}

// NewMemoryProfiles seeds a memory store; pass nil for the absent-profile case.
func NewMemoryProfiles(p *profile.Profile) *MemoryProfiles {
	m := &MemoryProfiles{}
	if p != nil {
		cp := p.Clone()
		m.p = &cp
	}
	return m
}

// Get implements ProfileStore.
func (m *MemoryProfiles) Get() (profile.Profile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.p == nil {
		return profile.Profile{}, false
	}
	return m.p.Clone(), true
}

// Update implements ProfileStore.
func (m *MemoryProfiles) Update(mutate func(*profile.Profile)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.p == nil {
		return profile.ErrNoProfile
	}
	next := m.p.Clone()
	mutate(&next)
	m.p = &next
	return nil
}

// #endregion

// #region tracker

// Tracker owns appends to the profile's behavior ledger. Nothing else
// writes History; the learner only swaps CurrentStrategy.
type Tracker struct {
	profiles ProfileStore
}

// NewTracker returns a tracker over the given profile store.
func NewTracker(profiles ProfileStore) *Tracker {
	return &Tracker{profiles: profiles}
}

// Record appends one outcome to the ledger. Without a loaded profile
// this is a no-op returning false; learning is an optional enhancement,
// not a reason to fail the loop.
func (t *Tracker) Record(rec profile.InterventionRecord) bool {
	err := t.profiles.Update(func(p *profile.Profile) {
		p.Behavior.History = append(p.Behavior.History, rec)
	})
	return err == nil
}

// History returns a snapshot of the full ledger, oldest first.
func (t *Tracker) History() []profile.InterventionRecord {
	p, ok := t.profiles.Get()
	if !ok {
		return nil
	}
	return p.Behavior.History
}

// #endregion

// #region views

// ByStrategy filters a ledger view to one strategy, preserving order.
func ByStrategy(history []profile.InterventionRecord, s profile.Strategy) []profile.InterventionRecord {
	var out []profile.InterventionRecord
	for _, rec := range history {
		if rec.Strategy == s {
			out = append(out, rec)
		}
	}
	return out
}

// ByTrigger filters a ledger view to one trigger, preserving order.
func ByTrigger(history []profile.InterventionRecord, tr profile.Trigger) []profile.InterventionRecord {
	var out []profile.InterventionRecord
	for _, rec := range history {
		if rec.Trigger == tr {
			out = append(out, rec)
		}
	}
	return out
}

// LastN returns the newest n records, still oldest first.
func LastN(history []profile.InterventionRecord, n int) []profile.InterventionRecord {
	if n <= 0 || len(history) == 0 {
		return nil
	}
	if len(history) > n {
		history = history[len(history)-n:]
	}
	return history
}

// ComplianceRate is the complied fraction over the last n records;
// zero on empty input.
func ComplianceRate(history []profile.InterventionRecord, n int) float64 {
	recent := LastN(history, n)
	if len(recent) == 0 {
		return 0
	}
	var complied int
	for _, rec := range recent {
		if rec.Response == profile.ResponseComplied {
			complied++
		}
	}
	return float64(complied) / float64(len(recent))
}

// ResponseBreakdown counts responses across a ledger view.
func ResponseBreakdown(history []profile.InterventionRecord) map[profile.Response]int {
	out := make(map[profile.Response]int, 3)
	for _, rec := range history {
		out[rec.Response]++
	}
	return out
}

// #endregion

// #region rejection

// Rejection check parameters: the last rejectionWindow records of a
// strategy, needing at least rejectionMinSamples before the signal
// counts for anything.
const (
	rejectionWindow     = 10
	rejectionMinSamples = 5

	// DefaultRejectionThreshold is the overrode+ignored fraction at
	// which a strategy counts as rejected by the user.
	DefaultRejectionThreshold = 0.6
)

// IsStrategyBeingRejected reports whether the user has been brushing off
// a strategy: rejection rate at or above the threshold over its last ten
// outcomes. Fewer than five samples is not evidence either way.
func (t *Tracker) IsStrategyBeingRejected(s profile.Strategy, threshold float64) bool {
	recent := LastN(ByStrategy(t.History(), s), rejectionWindow)
	if len(recent) < rejectionMinSamples {
		return false
	}
	var rejected int
	for _, rec := range recent {
		if rec.Response == profile.ResponseOverrode || rec.Response == profile.ResponseIgnored {
			rejected++
		}
	}
	return float64(rejected)/float64(len(recent)) >= threshold
}

// #endregion
