package intervene

// #region imports
import (
	"fmt"
	"strings"
	"time"

	"refocusd/internal/profile"
)

// #endregion

// #region event

// AdaptationEvent records one strategy swap and why it happened.
type AdaptationEvent struct {
	At         time.Time
	From       profile.Strategy
	To         profile.Strategy
	Confidence float64
	Reason     string
}

// #endregion

// #region thresholds

// Learner gates. Adaptation needs enough history to trust, a strategy
// that is demonstrably failing, a candidate that is demonstrably better,
// and composite confidence above the bar.
const (
	adaptMinHistory     = 10
	adaptConfidenceBar  = 0.7
	dataConfidenceFull  = 20  // candidate records for full data confidence
	improvementFullGain = 0.5 // score gain for full improvement confidence
)

// #endregion

// #region learner

// Learner is the outer control loop: it re-evaluates the active strategy
// against the ledger and swaps it when the evidence is strong. Run it
// after each recorded outcome, not per detection tick, or strategies
// thrash.
type Learner struct {
	profiles ProfileStore
}

// NewLearner returns a learner over the given profile store.
func NewLearner(profiles ProfileStore) *Learner {
	return &Learner{profiles: profiles}
}

// CheckAndAdapt considers a strategy swap and returns nil unless every
// gate passes: adaptation enabled, ten or more outcomes on the current
// strategy, the current strategy needing adjustment, a recommended
// alternative, and composite confidence above 0.7.
func (l *Learner) CheckAndAdapt(now time.Time) *AdaptationEvent {
	p, ok := l.profiles.Get()
	if !ok || !p.Learning.AdaptationEnabled {
		return nil
	}

	current := p.Behavior.CurrentStrategy
	histories := splitByStrategy(p.Behavior.History)
	currentHist := histories[current]
	if len(currentHist) < adaptMinHistory {
		return nil
	}
	if !NeedsAdjustment(currentHist, DefaultAdjustmentThreshold) {
		return nil
	}

	candidate := RecommendStrategy(histories, current)
	if candidate == "" {
		return nil
	}

	currentScore := Score(currentHist)
	candidateScore := Score(histories[candidate])
	dataConfidence := min64(float64(len(histories[candidate]))/dataConfidenceFull, 1)
	improvementConfidence := min64((candidateScore-currentScore)/improvementFullGain, 1)
	confidence := (dataConfidence + improvementConfidence) / 2
	if confidence <= adaptConfidenceBar {
		return nil
	}

	reason := adaptationReason(currentHist, histories[candidate])
	if err := l.apply(now, candidate, histories); err != nil {
		return nil
	}
	return &AdaptationEvent{
		At:         now,
		From:       current,
		To:         candidate,
		Confidence: confidence,
		Reason:     reason,
	}
}

// ForceAdapt swaps to the given strategy with no evidence gates, for
// manual override. Returns nil only when no profile is loaded or the
// strategy is unknown.
func (l *Learner) ForceAdapt(now time.Time, to profile.Strategy) *AdaptationEvent {
	known := false
	for _, s := range profile.KnownStrategies {
		if s == to {
			known = true
			break
		}
	}
	if !known {
		return nil
	}
	p, ok := l.profiles.Get()
	if !ok {
		return nil
	}
	if err := l.apply(now, to, splitByStrategy(p.Behavior.History)); err != nil {
		return nil
	}
	return &AdaptationEvent{
		At:         now,
		From:       p.Behavior.CurrentStrategy,
		To:         to,
		Confidence: 1.0,
		Reason:     "manual override",
	}
}

// apply persists the swap plus refreshed per-strategy scores.
func (l *Learner) apply(now time.Time, to profile.Strategy, histories map[profile.Strategy][]profile.InterventionRecord) error {
	return l.profiles.Update(func(p *profile.Profile) {
		p.Behavior.CurrentStrategy = to
		p.Behavior.LastAdapted = now
		for _, s := range profile.KnownStrategies {
			p.Behavior.Scores[s] = Score(histories[s])
		}
	})
}

// #endregion

// #region reason

// adaptationReason assembles the human-readable explanation shown to the
// user from the metric deltas that argued for the swap.
func adaptationReason(currentHist, candidateHist []profile.InterventionRecord) string {
	cur := CalculateMetrics(currentHist)
	cand := CalculateMetrics(candidateHist)

	var parts []string
	if cur.ComplianceRate < 0.5 {
		parts = append(parts, fmt.Sprintf("compliance is low (%.0f%%)", cur.ComplianceRate*100))
	}
	if cur.OverrideRate > 0.5 {
		parts = append(parts, fmt.Sprintf("you override it often (%.0f%%)", cur.OverrideRate*100))
	}
	if cur.RecentTrend == TrendDeclining {
		parts = append(parts, "its results are declining")
	}
	if gain := cand.ComplianceRate - cur.ComplianceRate; gain > 0 {
		parts = append(parts, fmt.Sprintf("the alternative lands %.0f%% more often", gain*100))
	}
	if len(parts) == 0 {
		parts = append(parts, "the alternative scores clearly higher")
	}
	return "Switching strategy: " + strings.Join(parts, ", ") + "."
}

// splitByStrategy buckets the full ledger per strategy.
func splitByStrategy(history []profile.InterventionRecord) map[profile.Strategy][]profile.InterventionRecord {
	out := make(map[profile.Strategy][]profile.InterventionRecord, len(profile.KnownStrategies))
	for _, rec := range history {
		out[rec.Strategy] = append(out[rec.Strategy], rec)
	}
	return out
}

// #endregion
