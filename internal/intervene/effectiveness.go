package intervene

// #region imports
import (
	"refocusd/internal/profile"
)

// #endregion

// #region weights

// Score weights. Compliance and fast refocus are rewarded, rejection
// responses are penalized, and the result is clamped to [0,1].
const (
	weightCompliance = 0.4
	weightRefocus    = 0.3
	weightOverride   = 0.2
	weightIgnore     = 0.1

	refocusCeiling = 300.0 // seconds; anything slower earns zero refocus credit

	trendMinHistory = 10
	trendBand       = 0.1
)

// #endregion

// #region score

// Score produces a 0-1 composite for a strategy's outcome history.
// Empty history scores zero, never NaN.
func Score(history []profile.InterventionRecord) float64 {
	if len(history) == 0 {
		return 0
	}
	m := CalculateMetrics(history)

	refocus := 1 - min64(m.AverageRefocus, refocusCeiling)/refocusCeiling
	score := weightCompliance*m.ComplianceRate +
		weightRefocus*refocus -
		weightOverride*m.OverrideRate -
		weightIgnore*m.IgnoreRate

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// #endregion

// #region metrics

// CalculateMetrics summarizes a history. On non-empty input the three
// response rates sum to one; on empty input everything is the neutral
// default (zero rates, stable trend).
func CalculateMetrics(history []profile.InterventionRecord) Metrics {
	m := Metrics{RecentTrend: TrendStable}
	if len(history) == 0 {
		return m
	}

	var complied, overrode, ignored int
	var refocusSum int
	for _, rec := range history {
		switch rec.Response {
		case profile.ResponseComplied:
			complied++
			refocusSum += rec.TimeToRefocus
		case profile.ResponseOverrode:
			overrode++
		default:
			ignored++
		}
	}

	total := float64(len(history))
	m.ComplianceRate = float64(complied) / total
	m.OverrideRate = float64(overrode) / total
	m.IgnoreRate = float64(ignored) / total
	if complied > 0 {
		m.AverageRefocus = float64(refocusSum) / float64(complied)
	}
	m.RecentTrend = recentTrend(history)
	return m
}

// recentTrend compares the score of the older half against the recent
// half. Short histories read as stable; the signal is not there yet.
func recentTrend(history []profile.InterventionRecord) Trend {
	if len(history) < trendMinHistory {
		return TrendStable
	}
	mid := len(history) / 2
	older := Score(history[:mid])
	recent := Score(history[mid:])

	switch {
	case recent-older > trendBand:
		return TrendImproving
	case older-recent > trendBand:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// #endregion

// #region needs-adjustment

// DefaultAdjustmentThreshold is the score floor below which a strategy
// is considered to be failing the user.
const DefaultAdjustmentThreshold = 0.4

// NeedsAdjustment reports whether the history argues for trying a
// different strategy: low score, declining trend, or the user overriding
// more often than not.
func NeedsAdjustment(history []profile.InterventionRecord, threshold float64) bool {
	if len(history) == 0 {
		return false
	}
	m := CalculateMetrics(history)
	if Score(history) < threshold {
		return true
	}
	if m.RecentTrend == TrendDeclining {
		return true
	}
	return m.OverrideRate > 0.5
}

// #endregion

// #region recommend

// Recommendation thresholds. A candidate needs enough samples to trust
// and a clear margin over the incumbent before a switch is worth it.
const (
	recommendMinRecords     = 5
	recommendMinImprovement = 0.2
)

// RecommendStrategy picks the best-scoring alternative to current, or
// returns "" when no alternative earns a switch: the best strategy is
// already active, has too few records, or the improvement is marginal.
func RecommendStrategy(histories map[profile.Strategy][]profile.InterventionRecord, current profile.Strategy) profile.Strategy {
	var best profile.Strategy
	bestScore := -1.0
	for _, s := range profile.KnownStrategies {
		if score := Score(histories[s]); score > bestScore {
			best = s
			bestScore = score
		}
	}

	if best == current || best == "" {
		return ""
	}
	if len(histories[best]) < recommendMinRecords {
		return ""
	}
	if bestScore-Score(histories[current]) <= recommendMinImprovement {
		return ""
	}
	return best
}

// #endregion

// #region helpers

func min64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

// #endregion
