package detect

// #region imports
import (
	"time"

	"refocusd/internal/activity"
)

// #endregion

// #region thresholds

const (
	productiveWindow   = 30 * time.Minute
	productiveMinTotal = 15 * time.Minute
)

// #endregion

// #region productive-procrastination

// DetectProductiveProcrastination catches useful-looking work that dodges
// the commitment: fifteen minutes or more of coding, planning, or research
// the classifier marked productive_procrastination inside the last half
// hour. The dominant category decides which pattern label it reports.
func (d *Detector) DetectProductiveProcrastination(now time.Time, records []activity.Record) Result {
	cutoff := now.Add(-productiveWindow)

	perCategory := make(map[activity.Category]time.Duration)
	var total time.Duration
	var count int
	var samples []string
	for _, r := range records {
		if r.End().Before(cutoff) {
			continue
		}
		if r.Alignment != activity.ProductiveProcrastination {
			continue
		}
		switch r.Category {
		case activity.CategoryCoding, activity.CategoryPlanning, activity.CategoryResearch:
		default:
			continue
		}
		perCategory[r.Category] += r.Duration
		total += r.Duration
		count++
		samples = appendSample(samples, r)
	}

	if total < productiveMinTotal {
		return None()
	}

	dominant := activity.CategoryPlanning
	var dominantDur time.Duration
	for _, c := range []activity.Category{activity.CategoryPlanning, activity.CategoryResearch, activity.CategoryCoding} {
		if perCategory[c] > dominantDur {
			dominant = c
			dominantDur = perCategory[c]
		}
	}

	res := Result{
		Confidence: clamp(total.Minutes() / 30.0),
		Evidence: Evidence{
			Duration:    total,
			Occurrences: count,
			Samples:     samples,
		},
	}
	switch dominant {
	case activity.CategoryResearch:
		res.Pattern = PatternResearchRabbitHole
		res.Recommendation = "The reading is real work, just not today's work. Back to the commitment."
	case activity.CategoryCoding:
		res.Pattern = PatternContextSwitching
		res.Recommendation = "Park the yak shaving. The tooling is good enough for today."
	default:
		res.Pattern = PatternPlanningLoop
		res.Recommendation = "The plan is ready. Do the first item on it."
	}
	return res
}

// #endregion
