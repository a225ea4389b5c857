package detect

// #region imports
import (
	"fmt"
	"time"

	"refocusd/internal/activity"
)

// #endregion

// #region pattern

// Pattern names a recognized distraction shape.
type Pattern string

const (
	PatternNone               Pattern = "none"
	PatternPlanningLoop       Pattern = "planning_loop"
	PatternResearchRabbitHole Pattern = "research_rabbit_hole"
	PatternContextSwitching   Pattern = "context_switching"
)

// #endregion

// #region result

// Evidence carries the measurements behind a detection.
type Evidence struct {
	Duration     time.Duration
	Occurrences  int
	DistinctApps int
	DistinctURLs int
	Samples      []string // representative window titles, at most three
}

// Result is the outcome of one detection pass.
type Result struct {
	Pattern        Pattern
	Confidence     float64
	Evidence       Evidence
	Recommendation string
}

// None is the empty result.
func None() Result {
	return Result{Pattern: PatternNone}
}

// #endregion

// #region thresholds

const (
	planningLoopWindow   = 30 * time.Minute
	planningLoopMinCount = 3
	planningLoopMinTotal = 15 * time.Minute

	rabbitHoleMaxGap   = 5 * time.Minute
	rabbitHoleLong     = 30 * time.Minute
	rabbitHoleVeryLong = 60 * time.Minute
	rabbitHoleManyURLs = 10

	contextSwitchWindow       = time.Hour
	contextSwitchManySwitches = 20
	contextSwitchShortSpan    = 180 * time.Second
	contextSwitchManyApps     = 8

	fireThreshold = 0.5
)

// #endregion

// #region detector

// Detector runs the pattern analyses over an activity window.
type Detector struct{}

// New returns a Detector.
func New() *Detector {
	return &Detector{}
}

// Analyze runs the detectors in fixed priority order and returns the
// first match: planning loop, then research rabbit hole, then context
// switching. Records must be oldest-first.
func (d *Detector) Analyze(now time.Time, records []activity.Record) Result {
	if len(records) == 0 {
		return None()
	}
	if r := d.detectPlanningLoop(now, records); r.Pattern != PatternNone {
		return r
	}
	if r := d.detectResearchRabbitHole(now, records); r.Pattern != PatternNone {
		return r
	}
	if r := d.detectContextSwitching(now, records); r.Pattern != PatternNone {
		return r
	}
	return None()
}

// #endregion

// #region planning-loop

// detectPlanningLoop fires on repeated planning activity that the
// classifier already marked as productive procrastination: three or more
// such spans totalling fifteen minutes inside the last half hour.
func (d *Detector) detectPlanningLoop(now time.Time, records []activity.Record) Result {
	cutoff := now.Add(-planningLoopWindow)

	var count int
	var total time.Duration
	var samples []string
	for _, r := range records {
		if r.End().Before(cutoff) {
			continue
		}
		if r.Category != activity.CategoryPlanning || r.Alignment != activity.ProductiveProcrastination {
			continue
		}
		count++
		total += r.Duration
		samples = appendSample(samples, r)
	}

	if count < planningLoopMinCount || total < planningLoopMinTotal {
		return None()
	}

	return Result{
		Pattern:    PatternPlanningLoop,
		Confidence: clamp(float64(count) / 10.0),
		Evidence: Evidence{
			Duration:    total,
			Occurrences: count,
			Samples:     samples,
		},
		Recommendation: "Pick the first concrete task from the plan and start it now.",
	}
}

// #endregion

// #region research-rabbit-hole

// detectResearchRabbitHole scores the longest contiguous research session.
// Spans separated by less than five minutes count as one session.
func (d *Detector) detectResearchRabbitHole(now time.Time, records []activity.Record) Result {
	type run struct {
		start   time.Time
		end     time.Time
		urls    map[string]bool
		samples []string
	}

	var best, cur *run
	for _, r := range records {
		if r.Category != activity.CategoryResearch {
			cur = nil
			continue
		}
		if cur != nil && r.Timestamp.Sub(cur.end) >= rabbitHoleMaxGap {
			cur = nil
		}
		if cur == nil {
			cur = &run{start: r.Timestamp, urls: make(map[string]bool)}
		}
		if r.End().After(cur.end) {
			cur.end = r.End()
		}
		if r.URL != "" {
			cur.urls[r.URL] = true
		}
		cur.samples = appendSample(cur.samples, r)
		if best == nil || cur.end.Sub(cur.start) > best.end.Sub(best.start) {
			best = cur
		}
	}
	if best == nil {
		return None()
	}

	length := best.end.Sub(best.start)
	var conf float64
	if length > rabbitHoleLong {
		conf += 0.3
	}
	if length > rabbitHoleVeryLong {
		conf += 0.4
	}
	if len(best.urls) > rabbitHoleManyURLs {
		conf += 0.3
	}
	if conf <= fireThreshold {
		return None()
	}

	return Result{
		Pattern:    PatternResearchRabbitHole,
		Confidence: clamp(conf),
		Evidence: Evidence{
			Duration:     length,
			Occurrences:  1,
			DistinctURLs: len(best.urls),
			Samples:      best.samples,
		},
		Recommendation: "Capture what you have learned and return to the committed task.",
	}
}

// #endregion

// #region context-switching

// detectContextSwitching scores churn over the last hour: many spans,
// short average span length, many distinct apps.
func (d *Detector) detectContextSwitching(now time.Time, records []activity.Record) Result {
	cutoff := now.Add(-contextSwitchWindow)

	var switches int
	var total time.Duration
	apps := make(map[string]bool)
	var samples []string
	for _, r := range records {
		if r.Timestamp.Before(cutoff) {
			continue
		}
		switches++
		total += r.Duration
		apps[r.App] = true
		samples = appendSample(samples, r)
	}
	if switches == 0 {
		return None()
	}

	avg := total / time.Duration(switches)
	var conf float64
	if switches > contextSwitchManySwitches {
		conf += 0.5
	}
	if avg < contextSwitchShortSpan {
		conf += 0.3
	}
	if len(apps) > contextSwitchManyApps {
		conf += 0.2
	}
	if conf <= fireThreshold {
		return None()
	}

	return Result{
		Pattern:    PatternContextSwitching,
		Confidence: clamp(conf),
		Evidence: Evidence{
			Duration:     avg,
			Occurrences:  switches,
			DistinctApps: len(apps),
			Samples:      samples,
		},
		Recommendation: "Close everything except the one window the commitment needs.",
	}
}

// #endregion

// #region helpers

func appendSample(samples []string, r activity.Record) []string {
	if len(samples) >= 3 {
		return samples
	}
	label := r.App
	if r.WindowTitle != "" {
		label = fmt.Sprintf("%s: %s", r.App, r.WindowTitle)
	}
	for _, s := range samples {
		if s == label {
			return samples
		}
	}
	return append(samples, label)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion
