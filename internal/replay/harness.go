package replay

// #region imports
import (
	"context"
	"time"

	"refocusd/internal/activity"
	"refocusd/internal/detect"
	"refocusd/internal/intervene"
	"refocusd/internal/notify"
	"refocusd/internal/profile"
)

// #endregion

// #region result-types

// StepResult is the pipeline outcome of one timeline step.
type StepResult struct {
	Index      int
	At         time.Time
	Pattern    string
	Confidence float64
	Intervened bool
	Trigger    profile.Trigger
	Strategy   profile.Strategy
	Response   profile.Response
	Matched    bool // observed outcome equals the step's expectation
}

// Summary aggregates a whole run.
type Summary struct {
	Steps         int
	Interventions int
	Suppressed    int // real detections held back by cooldown or overlap
	Complied      int
	Overrode      int
	Ignored       int
	Adaptations   int
	Mismatches    int
}

// #endregion

// #region harness

// lookback mirrors the live loop's detection window. Fixtures longer
// than this must not feed the detectors spans the daemon would never
// have queried.
const lookback = 2 * time.Hour

// Run replays a fixture through the real detector, gate, strategies,
// tracker, and learner, entirely in memory. The clock is the fixture's
// own timeline.
func Run(f *Fixture) ([]StepResult, Summary) {
	profiles := intervene.NewMemoryProfiles(f.toProfile())
	tracker := intervene.NewTracker(profiles)
	learner := intervene.NewLearner(profiles)
	notifier := notify.NewScripted()

	var suppressed int
	gate := intervene.NewGate(intervene.NewEngine(), notifier, tracker, func(d intervene.Decision) {
		if !d.Allowed && d.Reason != "zero confidence" {
			suppressed++
		}
	})
	detector := detect.New()

	ctx := context.Background()
	var window []activity.Record
	results := make([]StepResult, 0, len(f.Steps))
	summary := Summary{Steps: len(f.Steps)}

	for i, step := range f.Steps {
		window = append(window, step.record(f.Start, f.Commitment))
		now := step.at(f.Start)
		cutoff := now.Add(-lookback)
		for len(window) > 0 && window[0].Timestamp.Before(cutoff) {
			window = window[1:]
		}

		res := detector.Analyze(now, window)
		key := string(res.Pattern)
		if res.Pattern == detect.PatternNone {
			if prod := detector.DetectProductiveProcrastination(now, window); prod.Pattern != detect.PatternNone {
				res = prod
				key = intervene.KeyProductive
			}
		}

		sr := StepResult{Index: i, At: now, Pattern: string(res.Pattern), Confidence: res.Confidence}

		if res.Pattern != detect.PatternNone && gate.ShouldIntervene(key, res.Confidence, now) {
			trigger := intervene.TriggerForKey(string(res.Pattern))
			p, _ := profiles.Get()
			notifier.Push(step.outcome())
			delivery := gate.Intervene(ctx, key, res.Confidence, intervene.Context{
				Trigger:    trigger,
				Activity:   step.App + " | " + step.WindowTitle,
				Commitment: f.Commitment,
				Now:        now,
				Current:    p.Behavior.CurrentStrategy,
				Prefs:      p.Intervention,
				Flags:      p.Patterns,
			})
			if delivery != nil {
				sr.Intervened = true
				sr.Trigger = trigger
				sr.Strategy = delivery.Result.Strategy
				sr.Response = delivery.Outcome.Response
				summary.Interventions++
				switch delivery.Outcome.Response {
				case profile.ResponseComplied:
					summary.Complied++
				case profile.ResponseOverrode:
					summary.Overrode++
				default:
					summary.Ignored++
				}
				if ev := learner.CheckAndAdapt(now); ev != nil {
					summary.Adaptations++
				}
			}
		}

		sr.Matched = sr.Intervened == step.Expect.Intervened &&
			(!step.Expect.Intervened || step.Expect.Trigger == "" || sr.Trigger == step.Expect.Trigger)
		if !sr.Matched {
			summary.Mismatches++
		}
		results = append(results, sr)
	}

	return results, summary
}

// outcome turns the step's scripted response into a notifier outcome.
func (s Step) outcome() intervene.Outcome {
	resp := profile.Response(s.Response)
	switch resp {
	case profile.ResponseComplied, profile.ResponseOverrode, profile.ResponseIgnored:
	default:
		resp = profile.ResponseIgnored
	}
	return intervene.Outcome{
		Response:      resp,
		TimeToRefocus: time.Duration(s.RefocusSeconds) * time.Second,
	}
}

// #endregion
