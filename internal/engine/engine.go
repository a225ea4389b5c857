// Package engine runs the closed loop: observe, classify, persist,
// detect, gate, record, learn. One observation per tick, one goroutine
// driving it; the only other goroutine is the retention sweeper.
package engine

// #region imports
import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"refocusd/internal/activity"
	"refocusd/internal/align"
	"refocusd/internal/detect"
	"refocusd/internal/intervene"
	"refocusd/internal/profile"
	"refocusd/internal/source"
	"refocusd/internal/store"
)

// #endregion

// #region config

// Config tunes the loop.
type Config struct {
	PollInterval  time.Duration
	Lookback      time.Duration
	RetentionDays int
	SweepInterval time.Duration
	// OffTrackConfidence is the classifier confidence needed before an
	// off-track verdict alone raises the shiny-object path.
	OffTrackConfidence float64
}

// DefaultConfig returns the loop defaults: 5s ticks over a 2h window.
func DefaultConfig() Config {
	return Config{
		PollInterval:       5 * time.Second,
		Lookback:           2 * time.Hour,
		RetentionDays:      90,
		SweepInterval:      24 * time.Hour,
		OffTrackConfidence: 0.6,
	}
}

// #endregion

// #region engine

// Deps are the engine's collaborators. Clock defaults to time.Now.
type Deps struct {
	Source     source.Source
	Classifier align.Classifier
	Store      *store.Store
	Profiles   intervene.ProfileStore
	Notifier   intervene.Notifier
	Clock      func() time.Time
}

// Engine owns the tick loop and the open activity span.
type Engine struct {
	cfg        Config
	source     source.Source
	classifier align.Classifier
	store      *store.Store
	profiles   intervene.ProfileStore
	detector   *detect.Detector
	gate       *intervene.Gate
	tracker    *intervene.Tracker
	learner    *intervene.Learner
	clock      func() time.Time

	open *activity.Record // current foreground span, nil before first tick
	prev activity.Snapshot
}

// New wires an engine. The gate's decision provenance lands in the
// store's gate_decisions table.
func New(cfg Config, deps Deps) *Engine {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = 2 * time.Hour
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 24 * time.Hour
	}
	if cfg.OffTrackConfidence <= 0 {
		cfg.OffTrackConfidence = 0.6
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	tracker := intervene.NewTracker(deps.Profiles)
	learner := intervene.NewLearner(deps.Profiles)
	onDecision := func(d intervene.Decision) {
		err := deps.Store.LogDecision(store.DecisionEntry{
			CreatedAt:  d.At,
			Pattern:    d.Pattern,
			Confidence: d.Confidence,
			Decision:   decisionLabel(d.Allowed),
			Reason:     d.Reason,
		})
		if err != nil {
			log.Printf("[ENGINE] decision log: %v", err)
		}
	}

	return &Engine{
		cfg:        cfg,
		source:     deps.Source,
		classifier: deps.Classifier,
		store:      deps.Store,
		profiles:   deps.Profiles,
		detector:   detect.New(),
		gate:       intervene.NewGate(intervene.NewEngine(), deps.Notifier, tracker, onDecision),
		tracker:    tracker,
		learner:    learner,
		clock:      clock,
	}
}

func decisionLabel(allowed bool) string {
	if allowed {
		return "intervene"
	}
	return "suppress"
}

// #endregion

// #region run

// Run drives the loop until the context is canceled or the source is
// exhausted. Returns nil on both; those are the clean shutdowns.
func (e *Engine) Run(ctx context.Context) error {
	if !e.source.CheckPermissions() {
		log.Printf("[ENGINE] source reports missing permissions; observing anyway, ticks may fail")
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticker := time.NewTicker(e.cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := e.Step(ctx); err != nil {
					return err
				}
			}
		}
	})

	g.Go(func() error {
		ticker := time.NewTicker(e.cfg.SweepInterval)
		defer ticker.Stop()
		e.sweep()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				e.sweep()
			}
		}
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, source.ErrExhausted) {
		return nil
	}
	return err
}

// sweep purges rows past the retention window.
func (e *Engine) sweep() {
	purged, err := e.store.Cleanup(e.clock(), e.cfg.RetentionDays)
	if err != nil {
		log.Printf("[ENGINE] retention sweep: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("[ENGINE] retention sweep purged %d rows", purged)
	}
}

// #endregion

// #region step

// Step processes one observation through the whole pipeline. Exported
// so replays and tests can drive the loop without the ticker.
func (e *Engine) Step(ctx context.Context) error {
	snap, err := e.source.Current(ctx)
	if err != nil {
		if errors.Is(err, source.ErrExhausted) {
			return err
		}
		// A failed observation skips the tick, nothing more.
		log.Printf("[ENGINE] source: %v", err)
		return nil
	}
	now := snap.Timestamp
	if now.IsZero() {
		now = e.clock()
		snap.Timestamp = now
	}

	commitment := ""
	p, haveProfile := e.profiles.Get()
	if haveProfile {
		commitment = p.Commitment.Text
	}

	assessment, err := e.classifier.Analyze(ctx, snap.Description(), commitment)
	if err != nil {
		// Resilient classifiers swallow their own failures; anything
		// that still surfaces means even the fallback broke.
		log.Printf("[ENGINE] classifier: %v", err)
		assessment = align.Assessment{Alignment: activity.OnTrack}
	}

	e.trackSpan(snap, now, assessment, commitment)

	window, err := e.store.SpansSince(now.Add(-e.cfg.Lookback))
	if err != nil {
		log.Printf("[ENGINE] window query: %v", err)
		return nil
	}

	key, confidence, trigger := e.detectDistraction(now, window, assessment)
	if key == "" || !e.gate.ShouldIntervene(key, confidence, now) {
		return nil
	}

	ictx := intervene.Context{
		Trigger:    trigger,
		Activity:   snap.Description(),
		Commitment: commitment,
		Now:        now,
		Current:    p.Behavior.CurrentStrategy,
		Prefs:      p.Intervention,
		Flags:      p.Patterns,
	}
	delivery := e.gate.Intervene(ctx, key, confidence, ictx)
	if delivery == nil {
		return nil
	}

	e.mirrorIntervention(now, trigger, delivery)

	// Learn after a recorded outcome, never per tick.
	if delivery.Recorded {
		if ev := e.learner.CheckAndAdapt(now); ev != nil {
			log.Printf("[LEARN] %s -> %s (confidence %.2f): %s", ev.From, ev.To, ev.Confidence, ev.Reason)
		}
	}
	return nil
}

// trackSpan opens, extends, or closes the foreground activity span.
// Duration back-fills as the span grows, so a crash mid-span loses at
// most one poll interval.
func (e *Engine) trackSpan(snap activity.Snapshot, now time.Time, assessment align.Assessment, commitment string) {
	if e.open != nil && snap.Continues(e.prev) {
		e.open.Duration = now.Sub(e.open.Timestamp)
		if err := e.store.UpdateSpanDuration(e.open.ID, e.open.Duration); err != nil {
			log.Printf("[ENGINE] span extend: %v", err)
		}
		return
	}

	if e.open != nil {
		if err := e.store.UpdateSpanDuration(e.open.ID, now.Sub(e.open.Timestamp)); err != nil {
			log.Printf("[ENGINE] span close: %v", err)
		}
	}

	rec := activity.Record{
		Timestamp:   now,
		App:         snap.App,
		WindowTitle: snap.WindowTitle,
		URL:         snap.URL,
		Category:    activity.Categorize(snap),
		Alignment:   assessment.Alignment,
		Commitment:  commitment,
	}
	id, err := e.store.InsertSpan(rec)
	if err != nil {
		log.Printf("[ENGINE] span open: %v", err)
		e.open = nil
		return
	}
	rec.ID = id
	e.open = &rec
	e.prev = snap
}

// detectDistraction runs the detectors in their priority order: the
// pattern analysis first, then the productive-procrastination
// companion, then the bare off-track verdict.
func (e *Engine) detectDistraction(now time.Time, window []activity.Record, assessment align.Assessment) (string, float64, profile.Trigger) {
	if res := e.detector.Analyze(now, window); res.Pattern != detect.PatternNone {
		key := string(res.Pattern)
		return key, res.Confidence, intervene.TriggerForKey(key)
	}
	if res := e.detector.DetectProductiveProcrastination(now, window); res.Pattern != detect.PatternNone {
		return intervene.KeyProductive, res.Confidence, intervene.TriggerForKey(string(res.Pattern))
	}
	if assessment.Alignment == activity.OffTrack && assessment.Confidence >= e.cfg.OffTrackConfidence {
		return intervene.KeyOffTrack, assessment.Confidence, profile.TriggerShinyObject
	}
	return "", 0, ""
}

// mirrorIntervention copies the resolved intervention into SQLite for
// reporting and retention; the profile ledger stays the learning truth.
func (e *Engine) mirrorIntervention(now time.Time, trigger profile.Trigger, d *intervene.Delivery) {
	_, err := e.store.InsertIntervention(store.InterventionRow{
		CreatedAt:      now,
		Trigger:        trigger,
		Strategy:       d.Result.Strategy,
		Action:         string(d.Result.Action),
		Message:        d.Result.Message,
		Response:       d.Outcome.Response,
		RefocusSeconds: int(d.Outcome.TimeToRefocus.Seconds()),
	})
	if err != nil {
		log.Printf("[ENGINE] intervention mirror: %v", err)
	}
}

// #endregion
