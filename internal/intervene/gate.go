package intervene

// #region imports
import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"refocusd/internal/profile"
)

// #endregion

// #region cooldowns

// Cooldown windows per gate key. An intervention refreshes its key's
// stamp unconditionally, whatever the user answered.
var defaultCooldowns = map[string]time.Duration{
	KeyPlanningLoop:       20 * time.Minute,
	KeyResearchRabbitHole: 30 * time.Minute,
	KeyContextSwitching:   15 * time.Minute,
	KeyOffTrack:           15 * time.Minute,
	KeyProductive:         20 * time.Minute,
}

// Cooldowns is a keyed store of last-shown stamps with per-key windows.
// Process-local and in-memory: a restart forgets them, which at worst
// means one early nudge. Reads evict expired stamps.
type Cooldowns struct {
	windows map[string]time.Duration
	shown   map[string]time.Time
}

// NewCooldowns returns a store with the default per-pattern windows.
func NewCooldowns() *Cooldowns {
	return &Cooldowns{
		windows: defaultCooldowns,
		shown:   make(map[string]time.Time),
	}
}

// Active reports whether key is still cooling down at now.
func (c *Cooldowns) Active(key string, now time.Time) bool {
	stamp, ok := c.shown[key]
	if !ok {
		return false
	}
	window, ok := c.windows[key]
	if !ok || now.Sub(stamp) >= window {
		delete(c.shown, key)
		return false
	}
	return true
}

// Remaining returns how much cooldown is left for key at now.
func (c *Cooldowns) Remaining(key string, now time.Time) time.Duration {
	if !c.Active(key, now) {
		return 0
	}
	return c.shown[key].Add(c.windows[key]).Sub(now)
}

// Touch stamps key at now.
func (c *Cooldowns) Touch(key string, now time.Time) {
	c.shown[key] = now
}

// #endregion

// #region decision

// Decision is one gate verdict, for the provenance log.
type Decision struct {
	At         time.Time
	Pattern    string
	Confidence float64
	Allowed    bool
	Reason     string
}

// #endregion

// #region gate

// Gate decides whether a detected pattern warrants interrupting the user
// right now, and runs the intervention when it does. The detector's own
// firing threshold is the single source of truth for "is this real"; the
// gate adds timing (cooldowns) and exclusivity (one prompt at a time).
type Gate struct {
	cooldowns  *Cooldowns
	strategies *Engine
	notifier   Notifier
	tracker    *Tracker
	onDecision func(Decision) // nil = no provenance sink

	mu   sync.Mutex
	busy bool
}

// NewGate wires the gate to its collaborators. onDecision may be nil.
func NewGate(strategies *Engine, notifier Notifier, tracker *Tracker, onDecision func(Decision)) *Gate {
	return &Gate{
		cooldowns:  NewCooldowns(),
		strategies: strategies,
		notifier:   notifier,
		tracker:    tracker,
		onDecision: onDecision,
	}
}

// ShouldIntervene applies the gate checks for a detected pattern:
// a real (non-none, positive-confidence) detection, not cooling down.
func (g *Gate) ShouldIntervene(key string, confidence float64, now time.Time) bool {
	switch {
	case key == "" || key == "none":
		return false
	case confidence <= 0:
		g.logDecision(Decision{At: now, Pattern: key, Confidence: confidence, Reason: "zero confidence"})
		return false
	case g.cooldowns.Active(key, now):
		g.logDecision(Decision{
			At: now, Pattern: key, Confidence: confidence,
			Reason: fmt.Sprintf("cooldown, %s remaining", g.cooldowns.Remaining(key, now).Round(time.Second)),
		})
		return false
	}
	return true
}

// Delivery is a completed intervention round-trip.
type Delivery struct {
	Result   Result
	Outcome  Outcome
	Recorded bool // false when no profile was loaded
}

// Intervene selects a strategy, presents it, records the outcome, and
// refreshes the cooldown stamp, unconditionally so a dismissed prompt
// does not come straight back. Returns nil when another prompt is still
// outstanding. ictx.Trigger must already be mapped from the gate key.
func (g *Gate) Intervene(ctx context.Context, key string, confidence float64, ictx Context) *Delivery {
	g.mu.Lock()
	if g.busy {
		g.mu.Unlock()
		g.logDecision(Decision{At: ictx.Now, Pattern: key, Confidence: confidence, Reason: "prompt already outstanding"})
		return nil
	}
	g.busy = true
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		g.busy = false
		g.mu.Unlock()
	}()

	res := g.strategies.Select(ictx)

	outcome, err := g.notifier.Deliver(ctx, res)
	if err != nil {
		// Delivery trouble is never the user's problem.
		log.Printf("[GATE] notifier failed, counting as ignored: %v", err)
		outcome = Outcome{Response: profile.ResponseIgnored}
	}
	if outcome.Response == "" {
		outcome.Response = profile.ResponseIgnored
	}

	recorded := g.tracker.Record(profile.InterventionRecord{
		Timestamp:     ictx.Now,
		Trigger:       ictx.Trigger,
		Strategy:      res.Strategy,
		Response:      outcome.Response,
		TimeToRefocus: int(outcome.TimeToRefocus.Seconds()),
	})

	g.cooldowns.Touch(key, ictx.Now)
	g.logDecision(Decision{
		At: ictx.Now, Pattern: key, Confidence: confidence, Allowed: true,
		Reason: fmt.Sprintf("shown %s, user %s", res.Strategy, outcome.Response),
	})

	return &Delivery{Result: res, Outcome: outcome, Recorded: recorded}
}

// TriggerForKey maps a gate key to the intervention trigger it raises.
func TriggerForKey(key string) profile.Trigger {
	switch key {
	case KeyPlanningLoop:
		return profile.TriggerPlanningProcrastination
	case KeyResearchRabbitHole:
		return profile.TriggerResearchRabbitHole
	case KeyContextSwitching:
		return profile.TriggerContextSwitch
	default:
		return profile.TriggerShinyObject
	}
}

// outstanding reports whether a prompt is currently being shown.
func (g *Gate) outstanding() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy
}

func (g *Gate) logDecision(d Decision) {
	if g.onDecision != nil {
		g.onDecision(d)
	}
}

// #endregion
