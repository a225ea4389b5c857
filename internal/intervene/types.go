package intervene

// #region imports
import (
	"context"
	"time"

	"refocusd/internal/profile"
)

// #endregion

// #region action

// Action is how an intervention presents itself to the user.
type Action string

const (
	ActionBlock   Action = "block"
	ActionPrompt  Action = "prompt"
	ActionSuggest Action = "suggest"
	ActionTimebox Action = "timebox"
)

// #endregion

// #region gate-keys

// Gate keys. Each key carries its own cooldown window.
const (
	KeyPlanningLoop       = "planning_loop"
	KeyResearchRabbitHole = "research_rabbit_hole"
	KeyContextSwitching   = "context_switching"
	KeyOffTrack           = "off_track"
	KeyProductive         = "productive_procrastination"
)

// #endregion

// #region context

// Context carries everything a strategy needs to build an intervention.
type Context struct {
	Trigger    profile.Trigger
	Activity   string // description of what the user is doing instead
	Commitment string
	Now        time.Time
	Current    profile.Strategy // behavior state's current strategy
	Prefs      profile.InterventionPrefs
	Flags      profile.PatternFlags
}

// #endregion

// #region result

// Result is a fully formed intervention ready for delivery.
type Result struct {
	Strategy   profile.Strategy
	Action     Action
	Message    string
	FollowUp   string        // accountability prompt, empty otherwise
	MicroTasks []string      // micro-task suggestions, empty otherwise
	TimeLimit  time.Duration // timebox allowance, zero otherwise
}

// #endregion

// #region outcome

// Outcome is the user's resolution of a delivered intervention.
type Outcome struct {
	Response      profile.Response
	TimeToRefocus time.Duration
}

// Notifier delivers an intervention and reports the user's response.
// Implementations resolve a timed-out or failed delivery to ignored
// rather than returning an error to the loop.
type Notifier interface {
	Deliver(ctx context.Context, res Result) (Outcome, error)
}

// #endregion

// #region metrics

// Trend is the direction of recent effectiveness.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// Metrics summarizes how a strategy is landing. On non-empty history the
// three rates sum to one.
type Metrics struct {
	ComplianceRate float64
	AverageRefocus float64 // seconds, over complied records
	OverrideRate   float64
	IgnoreRate     float64
	RecentTrend    Trend
}

// #endregion
