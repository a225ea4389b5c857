package profile

// #region imports
import (
	"time"
)

// #endregion

// #region strategy

// Strategy identifies an intervention strategy.
type Strategy string

const (
	StrategyHardBlock      Strategy = "hard_block"
	StrategyAccountability Strategy = "accountability"
	StrategyMicroTask      Strategy = "micro_task"
	StrategyTimeBoxed      Strategy = "time_boxed"
)

// KnownStrategies lists every selectable strategy.
var KnownStrategies = []Strategy{
	StrategyHardBlock, StrategyAccountability, StrategyMicroTask, StrategyTimeBoxed,
}

// #endregion

// #region tone

// Tone sets the voice of intervention messages.
type Tone string

const (
	ToneDirect   Tone = "direct"
	ToneGentle   Tone = "gentle"
	ToneTeaching Tone = "teaching"
	ToneCurious  Tone = "curious"
)

// #endregion

// #region formality

// Formality sets the relationship stance of intervention messages.
type Formality string

const (
	FormalityCoach     Formality = "coach"
	FormalityFriend    Formality = "friend"
	FormalityTherapist Formality = "therapist"
)

// #endregion

// #region trigger

// Trigger names the detected condition an intervention responds to.
type Trigger string

const (
	TriggerShinyObject             Trigger = "shiny_object"
	TriggerPlanningProcrastination Trigger = "planning_procrastination"
	TriggerContextSwitch           Trigger = "context_switch"
	TriggerResearchRabbitHole      Trigger = "research_rabbit_hole"
)

// #endregion

// #region response

// Response records how the user answered an intervention.
type Response string

const (
	ResponseComplied Response = "complied"
	ResponseOverrode Response = "overrode"
	ResponseIgnored  Response = "ignored"
)

// #endregion

// #region intervention-record

// InterventionRecord is one row of the behavior ledger. Append-only;
// the retention sweep is the only deleter.
type InterventionRecord struct {
	Timestamp     time.Time `json:"timestamp"`
	Trigger       Trigger   `json:"trigger"`
	Strategy      Strategy  `json:"strategy"`
	Response      Response  `json:"response"`
	TimeToRefocus int       `json:"time_to_refocus_seconds"`
}

// #endregion

// #region profile-document

// Commitment is the single declared focus for a day.
type Commitment struct {
	Text string `json:"text"`
	Date string `json:"date"` // YYYY-MM-DD, user-local
}

// InterventionPrefs select the strategy and voice used for interventions.
type InterventionPrefs struct {
	Primary   Strategy  `json:"primary_strategy"`
	Fallback  Strategy  `json:"fallback_strategy"`
	Tone      Tone      `json:"tone"`
	Formality Formality `json:"formality"`
}

// PatternFlags are self-declared tendencies that widen strategy applicability.
type PatternFlags struct {
	ResearchRabbitHoles    bool     `json:"research_rabbit_holes"`
	PlanningInsteadOfDoing bool     `json:"planning_instead_of_doing"`
	ToolSetupDopamine      bool     `json:"tool_setup_dopamine"`
	DistractionGlobs       []string `json:"distraction_globs,omitempty"`
}

// LearningPrefs gate the adaptive learner.
type LearningPrefs struct {
	AdaptationEnabled bool `json:"adaptation_enabled"`
}

// BehaviorState is the engine-owned learning state. Only the tracker
// appends to History and only the learner swaps CurrentStrategy.
type BehaviorState struct {
	CurrentStrategy Strategy             `json:"current_strategy"`
	LastAdapted     time.Time            `json:"last_adapted"`
	Scores          map[Strategy]float64 `json:"strategy_scores"`
	History         []InterventionRecord `json:"intervention_history"`
}

// Profile is the whole on-disk user document.
type Profile struct {
	Name         string            `json:"name"`
	Commitment   Commitment        `json:"commitment"`
	Intervention InterventionPrefs `json:"intervention"`
	Patterns     PatternFlags      `json:"patterns"`
	Learning     LearningPrefs     `json:"learning"`
	Behavior     BehaviorState     `json:"behavior"`
}

// #endregion

// #region constructors

// NewBehaviorState seeds zero scores for every known strategy.
func NewBehaviorState(current Strategy) BehaviorState {
	scores := make(map[Strategy]float64, len(KnownStrategies))
	for _, s := range KnownStrategies {
		scores[s] = 0
	}
	return BehaviorState{CurrentStrategy: current, Scores: scores}
}

// Default returns a fresh onboarding profile.
func Default(name string) Profile {
	p := Profile{
		Name: name,
		Intervention: InterventionPrefs{
			Primary:   StrategyAccountability,
			Fallback:  StrategyMicroTask,
			Tone:      ToneDirect,
			Formality: FormalityCoach,
		},
		Learning: LearningPrefs{AdaptationEnabled: true},
	}
	p.Behavior = NewBehaviorState(p.Intervention.Primary)
	return p
}

// #endregion

// #region clone

// Clone deep-copies the profile so callers can hold a snapshot without
// aliasing the store's document.
func (p Profile) Clone() Profile {
	out := p
	if p.Patterns.DistractionGlobs != nil {
		out.Patterns.DistractionGlobs = append([]string(nil), p.Patterns.DistractionGlobs...)
	}
	if p.Behavior.Scores != nil {
		out.Behavior.Scores = make(map[Strategy]float64, len(p.Behavior.Scores))
		for k, v := range p.Behavior.Scores {
			out.Behavior.Scores[k] = v
		}
	}
	if p.Behavior.History != nil {
		out.Behavior.History = append([]InterventionRecord(nil), p.Behavior.History...)
	}
	return out
}

// #endregion
