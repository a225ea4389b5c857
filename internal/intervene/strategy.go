package intervene

// #region imports
import (
	"fmt"
	"time"

	"refocusd/internal/profile"
)

// #endregion

// #region interface

// InterventionStrategy is one interchangeable way of nudging the user
// back to the commitment.
type InterventionStrategy interface {
	ID() profile.Strategy
	CanHandle(ctx Context) bool
	Execute(ctx Context) Result
}

// #endregion

// #region engine

// Engine holds the fixed registry of strategies and selects one per
// intervention. Selection order is the profile's current strategy, then
// its declared fallback, then Accountability, which handles everything,
// so selection is total.
type Engine struct {
	registry map[profile.Strategy]InterventionStrategy
}

// NewEngine builds the registry with all four built-in strategies.
func NewEngine() *Engine {
	e := &Engine{registry: make(map[profile.Strategy]InterventionStrategy)}
	for _, s := range []InterventionStrategy{
		&HardBlock{},
		&Accountability{},
		&MicroTask{},
		&TimeBoxed{},
	} {
		e.registry[s.ID()] = s
	}
	return e
}

// Select returns the intervention for the given context. Never nil-like:
// Accountability is the universal terminal fallback.
func (e *Engine) Select(ctx Context) Result {
	for _, id := range []profile.Strategy{ctx.Current, ctx.Prefs.Fallback} {
		if s, ok := e.registry[id]; ok && s.CanHandle(ctx) {
			return s.Execute(ctx)
		}
	}
	return e.registry[profile.StrategyAccountability].Execute(ctx)
}

// Strategy exposes a registry entry, mainly for reporting tools.
func (e *Engine) Strategy(id profile.Strategy) (InterventionStrategy, bool) {
	s, ok := e.registry[id]
	return s, ok
}

// #endregion

// #region subjects

// triggerSubject names what the user is being pulled away from, slotted
// into the tone/formality message templates.
var triggerSubject = map[profile.Trigger]string{
	profile.TriggerShinyObject:             "this new shiny thing",
	profile.TriggerPlanningProcrastination: "another round of planning",
	profile.TriggerContextSwitch:           "all this window hopping",
	profile.TriggerResearchRabbitHole:      "this research tangent",
}

func subjectFor(t profile.Trigger) string {
	if s, ok := triggerSubject[t]; ok {
		return s
	}
	return "this detour"
}

// #endregion

// #region hard-block

// HardBlock tells the user to stop, full stop. Message voice comes from
// a tone by formality table with the trigger subject slotted in.
type HardBlock struct{}

// ID implements InterventionStrategy.
func (h *HardBlock) ID() profile.Strategy { return profile.StrategyHardBlock }

// CanHandle covers shiny objects and research rabbit holes, widened by
// the profile's self-declared rabbit-hole tendency.
func (h *HardBlock) CanHandle(ctx Context) bool {
	switch ctx.Trigger {
	case profile.TriggerShinyObject, profile.TriggerResearchRabbitHole:
		return true
	}
	return ctx.Flags.ResearchRabbitHoles
}

var hardBlockMessages = map[profile.Tone]map[profile.Formality]string{
	profile.ToneDirect: {
		profile.FormalityCoach:     "Stop. %s is not %q. Close it and get back to work.",
		profile.FormalityFriend:    "Hey — %s? Really? You said %q today. Shut it down.",
		profile.FormalityTherapist: "Notice what just happened: %s pulled you away from %q. Close it.",
	},
	profile.ToneGentle: {
		profile.FormalityCoach:     "Let's park %s for now. Your commitment today is %q.",
		profile.FormalityFriend:    "Gentle nudge: %s can wait. You wanted %q today, remember?",
		profile.FormalityTherapist: "It's okay that %s caught your attention. For now, let's return to %q.",
	},
	profile.ToneTeaching: {
		profile.FormalityCoach:     "Context switches cost about 20 minutes each. %s is one of them — back to %q.",
		profile.FormalityFriend:    "Fun fact: %s will still exist in an hour. %q won't finish itself, though.",
		profile.FormalityTherapist: "Avoidance often dresses up as curiosity. %s is doing that right now; %q is the work.",
	},
	profile.ToneCurious: {
		profile.FormalityCoach:     "What made %s feel more urgent than %q just now? Close it and think about that.",
		profile.FormalityFriend:    "Honest question: is %s actually helping with %q? Didn't think so. Close it.",
		profile.FormalityTherapist: "What were you feeling right before %s opened? Sit with that, then return to %q.",
	},
}

// Execute implements InterventionStrategy.
func (h *HardBlock) Execute(ctx Context) Result {
	tmpl := messageFor(hardBlockMessages, ctx.Prefs.Tone, ctx.Prefs.Formality)
	return Result{
		Strategy: profile.StrategyHardBlock,
		Action:   ActionBlock,
		Message:  fmt.Sprintf(tmpl, subjectFor(ctx.Trigger), ctx.Commitment),
	}
}

// #endregion

// #region accountability

// Accountability asks a reflective question instead of commanding. It is
// the universal terminal fallback: CanHandle is always true.
type Accountability struct{}

// ID implements InterventionStrategy.
func (a *Accountability) ID() profile.Strategy { return profile.StrategyAccountability }

// CanHandle implements InterventionStrategy.
func (a *Accountability) CanHandle(ctx Context) bool { return true }

var accountabilityQuestions = map[profile.Formality]string{
	profile.FormalityCoach:     "You committed to %q today. Is what you're doing right now moving that forward?",
	profile.FormalityFriend:    "Quick gut check — does this actually help with %q, or are you dodging it?",
	profile.FormalityTherapist: "Take a breath. What are you avoiding by not working on %q right now?",
}

// Execute implements InterventionStrategy.
func (a *Accountability) Execute(ctx Context) Result {
	tmpl, ok := accountabilityQuestions[ctx.Prefs.Formality]
	if !ok {
		tmpl = accountabilityQuestions[profile.FormalityCoach]
	}
	return Result{
		Strategy: profile.StrategyAccountability,
		Action:   ActionPrompt,
		Message:  fmt.Sprintf(tmpl, ctx.Commitment),
		FollowUp: "Name the next concrete step out loud, then take it.",
	}
}

// #endregion

// #region micro-task

// MicroTask breaks the stall by proposing the smallest next steps.
type MicroTask struct{}

// ID implements InterventionStrategy.
func (m *MicroTask) ID() profile.Strategy { return profile.StrategyMicroTask }

// CanHandle covers planning procrastination and context switching,
// widened by the planning-instead-of-doing flag.
func (m *MicroTask) CanHandle(ctx Context) bool {
	switch ctx.Trigger {
	case profile.TriggerPlanningProcrastination, profile.TriggerContextSwitch:
		return true
	}
	return ctx.Flags.PlanningInsteadOfDoing
}

var microTaskSuggestions = map[profile.Trigger][]string{
	profile.TriggerPlanningProcrastination: {
		"Pick the first item on the plan and do it for 10 minutes",
		"Write one sentence describing the very next action, then take it",
		"Set a 25-minute timer and work only on the committed task",
	},
	profile.TriggerContextSwitch: {
		"Close every window except the one the commitment needs",
		"Write down the one thing you were doing before the switching started",
		"Silence notifications for the next 30 minutes",
	},
	profile.TriggerResearchRabbitHole: {
		"Write down the one question you were trying to answer",
		"Bookmark the current page and close the rest",
		"Apply one thing you just read to the committed task",
	},
	profile.TriggerShinyObject: {
		"Add it to a later list and close the tab",
		"Re-open the file you were working on before",
		"Do two minutes of the committed task before deciding anything",
	},
}

// Execute implements InterventionStrategy.
func (m *MicroTask) Execute(ctx Context) Result {
	tasks := microTaskSuggestions[ctx.Trigger]
	if len(tasks) == 0 {
		tasks = microTaskSuggestions[profile.TriggerPlanningProcrastination]
	}
	return Result{
		Strategy:   profile.StrategyMicroTask,
		Action:     ActionSuggest,
		Message:    fmt.Sprintf("Smallest next step toward %q — pick one:", ctx.Commitment),
		MicroTasks: tasks,
	}
}

// #endregion

// #region time-boxed

// TimeBoxed allows the distraction, but on a timer.
type TimeBoxed struct{}

// ID implements InterventionStrategy.
func (t *TimeBoxed) ID() profile.Strategy { return profile.StrategyTimeBoxed }

// CanHandle covers rabbit holes and shiny objects, widened by the
// rabbit-hole and tool-setup flags.
func (t *TimeBoxed) CanHandle(ctx Context) bool {
	switch ctx.Trigger {
	case profile.TriggerResearchRabbitHole, profile.TriggerShinyObject:
		return true
	}
	return ctx.Flags.ResearchRabbitHoles || ctx.Flags.ToolSetupDopamine
}

// timeBoxBaseMinutes is the allowance per trigger before the fatigue
// discount. Willpower drains over the day, so from 15:00 the box halves.
var timeBoxBaseMinutes = map[profile.Trigger]int{
	profile.TriggerResearchRabbitHole:      10,
	profile.TriggerShinyObject:             5,
	profile.TriggerPlanningProcrastination: 10,
	profile.TriggerContextSwitch:           5,
}

const fatigueHour = 15

// Execute implements InterventionStrategy.
func (t *TimeBoxed) Execute(ctx Context) Result {
	base, ok := timeBoxBaseMinutes[ctx.Trigger]
	if !ok {
		base = 5
	}
	limit := time.Duration(base) * time.Minute
	if ctx.Now.Hour() >= fatigueHour {
		limit /= 2
	}
	return Result{
		Strategy:  profile.StrategyTimeBoxed,
		Action:    ActionTimebox,
		Message:   fmt.Sprintf("Okay — %d more minutes on this, then back to %q.", int(limit.Minutes()), ctx.Commitment),
		TimeLimit: limit,
	}
}

// #endregion

// #region helpers

// messageFor resolves a tone-by-formality table with coach/direct as the
// fallback voice for unknown preference values.
func messageFor(table map[profile.Tone]map[profile.Formality]string, tone profile.Tone, formality profile.Formality) string {
	byFormality, ok := table[tone]
	if !ok {
		byFormality = table[profile.ToneDirect]
	}
	if msg, ok := byFormality[formality]; ok {
		return msg
	}
	return byFormality[profile.FormalityCoach]
}

// #endregion
