package fetch

import "github.com/CdubVentures/spec-harvester-sub006/internal/hostbudget"

// Mode is a fetcher implementation choice on the mode ladder
// (spec.md GLOSSARY "Mode ladder").
type Mode string

const (
	ModeCrawlee    Mode = "crawlee"
	ModePlaywright Mode = "playwright"
	ModeHTTP       Mode = "http"
)

// ladder maps the current mode to its ordered list of alternates
// (spec.md §4.3 "Mode ladder").
var ladder = map[Mode][]Mode{
	ModeCrawlee:    {ModePlaywright, ModeHTTP},
	ModePlaywright: {ModeHTTP, ModeCrawlee},
	ModeHTTP:       {ModeCrawlee, ModePlaywright},
}

// Action is the decision the Fallback Policy returns for an outcome.
type Action string

const (
	ActionNone                Action = "none"
	ActionSkip                Action = "skip"
	ActionTryAlternateFetcher Action = "try_alternate_fetcher"
	ActionWaitAndRetrySame    Action = "wait_and_retry_same"
)

// Decision is the full result of a fallback evaluation.
type Decision struct {
	Action    Action
	NextMode  Mode // empty when no mode change is indicated
	ShouldWait bool
	Exhausted bool
}

// outcomeAction is the fixed outcome->action table of spec.md §4.3.
var outcomeAction = map[hostbudget.Outcome]Action{
	hostbudget.OutcomeOK:             ActionNone,
	hostbudget.OutcomeNotFound:       ActionSkip,
	hostbudget.OutcomeBadContent:     ActionSkip,
	hostbudget.OutcomeLoginWall:      ActionSkip,
	hostbudget.OutcomeRateLimited:    ActionWaitAndRetrySame,
	hostbudget.OutcomeBlocked:        ActionTryAlternateFetcher,
	hostbudget.OutcomeBotChallenge:   ActionTryAlternateFetcher,
	hostbudget.OutcomeServerError:    ActionTryAlternateFetcher,
	hostbudget.OutcomeNetworkTimeout: ActionTryAlternateFetcher,
	hostbudget.OutcomeFetchError:     ActionTryAlternateFetcher,
}

// DecideFallback is the pure function of spec.md §4.3 "Fallback decision".
// It never performs I/O or reads mutable state beyond its arguments.
func DecideFallback(outcome hostbudget.Outcome, currentMode Mode, exhaustedModes []Mode, retryCount, maxRetries int) Decision {
	action, ok := outcomeAction[outcome]
	if !ok {
		action = ActionSkip
	}

	if action != ActionTryAlternateFetcher {
		return Decision{Action: action, ShouldWait: action == ActionWaitAndRetrySame}
	}

	exhausted := make(map[Mode]bool, len(exhaustedModes))
	for _, m := range exhaustedModes {
		exhausted[m] = true
	}

	var next Mode
	for _, candidate := range ladder[currentMode] {
		if !exhausted[candidate] {
			next = candidate
			break
		}
	}

	if next == "" || retryCount >= maxRetries {
		return Decision{Action: ActionTryAlternateFetcher, Exhausted: true}
	}

	return Decision{Action: ActionTryAlternateFetcher, NextMode: next}
}
