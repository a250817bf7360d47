// Package fsm defines the session lifecycle and per-question phase machines.
package fsm

import "fmt"

type Lifecycle string

type LifecycleEvent string

const (
	LifecycleNotStarted  Lifecycle = "not_started"
	LifecyclePlanLoading Lifecycle = "plan_loading"
	LifecycleInProgress  Lifecycle = "in_progress"
	LifecycleComplete    Lifecycle = "complete"
)

const (
	EventSelectTarget LifecycleEvent = "select_target"
	EventPlanReady    LifecycleEvent = "plan_ready"
	EventPlanFailed   LifecycleEvent = "plan_failed"
	EventFinish       LifecycleEvent = "finish"
	EventReset        LifecycleEvent = "reset"
)

// TransitionLifecycle applies one event to a session lifecycle state.
func TransitionLifecycle(current Lifecycle, event LifecycleEvent) (Lifecycle, error) {
	switch current {
	case LifecycleNotStarted:
		switch event {
		case EventSelectTarget:
			return LifecyclePlanLoading, nil
		default:
			return current, invalidLifecycle(current, event)
		}
	case LifecyclePlanLoading:
		switch event {
		case EventPlanReady:
			return LifecycleInProgress, nil
		case EventPlanFailed:
			return LifecycleNotStarted, nil
		default:
			return current, invalidLifecycle(current, event)
		}
	case LifecycleInProgress:
		switch event {
		case EventFinish:
			return LifecycleComplete, nil
		case EventReset:
			return LifecyclePlanLoading, nil
		default:
			return current, invalidLifecycle(current, event)
		}
	case LifecycleComplete:
		switch event {
		case EventReset:
			return LifecyclePlanLoading, nil
		default:
			return current, invalidLifecycle(current, event)
		}
	default:
		return current, fmt.Errorf("unknown lifecycle state %q", current)
	}
}

func invalidLifecycle(state Lifecycle, event LifecycleEvent) error {
	return fmt.Errorf("invalid lifecycle transition: %s --(%s)--> ?", state, event)
}

type Phase string

type PhaseEvent string

const (
	PhaseIdle      Phase = "idle"
	PhaseNarrating Phase = "narrating"
	PhaseListening Phase = "listening"
)

const (
	EventNarrate  PhaseEvent = "narrate"
	EventNarrated PhaseEvent = "narrated"
	EventStopped  PhaseEvent = "stopped"
)

// TransitionPhase applies one event to a per-question phase state.
//
// The listening phase may only be entered through narrated: stopping a
// question that has not finished narration is rejected here, which keeps the
// narration-complete -> transcription-start -> stop ordering enforceable.
func TransitionPhase(current Phase, event PhaseEvent) (Phase, error) {
	switch current {
	case PhaseIdle:
		switch event {
		case EventNarrate:
			return PhaseNarrating, nil
		default:
			return current, invalidPhase(current, event)
		}
	case PhaseNarrating:
		switch event {
		case EventNarrated:
			return PhaseListening, nil
		default:
			return current, invalidPhase(current, event)
		}
	case PhaseListening:
		switch event {
		case EventStopped:
			return PhaseIdle, nil
		default:
			return current, invalidPhase(current, event)
		}
	default:
		return current, fmt.Errorf("unknown phase %q", current)
	}
}

func invalidPhase(phase Phase, event PhaseEvent) error {
	return fmt.Errorf("invalid phase transition: %s --(%s)--> ?", phase, event)
}
