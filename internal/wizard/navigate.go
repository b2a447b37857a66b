package wizard

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAtConfirmStep is returned by Complete when the wizard is not on
	// its confirmation step.
	ErrNotAtConfirmStep = errors.New("wizard is not at the confirmation step")
	// ErrAlreadyComplete is returned by Complete for a finished wizard.
	ErrAlreadyComplete = errors.New("wizard is already complete")
)

// IncompleteError reports the first step that failed validation on completion.
type IncompleteError struct {
	Step   int
	Errors Errors
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("step %d has invalid fields: %v", e.Step, e.Errors.Keys())
}

// AttemptGoTo moves the wizard towards target and reports whether the move
// was allowed. state is never modified; the returned State is a fresh value.
//
// Moving back, or staying put, is always allowed and leaves validation errors
// as they were. Moving forward validates the step being left, and only that
// step: intermediate steps of a multi-step jump are not checked. A clean
// departure step is marked completed and the errors are cleared; a dirty one
// keeps the wizard in place with errors set to exactly the validator output.
//
// The complete step is not a navigation target; it is reached through
// Complete.
func AttemptGoTo(def Definition, state State, target int, draft *Draft) (State, bool) {
	next := state.Clone()
	if target < 0 || target > def.ConfirmStep() || state.CurrentStep >= def.CompleteStep() {
		return next, false
	}

	if target <= state.CurrentStep {
		next.CurrentStep = target
		return next, true
	}

	errs := Validate(def, state.CurrentStep, draft)
	if len(errs) > 0 {
		next.ValidationErrors = errs
		next.ErrorStep = state.CurrentStep
		return next, false
	}

	next.markCompleted(state.CurrentStep)
	next.CurrentStep = target
	next.ValidationErrors = Errors{}
	return next, true
}

// Next is AttemptGoTo(current+1).
func Next(def Definition, state State, draft *Draft) (State, bool) {
	return AttemptGoTo(def, state, state.CurrentStep+1, draft)
}

// ClearError drops key from the validation errors without re-validating
// anything else. Field edits use it to clear their own error immediately.
func ClearError(state State, key string) State {
	next := state.Clone()
	delete(next.ValidationErrors, key)
	return next
}

// Complete moves a wizard on its confirmation step to the terminal step.
//
// Every step before confirmation is re-validated here, since forward jumps
// may have skipped some of them. On failure the returned state carries the
// failing step's errors and err is an *IncompleteError; the position is
// unchanged.
func Complete(def Definition, state State, draft *Draft) (State, error) {
	next := state.Clone()
	if state.CurrentStep >= def.CompleteStep() {
		return next, ErrAlreadyComplete
	}
	if state.CurrentStep != def.ConfirmStep() {
		return next, ErrNotAtConfirmStep
	}

	if step, errs := ValidateThrough(def, def.ConfirmStep()-1, draft); step >= 0 {
		next.ValidationErrors = errs
		next.ErrorStep = step
		return next, &IncompleteError{Step: step, Errors: errs}
	}

	for i := 0; i <= def.ConfirmStep(); i++ {
		next.markCompleted(i)
	}
	next.CurrentStep = def.CompleteStep()
	next.ValidationErrors = Errors{}
	return next, nil
}

// --- Navigation surface ---

// StepView is one entry of the step navigation bar.
type StepView struct {
	Index     int     `json:"index"`
	Key       StepKey `json:"key"`
	Title     string  `json:"title"`
	Current   bool    `json:"current"`
	Completed bool    `json:"completed"`
	HasError  bool    `json:"has_error"`
	// Reachable is false for targets AttemptGoTo always refuses.
	Reachable bool `json:"reachable"`
}

// Surface describes every step of def as seen from state. The error flag sits
// on the step that produced the errors, which is not necessarily the current
// one.
func Surface(def Definition, state State) []StepView {
	out := make([]StepView, len(def.Steps))
	done := state.CurrentStep >= def.CompleteStep()
	for i, s := range def.Steps {
		out[i] = StepView{
			Index:     i,
			Key:       s.Key,
			Title:     s.Title,
			Current:   i == state.CurrentStep,
			Completed: state.IsCompleted(i),
			HasError:  i == state.ErrorStep && len(state.ValidationErrors) > 0,
			Reachable: !done && i <= def.ConfirmStep(),
		}
	}
	return out
}
