// Package wizard implements the validation-gated multi-step assessment wizard.
//
// One generic state machine serves every wizard variant. A variant is a
// Definition: an ordered table of steps, each carrying its own validator.
// Navigation, validation and per-field error clearing are pure functions over
// State and Draft values, so they can be exercised without any transport.
//
// The package is split by concern:
//   - types.go: State, Errors, Draft
//   - definitions.go: the step tables per variant
//   - validate.go: StepValidator
//   - navigate.go: StepNavigator
package wizard

import (
	"slices"

	"research-assessment/internal/scoring"
)

// Errors holds the invalid field keys of a step. A key that is absent is valid.
type Errors map[string]bool

// Keys returns the error keys in sorted order.
func (e Errors) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (e Errors) clone() Errors {
	out := make(Errors, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// State is the wizard's position, its completed-step history and the active
// validation errors.
type State struct {
	CurrentStep      int    `json:"current_step"`
	CompletedSteps   []int  `json:"completed_steps"`
	ValidationErrors Errors `json:"validation_errors"`
	// ErrorStep is the step whose validator produced ValidationErrors. It
	// differs from CurrentStep after a backward move or a failed Complete.
	ErrorStep int `json:"error_step"`
}

// NewState returns the state a wizard starts in: step 0, nothing completed.
func NewState() State {
	return State{CompletedSteps: []int{}, ValidationErrors: Errors{}}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := State{
		CurrentStep:      s.CurrentStep,
		CompletedSteps:   make([]int, len(s.CompletedSteps)),
		ValidationErrors: s.ValidationErrors.clone(),
		ErrorStep:        s.ErrorStep,
	}
	copy(out.CompletedSteps, s.CompletedSteps)
	return out
}

// IsCompleted reports whether step has been completed.
func (s State) IsCompleted(step int) bool {
	_, found := slices.BinarySearch(s.CompletedSteps, step)
	return found
}

// markCompleted adds step to the completed set, keeping it sorted.
func (s *State) markCompleted(step int) {
	i, found := slices.BinarySearch(s.CompletedSteps, step)
	if found {
		return
	}
	s.CompletedSteps = slices.Insert(s.CompletedSteps, i, step)
}

// Draft is the in-progress form data of one assessment.
type Draft struct {
	// Info step.
	SubjectID      string `json:"subject_id"`
	PeriodID       string `json:"period_id"`
	RubricID       string `json:"rubric_id"`
	EvaluationType string `json:"evaluation_type,omitempty"`
	EvaluationDate string `json:"evaluation_date,omitempty"`

	// Selection step. Member wizards pick projects; department wizards
	// write a work summary.
	Selections  []string `json:"selections"`
	WorkSummary string   `json:"work_summary,omitempty"`

	// Rubric is the resolved rubric for RubricID.
	Rubric *scoring.Rubric `json:"rubric,omitempty"`

	Scores         scoring.ScoreEntry   `json:"scores"`
	Comments       scoring.CommentEntry `json:"comments"`
	OverallComment string               `json:"overall_comment"`
}

// NewDraft returns an empty draft with its maps allocated.
func NewDraft() *Draft {
	return &Draft{
		Selections: []string{},
		Scores:     scoring.ScoreEntry{},
		Comments:   scoring.CommentEntry{},
	}
}

// ResetScores drops every score and comment. Called whenever the selected
// rubric changes.
func (d *Draft) ResetScores() {
	d.Scores = scoring.ScoreEntry{}
	d.Comments = scoring.CommentEntry{}
}

// Total is the live weighted total of the draft's scores.
func (d *Draft) Total() int {
	if d.Rubric == nil {
		return 0
	}
	return scoring.ComputeTotal(*d.Rubric, d.Scores)
}
