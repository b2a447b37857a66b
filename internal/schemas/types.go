package schemas

import "time"

// Submission is the payload a completed wizard hands to persistence and the
// archive job.
type Submission struct {
	AssessmentID        string             `json:"assessment_id"`
	Variant             string             `json:"variant"`
	SubjectID           string             `json:"subject_id"`
	PeriodID            string             `json:"period_id"`
	RubricID            string             `json:"rubric_id"`
	EvaluationType      string             `json:"evaluation_type,omitempty"`
	EvaluationDate      string             `json:"evaluation_date,omitempty"`
	Selections          []string           `json:"selections"`
	WorkSummary         string             `json:"work_summary,omitempty"`
	Scores              map[string]float64 `json:"scores"`
	Comments            map[string]string  `json:"comments"`
	OverallComment      string             `json:"overall_comment"`
	ComputedTotal       int                `json:"computed_total"`
	ComputedResultLabel string             `json:"computed_result_label"`
	SubmittedAt         time.Time          `json:"submitted_at"`
}

type CreateWizardRequest struct {
	Variant string `json:"variant" validate:"required,oneof=member department"`
}

type CreateWizardResp struct {
	WizardID     string    `json:"wizard_id"`
	SessionToken string    `json:"session_token"`
	Wizard       WizardOut `json:"wizard"`
}

// EditRequest carries field edits. Nil fields are left alone; a non-nil
// field is an edit of that field even when it sets the empty value.
type EditRequest struct {
	SubjectID      *string            `json:"subject_id,omitempty"`
	PeriodID       *string            `json:"period_id,omitempty"`
	RubricID       *string            `json:"rubric_id,omitempty"`
	EvaluationType *string            `json:"evaluation_type,omitempty"`
	EvaluationDate *string            `json:"evaluation_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Selections     *[]string          `json:"selections,omitempty"`
	WorkSummary    *string            `json:"work_summary,omitempty"`
	Scores         map[string]float64 `json:"scores,omitempty" validate:"omitempty,dive,keys,required,endkeys,min=1,max=5"`
	Comments       map[string]string  `json:"comments,omitempty"`
	OverallComment *string            `json:"overall_comment,omitempty"`
}

type GoToRequest struct {
	Step *int `json:"step" validate:"required,min=0"`
}

type StepOut struct {
	Index     int    `json:"index"`
	Key       string `json:"key"`
	Title     string `json:"title"`
	Current   bool   `json:"current"`
	Completed bool   `json:"completed"`
	HasError  bool   `json:"has_error"`
	Reachable bool   `json:"reachable"`
}

type DraftOut struct {
	SubjectID      string             `json:"subject_id"`
	PeriodID       string             `json:"period_id"`
	RubricID       string             `json:"rubric_id"`
	EvaluationType string             `json:"evaluation_type,omitempty"`
	EvaluationDate string             `json:"evaluation_date,omitempty"`
	Selections     []string           `json:"selections"`
	WorkSummary    string             `json:"work_summary,omitempty"`
	Scores         map[string]float64 `json:"scores"`
	Comments       map[string]string  `json:"comments"`
	OverallComment string             `json:"overall_comment"`
}

type WizardOut struct {
	WizardID         string          `json:"wizard_id"`
	Variant          string          `json:"variant"`
	CurrentStep      int             `json:"current_step"`
	CompletedSteps   []int           `json:"completed_steps"`
	ValidationErrors map[string]bool `json:"validation_errors"`
	Steps            []StepOut       `json:"steps"`
	Draft            DraftOut        `json:"draft"`
	Score            ScoreOut        `json:"score"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

type NavigateResp struct {
	Allowed bool      `json:"allowed"`
	Wizard  WizardOut `json:"wizard"`
}

type ScoreOut struct {
	Total    int      `json:"total"`
	Label    string   `json:"label"`
	Scored   int      `json:"scored"`
	Criteria int      `json:"criteria"`
	Missing  []string `json:"missing,omitempty"`
}

type SubmitResp struct {
	Submission Submission `json:"submission"`
	Wizard     WizardOut  `json:"wizard"`
}

type Subject struct {
	ID   string `json:"id" db:"id" yaml:"id"`
	Kind string `json:"kind" db:"kind" yaml:"kind"`
	Name string `json:"name" db:"name" yaml:"name"`
}

type Period struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	StartsOn string `json:"starts_on,omitempty" yaml:"starts_on"`
	EndsOn   string `json:"ends_on,omitempty" yaml:"ends_on"`
}

type AssessmentOut struct {
	Submission Submission `json:"submission"`
	ArchiveRef string     `json:"archive_ref,omitempty"`
	ReportRef  string     `json:"report_ref,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
