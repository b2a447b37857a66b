package assessment

import (
	"research-assessment/internal/schemas"
	"research-assessment/internal/scoring"
	"research-assessment/internal/session"
	"research-assessment/internal/wizard"
)

// ScoreOf is the live score panel of a draft.
func ScoreOf(d *wizard.Draft) schemas.ScoreOut {
	total := d.Total()
	out := schemas.ScoreOut{Total: total, Label: scoring.ResultLabel(total)}
	if d.Rubric == nil {
		return out
	}
	out.Criteria = len(d.Rubric.Criteria)
	out.Missing = d.Rubric.Missing(d.Scores)
	out.Scored = out.Criteria - len(out.Missing)
	return out
}

// ToWizardOut renders a session for API responses.
func ToWizardOut(sess *session.Session) schemas.WizardOut {
	d := sess.Draft
	out := schemas.WizardOut{
		WizardID:         sess.ID,
		Variant:          string(sess.Variant),
		CurrentStep:      sess.State.CurrentStep,
		CompletedSteps:   append([]int{}, sess.State.CompletedSteps...),
		ValidationErrors: map[string]bool(sess.State.Clone().ValidationErrors),
		Draft: schemas.DraftOut{
			SubjectID:      d.SubjectID,
			PeriodID:       d.PeriodID,
			RubricID:       d.RubricID,
			EvaluationType: d.EvaluationType,
			EvaluationDate: d.EvaluationDate,
			Selections:     append([]string{}, d.Selections...),
			WorkSummary:    d.WorkSummary,
			Scores:         map[string]float64(d.Scores),
			Comments:       map[string]string(d.Comments),
			OverallComment: d.OverallComment,
		},
		Score:     ScoreOf(d),
		UpdatedAt: sess.UpdatedAt,
	}
	if out.Draft.Scores == nil {
		out.Draft.Scores = map[string]float64{}
	}
	if out.Draft.Comments == nil {
		out.Draft.Comments = map[string]string{}
	}
	if def, err := wizard.Lookup(sess.Variant); err == nil {
		out.Steps = StepsOut(wizard.Surface(def, sess.State))
	}
	return out
}

// StepsOut converts the navigation surface for API responses.
func StepsOut(views []wizard.StepView) []schemas.StepOut {
	out := make([]schemas.StepOut, len(views))
	for i, v := range views {
		out[i] = schemas.StepOut{
			Index:     v.Index,
			Key:       string(v.Key),
			Title:     v.Title,
			Current:   v.Current,
			Completed: v.Completed,
			HasError:  v.HasError,
			Reachable: v.Reachable,
		}
	}
	return out
}

// Steps returns the step table of a variant as seen before any navigation.
func Steps(v wizard.Variant) ([]schemas.StepOut, error) {
	def, err := wizard.Lookup(v)
	if err != nil {
		return nil, err
	}
	return StepsOut(wizard.Surface(def, wizard.NewState())), nil
}
