package assessment

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"research-assessment/internal/db"
	"research-assessment/internal/schemas"
	"research-assessment/internal/scoring"
	"research-assessment/internal/session"
	"research-assessment/internal/wizard"
)

// Edit applies field edits to the draft. Every edited field clears its own
// validation error, whatever the new value is; no other key is touched and
// nothing is re-validated.
//
// Selecting a different rubric drops all scores and comments. Scores and
// comments must name criteria of the rubric selected at the time of the edit.
func (s *Service) Edit(ctx context.Context, id, token string, req schemas.EditRequest) (*session.Session, error) {
	sess, def, err := s.load(ctx, id, token)
	if err != nil {
		return nil, err
	}
	d := sess.Draft
	st := sess.State
	cleared := []string{}
	clearKey := func(key string) {
		st = wizard.ClearError(st, key)
		cleared = append(cleared, key)
	}

	if req.SubjectID != nil {
		d.SubjectID = *req.SubjectID
		clearKey(def.SubjectField)
	}
	if req.PeriodID != nil {
		d.PeriodID = *req.PeriodID
		clearKey(wizard.FieldPeriod)
	}
	if req.RubricID != nil {
		if err := s.selectRubric(ctx, d, *req.RubricID); err != nil {
			return nil, err
		}
		clearKey(wizard.FieldStandard)
	}
	if req.EvaluationType != nil {
		d.EvaluationType = *req.EvaluationType
		clearKey(wizard.FieldEvaluationType)
	}
	if req.EvaluationDate != nil {
		d.EvaluationDate = *req.EvaluationDate
		clearKey(wizard.FieldEvaluationDate)
	}
	if req.Selections != nil {
		d.Selections = append([]string{}, (*req.Selections)...)
		clearKey(wizard.FieldProjects)
	}
	if req.WorkSummary != nil {
		d.WorkSummary = *req.WorkSummary
	}
	if len(req.Scores) > 0 {
		if err := setScores(d, req.Scores); err != nil {
			return nil, err
		}
		clearKey(wizard.FieldScores)
	}
	if len(req.Comments) > 0 {
		if err := setComments(d, req.Comments); err != nil {
			return nil, err
		}
	}
	if req.OverallComment != nil {
		d.OverallComment = *req.OverallComment
	}

	sess.State = st
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}
	s.Log.WithFields(logrus.Fields{"wizard_id": sess.ID, "cleared": cleared}).Debug("wizard edited")
	return sess, nil
}

func (s *Service) selectRubric(ctx context.Context, d *wizard.Draft, rubricID string) error {
	if rubricID == d.RubricID && (rubricID == "" || d.Rubric != nil) {
		return nil
	}
	var rb *scoring.Rubric
	if rubricID != "" {
		var err error
		rb, err = s.Rubrics.GetRubric(ctx, rubricID)
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownRubric, rubricID)
		}
		if err != nil {
			return fmt.Errorf("resolve rubric %s: %w", rubricID, err)
		}
	}
	d.RubricID = rubricID
	d.Rubric = rb
	d.ResetScores()
	return nil
}

func setScores(d *wizard.Draft, scores map[string]float64) error {
	if d.Rubric == nil {
		return ErrNoRubric
	}
	for cid := range scores {
		if _, ok := d.Rubric.Criterion(cid); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownCriterion, cid)
		}
	}
	for cid, v := range scores {
		d.Scores[cid] = v
	}
	return nil
}

// setComments stores per-criterion comments. An empty comment removes it.
func setComments(d *wizard.Draft, comments map[string]string) error {
	if d.Rubric == nil {
		return ErrNoRubric
	}
	for cid := range comments {
		if _, ok := d.Rubric.Criterion(cid); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownCriterion, cid)
		}
	}
	for cid, c := range comments {
		if c == "" {
			delete(d.Comments, cid)
			continue
		}
		d.Comments[cid] = c
	}
	return nil
}
