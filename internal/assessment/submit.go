package assessment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"research-assessment/internal/metrics"
	"research-assessment/internal/schemas"
	"research-assessment/internal/scoring"
	"research-assessment/internal/session"
	"research-assessment/internal/wizard"
)

// Submit completes a wizard sitting on its confirmation step.
//
// All steps before confirmation are validated again. If one fails, the
// wizard stays where it is with that step's errors and an
// *wizard.IncompleteError is returned. Otherwise the submission is recorded,
// an archive job is queued and the session is removed. A recording failure
// leaves the session at confirmation so the user can retry; the retry reuses
// the assessment id reserved on the first attempt.
func (s *Service) Submit(ctx context.Context, id, token string) (*schemas.Submission, *session.Session, error) {
	sess, def, err := s.load(ctx, id, token)
	if err != nil {
		return nil, nil, err
	}
	variant := string(sess.Variant)
	log := s.Log.WithFields(logrus.Fields{"wizard_id": sess.ID, "variant": variant})

	next, err := wizard.Complete(def, sess.State, sess.Draft)
	if err != nil {
		var inc *wizard.IncompleteError
		if errors.As(err, &inc) {
			sess.State = next
			if serr := s.save(ctx, sess); serr != nil {
				return nil, nil, serr
			}
			metrics.Submission(variant, "invalid")
			log.WithFields(logrus.Fields{"step": inc.Step, "errors": inc.Errors.Keys()}).Info("submit rejected")
		}
		return nil, sess, err
	}

	// The id is kept on the session so a retry after a partial failure
	// records the same assessment.
	if sess.AssessmentID == "" {
		sess.AssessmentID = uuid.NewString()
		if err := s.save(ctx, sess); err != nil {
			return nil, nil, err
		}
	}

	sub := BuildSubmission(sess)
	if err := s.Recorder.InsertAssessment(ctx, sub); err != nil {
		metrics.Submission(variant, "error")
		log.WithError(err).Error("record assessment")
		return nil, nil, fmt.Errorf("record assessment: %w", err)
	}

	if s.Archiver != nil {
		if err := s.Archiver.EnqueueArchive(ctx, sub.AssessmentID); err != nil {
			log.WithError(err).WithField("assessment_id", sub.AssessmentID).Warn("enqueue archive")
		}
	}

	sess.State = next
	if err := s.Sessions.Delete(ctx, sess.ID); err != nil && !errors.Is(err, session.ErrNotFound) {
		log.WithError(err).Warn("delete submitted wizard")
	}

	metrics.Submission(variant, "ok")
	metrics.SubmittedTotal(variant, sub.ComputedTotal)
	log.WithFields(logrus.Fields{
		"assessment_id": sub.AssessmentID,
		"total":         sub.ComputedTotal,
		"label":         sub.ComputedResultLabel,
	}).Info("assessment submitted")
	return &sub, sess, nil
}

// BuildSubmission turns a finished draft into its submission payload. The
// assessment id comes from the session.
func BuildSubmission(sess *session.Session) schemas.Submission {
	d := sess.Draft
	total := d.Total()
	sub := schemas.Submission{
		AssessmentID:        sess.AssessmentID,
		Variant:             string(sess.Variant),
		SubjectID:           d.SubjectID,
		PeriodID:            d.PeriodID,
		RubricID:            d.RubricID,
		EvaluationType:      d.EvaluationType,
		EvaluationDate:      d.EvaluationDate,
		Selections:          append([]string{}, d.Selections...),
		WorkSummary:         d.WorkSummary,
		Scores:              make(map[string]float64, len(d.Scores)),
		Comments:            make(map[string]string, len(d.Comments)),
		OverallComment:      d.OverallComment,
		ComputedTotal:       total,
		ComputedResultLabel: scoring.ResultLabel(total),
		SubmittedAt:         timeNow().UTC(),
	}
	for k, v := range d.Scores {
		sub.Scores[k] = v
	}
	for k, v := range d.Comments {
		sub.Comments[k] = v
	}
	return sub
}
