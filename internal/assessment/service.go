// Package assessment drives wizard sessions: it applies field edits, runs
// step navigation, computes live scores and submits finished drafts.
//
// All wizard rules live in the wizard and scoring packages; this package only
// loads a session, applies one operation to a private copy and saves it back.
// An operation that fails never touches the stored session.
package assessment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"research-assessment/internal/auth"
	"research-assessment/internal/metrics"
	"research-assessment/internal/schemas"
	"research-assessment/internal/scoring"
	"research-assessment/internal/session"
	"research-assessment/internal/wizard"
)

var (
	ErrNotFound         = errors.New("wizard not found")
	ErrForbidden        = errors.New("session token does not match wizard")
	ErrUnknownRubric    = errors.New("unknown rubric")
	ErrUnknownCriterion = errors.New("criterion is not part of the selected rubric")
	ErrNoRubric         = errors.New("select a rubric before scoring")
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// RubricSource resolves rubric ids selected in the info step.
type RubricSource interface {
	GetRubric(ctx context.Context, id string) (*scoring.Rubric, error)
}

// Recorder persists submitted assessments.
type Recorder interface {
	InsertAssessment(ctx context.Context, sub schemas.Submission) error
}

// Archiver schedules post-submit archiving of an assessment.
type Archiver interface {
	EnqueueArchive(ctx context.Context, assessmentID string) error
}

type Service struct {
	Sessions session.Store
	Rubrics  RubricSource
	Recorder Recorder
	Archiver Archiver
	Log      logrus.FieldLogger
}

func NewService(st session.Store, rubrics RubricSource, rec Recorder, arch Archiver, log logrus.FieldLogger) *Service {
	return &Service{Sessions: st, Rubrics: rubrics, Recorder: rec, Archiver: arch, Log: log}
}

// load fetches a session and checks that token owns it.
func (s *Service) load(ctx context.Context, id, token string) (*session.Session, wizard.Definition, error) {
	sess, err := s.Sessions.Get(ctx, id)
	if errors.Is(err, session.ErrNotFound) {
		return nil, wizard.Definition{}, ErrNotFound
	}
	if err != nil {
		return nil, wizard.Definition{}, err
	}
	if !auth.Matches(token, sess.TokenHash) {
		return nil, wizard.Definition{}, ErrForbidden
	}
	def, err := wizard.Lookup(sess.Variant)
	if err != nil {
		return nil, wizard.Definition{}, err
	}
	return sess, def, nil
}

func (s *Service) save(ctx context.Context, sess *session.Session) error {
	sess.Touch()
	if err := s.Sessions.Save(ctx, sess); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("save wizard %s: %w", sess.ID, err)
	}
	return nil
}

// Start creates a wizard session at step 0. The returned token is the only
// copy of the session token; the store keeps its hash.
func (s *Service) Start(ctx context.Context, v wizard.Variant) (*session.Session, string, error) {
	if _, err := wizard.Lookup(v); err != nil {
		return nil, "", err
	}
	token, hash := auth.NewToken()
	sess := session.New(uuid.NewString(), hash, v)
	if err := s.Sessions.Create(ctx, sess); err != nil {
		return nil, "", fmt.Errorf("create wizard: %w", err)
	}
	metrics.SessionStarted(string(v))
	s.Log.WithFields(logrus.Fields{"wizard_id": sess.ID, "variant": v}).Info("wizard started")
	return sess, token, nil
}

// Get returns the session for display.
func (s *Service) Get(ctx context.Context, id, token string) (*session.Session, error) {
	sess, _, err := s.load(ctx, id, token)
	return sess, err
}

// GoTo attempts to move the wizard to step.
func (s *Service) GoTo(ctx context.Context, id, token string, step int) (*session.Session, bool, error) {
	sess, def, err := s.load(ctx, id, token)
	if err != nil {
		return nil, false, err
	}
	return s.navigate(ctx, sess, def, step)
}

// Next moves one step forward.
func (s *Service) Next(ctx context.Context, id, token string) (*session.Session, bool, error) {
	sess, def, err := s.load(ctx, id, token)
	if err != nil {
		return nil, false, err
	}
	return s.navigate(ctx, sess, def, sess.State.CurrentStep+1)
}

func (s *Service) navigate(ctx context.Context, sess *session.Session, def wizard.Definition, step int) (*session.Session, bool, error) {
	from := sess.State.CurrentStep
	next, allowed := wizard.AttemptGoTo(def, sess.State, step, sess.Draft)
	sess.State = next
	if err := s.save(ctx, sess); err != nil {
		return nil, false, err
	}
	metrics.Navigation(string(sess.Variant), from, allowed)
	s.Log.WithFields(logrus.Fields{
		"wizard_id": sess.ID,
		"from":      from,
		"to":        step,
		"allowed":   allowed,
		"errors":    next.ValidationErrors.Keys(),
	}).Debug("wizard navigation")
	return sess, allowed, nil
}

// Score returns the live score of the draft.
func (s *Service) Score(ctx context.Context, id, token string) (schemas.ScoreOut, error) {
	sess, _, err := s.load(ctx, id, token)
	if err != nil {
		return schemas.ScoreOut{}, err
	}
	return ScoreOf(sess.Draft), nil
}

// Cancel discards the wizard and its draft.
func (s *Service) Cancel(ctx context.Context, id, token string) error {
	if _, _, err := s.load(ctx, id, token); err != nil {
		return err
	}
	if err := s.Sessions.Delete(ctx, id); err != nil && !errors.Is(err, session.ErrNotFound) {
		return fmt.Errorf("cancel wizard %s: %w", id, err)
	}
	s.Log.WithField("wizard_id", id).Info("wizard cancelled")
	return nil
}
