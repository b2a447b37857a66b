package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"research-assessment/internal/config"
	"research-assessment/internal/db"
	"research-assessment/internal/metrics"
	"research-assessment/internal/schemas"
	"research-assessment/internal/scoring"
	"research-assessment/internal/storage"
)

// Assessments is the slice of the repository the archive job needs.
type Assessments interface {
	GetAssessment(ctx context.Context, id string) (*schemas.AssessmentOut, error)
	ListScores(ctx context.Context, id string) ([]db.AssessmentScore, error)
	GetRubric(ctx context.Context, id string) (*scoring.Rubric, error)
	SetArchiveRefs(ctx context.Context, id, archiveRef, reportRef string) error
}

// ObjectStore uploads archive artifacts.
type ObjectStore interface {
	PutJSON(ctx context.Context, key string, v any) (string, error)
	Put(ctx context.Context, key, contentType string, body []byte) (string, error)
}

type Server struct {
	Repo Assessments
	S3   ObjectStore
	Log  logrus.FieldLogger
}

func (s *Server) mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeArchive, s.handleArchive)
	return mux
}

func (s *Server) handleArchive(ctx context.Context, t *asynq.Task) error {
	p, err := parseArchivePayload(t)
	if err != nil {
		metrics.Archive("error")
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	log := s.Log.WithField("assessment_id", p.AssessmentID)
	log.Info("archiving assessment")

	if err := s.archive(ctx, p.AssessmentID, log); err != nil {
		metrics.Archive("error")
		log.WithError(err).Error("archive failed")
		if errors.Is(err, db.ErrNotFound) {
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		return err
	}
	metrics.Archive("ok")
	return nil
}

func (s *Server) archive(ctx context.Context, id string, log logrus.FieldLogger) error {
	a, err := s.Repo.GetAssessment(ctx, id)
	if err != nil {
		return fmt.Errorf("load assessment: %w", err)
	}
	scores, err := s.Repo.ListScores(ctx, id)
	if err != nil {
		return err
	}
	rubric, err := s.Repo.GetRubric(ctx, a.Submission.RubricID)
	if errors.Is(err, db.ErrNotFound) {
		log.WithField("rubric_id", a.Submission.RubricID).Warn("rubric gone, scorecard without display names")
		rubric = nil
	} else if err != nil {
		return err
	}

	archiveRef, err := s.S3.PutJSON(ctx, storage.ArchiveKey(id), a.Submission)
	if err != nil {
		return err
	}
	report, err := BuildScorecard(a, scores, rubric)
	if err != nil {
		return fmt.Errorf("build scorecard: %w", err)
	}
	reportRef, err := s.S3.Put(ctx, storage.ReportKey(id), storage.ContentTypeXLSX, report)
	if err != nil {
		return err
	}
	if err := s.Repo.SetArchiveRefs(ctx, id, archiveRef, reportRef); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"archive_ref": archiveRef, "report_ref": reportRef}).Info("assessment archived")
	return nil
}

func Run(cfg *config.Config, repo Assessments, s3c ObjectStore, log *logrus.Logger) error {
	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Logger:      log,
	})
	w := &Server{Repo: repo, S3: s3c, Log: log}
	return srv.Run(w.mux())
}
