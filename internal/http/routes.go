package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	m "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"research-assessment/internal/assessment"
	"research-assessment/internal/config"
	"research-assessment/internal/schemas"
	"research-assessment/internal/scoring"
)

// Catalog serves the read-only reference data and stored assessments.
type Catalog interface {
	ListRubrics(ctx context.Context) ([]scoring.Rubric, error)
	GetRubric(ctx context.Context, id string) (*scoring.Rubric, error)
	ListSubjects(ctx context.Context, kind string) ([]schemas.Subject, error)
	ListPeriods(ctx context.Context) ([]schemas.Period, error)
	GetAssessment(ctx context.Context, id string) (*schemas.AssessmentOut, error)
}

// ArchiveReader fetches archived submissions from object storage.
type ArchiveReader interface {
	GetJSON(ctx context.Context, ref string, v any) error
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	Svc      *assessment.Service
	Catalog  Catalog
	Archive  ArchiveReader
	DB       Pinger
	Log      logrus.FieldLogger
	validate *validator.Validate
}

func NewServer(cfg *config.Config, svc *assessment.Service, catalog Catalog, archive ArchiveReader, dbx Pinger, log logrus.FieldLogger) *http.Server {
	s := &Server{Svc: svc, Catalog: catalog, Archive: archive, DB: dbx, Log: log, validate: validator.New()}
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           s.Routes(cfg.APIToken, cfg.MetricsPath),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func (s *Server) Routes(apiToken, metricsPath string) http.Handler {
	if s.validate == nil {
		s.validate = validator.New()
	}
	r := chi.NewRouter()
	r.Use(m.RequestID, m.RealIP, m.Logger, m.Recoverer)

	// Admin/API-token protected
	r.Group(func(r chi.Router) {
		r.Use(RequireAPIToken(apiToken))
		r.Get("/rubrics", s.listRubrics)
		r.Get("/rubrics/{id}", s.getRubric)
		r.Get("/subjects", s.listSubjects)
		r.Get("/periods", s.listPeriods)
		r.Get("/steps/{variant}", s.getSteps)
		r.Post("/wizards", s.createWizard)
		r.Get("/assessments/{id}", s.getAssessment)
		r.Get("/assessments/{id}/archive", s.getArchive)
	})

	// Session token (uses Authorization: Bearer <session>)
	r.Route("/wizards/{id}", func(r chi.Router) {
		r.Use(RequireSessionToken)
		r.Get("/", s.getWizard)
		r.Patch("/", s.editWizard)
		r.Delete("/", s.cancelWizard)
		r.Post("/goto", s.gotoStep)
		r.Post("/next", s.nextStep)
		r.Get("/score", s.score)
		r.Post("/submit", s.submit)
	})

	r.Get("/healthz", s.healthz)
	if metricsPath != "" {
		r.Handle(metricsPath, promhttp.Handler())
	}
	return r
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.DB != nil {
		if err := s.DB.PingContext(r.Context()); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "db error"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
