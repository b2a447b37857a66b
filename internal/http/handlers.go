package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"research-assessment/internal/assessment"
	"research-assessment/internal/db"
	"research-assessment/internal/schemas"
	"research-assessment/internal/wizard"
)

type errResp struct {
	Error string `json:"error"`
}

type incompleteResp struct {
	Error  string            `json:"error"`
	Step   int               `json:"step"`
	Wizard schemas.WizardOut `json:"wizard"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body into v and runs its validate tags.
func (s *Server) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return s.validate.Struct(v)
}

// writeErr maps service and repository errors to statuses.
func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, assessment.ErrNotFound), errors.Is(err, db.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, assessment.ErrForbidden):
		code = http.StatusForbidden
	case errors.Is(err, assessment.ErrUnknownRubric),
		errors.Is(err, assessment.ErrUnknownCriterion),
		errors.Is(err, assessment.ErrNoRubric):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, wizard.ErrNotAtConfirmStep), errors.Is(err, wizard.ErrAlreadyComplete):
		code = http.StatusConflict
	}
	if code == http.StatusInternalServerError {
		s.Log.WithError(err).WithField("path", r.URL.Path).Error("request failed")
		writeJSON(w, code, errResp{"internal error"})
		return
	}
	writeJSON(w, code, errResp{err.Error()})
}

// --- Catalog ---

func (s *Server) listRubrics(w http.ResponseWriter, r *http.Request) {
	out, err := s.Catalog.ListRubrics(r.Context())
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getRubric(w http.ResponseWriter, r *http.Request) {
	out, err := s.Catalog.GetRubric(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listSubjects(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if kind != "" && kind != string(wizard.VariantMember) && kind != string(wizard.VariantDepartment) {
		writeJSON(w, http.StatusBadRequest, errResp{"kind must be member or department"})
		return
	}
	out, err := s.Catalog.ListSubjects(r.Context(), kind)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) listPeriods(w http.ResponseWriter, r *http.Request) {
	out, err := s.Catalog.ListPeriods(r.Context())
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getSteps(w http.ResponseWriter, r *http.Request) {
	out, err := assessment.Steps(wizard.Variant(chi.URLParam(r, "variant")))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errResp{err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getAssessment(w http.ResponseWriter, r *http.Request) {
	out, err := s.Catalog.GetAssessment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// getArchive returns the submission copy the worker wrote to object storage.
func (s *Server) getArchive(w http.ResponseWriter, r *http.Request) {
	if s.Archive == nil {
		writeJSON(w, http.StatusServiceUnavailable, errResp{"archive storage not configured"})
		return
	}
	a, err := s.Catalog.GetAssessment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if a.ArchiveRef == "" {
		writeJSON(w, http.StatusNotFound, errResp{"not archived yet"})
		return
	}
	var sub schemas.Submission
	if err := s.Archive.GetJSON(r.Context(), a.ArchiveRef, &sub); err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// --- Wizards ---

func (s *Server) createWizard(w http.ResponseWriter, r *http.Request) {
	var req schemas.CreateWizardRequest
	if err := s.decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{err.Error()})
		return
	}
	sess, token, err := s.Svc.Start(r.Context(), wizard.Variant(req.Variant))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, schemas.CreateWizardResp{
		WizardID:     sess.ID,
		SessionToken: token,
		Wizard:       assessment.ToWizardOut(sess),
	})
}

func (s *Server) getWizard(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Svc.Get(r.Context(), chi.URLParam(r, "id"), sessionToken(r))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, assessment.ToWizardOut(sess))
}

func (s *Server) editWizard(w http.ResponseWriter, r *http.Request) {
	var req schemas.EditRequest
	if err := s.decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{err.Error()})
		return
	}
	sess, err := s.Svc.Edit(r.Context(), chi.URLParam(r, "id"), sessionToken(r), req)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, assessment.ToWizardOut(sess))
}

func (s *Server) cancelWizard(w http.ResponseWriter, r *http.Request) {
	if err := s.Svc.Cancel(r.Context(), chi.URLParam(r, "id"), sessionToken(r)); err != nil {
		s.writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) gotoStep(w http.ResponseWriter, r *http.Request) {
	var req schemas.GoToRequest
	if err := s.decode(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errResp{err.Error()})
		return
	}
	sess, allowed, err := s.Svc.GoTo(r.Context(), chi.URLParam(r, "id"), sessionToken(r), *req.Step)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, schemas.NavigateResp{Allowed: allowed, Wizard: assessment.ToWizardOut(sess)})
}

func (s *Server) nextStep(w http.ResponseWriter, r *http.Request) {
	sess, allowed, err := s.Svc.Next(r.Context(), chi.URLParam(r, "id"), sessionToken(r))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, schemas.NavigateResp{Allowed: allowed, Wizard: assessment.ToWizardOut(sess)})
}

func (s *Server) score(w http.ResponseWriter, r *http.Request) {
	out, err := s.Svc.Score(r.Context(), chi.URLParam(r, "id"), sessionToken(r))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	sub, sess, err := s.Svc.Submit(r.Context(), chi.URLParam(r, "id"), sessionToken(r))
	var inc *wizard.IncompleteError
	if errors.As(err, &inc) {
		writeJSON(w, http.StatusUnprocessableEntity, incompleteResp{
			Error:  err.Error(),
			Step:   inc.Step,
			Wizard: assessment.ToWizardOut(sess),
		})
		return
	}
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, schemas.SubmitResp{Submission: *sub, Wizard: assessment.ToWizardOut(sess)})
}
