package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dgallion1/brandgest/internal/pipeline"
	"github.com/dgallion1/brandgest/internal/questionnaire"
	"github.com/dgallion1/brandgest/internal/strategy"
)

func (s *Server) handleStrategyUpload(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	filename, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	brief := strategy.Brief{
		BrandName: r.FormValue("brand_name"),
		Industry:  r.FormValue("industry"),
	}
	var problems []string
	if len(data) == 0 {
		problems = append(problems, "Please upload one document.")
	}
	problems = append(problems, brief.Problems()...)
	if len(problems) > 0 {
		problemsError(w, problems)
		return
	}

	s.submit(w, pipeline.NewDocumentJob(brief, filename, data))
}

type formRequest struct {
	BrandName string            `json:"brand_name"`
	Industry  string            `json:"industry"`
	Answers   map[string]string `json:"answers"`
}

func (s *Server) handleStrategyForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	var req formRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return
	}

	brief := strategy.Brief{BrandName: req.BrandName, Industry: req.Industry}
	records := questionnaire.FromAnswers(s.orchestrator.Catalog(), req.Answers)

	problems := brief.Problems()
	if len(records) == 0 {
		problems = append(problems, "Please answer at least one question.")
	}
	if len(problems) > 0 {
		problemsError(w, problems)
		return
	}

	s.submit(w, pipeline.NewFormJob(brief, records))
}

func (s *Server) submit(w http.ResponseWriter, job *pipeline.Job) {
	if err := s.orchestrator.Submit(job); err != nil {
		s.log.Warn("job rejected", zap.String("job_id", job.ID), zap.Error(err))
		jsonError(w, "job queue is full, try again later", http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/strategy/%s", job.ID),
	})
}

func (s *Server) handleStrategyStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}
