package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"articleforge/internal/domain"
	"articleforge/internal/middleware"
	"articleforge/internal/pipeline"
	"articleforge/internal/storage"
)

type createJobRequest struct {
	Brief           domain.ContentBrief    `json:"brief"`
	BusinessContext domain.BusinessContext `json:"business_context"`
}

// CreateJob validates a brief and stores it as a pending job.
func (a *App) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if !a.decode(w, r, &req) {
		return
	}
	if err := req.Brief.Validate(); err != nil {
		a.fail(w, r, err, "invalid brief")
		return
	}
	if req.Brief.Language == "" && req.BusinessContext.Language == "" {
		req.Brief.Language = middleware.LanguageFromContext(r.Context())
	}
	job := &domain.GenerationJob{Brief: req.Brief, BusinessContext: req.BusinessContext}
	if err := a.Store.CreateJob(r.Context(), job); err != nil {
		a.fail(w, r, err, "failed to create job")
		return
	}
	a.log(r).Info().Str("job_id", job.ID).Int("sections", job.TotalSections).Msg("job created")
	a.json(w, http.StatusCreated, job)
}

func (a *App) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := a.Store.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err, "job not found")
		return
	}
	a.json(w, http.StatusOK, job)
}

func (a *App) ListSections(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := a.Store.GetJob(r.Context(), id); err != nil {
		a.fail(w, r, err, "job not found")
		return
	}
	sections, err := a.Store.GetSections(r.Context(), id)
	if err != nil {
		a.fail(w, r, err, "failed to load sections")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": sections})
}

// AbortJob flags a pending or running job as aborted. The running pipeline
// notices at its next unit boundary; completed work stays stored.
func (a *App) AbortJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := a.Store.GetJob(r.Context(), id)
	if err != nil {
		a.fail(w, r, err, "job not found")
		return
	}
	switch job.Status {
	case domain.JobStatusPending, domain.JobStatusInProgress:
	default:
		a.error(w, http.StatusConflict, "conflict", "job is "+string(job.Status))
		return
	}
	status := domain.JobStatusAborted
	if err := a.Store.UpdateJob(r.Context(), id, domain.JobPatch{Status: &status}); err != nil {
		a.fail(w, r, err, "failed to abort job")
		return
	}
	a.log(r).Info().Str("job_id", id).Msg("abort requested")
	a.json(w, http.StatusAccepted, map[string]string{"id": id, "status": string(status)})
}

// AutoFix applies automatic fixes to a job's draft.
func (a *App) AutoFix(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	reaudit, _ := strconv.ParseBool(r.URL.Query().Get("reaudit"))
	res, err := a.Orchestrator.RunAutoFix(r.Context(), id, pipeline.AutoFixOptions{
		Reaudit:  reaudit,
		Language: r.URL.Query().Get("language"),
	})
	if err != nil {
		a.fail(w, r, err, "auto-fix failed")
		return
	}
	a.json(w, http.StatusOK, res)
}

// Article serves the stored article artifact, falling back to the job draft.
func (a *App) Article(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body []byte
	if a.Artifacts != nil {
		data, err := a.Artifacts.Read(r.Context(), storage.ArticleKey(id))
		switch {
		case err == nil:
			body = data
		case !errors.Is(err, domain.ErrNotFound):
			a.fail(w, r, err, "failed to read article")
			return
		}
	}
	if body == nil {
		job, err := a.Store.GetJob(r.Context(), id)
		if err != nil {
			a.fail(w, r, err, "job not found")
			return
		}
		if job.DraftContent == "" {
			a.error(w, http.StatusNotFound, "not_found", "article not generated yet")
			return
		}
		body = []byte(job.DraftContent)
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
