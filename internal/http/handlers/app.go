package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"articleforge/internal/audit"
	"articleforge/internal/domain"
	"articleforge/internal/infra"
	"articleforge/internal/pipeline"
	"articleforge/internal/storage"
)

// maxBodyBytes bounds request payloads (briefs and drafts).
const maxBodyBytes = 4 << 20

// Pinger reports backing store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// App carries the dependencies shared by the handlers.
type App struct {
	Store           domain.SectionStore
	Orchestrator    *pipeline.Orchestrator
	Engine          *audit.Engine
	Artifacts       *storage.FileStore
	DB              Pinger
	Logger          infra.Logger
	DefaultLanguage string
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, kind, msg string) {
	a.json(w, code, map[string]string{"error": msg, "code": kind})
}

// fail maps domain errors onto HTTP statuses.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", msg)
	case errors.Is(err, domain.ErrInvalidBrief):
		a.error(w, http.StatusBadRequest, "invalid_brief", err.Error())
	default:
		a.log(r).Error().Err(err).Msg(msg)
		a.error(w, http.StatusInternalServerError, "internal", msg)
	}
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	return true
}

// log returns the request-scoped logger, or the app logger outside the
// logging middleware.
func (a *App) log(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &a.Logger
}
