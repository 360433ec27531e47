package handlers

import (
	"errors"
	"net/http"
	"strings"

	"articleforge/internal/audit"
	"articleforge/internal/autofix"
	"articleforge/internal/domain"
	"articleforge/internal/middleware"
)

type auditRequest struct {
	Draft           string                  `json:"draft"`
	Brief           domain.ContentBrief     `json:"brief"`
	BusinessContext domain.BusinessContext  `json:"business_context"`
	Language        string                  `json:"language"`
	Triples         []domain.SemanticTriple `json:"triples"`
	Template        string                  `json:"template"`
	TemplateName    string                  `json:"template_name"`
}

// Audit scores a draft without creating a job.
func (a *App) Audit(w http.ResponseWriter, r *http.Request) {
	var req auditRequest
	if !a.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Draft) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "draft is required")
		return
	}

	var tmpl *audit.TemplateSpec
	var err error
	switch {
	case strings.TrimSpace(req.Template) != "":
		tmpl, err = audit.ParseTemplate([]byte(req.Template))
	case req.TemplateName != "":
		tmpl, err = audit.BuiltinTemplate(req.TemplateName)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusBadRequest, "bad_request", "unknown template "+req.TemplateName)
			return
		}
		a.error(w, http.StatusBadRequest, "bad_request", "invalid template: "+err.Error())
		return
	}

	lang := domain.ResolveLanguage(req.Language, req.Brief, req.BusinessContext, middleware.LanguageFromContext(r.Context()))
	report := a.Engine.Audit(audit.Input{
		Draft:    req.Draft,
		Brief:    req.Brief,
		Business: req.BusinessContext,
		Language: lang,
		Triples:  req.Triples,
		Template: tmpl,
	})
	report.Issues = autofix.ConvertToAuditIssues(req.Draft, report.Results)
	a.json(w, http.StatusOK, report)
}
