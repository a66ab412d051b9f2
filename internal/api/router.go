// Package api is the HTTP surface of the query service.
package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/swassyman/heart/internal/access"
	"github.com/swassyman/heart/internal/contracts"
	"github.com/swassyman/heart/internal/httpx"
	"github.com/swassyman/heart/internal/query"
	"github.com/swassyman/heart/internal/report"
	"github.com/swassyman/heart/internal/session"
)

type handler struct {
	svc    *query.Service
	signer *session.Signer
	logger *slog.Logger
}

// NewRouter mounts the query API. Tokens minted by /v1/login are signed
// by signer and every /v1 route other than login requires one.
func NewRouter(svc *query.Service, signer *session.Signer, logger *slog.Logger) http.Handler {
	h := &handler{svc: svc, signer: signer, logger: logger}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(15 * time.Second))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "service": "query-api"})
	})
	router.Post("/v1/login", h.login)

	router.Group(func(r chi.Router) {
		r.Use(httpx.Authenticate(signer))

		r.Get("/v1/properties", h.listProperties)
		r.Get("/v1/properties/{id}", h.getProperty)
		r.Get("/v1/properties/{id}/risks", h.getRisks)
		r.Get("/v1/properties/{id}/analysis", h.analyze)
		r.Post("/v1/properties/{id}/findings", h.recordFindings)
		r.Post("/v1/properties/{id}/report", h.report)

		r.Get("/v1/inspections", h.listInspections)
		r.Post("/v1/inspections", h.submitInspection)
		r.Patch("/v1/inspections/{id}/complete", h.completeInspection)
	})
	return router
}

type loginRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.WriteError(w, h.logger, err)
		return
	}
	role, err := contracts.ParseRole(body.Role)
	if err != nil {
		httpx.WriteError(w, h.logger, err)
		return
	}
	user := contracts.User{ID: strings.TrimSpace(body.ID), Name: strings.TrimSpace(body.Name), Role: role}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if err := user.Validate(); err != nil {
		httpx.WriteError(w, h.logger, err)
		return
	}
	token, err := h.signer.Issue(user)
	if err != nil {
		httpx.WriteError(w, h.logger, err)
		return
	}
	user.Token = token
	httpx.WriteJSON(w, http.StatusOK, user)
}

func (h *handler) listProperties(w http.ResponseWriter, r *http.Request) {
	user, _ := httpx.UserFrom(r.Context())
	props, err := h.svc.GetProperties(r.Context(), user)
	if err != nil {
		httpx.WriteError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": props})
}

func (h *handler) getProperty(w http.ResponseWriter, r *http.Request) {
	user, _ := httpx.UserFrom(r.Context())
	id := chi.URLParam(r, "id")
	p, found, err := h.svc.GetPropertyByID(r.Context(), user, id)
	if !h.check(w, err, found, id) {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *handler) getRisks(w http.ResponseWriter, r *http.Request) {
	user, _ := httpx.UserFrom(r.Context())
	id := chi.URLParam(r, "id")
	risks, found, err := h.svc.GetRisks(r.Context(), user, id)
	if !h.check(w, err, found, id) {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, risks)
}

func (h *handler) analyze(w http.ResponseWriter, r *http.Request) {
	user, _ := httpx.UserFrom(r.Context())
	id := chi.URLParam(r, "id")
	result, found, err := h.svc.Analyze(r.Context(), user, id)
	if !h.check(w, err, found, id) {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, result)
}

type findingsRequest struct {
	InspectionID string                  `json:"inspectionId"`
	Findings     []contracts.Finding     `json:"findings"`
	RootCauses   []contracts.RootCause   `json:"rootCauses"`
	FutureEvents []contracts.FutureEvent `json:"futureEvents"`
}

func (h *handler) recordFindings(w http.ResponseWriter, r *http.Request) {
	user, _ := httpx.UserFrom(r.Context())
	if !access.CanRecord(user) {
		httpx.WriteError(w, h.logger, contracts.ErrForbidden)
		return
	}
	var body findingsRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.WriteError(w, h.logger, err)
		return
	}
	raised, err := h.svc.RecordFindings(r.Context(), contracts.FindingsRecorded{
		PropertyID:   chi.URLParam(r, "id"),
		InspectionID: body.InspectionID,
		Findings:     body.Findings,
		RootCauses:   body.RootCauses,
		FutureEvents: body.FutureEvents,
		Timestamp:    time.Now().UTC(),
	})
	if err != nil {
		httpx.WriteError(w, h.logger, err)
		return
	}
	if raised == nil {
		raised = []contracts.Alert{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"alerts": raised})
}

func (h *handler) report(w http.ResponseWriter, r *http.Request) {
	user, _ := httpx.UserFrom(r.Context())
	id := chi.URLParam(r, "id")

	var body struct {
		Lang string `json:"lang"`
	}
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &body); err != nil {
			httpx.WriteError(w, h.logger, err)
			return
		}
	}
	lang, err := report.ParseLang(body.Lang)
	if err != nil {
		httpx.WriteError(w, h.logger, err)
		return
	}

	pdf, found, err := h.svc.Report(r.Context(), user, id, lang)
	if !h.check(w, err, found, id) {
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename(user.Role, id)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h *handler) listInspections(w http.ResponseWriter, r *http.Request) {
	user, _ := httpx.UserFrom(r.Context())
	items, err := h.svc.ListInspections(r.Context(), user, r.URL.Query().Get("property_id"))
	if err != nil {
		httpx.WriteError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *handler) submitInspection(w http.ResponseWriter, r *http.Request) {
	user, _ := httpx.UserFrom(r.Context())
	var draft query.InspectionDraft
	if err := httpx.DecodeJSON(r, &draft); err != nil {
		httpx.WriteError(w, h.logger, err)
		return
	}
	in, err := h.svc.SubmitInspection(r.Context(), user, draft)
	if err != nil {
		httpx.WriteError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, in)
}

func (h *handler) completeInspection(w http.ResponseWriter, r *http.Request) {
	user, _ := httpx.UserFrom(r.Context())
	var body struct {
		RiskScore *float64 `json:"riskScore"`
	}
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(r, &body); err != nil {
			httpx.WriteError(w, h.logger, err)
			return
		}
	}
	in, err := h.svc.CompleteInspection(r.Context(), user, chi.URLParam(r, "id"), body.RiskScore)
	if err != nil {
		httpx.WriteError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, in)
}

// check writes the error or not-found response and reports whether the
// handler should continue.
func (h *handler) check(w http.ResponseWriter, err error, found bool, id string) bool {
	if err != nil {
		httpx.WriteError(w, h.logger, err)
		return false
	}
	if !found {
		httpx.WriteJSON(w, http.StatusNotFound, map[string]any{"error": "property " + id + " not found"})
		return false
	}
	return true
}
