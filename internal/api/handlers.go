package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/martinsuchenak/vlanaudit/internal/audit"
	"github.com/martinsuchenak/vlanaudit/internal/log"
	"github.com/martinsuchenak/vlanaudit/internal/parser"
	"github.com/martinsuchenak/vlanaudit/internal/worker"
	"github.com/martinsuchenak/vlanaudit/pkg/model"
)

const maxBodySize = 10 << 20 // 10 MB

// Handler handles HTTP requests
type Handler struct {
	auditor *audit.Auditor
	status  func() worker.TaskStatus
	version string
}

// NewHandler creates a new API handler
func NewHandler(auditor *audit.Auditor, version string) *Handler {
	return &Handler{auditor: auditor, version: version}
}

// SetScheduleStatus exposes the background audit status on GET /api/schedule
func (h *Handler) SetScheduleStatus(status func() worker.TaskStatus) {
	h.status = status
}

// parseRequest is the body of the parse endpoints
type parseRequest struct {
	Text string `json:"text"`
}

// Router builds the HTTP router. token guards every route except the health check.
func (h *Handler) Router(token string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(SecurityHeadersMiddleware)

	r.Get("/api/health", h.health)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(token))
		r.Post("/api/audit", h.runAudit)
		r.Post("/api/parse/endpoint", h.parseEndpoint)
		r.Post("/api/parse/moquery", h.parseMoquery)
		r.Get("/api/schedule", h.scheduleStatus)
	})

	return r
}

// health handles GET /api/health
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": h.version})
}

// runAudit handles POST /api/audit
func (h *Handler) runAudit(w http.ResponseWriter, r *http.Request) {
	var req model.AuditRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rep, err := h.auditor.Run(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, audit.ErrEmptyInput):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, audit.ErrEndpointNotFound):
			h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.internalError(w, err)
		}
		return
	}

	if wantsCSV(r) {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+audit.ArtifactName(rep.Name)+`"`)
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, rep.CSV+"\n")
		return
	}

	h.writeJSON(w, http.StatusOK, rep)
}

// parseEndpoint handles POST /api/parse/endpoint
func (h *Handler) parseEndpoint(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, ok := parser.ParseEndpointOutput(req.Text)
	if !ok {
		h.writeError(w, http.StatusNotFound, audit.ErrEndpointNotFound.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, record)
}

// parseMoquery handles POST /api/parse/moquery
func (h *Handler) parseMoquery(w http.ResponseWriter, r *http.Request) {
	var req parseRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.writeJSON(w, http.StatusOK, parser.ParseMoqueryOutput(req.Text))
}

// scheduleStatus handles GET /api/schedule
func (h *Handler) scheduleStatus(w http.ResponseWriter, r *http.Request) {
	if h.status == nil {
		h.writeError(w, http.StatusNotFound, "scheduled audits are not enabled")
		return
	}
	h.writeJSON(w, http.StatusOK, h.status())
}

// decodeBody decodes a JSON request body of at most maxBodySize bytes
func decodeBody(r *http.Request, v any) error {
	defer func() { _ = r.Body.Close() }()
	return json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(v)
}

// wantsCSV reports whether the client asked for the raw CSV
func wantsCSV(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.EqualFold(mediaType, "text/csv") {
			return true
		}
	}
	return false
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// internalError logs the error and writes a generic 500 response
func (h *Handler) internalError(w http.ResponseWriter, err error) {
	log.Error("Internal Server Error", "error", err)
	h.writeError(w, http.StatusInternalServerError, "Internal Server Error")
}
