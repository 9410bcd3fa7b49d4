/*
handlers.go - HTTP API handlers for the MEDEVAC case engine

PURPOSE:
  Exposes the case engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the Editor and the CaseStore.

ENDPOINTS:
  Engine:
    POST   /api/recompute                       Derived fields for a posted record (not stored)

  Cases:
    GET    /api/cases                           List cases
    POST   /api/cases                           Create case
    GET    /api/cases/export                    Spreadsheet of all cases
    GET    /api/cases/{id}                      Get case
    PUT    /api/cases/{id}                      Replace case record
    DELETE /api/cases/{id}                      Delete case (history kept)
    GET    /api/cases/{id}/revisions            Saved history
    POST   /api/cases/{id}/extensions           Add extension N+1
    PUT    /api/cases/{id}/extensions/{number}  Replace extension, number kept
    DELETE /api/cases/{id}/extensions/{number}  Remove extension, renumber
    POST   /api/cases/{id}/perdiems             Add an initial per-diem line (max 4)
    DELETE /api/cases/{id}/perdiems/{line}      Remove per-diem line (1-based, min 1 kept)
    PUT    /api/cases/{id}/amendment            Set or replace the amendment
    DELETE /api/cases/{id}/amendment            Remove the amendment

  Reference data:
    GET    /api/posts                           Post table
    GET    /api/posts/{post}                    One post
    POST   /api/posts/refresh                   Refresh from the per-diem service
    GET    /api/perdiem?location=               Per-diem rate lookup

REQUEST FLOW:
  1. Parse HTTP request (loose JSON through factory.CaseFactory)
  2. Apply the edit through medevac.Editor (number, recompute)
  3. Save the merged record and derived fields
  4. Serialize response

READS RECOMPUTE:
  Stored derived fields are a snapshot. GET recomputes against today so
  time-dependent values (cable status) are current.

ERROR HANDLING:
  - 400: Invalid JSON, rejected edits
  - 404: Case, post, extension or location not found
  - 422: Contract violations (too many amendments, misnumbered extensions)
  - 502: Per-diem service failure
  - 503: Sequence counter or per-diem service unavailable
  - 500: Internal errors

SEE ALSO:
  - dto.go: Response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/warp/medevac-engine/factory"
	"github.com/warp/medevac-engine/generic"
	"github.com/warp/medevac-engine/medevac"
	"github.com/warp/medevac-engine/perdiem"
	"github.com/warp/medevac-engine/report"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// RateSource looks up per-diem rates.
type RateSource interface {
	Rate(ctx context.Context, location string) (perdiem.Rate, error)
}

// Pinger is implemented by stores that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       medevac.CaseStore
	Editor      *medevac.Editor
	Posts       *medevac.PostRegistry
	CaseFactory *factory.CaseFactory
	Rates       RateSource
	Refresher   *PostRefreshScheduler
	Logger      *zap.Logger
}

// NewHandler creates a handler. rates and refresher may be nil, which
// disables the per-diem endpoints.
func NewHandler(store medevac.CaseStore, editor *medevac.Editor, posts *medevac.PostRegistry, rates RateSource, refresher *PostRefreshScheduler, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:       store,
		Editor:      editor,
		Posts:       posts,
		CaseFactory: factory.NewCaseFactory(),
		Rates:       rates,
		Refresher:   refresher,
		Logger:      logger,
	}
}

// =============================================================================
// ENGINE
// =============================================================================

// Recompute returns {...record, ...derived} for a posted record without
// storing anything or drawing an obligation number.
func (h *Handler) Recompute(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}
	rec, err := h.CaseFactory.ParseCase(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid case document", err)
		return
	}

	derived, err := h.Editor.Engine().Recompute(&rec, h.Editor.Today())
	if err != nil {
		h.writeDomainError(w, "Failed to recompute case", err)
		return
	}

	merged, err := h.CaseFactory.MergedDocument(rec, derived)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode case", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(merged)
}

// =============================================================================
// CASE HANDLERS
// =============================================================================

// ListCases returns all cases ordered by obligation number.
func (h *Handler) ListCases(w http.ResponseWriter, r *http.Request) {
	docs, err := h.Store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list cases", err)
		return
	}

	dtos := make([]CaseDTO, len(docs))
	for i, doc := range docs {
		dtos[i] = toCaseDTO(h.current(doc))
	}
	writeJSON(w, http.StatusOK, CaseListResponse{Cases: dtos, Count: len(dtos)})
}

// CreateCase stores a new case. An empty body creates a blank case. A posted
// obligation number is ignored.
func (h *Handler) CreateCase(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}

	rec := medevac.NewCaseRecord()
	if len(body) > 0 {
		if rec, err = h.CaseFactory.ParseCase(body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid case document", err)
			return
		}
	}

	rec, derived, err := h.Editor.Create(r.Context(), rec)
	if err != nil {
		h.writeDomainError(w, "Failed to create case", err)
		return
	}

	saved, err := h.Store.Save(r.Context(), medevac.CaseDocument{Record: rec, Derived: derived})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save case", err)
		return
	}

	h.Logger.Info("case created",
		zap.String("case_id", saved.ID),
		zap.String("obligation_number", rec.ObligationNumber),
	)
	writeJSON(w, http.StatusCreated, toCaseDTO(saved))
}

// GetCase returns one case with derived fields as of today.
func (h *Handler) GetCase(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get case", err)
		return
	}
	writeJSON(w, http.StatusOK, toCaseDTO(h.current(doc)))
}

// UpdateCase replaces the case record. The obligation number is kept.
func (h *Handler) UpdateCase(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}
	incoming, err := h.CaseFactory.ParseCase(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid case document", err)
		return
	}

	h.applyEdit(w, r, http.StatusOK, func(medevac.CaseRecord) (medevac.CaseRecord, error) {
		return incoming, nil
	})
}

// DeleteCase removes a case. Its revisions stay.
func (h *Handler) DeleteCase(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.Delete(r.Context(), id); err != nil {
		h.writeDomainError(w, "Failed to delete case", err)
		return
	}
	h.Logger.Info("case deleted", zap.String("case_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// GetRevisions returns the saved history of a case.
func (h *Handler) GetRevisions(w http.ResponseWriter, r *http.Request) {
	revs, err := h.Store.Revisions(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get revisions", err)
		return
	}

	dtos := make([]RevisionDTO, len(revs))
	for i, rev := range revs {
		dtos[i] = toRevisionDTO(rev)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// AddExtension appends an extension numbered N+1.
func (h *Handler) AddExtension(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}
	ext, err := h.CaseFactory.ParseExtension(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid extension document", err)
		return
	}

	h.applyEdit(w, r, http.StatusCreated, func(c medevac.CaseRecord) (medevac.CaseRecord, error) {
		return medevac.AddExtension(c, ext)
	})
}

// RemoveExtension drops an extension and renumbers the rest.
func (h *Handler) RemoveExtension(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid extension number", err)
		return
	}

	h.applyEdit(w, r, http.StatusOK, func(c medevac.CaseRecord) (medevac.CaseRecord, error) {
		return medevac.RemoveExtension(c, n)
	})
}

// UpdateExtension replaces one extension in place.
func (h *Handler) UpdateExtension(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid extension number", err)
		return
	}
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}
	ext, err := h.CaseFactory.ParseExtension(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid extension document", err)
		return
	}

	h.applyEdit(w, r, http.StatusOK, func(c medevac.CaseRecord) (medevac.CaseRecord, error) {
		return medevac.UpdateExtension(c, n, ext)
	})
}

// AddPerDiem appends an initial per-diem line.
func (h *Handler) AddPerDiem(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}
	pd, err := h.CaseFactory.ParsePerDiem(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid per-diem document", err)
		return
	}

	h.applyEdit(w, r, http.StatusCreated, func(c medevac.CaseRecord) (medevac.CaseRecord, error) {
		return medevac.AddPerDiem(c, pd)
	})
}

// RemovePerDiem drops the per-diem line at the 1-based position in the URL.
func (h *Handler) RemovePerDiem(w http.ResponseWriter, r *http.Request) {
	line, err := strconv.Atoi(chi.URLParam(r, "line"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid per-diem line", err)
		return
	}

	h.applyEdit(w, r, http.StatusOK, func(c medevac.CaseRecord) (medevac.CaseRecord, error) {
		return medevac.RemovePerDiem(c, line-1)
	})
}

// SetAmendment sets or replaces the case amendment.
func (h *Handler) SetAmendment(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}
	a, err := h.CaseFactory.ParseAmendment(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amendment document", err)
		return
	}

	h.applyEdit(w, r, http.StatusOK, func(c medevac.CaseRecord) (medevac.CaseRecord, error) {
		return medevac.SetAmendment(c, a, true)
	})
}

// RemoveAmendment drops the case amendment.
func (h *Handler) RemoveAmendment(w http.ResponseWriter, r *http.Request) {
	h.applyEdit(w, r, http.StatusOK, medevac.RemoveAmendment)
}

// ExportCases returns every case as an xlsx workbook.
func (h *Handler) ExportCases(w http.ResponseWriter, r *http.Request) {
	docs, err := h.Store.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list cases", err)
		return
	}
	for i := range docs {
		docs[i] = h.current(docs[i])
	}

	data, err := report.CasesWorkbook(docs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build export", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="medevac-cases-%s.xlsx"`, h.Editor.Today()))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// applyEdit loads the case, runs edit through the Editor and saves.
func (h *Handler) applyEdit(w http.ResponseWriter, r *http.Request, status int, edit medevac.Edit) {
	ctx := r.Context()
	doc, err := h.Store.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to get case", err)
		return
	}

	rec, derived, err := h.Editor.Apply(ctx, doc.Record, edit)
	if err != nil {
		h.writeDomainError(w, "Edit rejected", err)
		return
	}

	doc.Record, doc.Derived = rec, derived
	saved, err := h.Store.Save(ctx, doc)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save case", err)
		return
	}
	writeJSON(w, status, toCaseDTO(saved))
}

// current recomputes a stored document against today. A stored record that
// no longer passes the contract check is returned as stored.
func (h *Handler) current(doc medevac.CaseDocument) medevac.CaseDocument {
	derived, err := h.Editor.Engine().Recompute(&doc.Record, h.Editor.Today())
	if err != nil {
		h.Logger.Warn("stored case fails recompute", zap.String("case_id", doc.ID), zap.Error(err))
		return doc
	}
	doc.Record = medevac.Merge(&doc.Record, derived)
	doc.Derived = derived
	return doc
}

// =============================================================================
// REFERENCE DATA
// =============================================================================

// ListPosts returns the post table in effect.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts := h.Posts.Current().Posts()
	if posts == nil {
		posts = []medevac.Post{}
	}
	writeJSON(w, http.StatusOK, PostListResponse{Posts: posts, Count: len(posts)})
}

// GetPost looks up one post by city, case-insensitively.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "post")
	post, ok := h.Posts.Current().Lookup(name)
	if !ok {
		writeError(w, http.StatusNotFound, "Post not found", &generic.NotFoundError{Kind: "post", ID: name})
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// RefreshPosts pulls the post list from the per-diem service now.
func (h *Handler) RefreshPosts(w http.ResponseWriter, r *http.Request) {
	if h.Refresher == nil {
		writeError(w, http.StatusServiceUnavailable, "Per-diem service not configured", ErrNoPostSource)
		return
	}
	n, err := h.Refresher.Refresh(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to refresh posts", err)
		return
	}
	writeJSON(w, http.StatusOK, RefreshResponse{Posts: n})
}

// GetPerDiem looks up the rate for ?location=.
func (h *Handler) GetPerDiem(w http.ResponseWriter, r *http.Request) {
	if h.Rates == nil {
		writeError(w, http.StatusServiceUnavailable, "Per-diem service not configured", nil)
		return
	}
	location := r.URL.Query().Get("location")
	if location == "" {
		writeError(w, http.StatusBadRequest, "location is required", nil)
		return
	}

	rate, err := h.Rates.Rate(r.Context(), location)
	if err != nil {
		h.writeDomainError(w, "Failed to look up per diem", err)
		return
	}
	writeJSON(w, http.StatusOK, rate)
}

// Healthz reports liveness and, when the store supports it, connectivity.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if p, ok := h.Store.(Pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			resp.Status, resp.Store = "degraded", err.Error()
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp.Store = "ok"
	}
	writeJSON(w, http.StatusOK, resp)
}

// =============================================================================
// HELPERS
// =============================================================================

func readBody(r *http.Request) ([]byte, error) {
	defer r.Body.Close()
	return io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
}

// writeDomainError maps engine, store and per-diem errors to a status.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case generic.IsNotFound(err),
		errors.Is(err, medevac.ErrExtensionNotFound),
		errors.Is(err, medevac.ErrAmendmentNotFound),
		errors.Is(err, medevac.ErrPerDiemNotFound),
		errors.Is(err, perdiem.ErrUnknownLocation):
		writeError(w, http.StatusNotFound, message, err)
	case medevac.IsContractViolation(err):
		writeErrorCode(w, http.StatusUnprocessableEntity, message, "contract_violation", err)
	case medevac.IsClientError(err), errors.Is(err, generic.ErrInvalidDocument):
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, perdiem.ErrServiceFailure):
		writeError(w, http.StatusBadGateway, message, err)
	case errors.Is(err, generic.ErrSequenceUnavailable), errors.Is(err, ErrNoPostSource):
		writeError(w, http.StatusServiceUnavailable, message, err)
	default:
		h.Logger.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	writeErrorCode(w, status, message, "", err)
}

func writeErrorCode(w http.ResponseWriter, status int, message, code string, err error) {
	resp := ErrorResponse{Error: message, Code: code}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
