package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Latronboy/smart-grocery-expense-tracker/internal/middleware"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/model"
	"github.com/Latronboy/smart-grocery-expense-tracker/internal/service"
)

// RecordHandler serves one collection kind. The owning user is resolved
// per request, so routes must run behind the Auth middleware.
type RecordHandler struct {
	svc    *service.RecordService
	kind   model.CollectionKind
	logger *slog.Logger
}

// NewRecordHandler creates a new RecordHandler for kind.
func NewRecordHandler(svc *service.RecordService, kind model.CollectionKind, logger *slog.Logger) *RecordHandler {
	return &RecordHandler{
		svc:    svc,
		kind:   kind,
		logger: logger,
	}
}

// Routes mounts List, Create, Update and Delete on a sub-router.
func (h *RecordHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

// List handles GET /{kind}.
func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.List(r.Context(), middleware.ResolveUserID(r), h.kind)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// Create handles POST /{kind}. Any id or createdAt in the body is ignored.
func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodeObject(w, r)
	if !ok {
		return
	}

	record, err := h.svc.Create(r.Context(), middleware.ResolveUserID(r), h.kind, payload)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.logger.Debug("record_created",
		slog.String("collection", string(h.kind)),
		slog.String("record_id", record.ID),
	)
	writeJSON(w, http.StatusCreated, record)
}

// Update handles PUT /{kind}/{id}: a shallow merge of the body into the
// stored record.
func (h *RecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	payload, ok := decodeObject(w, r)
	if !ok {
		return
	}

	record, err := h.svc.Update(r.Context(), middleware.ResolveUserID(r), h.kind, id, payload)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// Delete handles DELETE /{kind}/{id}.
func (h *RecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), middleware.ResolveUserID(r), h.kind, id); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RecordHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	handleServiceError(w, r, h.logger, err, h.kind.Singular()+" not found")
}

func decodeObject(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	payload, err := model.DecodeObject(r.Body)
	if err != nil {
		writeDecodeError(w, err)
		return nil, false
	}
	return payload, true
}

func isEOF(err error) bool {
	return errors.Is(err, io.EOF)
}
