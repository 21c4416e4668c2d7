package summary

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"belajarku/internal/app/apiresp"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc summaryService
}

type summaryService interface {
	Create(ctx context.Context, originalText string) (*Summary, error)
	Get(ctx context.Context, id string) (*Summary, error)
	UpdateText(ctx context.Context, id, summarizedText string) (*Summary, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Summary, error)
}

type createSummaryRequest struct {
	OriginalText string `json:"original_text"`
}

type updateSummaryRequest struct {
	SummarizedText string `json:"summarized_text"`
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, items)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createSummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.svc.Create(r.Context(), req.OriginalText)
	if err != nil {
		h.writeSummaryError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusCreated, item)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeSummaryError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, item)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateSummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.svc.UpdateText(r.Context(), chi.URLParam(r, "id"), req.SummarizedText)
	if err != nil {
		h.writeSummaryError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, item)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeSummaryError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeSummaryError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		apiresp.WriteError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		apiresp.WriteError(w, r, http.StatusNotFound, "summary not found")
	default:
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
	}
}
