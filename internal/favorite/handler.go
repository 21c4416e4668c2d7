package favorite

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"belajarku/internal/app/apiresp"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	svc favoriteService
}

type favoriteService interface {
	Create(ctx context.Context, userID, articleID string) (*Favorite, error)
	ListByUser(ctx context.Context, userID string) ([]Favorite, error)
	Delete(ctx context.Context, id string) error
}

type createFavoriteRequest struct {
	UserID    string `json:"user_id"`
	ArticleID string `json:"article_id"`
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createFavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.svc.Create(r.Context(), req.UserID, req.ArticleID)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			apiresp.WriteError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	apiresp.WriteOK(w, r, http.StatusCreated, item)
}

func (h *Handler) ListByUser(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListByUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			apiresp.WriteError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, items)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			apiresp.WriteError(w, r, http.StatusNotFound, "favorite not found")
			return
		}
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
