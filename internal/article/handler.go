package article

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"belajarku/internal/app/apiresp"
	"belajarku/internal/attachment"

	"github.com/go-chi/chi/v5"
)

const maxUploadMemory = 32 << 20

type Handler struct {
	svc articleService
}

type articleService interface {
	Create(ctx context.Context, in CreateInput) (*Article, error)
	Update(ctx context.Context, id string, in UpdateInput) (*Article, error)
	Get(ctx context.Context, id string) (*Article, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Article, error)
	Image(ctx context.Context, id string) (*attachment.Attachment, error)
}

type articlePayload struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Image     *string   `json:"image"`
	CreatedAt time.Time `json:"created_at"`
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

	out := make([]articlePayload, 0, len(items))
	for i := range items {
		out = append(out, serializeArticle(&items[i]))
	}
	apiresp.WriteOK(w, r, http.StatusOK, out)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	title, content, upload, ok := h.parseForm(w, r)
	if !ok {
		return
	}

	item, err := h.svc.Create(r.Context(), CreateInput{Title: title, Content: content, Image: upload})
	if err != nil {
		h.writeArticleError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusCreated, serializeArticle(item))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeArticleError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, serializeArticle(item))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	title, content, upload, ok := h.parseForm(w, r)
	if !ok {
		return
	}

	item, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), UpdateInput{Title: title, Content: content, Image: upload})
	if err != nil {
		h.writeArticleError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, serializeArticle(item))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeArticleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Image(w http.ResponseWriter, r *http.Request) {
	att, err := h.svc.Image(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeArticleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", att.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(att.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(att.Data)
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) (title, content string, upload *Upload, ok bool) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid multipart form")
		return "", "", nil, false
	}

	title = r.FormValue("title")
	content = r.FormValue("content")

	headers := r.MultipartForm.File["image"]
	if len(headers) == 0 || headers[0] == nil {
		return title, content, nil, true
	}

	fh := headers[0]
	f, err := fh.Open()
	if err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "unreadable image upload")
		return "", "", nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "unreadable image upload")
		return "", "", nil, false
	}

	return title, content, &Upload{
		Data:        data,
		ContentType: fh.Header.Get("Content-Type"),
		Filename:    fh.Filename,
	}, true
}

func (h *Handler) writeArticleError(w http.ResponseWriter, r *http.Request, err error) {
	var fieldErrs FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		apiresp.WriteFieldErrors(w, r, "validation failed", fieldErrs)
	case errors.Is(err, ErrNotFound):
		apiresp.WriteError(w, r, http.StatusNotFound, "article not found")
	default:
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func serializeArticle(a *Article) articlePayload {
	out := articlePayload{
		ID:        a.ID.String(),
		Title:     a.Title,
		Content:   a.Content,
		CreatedAt: a.CreatedAt,
	}
	if a.ImageID != nil {
		u := "/artikels/" + a.ID.String() + "/image/"
		out.Image = &u
	}
	return out
}
