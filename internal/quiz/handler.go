package quiz

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"belajarku/internal/app/apiresp"
	"belajarku/internal/attachment"

	"github.com/go-chi/chi/v5"
)

const maxUploadMemory = 32 << 20

type Handler struct {
	svc quizService
}

type quizService interface {
	CreateFromForm(ctx context.Context, tree *FormTree) (*Quiz, error)
	UpdateFromForm(ctx context.Context, id string, tree *FormTree) (*Quiz, error)
	Get(ctx context.Context, id string) (*Quiz, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Quiz, error)
	QuestionImage(ctx context.Context, id string, index int) (*attachment.Attachment, error)
}

type choicePayload struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type questionPayload struct {
	Text    string          `json:"text"`
	Image   *string         `json:"image"`
	Choices []choicePayload `json:"choices"`
}

type quizPayload struct {
	ID          string            `json:"id"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Questions   []questionPayload `json:"questions"`
	CreatedAt   time.Time         `json:"created_at"`
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

	out := make([]quizPayload, 0, len(items))
	for i := range items {
		out = append(out, serializeQuiz(&items[i]))
	}
	apiresp.WriteOK(w, r, http.StatusOK, out)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	tree, ok := h.parseForm(w, r)
	if !ok {
		return
	}

	item, err := h.svc.CreateFromForm(r.Context(), tree)
	if err != nil {
		h.writeQuizError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusCreated, serializeQuiz(item))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeQuizError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, serializeQuiz(item))
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	tree, ok := h.parseForm(w, r)
	if !ok {
		return
	}

	item, err := h.svc.UpdateFromForm(r.Context(), chi.URLParam(r, "id"), tree)
	if err != nil {
		h.writeQuizError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, serializeQuiz(item))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeQuizError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// QuestionImage serves the stored image bytes for the question at the given
// position, with the attachment's original content type.
func (h *Handler) QuestionImage(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		apiresp.WriteError(w, r, http.StatusNotFound, "question image not found")
		return
	}

	att, err := h.svc.QuestionImage(r.Context(), chi.URLParam(r, "id"), index)
	if err != nil {
		h.writeQuizError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", att.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(att.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(att.Data)
}

func (h *Handler) parseForm(w http.ResponseWriter, r *http.Request) (*FormTree, bool) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid multipart form")
		return nil, false
	}
	return ParseQuizForm(r.MultipartForm.Value, r.MultipartForm.File), true
}

func (h *Handler) writeQuizError(w http.ResponseWriter, r *http.Request, err error) {
	var fieldErrs FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		apiresp.WriteFieldErrors(w, r, "validation failed", fieldErrs)
	case errors.Is(err, ErrNotFound):
		apiresp.WriteError(w, r, http.StatusNotFound, "quiz not found")
	default:
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
	}
}

func serializeQuiz(q *Quiz) quizPayload {
	out := quizPayload{
		ID:          q.ID.String(),
		Title:       q.Title,
		Description: q.Description,
		Questions:   make([]questionPayload, 0, len(q.Questions)),
		CreatedAt:   q.CreatedAt,
	}

	for idx, question := range q.Questions {
		qp := questionPayload{
			Text:    question.Text,
			Choices: make([]choicePayload, 0, len(question.Choices)),
		}
		if question.ImageID != nil {
			// The locator is positional: it must match the lookup the
			// image endpoint does at serve time.
			u := fmt.Sprintf("/quizzes/%s/questions/%d/image/", q.ID, idx)
			qp.Image = &u
		}
		for _, c := range question.Choices {
			qp.Choices = append(qp.Choices, choicePayload{Text: c.Text, IsCorrect: c.IsCorrect})
		}
		out.Questions = append(out.Questions, qp)
	}
	return out
}
