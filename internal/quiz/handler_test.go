package quiz

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"belajarku/internal/attachment"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type mockQuizService struct {
	createFn        func(ctx context.Context, tree *FormTree) (*Quiz, error)
	updateFn        func(ctx context.Context, id string, tree *FormTree) (*Quiz, error)
	getFn           func(ctx context.Context, id string) (*Quiz, error)
	deleteFn        func(ctx context.Context, id string) error
	listFn          func(ctx context.Context) ([]Quiz, error)
	questionImageFn func(ctx context.Context, id string, index int) (*attachment.Attachment, error)
}

func (m *mockQuizService) CreateFromForm(ctx context.Context, tree *FormTree) (*Quiz, error) {
	if m.createFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.createFn(ctx, tree)
}

func (m *mockQuizService) UpdateFromForm(ctx context.Context, id string, tree *FormTree) (*Quiz, error) {
	if m.updateFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.updateFn(ctx, id, tree)
}

func (m *mockQuizService) Get(ctx context.Context, id string) (*Quiz, error) {
	if m.getFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.getFn(ctx, id)
}

func (m *mockQuizService) Delete(ctx context.Context, id string) error {
	if m.deleteFn == nil {
		return errors.New("not implemented")
	}
	return m.deleteFn(ctx, id)
}

func (m *mockQuizService) List(ctx context.Context) ([]Quiz, error) {
	if m.listFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.listFn(ctx)
}

func (m *mockQuizService) QuestionImage(ctx context.Context, id string, index int) (*attachment.Attachment, error) {
	if m.questionImageFn == nil {
		return nil, errors.New("not implemented")
	}
	return m.questionImageFn(ctx, id, index)
}

func newQuizRouter(svc quizService) http.Handler {
	h := &Handler{svc: svc}
	r := chi.NewRouter()
	r.Get("/quizzes/", h.List)
	r.Post("/quizzes/", h.Create)
	r.Get("/quizzes/{id}/", h.Get)
	r.Put("/quizzes/{id}/", h.Update)
	r.Delete("/quizzes/{id}/", h.Delete)
	r.Get("/quizzes/{id}/questions/{index}/image/", h.QuestionImage)
	return r
}

func newMultipartRequest(t *testing.T, method, target string, fields map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, val := range fields {
		if err := w.WriteField(key, val); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

type envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var out envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	return out
}

func TestCreateQuizScenario(t *testing.T) {
	svc := &mockQuizService{
		createFn: func(ctx context.Context, tree *FormTree) (*Quiz, error) {
			questions, err := BuildQuestions(ctx, tree.Questions, nil, &fakePutter{})
			if err != nil {
				return nil, err
			}
			return &Quiz{
				ID:          uuid.New(),
				Title:       tree.Title,
				Description: tree.Description,
				Questions:   questions,
				CreatedAt:   time.Now(),
			}, nil
		},
	}

	req := newMultipartRequest(t, http.MethodPost, "/quizzes/", map[string]string{
		"title":                                "Math",
		"description":                          "Basics",
		"questions[0][text]":                   "2+2?",
		"questions[0][choices][0][text]":       "4",
		"questions[0][choices][0][is_correct]": "true",
		"questions[0][choices][1][text]":       "5",
		"questions[0][choices][1][is_correct]": "false",
	})
	rec := httptest.NewRecorder()
	newQuizRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}

	env := decodeEnvelope(t, rec)
	var got quizPayload
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode quiz payload: %v", err)
	}
	if got.Title != "Math" || got.Description != "Basics" {
		t.Fatalf("title/description mismatch: %+v", got)
	}
	if len(got.Questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(got.Questions))
	}
	q := got.Questions[0]
	if q.Text != "2+2?" || len(q.Choices) != 2 {
		t.Fatalf("question shape wrong: %+v", q)
	}
	if !q.Choices[0].IsCorrect || q.Choices[1].IsCorrect {
		t.Fatalf("is_correct values wrong: %+v", q.Choices)
	}
	if q.Image != nil {
		t.Fatalf("no image was uploaded, got %v", *q.Image)
	}
}

func TestCreateQuizValidationErrors(t *testing.T) {
	svc := &mockQuizService{
		createFn: func(ctx context.Context, tree *FormTree) (*Quiz, error) {
			return nil, FieldErrors{"questions[0][choices][0][is_correct]": "must be a boolean"}
		},
	}

	req := newMultipartRequest(t, http.MethodPost, "/quizzes/", map[string]string{
		"title":                                "Math",
		"description":                          "Basics",
		"questions[0][text]":                   "2+2?",
		"questions[0][choices][0][text]":       "4",
		"questions[0][choices][0][is_correct]": "maybe",
	})
	rec := httptest.NewRecorder()
	newQuizRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Fields["questions[0][choices][0][is_correct]"] == "" {
		t.Fatalf("expected per-field error detail, got %s", rec.Body.String())
	}
}

func TestGetQuizMalformedIDIsNotFound(t *testing.T) {
	svc := &mockQuizService{
		getFn: func(ctx context.Context, id string) (*Quiz, error) {
			return nil, ErrNotFound
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/quizzes/not-a-valid-id/", nil)
	rec := httptest.NewRecorder()
	newQuizRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUpdateQuizPassesTreeThrough(t *testing.T) {
	var gotID string
	var gotTree *FormTree
	svc := &mockQuizService{
		updateFn: func(ctx context.Context, id string, tree *FormTree) (*Quiz, error) {
			gotID = id
			gotTree = tree
			return &Quiz{ID: uuid.MustParse("11111111-1111-1111-1111-111111111111"), Title: tree.Title, Description: tree.Description}, nil
		},
	}

	req := newMultipartRequest(t, http.MethodPut, "/quizzes/11111111-1111-1111-1111-111111111111/", map[string]string{
		"title":              "New title",
		"description":        "New description",
		"questions[0][text]": "q",
	})
	rec := httptest.NewRecorder()
	newQuizRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if gotID != "11111111-1111-1111-1111-111111111111" {
		t.Fatalf("id not passed through: %q", gotID)
	}
	if gotTree == nil || gotTree.Title != "New title" || len(gotTree.Questions) != 1 {
		t.Fatalf("tree not reconstructed: %+v", gotTree)
	}
}

func TestQuestionImageServesBytes(t *testing.T) {
	svc := &mockQuizService{
		questionImageFn: func(ctx context.Context, id string, index int) (*attachment.Attachment, error) {
			if index != 2 {
				return nil, ErrNotFound
			}
			return &attachment.Attachment{ContentType: "image/png", Data: []byte("png-bytes")}, nil
		},
	}
	router := newQuizRouter(svc)

	quizID := uuid.New().String()
	req := httptest.NewRequest(http.MethodGet, "/quizzes/"+quizID+"/questions/2/image/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %q", ct)
	}
	if rec.Body.String() != "png-bytes" {
		t.Fatalf("body = %q", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/quizzes/"+quizID+"/questions/9/image/", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for out-of-range index, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/quizzes/"+quizID+"/questions/abc/image/", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for non-numeric index, got %d", rec.Code)
	}
}

func TestDeleteQuiz(t *testing.T) {
	svc := &mockQuizService{
		deleteFn: func(ctx context.Context, id string) error { return nil },
	}

	req := httptest.NewRequest(http.MethodDelete, "/quizzes/"+uuid.New().String()+"/", nil)
	rec := httptest.NewRecorder()
	newQuizRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	svc.deleteFn = func(ctx context.Context, id string) error { return ErrNotFound }
	req = httptest.NewRequest(http.MethodDelete, "/quizzes/"+uuid.New().String()+"/", nil)
	rec = httptest.NewRecorder()
	newQuizRouter(svc).ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
