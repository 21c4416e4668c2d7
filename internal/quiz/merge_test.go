package quiz

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/google/uuid"
)

type fakePutter struct {
	puts    int
	lastRef uuid.UUID
	fail    error

	data        [][]byte
	contentType []string
}

func (f *fakePutter) Put(ctx context.Context, data []byte, contentType, filename string) (uuid.UUID, error) {
	if f.fail != nil {
		return uuid.Nil, f.fail
	}
	f.puts++
	f.lastRef = uuid.New()
	f.data = append(f.data, data)
	f.contentType = append(f.contentType, contentType)
	return f.lastRef, nil
}

func TestBuildQuestionsCoercesChoices(t *testing.T) {
	form := []FormQuestion{
		{
			Text: "2+2?",
			Choices: []FormChoice{
				{Text: "4", IsCorrect: "true"},
				{Text: "5", IsCorrect: "false"},
			},
		},
	}

	store := &fakePutter{}
	out, err := BuildQuestions(context.Background(), form, nil, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || len(out[0].Choices) != 2 {
		t.Fatalf("unexpected shape: %+v", out)
	}
	if !out[0].Choices[0].IsCorrect || out[0].Choices[1].IsCorrect {
		t.Fatalf("is_correct values wrong: %+v", out[0].Choices)
	}
	if store.puts != 0 {
		t.Fatalf("no uploads expected, got %d puts", store.puts)
	}
}

func TestBuildQuestionsValidationErrors(t *testing.T) {
	form := []FormQuestion{
		{
			Text: "",
			Choices: []FormChoice{
				{Text: "", IsCorrect: "yes-ish"},
			},
		},
	}

	store := &fakePutter{}
	_, err := BuildQuestions(context.Background(), form, nil, store)
	var fieldErrs FieldErrors
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}

	for _, key := range []string{
		"questions[0][text]",
		"questions[0][choices][0][text]",
		"questions[0][choices][0][is_correct]",
	} {
		if _, ok := fieldErrs[key]; !ok {
			t.Fatalf("missing field error for %s in %v", key, fieldErrs)
		}
	}
	if store.puts != 0 {
		t.Fatalf("validation failure must not write attachments, got %d puts", store.puts)
	}
}

func TestBuildQuestionsValidationRunsBeforeUploads(t *testing.T) {
	form := buildMultipartForm(t,
		map[string]string{
			"questions[0][text]":                   "q",
			"questions[0][choices][0][text]":       "a",
			"questions[0][choices][0][is_correct]": "not-a-bool",
		},
		map[string][]byte{"questions[0][image]": []byte("img")},
	)
	tree := ParseQuizForm(url.Values(form.Value), form.File)

	store := &fakePutter{}
	_, err := BuildQuestions(context.Background(), tree.Questions, nil, store)
	var fieldErrs FieldErrors
	if !errors.As(err, &fieldErrs) {
		t.Fatalf("expected FieldErrors, got %v", err)
	}
	if store.puts != 0 {
		t.Fatalf("upload persisted despite validation failure")
	}
}

func TestBuildQuestionsCarriesPriorImageForward(t *testing.T) {
	priorRef := uuid.New()
	prior := []Question{{Text: "old", ImageID: &priorRef}}

	form := []FormQuestion{{Text: "updated"}}

	store := &fakePutter{}
	out, err := BuildQuestions(context.Background(), form, prior, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0].ImageID == nil || *out[0].ImageID != priorRef {
		t.Fatalf("prior image reference not carried forward: %v", out[0].ImageID)
	}
	if store.puts != 0 {
		t.Fatalf("carry-forward must be a pure reference copy, got %d puts", store.puts)
	}
}

func TestBuildQuestionsNewUploadReplacesPriorImage(t *testing.T) {
	priorRef := uuid.New()
	prior := []Question{{Text: "old", ImageID: &priorRef}}

	form := buildMultipartForm(t,
		map[string]string{"questions[0][text]": "updated"},
		map[string][]byte{"questions[0][image]": []byte("new-bytes")},
	)
	tree := ParseQuizForm(url.Values(form.Value), form.File)

	store := &fakePutter{}
	out, err := BuildQuestions(context.Background(), tree.Questions, prior, store)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0].ImageID == nil || *out[0].ImageID == priorRef {
		t.Fatalf("new upload must mint a fresh reference, got %v", out[0].ImageID)
	}
	if store.puts != 1 {
		t.Fatalf("expected exactly one put, got %d", store.puts)
	}
	if string(store.data[0]) != "new-bytes" {
		t.Fatalf("stored bytes mismatch: %q", store.data[0])
	}
}

func TestBuildQuestionsDropsTrailingPriorQuestions(t *testing.T) {
	ref := uuid.New()
	prior := []Question{
		{Text: "keep"},
		{Text: "dropped", ImageID: &ref},
	}

	form := []FormQuestion{{Text: "only one now"}}

	out, err := BuildQuestions(context.Background(), form, prior, &fakePutter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected prior tail to be dropped, got %d questions", len(out))
	}
	if out[0].ImageID != nil {
		t.Fatalf("question 0 had no prior image at that position, got %v", out[0].ImageID)
	}
}

func TestBuildQuestionsPropagatesStoreFailure(t *testing.T) {
	form := buildMultipartForm(t,
		map[string]string{"questions[0][text]": "q"},
		map[string][]byte{"questions[0][image]": []byte("img")},
	)
	tree := ParseQuizForm(url.Values(form.Value), form.File)

	storeErr := errors.New("backend down")
	_, err := BuildQuestions(context.Background(), tree.Questions, nil, &fakePutter{fail: storeErr})
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store failure to propagate, got %v", err)
	}
}
