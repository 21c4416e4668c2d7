package quiz

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// AttachmentPutter is the slice of the attachment store the merge engine
// needs: minting new references. It never replaces or deletes.
type AttachmentPutter interface {
	Put(ctx context.Context, data []byte, contentType, filename string) (uuid.UUID, error)
}

// FieldErrors maps a bracket-path form field to its validation message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// BuildQuestions turns the reconstructed form tree into persistable question
// records, reconciling images against the previously stored questions.
//
// Validation runs over the whole tree before any attachment is written, so a
// rejected request leaves the store untouched. Image policy per position:
// a new upload always wins and mints a fresh reference; otherwise a prior
// question at the same position keeps its reference as-is; otherwise the
// question has no image. Prior questions beyond the new length are dropped.
func BuildQuestions(ctx context.Context, form []FormQuestion, prior []Question, store AttachmentPutter) ([]Question, error) {
	fieldErrs := FieldErrors{}
	out := make([]Question, 0, len(form))

	for i, fq := range form {
		q := Question{Text: strings.TrimSpace(fq.Text)}
		if q.Text == "" {
			fieldErrs[fmt.Sprintf("questions[%d][text]", i)] = "text is required"
		}

		q.Choices = make([]Choice, 0, len(fq.Choices))
		for j, fc := range fq.Choices {
			c := Choice{Text: strings.TrimSpace(fc.Text)}
			if c.Text == "" {
				fieldErrs[fmt.Sprintf("questions[%d][choices][%d][text]", i, j)] = "text is required"
			}

			correct, err := strconv.ParseBool(strings.TrimSpace(fc.IsCorrect))
			if err != nil {
				fieldErrs[fmt.Sprintf("questions[%d][choices][%d][is_correct]", i, j)] = "must be a boolean"
			}
			c.IsCorrect = correct
			q.Choices = append(q.Choices, c)
		}

		out = append(out, q)
	}

	if len(fieldErrs) > 0 {
		return nil, fieldErrs
	}

	for i := range out {
		switch {
		case form[i].Image != nil:
			id, err := persistUpload(ctx, store, form[i].Image)
			if err != nil {
				return nil, err
			}
			out[i].ImageID = &id
		case i < len(prior) && prior[i].ImageID != nil:
			// Reference copy only; the stored bytes are not re-read.
			ref := *prior[i].ImageID
			out[i].ImageID = &ref
		}
	}

	return out, nil
}

func persistUpload(ctx context.Context, store AttachmentPutter, fh *multipart.FileHeader) (uuid.UUID, error) {
	f, err := fh.Open()
	if err != nil {
		return uuid.Nil, fmt.Errorf("open upload %q: %w", fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return uuid.Nil, fmt.Errorf("read upload %q: %w", fh.Filename, err)
	}

	id, err := store.Put(ctx, data, fh.Header.Get("Content-Type"), fh.Filename)
	if err != nil {
		return uuid.Nil, fmt.Errorf("store upload %q: %w", fh.Filename, err)
	}
	return id, nil
}
