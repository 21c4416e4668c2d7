package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"belajarku/internal/attachment"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("quiz not found")

// Choice is owned by its question; order is display order only, nothing
// enforces exactly one correct choice.
type Choice struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Question is embedded in its quiz document. Position in the slice is the
// question's identity across updates; there is no stored index field.
type Question struct {
	Text    string     `json:"text"`
	ImageID *uuid.UUID `json:"image_id,omitempty"`
	Choices []Choice   `json:"choices"`
}

// Quiz is the aggregate: one document embedding its questions and choices.
// Attachment bytes live in the attachment store, referenced by ImageID.
type Quiz struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
	CreatedAt   time.Time  `json:"created_at"`
}

type Service struct {
	db          *sql.DB
	attachments *attachment.Store
}

func NewService(db *sql.DB, attachments *attachment.Store) *Service {
	return &Service{db: db, attachments: attachments}
}

func (s *Service) validateTree(tree *FormTree) FieldErrors {
	errs := FieldErrors{}
	if tree.Title == "" {
		errs["title"] = "title is required"
	}
	if tree.Description == "" {
		errs["description"] = "description is required"
	}
	return errs
}

// CreateFromForm validates the reconstructed tree, persists any uploaded
// images, and writes the quiz document in a single insert.
func (s *Service) CreateFromForm(ctx context.Context, tree *FormTree) (*Quiz, error) {
	if fieldErrs := s.validateTree(tree); len(fieldErrs) > 0 {
		return nil, fieldErrs
	}

	questions, err := BuildQuestions(ctx, tree.Questions, nil, s.attachments)
	if err != nil {
		return nil, err
	}

	doc, err := marshalQuestions(questions)
	if err != nil {
		return nil, err
	}

	out := Quiz{
		ID:          uuid.New(),
		Title:       tree.Title,
		Description: tree.Description,
		Questions:   questions,
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO quizzes (id, title, description, questions, created_at)
		VALUES ($1, $2, $3, $4::jsonb, now())
		RETURNING created_at
	`, out.ID, out.Title, out.Description, doc).Scan(&out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert quiz: %w", err)
	}
	return &out, nil
}

// UpdateFromForm replaces title, description, and the question sequence
// wholesale. Prior questions are loaded first so the merge engine can carry
// untouched image references forward; the read and write are not serialized
// against concurrent updates, so the last writer wins.
func (s *Service) UpdateFromForm(ctx context.Context, id string, tree *FormTree) (*Quiz, error) {
	prior, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if fieldErrs := s.validateTree(tree); len(fieldErrs) > 0 {
		return nil, fieldErrs
	}

	questions, err := BuildQuestions(ctx, tree.Questions, prior.Questions, s.attachments)
	if err != nil {
		return nil, err
	}

	doc, err := marshalQuestions(questions)
	if err != nil {
		return nil, err
	}

	out := Quiz{
		ID:          prior.ID,
		Title:       tree.Title,
		Description: tree.Description,
		Questions:   questions,
		CreatedAt:   prior.CreatedAt,
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE quizzes
		SET title = $2, description = $3, questions = $4::jsonb
		WHERE id = $1
	`, out.ID, out.Title, out.Description, doc)
	if err != nil {
		return nil, fmt.Errorf("update quiz: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update quiz: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	return &out, nil
}

// Get loads one quiz document. A malformed id token is reported the same
// way as an absent one.
func (s *Service) Get(ctx context.Context, id string) (*Quiz, error) {
	quizID, err := parseID(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var out Quiz
	var doc []byte
	err = s.db.QueryRowContext(ctx, `
		SELECT id, title, description, questions, created_at
		FROM quizzes
		WHERE id = $1
	`, quizID).Scan(&out.ID, &out.Title, &out.Description, &doc, &out.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load quiz: %w", err)
	}

	if err := json.Unmarshal(doc, &out.Questions); err != nil {
		return nil, fmt.Errorf("decode quiz questions: %w", err)
	}
	return &out, nil
}

// Delete removes the document only; attachment bytes referenced by its
// questions stay behind in the attachment store.
func (s *Service) Delete(ctx context.Context, id string) error {
	quizID, err := parseID(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id = $1`, quizID)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) List(ctx context.Context) ([]Quiz, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, questions, created_at
		FROM quizzes
	`)
	if err != nil {
		return nil, fmt.Errorf("query quizzes: %w", err)
	}
	defer rows.Close()

	items := make([]Quiz, 0)
	for rows.Next() {
		var q Quiz
		var doc []byte
		if err := rows.Scan(&q.ID, &q.Title, &q.Description, &doc, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		if err := json.Unmarshal(doc, &q.Questions); err != nil {
			return nil, fmt.Errorf("decode quiz questions: %w", err)
		}
		items = append(items, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quizzes: %w", err)
	}
	return items, nil
}

// QuestionImage resolves a question by its current position and streams the
// bytes behind its image reference.
func (s *Service) QuestionImage(ctx context.Context, id string, index int) (*attachment.Attachment, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(q.Questions) {
		return nil, ErrNotFound
	}
	ref := q.Questions[index].ImageID
	if ref == nil {
		return nil, ErrNotFound
	}

	att, err := s.attachments.Get(ctx, *ref)
	if err != nil {
		if errors.Is(err, attachment.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return att, nil
}

func marshalQuestions(questions []Question) ([]byte, error) {
	if questions == nil {
		questions = []Question{}
	}
	doc, err := json.Marshal(questions)
	if err != nil {
		return nil, fmt.Errorf("encode quiz questions: %w", err)
	}
	return doc, nil
}

func parseID(raw string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(raw))
}
