package article

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"belajarku/internal/attachment"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("article not found")

type Article struct {
	ID        uuid.UUID
	Title     string
	Content   string
	ImageID   *uuid.UUID
	CreatedAt time.Time
}

type CreateInput struct {
	Title   string
	Content string
	Image   *Upload
}

type UpdateInput struct {
	Title   string
	Content string
	Image   *Upload
}

// Upload is a raw image payload read from the request.
type Upload struct {
	Data        []byte
	ContentType string
	Filename    string
}

type Service struct {
	db          *sql.DB
	attachments *attachment.Store
}

func NewService(db *sql.DB, attachments *attachment.Store) *Service {
	return &Service{db: db, attachments: attachments}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Article, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if fieldErrs := validate(in.Title, in.Content); len(fieldErrs) > 0 {
		return nil, fieldErrs
	}

	out := Article{ID: uuid.New(), Title: in.Title, Content: in.Content}
	if in.Image != nil {
		ref, err := s.attachments.Put(ctx, in.Image.Data, in.Image.ContentType, in.Image.Filename)
		if err != nil {
			return nil, err
		}
		out.ImageID = &ref
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO articles (id, title, content, image_id, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING created_at
	`, out.ID, out.Title, out.Content, out.ImageID).Scan(&out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert article: %w", err)
	}
	return &out, nil
}

// Update replaces title and content. A new image overwrites the existing
// attachment in place when the article already holds a reference, so the
// reference itself stays stable; articles only ever own one attachment.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Article, error) {
	prior, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if fieldErrs := validate(in.Title, in.Content); len(fieldErrs) > 0 {
		return nil, fieldErrs
	}

	out := Article{
		ID:        prior.ID,
		Title:     in.Title,
		Content:   in.Content,
		ImageID:   prior.ImageID,
		CreatedAt: prior.CreatedAt,
	}
	if in.Image != nil {
		if prior.ImageID != nil {
			if err := s.attachments.Replace(ctx, *prior.ImageID, in.Image.Data, in.Image.ContentType, in.Image.Filename); err != nil {
				return nil, err
			}
		} else {
			ref, err := s.attachments.Put(ctx, in.Image.Data, in.Image.ContentType, in.Image.Filename)
			if err != nil {
				return nil, err
			}
			out.ImageID = &ref
		}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE articles
		SET title = $2, content = $3, image_id = $4
		WHERE id = $1
	`, out.ID, out.Title, out.Content, out.ImageID)
	if err != nil {
		return nil, fmt.Errorf("update article: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update article: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	return &out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Article, error) {
	articleID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, ErrNotFound
	}

	var out Article
	err = s.db.QueryRowContext(ctx, `
		SELECT id, title, content, image_id, created_at
		FROM articles
		WHERE id = $1
	`, articleID).Scan(&out.ID, &out.Title, &out.Content, &out.ImageID, &out.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load article: %w", err)
	}
	return &out, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	articleID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return ErrNotFound
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, articleID)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) List(ctx context.Context) ([]Article, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content, image_id, created_at
		FROM articles
	`)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	items := make([]Article, 0)
	for rows.Next() {
		var a Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.ImageID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}
	return items, nil
}

// Image streams the article's attachment.
func (s *Service) Image(ctx context.Context, id string) (*attachment.Attachment, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.ImageID == nil {
		return nil, ErrNotFound
	}

	att, err := s.attachments.Get(ctx, *a.ImageID)
	if err != nil {
		if errors.Is(err, attachment.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return att, nil
}

// FieldErrors mirrors the quiz package's per-field validation reporting.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for k, v := range e {
		parts = append(parts, k+": "+v)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func validate(title, content string) FieldErrors {
	errs := FieldErrors{}
	if title == "" {
		errs["title"] = "title is required"
	}
	if content == "" {
		errs["content"] = "content is required"
	}
	return errs
}
