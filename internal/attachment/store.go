package attachment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("attachment not found")
	ErrInvalidInput = errors.New("invalid attachment input")
)

// Store keeps binary blobs in their own table, addressed by an opaque
// reference. Owning records hold the reference only, never the bytes.
type Store struct {
	db *sql.DB
}

type Attachment struct {
	ID          uuid.UUID `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Data        []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Put stores new bytes under a freshly minted reference. Existing
// references are never touched.
func (s *Store) Put(ctx context.Context, data []byte, contentType, filename string) (uuid.UUID, error) {
	if len(data) == 0 {
		return uuid.Nil, ErrInvalidInput
	}

	id := uuid.New()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attachments (id, filename, content_type, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
	`, id, normalizeFilename(filename), normalizeContentType(contentType), data)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert attachment: %w", err)
	}
	return id, nil
}

// Replace overwrites the bytes behind an existing reference in place. Only
// single-attachment owners (articles) use this; quiz questions always mint
// new references through Put.
func (s *Store) Replace(ctx context.Context, id uuid.UUID, data []byte, contentType, filename string) error {
	if len(data) == 0 {
		return ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE attachments
		SET filename = $2, content_type = $3, data = $4, updated_at = now()
		WHERE id = $1
	`, id, normalizeFilename(filename), normalizeContentType(contentType), data)
	if err != nil {
		return fmt.Errorf("update attachment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update attachment: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Attachment, error) {
	var out Attachment
	err := s.db.QueryRowContext(ctx, `
		SELECT id, filename, content_type, data, created_at, updated_at
		FROM attachments
		WHERE id = $1
	`, id).Scan(&out.ID, &out.Filename, &out.ContentType, &out.Data, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load attachment: %w", err)
	}
	return &out, nil
}

// Delete is best effort; owners do not cascade into it.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM attachments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete attachment: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func normalizeContentType(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "application/octet-stream"
	}
	return v
}

func normalizeFilename(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "upload"
	}
	return v
}
