package summary

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
	ErrNotFound     = errors.New("summary not found")
	ErrInvalidInput = errors.New("invalid input")
)

type Summary struct {
	ID             uuid.UUID `json:"id"`
	OriginalText   string    `json:"original_text"`
	SummarizedText string    `json:"summarized_text"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Service struct {
	db         *sql.DB
	summarizer *Summarizer
}

func NewService(db *sql.DB, summarizer *Summarizer) *Service {
	return &Service{db: db, summarizer: summarizer}
}

// Create runs the text through the summarizer and persists both sides. A
// degraded summarizer still yields a stored record with the placeholder
// text; only storage failures abort the request.
func (s *Service) Create(ctx context.Context, originalText string) (*Summary, error) {
	originalText = strings.TrimSpace(originalText)
	if originalText == "" {
		return nil, fmt.Errorf("%w: original_text is required", ErrInvalidInput)
	}

	out := Summary{
		ID:             uuid.New(),
		OriginalText:   originalText,
		SummarizedText: s.summarizer.Summarize(ctx, originalText),
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO summaries (id, original_text, summarized_text, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING created_at, updated_at
	`, out.ID, out.OriginalText, out.SummarizedText).Scan(&out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert summary: %w", err)
	}
	return &out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Summary, error) {
	summaryID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, ErrNotFound
	}

	var out Summary
	err = s.db.QueryRowContext(ctx, `
		SELECT id, original_text, summarized_text, created_at, updated_at
		FROM summaries
		WHERE id = $1
	`, summaryID).Scan(&out.ID, &out.OriginalText, &out.SummarizedText, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load summary: %w", err)
	}
	return &out, nil
}

// UpdateText overwrites the summarized text manually, without consulting
// the summarizer.
func (s *Service) UpdateText(ctx context.Context, id, summarizedText string) (*Summary, error) {
	prior, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	summarizedText = strings.TrimSpace(summarizedText)
	if summarizedText == "" {
		return nil, fmt.Errorf("%w: summarized_text is required", ErrInvalidInput)
	}

	out := *prior
	out.SummarizedText = summarizedText
	err = s.db.QueryRowContext(ctx, `
		UPDATE summaries
		SET summarized_text = $2, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, out.ID, out.SummarizedText).Scan(&out.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("update summary: %w", err)
	}
	return &out, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	summaryID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return ErrNotFound
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM summaries WHERE id = $1`, summaryID)
	if err != nil {
		return fmt.Errorf("delete summary: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete summary: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) List(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, original_text, summarized_text, created_at, updated_at
		FROM summaries
	`)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	items := make([]Summary, 0)
	for rows.Next() {
		var item Summary
		if err := rows.Scan(&item.ID, &item.OriginalText, &item.SummarizedText, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	return items, nil
}
