package favorite

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
	ErrNotFound     = errors.New("favorite not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Favorite links a user to an article they bookmarked. Both sides are
// opaque identifiers owned elsewhere.
type Favorite struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	ArticleID string    `json:"article_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Create(ctx context.Context, userID, articleID string) (*Favorite, error) {
	userID = strings.TrimSpace(userID)
	articleID = strings.TrimSpace(articleID)
	if userID == "" || articleID == "" {
		return nil, fmt.Errorf("%w: user_id and article_id are required", ErrInvalidInput)
	}

	out := Favorite{ID: uuid.New(), UserID: userID, ArticleID: articleID}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO favorites (id, user_id, article_id, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING created_at
	`, out.ID, out.UserID, out.ArticleID).Scan(&out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert favorite: %w", err)
	}
	return &out, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]Favorite, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, article_id, created_at
		FROM favorites
		WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()

	items := make([]Favorite, 0)
	for rows.Next() {
		var f Favorite
		if err := rows.Scan(&f.ID, &f.UserID, &f.ArticleID, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		items = append(items, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate favorites: %w", err)
	}
	return items, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	favoriteID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return ErrNotFound
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM favorites WHERE id = $1`, favoriteID)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
