package chat

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
	ErrNotFound     = errors.New("chat message not found")
	ErrInvalidInput = errors.New("invalid input")
)

type Message struct {
	ID       uuid.UUID `json:"id"`
	Sender   string    `json:"sender"`
	Receiver string    `json:"receiver"`
	Message  string    `json:"message"`
	SentAt   time.Time `json:"timestamp"`
}

type SaveInput struct {
	Sender   string
	Receiver string
	Message  string
}

type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Save(ctx context.Context, in SaveInput) (*Message, error) {
	in.Sender = strings.TrimSpace(in.Sender)
	in.Receiver = strings.TrimSpace(in.Receiver)
	in.Message = strings.TrimSpace(in.Message)
	if in.Sender == "" || in.Receiver == "" || in.Message == "" {
		return nil, fmt.Errorf("%w: sender, receiver, and message are required", ErrInvalidInput)
	}

	out := Message{ID: uuid.New(), Sender: in.Sender, Receiver: in.Receiver, Message: in.Message}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO chat_messages (id, sender, receiver, message, sent_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING sent_at
	`, out.ID, out.Sender, out.Receiver, out.Message).Scan(&out.SentAt)
	if err != nil {
		return nil, fmt.Errorf("insert chat message: %w", err)
	}
	return &out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Message, error) {
	messageID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, ErrNotFound
	}

	var out Message
	err = s.db.QueryRowContext(ctx, `
		SELECT id, sender, receiver, message, sent_at
		FROM chat_messages
		WHERE id = $1
	`, messageID).Scan(&out.ID, &out.Sender, &out.Receiver, &out.Message, &out.SentAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load chat message: %w", err)
	}
	return &out, nil
}

func (s *Service) Update(ctx context.Context, id string, in SaveInput) (*Message, error) {
	prior, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	in.Sender = strings.TrimSpace(in.Sender)
	in.Receiver = strings.TrimSpace(in.Receiver)
	in.Message = strings.TrimSpace(in.Message)
	if in.Sender == "" || in.Receiver == "" || in.Message == "" {
		return nil, fmt.Errorf("%w: sender, receiver, and message are required", ErrInvalidInput)
	}

	out := Message{ID: prior.ID, Sender: in.Sender, Receiver: in.Receiver, Message: in.Message, SentAt: prior.SentAt}
	if _, err := s.db.ExecContext(ctx, `
		UPDATE chat_messages
		SET sender = $2, receiver = $3, message = $4
		WHERE id = $1
	`, out.ID, out.Sender, out.Receiver, out.Message); err != nil {
		return nil, fmt.Errorf("update chat message: %w", err)
	}
	return &out, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	messageID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return ErrNotFound
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE id = $1`, messageID)
	if err != nil {
		return fmt.Errorf("delete chat message: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete chat message: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) List(ctx context.Context) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, sender, receiver, message, sent_at
		FROM chat_messages
	`)
	if err != nil {
		return nil, fmt.Errorf("query chat messages: %w", err)
	}
	defer rows.Close()

	items := make([]Message, 0)
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Sender, &m.Receiver, &m.Message, &m.SentAt); err != nil {
			return nil, fmt.Errorf("scan chat message: %w", err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat messages: %w", err)
	}
	return items, nil
}
