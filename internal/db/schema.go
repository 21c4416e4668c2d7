package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Attachment bytes live in their own table; quiz questions embed only the
// attachment reference inside the jsonb document. Statements run one at a
// time because the pgx driver rejects multi-statement batches.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS attachments (
		id UUID PRIMARY KEY,
		filename TEXT NOT NULL,
		content_type TEXT NOT NULL,
		data BYTEA NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS quizzes (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		questions JSONB NOT NULL DEFAULT '[]'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS articles (
		id UUID PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		image_id UUID,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS favorites (
		id UUID PRIMARY KEY,
		user_id TEXT NOT NULL,
		article_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS chat_messages (
		id UUID PRIMARY KEY,
		sender TEXT NOT NULL,
		receiver TEXT NOT NULL,
		message TEXT NOT NULL,
		sent_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS summaries (
		id UUID PRIMARY KEY,
		original_text TEXT NOT NULL,
		summarized_text TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_favorites_user_id ON favorites (user_id)`,
}

// EnsureSchema creates the tables if they do not exist yet. Every statement
// is idempotent, so running it on each boot is safe.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
