package app

import (
	"database/sql"
	"net/http"
	"time"

	"belajarku/internal/app/observability"
	"belajarku/internal/article"
	"belajarku/internal/attachment"
	"belajarku/internal/chat"
	"belajarku/internal/favorite"
	"belajarku/internal/quiz"
	"belajarku/internal/summary"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires every domain handler onto the chi router. Paths keep the
// trailing-slash shape the clients already use.
func NewRouter(cfg Config, db *sql.DB) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	collector := observability.NewCollector(db)
	r.Use(collector.Middleware)

	attachments := attachment.NewStore(db)

	quizHandler := quiz.NewHandler(quiz.NewService(db, attachments))
	articleHandler := article.NewHandler(article.NewService(db, attachments))
	favoriteHandler := favorite.NewHandler(favorite.NewService(db))
	chatHandler := chat.NewHandler(chat.NewService(db), chat.NewHub())

	summarizer := summary.NewSummarizer(summary.SummarizerConfig{
		BaseURL:    cfg.SummarizerURL,
		Model:      cfg.SummarizerModel,
		APIToken:   cfg.SummarizerAPIToken,
		HTTPClient: &http.Client{Timeout: time.Duration(cfg.SummarizerTimeoutSecs) * time.Second},
	})
	summaryHandler := summary.NewHandler(summary.NewService(db, summarizer))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Get("/metrics", collector.MetricsHandler)

	r.Get("/quizzes/", quizHandler.List)
	r.Post("/quizzes/", quizHandler.Create)
	r.Get("/quizzes/{id}/", quizHandler.Get)
	r.Put("/quizzes/{id}/", quizHandler.Update)
	r.Delete("/quizzes/{id}/", quizHandler.Delete)
	r.Get("/quizzes/{id}/questions/{index}/image/", quizHandler.QuestionImage)

	r.Get("/artikels/", articleHandler.List)
	r.Post("/artikels/", articleHandler.Create)
	r.Get("/artikels/{id}/", articleHandler.Get)
	r.Put("/artikels/{id}/", articleHandler.Update)
	r.Delete("/artikels/{id}/", articleHandler.Delete)
	r.Get("/artikels/{id}/image/", articleHandler.Image)

	r.Post("/favorites/", favoriteHandler.Create)
	r.Get("/favorites/{userID}/", favoriteHandler.ListByUser)
	r.Delete("/favorites/delete/{id}/", favoriteHandler.Delete)

	r.Get("/chats/", chatHandler.List)
	r.Post("/chats/", chatHandler.Create)
	r.Get("/chats/{id}/", chatHandler.Get)
	r.Put("/chats/{id}/", chatHandler.Update)
	r.Delete("/chats/{id}/", chatHandler.Delete)
	r.Get("/ws/chat/{room}/", chatHandler.Room)

	r.Get("/summaries/", summaryHandler.List)
	r.Post("/summaries/", summaryHandler.Create)
	r.Get("/summaries/{id}/", summaryHandler.Get)
	r.Put("/summaries/{id}/", summaryHandler.Update)
	r.Delete("/summaries/{id}/", summaryHandler.Delete)

	return r
}
