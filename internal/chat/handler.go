package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"belajarku/internal/app/apiresp"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type Handler struct {
	svc chatService
	hub *Hub

	upgrader websocket.Upgrader
}

type chatService interface {
	Save(ctx context.Context, in SaveInput) (*Message, error)
	Get(ctx context.Context, id string) (*Message, error)
	Update(ctx context.Context, id string, in SaveInput) (*Message, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Message, error)
}

type messageRequest struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Message  string `json:"message"`
}

type roomEvent struct {
	Message   string    `json:"message"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Timestamp time.Time `json:"timestamp"`
}

func NewHandler(svc *Service, hub *Hub) *Handler {
	return &Handler{
		svc: svc,
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List(r.Context())
	if err != nil {
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, items)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.svc.Save(r.Context(), SaveInput(req))
	if err != nil {
		h.writeChatError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusCreated, item)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeChatError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, item)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiresp.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), SaveInput(req))
	if err != nil {
		h.writeChatError(w, r, err)
		return
	}
	apiresp.WriteOK(w, r, http.StatusOK, item)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeChatError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Room upgrades the connection and relays messages within one room: each
// inbound frame is persisted, then broadcast to every room member with the
// stored timestamp.
func (h *Handler) Room(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "room")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	h.hub.Join(room, conn)
	defer func() {
		h.hub.Leave(room, conn)
		_ = conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var req messageRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			continue
		}

		saved, err := h.svc.Save(r.Context(), SaveInput(req))
		if err != nil {
			log.Printf("chat room %q save failed: %v", room, err)
			continue
		}

		payload, err := json.Marshal(roomEvent{
			Message:   saved.Message,
			Sender:    saved.Sender,
			Receiver:  saved.Receiver,
			Timestamp: saved.SentAt,
		})
		if err != nil {
			continue
		}
		h.hub.Broadcast(room, payload)
	}
}

func (h *Handler) writeChatError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		apiresp.WriteError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		apiresp.WriteError(w, r, http.StatusNotFound, "chat message not found")
	default:
		apiresp.WriteError(w, r, http.StatusInternalServerError, "internal error")
	}
}
