package conversations

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/mentorhub/internal/http/middleware"
	"github.com/tendant/mentorhub/internal/httputil"
	"github.com/tendant/mentorhub/pkg/domain"
	"github.com/tendant/mentorhub/pkg/repository"

	"github.com/go-chi/chi/v5"
)

const listLimit = 50

// Handler serves mentoring conversations from the request's tenant
// database.
type Handler struct {
	logger *slog.Logger
}

// NewHandler creates a conversations handler.
func NewHandler(logger *slog.Logger) *Handler {
	return &Handler{logger: logger}
}

type ConversationResponse struct {
	ID        uuid.UUID `json:"id"`
	Topic     string    `json:"topic"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateConversationRequest struct {
	Topic string `json:"topic"`
}

type MessageResponse struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	Sender         string    `json:"sender"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"`
}

type CreateMessageRequest struct {
	Sender string `json:"sender"`
	Body   string `json:"body"`
}

// decodeBody decodes a JSON request body, answering 400 for malformed JSON
// and 413 when the body exceeds the request size limit.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			httputil.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// tenantRepo builds a repository around the tenant handle the resolver
// attached to the request.
func tenantRepo(w http.ResponseWriter, r *http.Request) (*repository.ConversationsRepository, bool) {
	db, ok := middleware.GetTenantDB(r.Context())
	if !ok {
		httputil.Error(w, http.StatusInternalServerError, "no tenant database in request context")
		return nil, false
	}
	return repository.NewConversationsRepository(db), true
}

// List handles listing recent conversations.
// GET /v1/conversations
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	repo, ok := tenantRepo(w, r)
	if !ok {
		return
	}

	conversations, err := repo.List(r.Context(), listLimit)
	if err != nil {
		h.logger.Error("listing conversations failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]ConversationResponse, 0, len(conversations))
	for _, c := range conversations {
		resp = append(resp, ConversationResponse{ID: c.ID, Topic: c.Topic, CreatedAt: c.CreatedAt})
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// Create handles starting a new conversation.
// POST /v1/conversations
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateConversationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		httputil.Error(w, http.StatusBadRequest, "topic is required")
		return
	}

	repo, ok := tenantRepo(w, r)
	if !ok {
		return
	}

	now := time.Now()
	conversation := &domain.Conversation{
		ID:        uuid.New(),
		Topic:     req.Topic,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Create(r.Context(), conversation); err != nil {
		h.logger.Error("creating conversation failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httputil.JSON(w, http.StatusCreated, ConversationResponse{
		ID:        conversation.ID,
		Topic:     conversation.Topic,
		CreatedAt: conversation.CreatedAt,
	})
}

// ListMessages handles listing the messages of a conversation.
// GET /v1/conversations/{conversationID}/messages
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	conversationID, err := uuid.Parse(chi.URLParam(r, "conversationID"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid conversation id")
		return
	}

	repo, ok := tenantRepo(w, r)
	if !ok {
		return
	}

	if _, err := repo.GetByID(r.Context(), conversationID); err != nil {
		if errors.Is(err, domain.ErrConversationNotFound) {
			httputil.Error(w, http.StatusNotFound, "conversation not found")
			return
		}
		h.logger.Error("loading conversation failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	messages, err := repo.ListMessages(r.Context(), conversationID)
	if err != nil {
		h.logger.Error("listing messages failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]MessageResponse, 0, len(messages))
	for _, m := range messages {
		resp = append(resp, MessageResponse{
			ID:             m.ID,
			ConversationID: m.ConversationID,
			Sender:         m.Sender,
			Body:           m.Body,
			CreatedAt:      m.CreatedAt,
		})
	}
	httputil.JSON(w, http.StatusOK, resp)
}

// CreateMessage handles posting a message to a conversation.
// POST /v1/conversations/{conversationID}/messages
func (h *Handler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	conversationID, err := uuid.Parse(chi.URLParam(r, "conversationID"))
	if err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid conversation id")
		return
	}

	var req CreateMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Body) == "" {
		httputil.Error(w, http.StatusBadRequest, "body is required")
		return
	}
	if strings.TrimSpace(req.Sender) == "" {
		httputil.Error(w, http.StatusBadRequest, "sender is required")
		return
	}

	repo, ok := tenantRepo(w, r)
	if !ok {
		return
	}

	if _, err := repo.GetByID(r.Context(), conversationID); err != nil {
		if errors.Is(err, domain.ErrConversationNotFound) {
			httputil.Error(w, http.StatusNotFound, "conversation not found")
			return
		}
		h.logger.Error("loading conversation failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	message := &domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Sender:         req.Sender,
		Body:           req.Body,
		CreatedAt:      time.Now(),
	}
	if err := repo.CreateMessage(r.Context(), message); err != nil {
		h.logger.Error("creating message failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}

	httputil.JSON(w, http.StatusCreated, MessageResponse{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		Sender:         message.Sender,
		Body:           message.Body,
		CreatedAt:      message.CreatedAt,
	})
}
