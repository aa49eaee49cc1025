package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/tendant/mentorhub/pkg/domain"
)

// ConversationsRepository handles conversation persistence in a tenant
// database. It is constructed per request around the handle the tenant
// resolver attached to the context.
type ConversationsRepository struct {
	db *sql.DB
}

// NewConversationsRepository creates a new conversations repository.
func NewConversationsRepository(db *sql.DB) *ConversationsRepository {
	return &ConversationsRepository{db: db}
}

// List returns the most recent conversations, newest first.
func (r *ConversationsRepository) List(ctx context.Context, limit int) ([]*domain.Conversation, error) {
	query := `
		SELECT id, topic, created_at, updated_at
		FROM conversations
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []*domain.Conversation
	for rows.Next() {
		var c domain.Conversation
		if err := rows.Scan(&c.ID, &c.Topic, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		conversations = append(conversations, &c)
	}
	return conversations, rows.Err()
}

// Create creates a new conversation.
func (r *ConversationsRepository) Create(ctx context.Context, conversation *domain.Conversation) error {
	query := `
		INSERT INTO conversations (id, topic, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query,
		conversation.ID, conversation.Topic, conversation.CreatedAt, conversation.UpdatedAt,
	)
	return err
}

// GetByID retrieves a conversation by ID.
func (r *ConversationsRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT id, topic, created_at, updated_at
		FROM conversations
		WHERE id = $1
	`

	var c domain.Conversation
	err := r.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Topic, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListMessages returns all messages in a conversation, oldest first.
func (r *ConversationsRepository) ListMessages(ctx context.Context, conversationID uuid.UUID) ([]*domain.Message, error) {
	query := `
		SELECT id, conversation_id, sender, body, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Sender, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

// CreateMessage appends a message to a conversation.
func (r *ConversationsRepository) CreateMessage(ctx context.Context, message *domain.Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, sender, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		message.ID, message.ConversationID, message.Sender, message.Body, message.CreatedAt,
	)
	return err
}
