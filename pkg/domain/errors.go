package domain

import "errors"

// Tenant routing errors
var (
	ErrTenantNotFound = errors.New("tenant not found")
)

// Conversation errors
var (
	ErrConversationNotFound = errors.New("conversation not found")
)
