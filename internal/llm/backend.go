// Package llm holds the interchangeable completion backends a conversation
// turn can be dispatched to.
package llm

import (
	"context"
	"errors"
	"fmt"

	db_models "mindfulchat-backend/internal/models"
)

const (
	BackendHosted = "hosted"
	BackendLocal  = "local"
)

// ErrEmptyReply is returned when a backend answers without any text.
var ErrEmptyReply = errors.New("llm: backend returned an empty reply")

// Message is the provider-agnostic chat message shape.
type Message struct {
	Role    db_models.Role `json:"role"`
	Content string         `json:"content"`
}

// Backend turns an ordered message list into a single reply.
type Backend interface {
	Name() string
	Complete(ctx context.Context, messages []Message) (string, error)
}

// HTTPStatusError captures non-2xx upstream responses.
type HTTPStatusError struct {
	Backend    string
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("llm: %s backend returned status %d: %s", e.Backend, e.StatusCode, e.Body)
}

func (e *HTTPStatusError) HTTPStatusCode() int {
	return e.StatusCode
}
