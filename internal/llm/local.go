package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	db_models "mindfulchat-backend/internal/models"

	"github.com/ollama/ollama/api"
)

// LocalBackend talks to a locally hosted Ollama server.
type LocalBackend struct {
	client *api.Client
	model  string
}

// NewLocalBackend fails only when baseURL cannot be parsed.
func NewLocalBackend(baseURL, model string, httpClient *http.Client) (*LocalBackend, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	base, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("llm: parse local backend url %q: %w", baseURL, err)
	}
	return &LocalBackend{
		client: api.NewClient(base, httpClient),
		model:  model,
	}, nil
}

func (b *LocalBackend) Name() string { return BackendLocal }

// Complete flattens every message's content into one newline-joined prompt
// and passes the system instruction separately.
func (b *LocalBackend) Complete(ctx context.Context, messages []Message) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:  b.model,
		Prompt: FlattenPrompt(messages),
		System: systemInstruction(messages),
		Stream: &stream,
	}

	var sb strings.Builder
	err := b.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		sb.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		var statusErr api.StatusError
		if errors.As(err, &statusErr) {
			return "", &HTTPStatusError{Backend: BackendLocal, StatusCode: statusErr.StatusCode, Body: statusErr.ErrorMessage}
		}
		return "", fmt.Errorf("llm: local generate: %w", err)
	}

	reply := strings.TrimSpace(sb.String())
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}

// FlattenPrompt joins message contents with newlines, without role labels.
func FlattenPrompt(messages []Message) string {
	parts := make([]string, len(messages))
	for i, m := range messages {
		parts[i] = m.Content
	}
	return strings.Join(parts, "\n")
}

func systemInstruction(messages []Message) string {
	for _, m := range messages {
		if m.Role == db_models.RoleSystem {
			return m.Content
		}
	}
	return ""
}
