package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	db_models "mindfulchat-backend/internal/models"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ChatCompletionClient abstracts the single SDK call the hosted backend makes.
type ChatCompletionClient interface {
	CreateCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// OpenAIClient implements ChatCompletionClient using the official SDK.
type OpenAIClient struct {
	client *openai.Client
}

// NewOpenAIClient builds an SDK client. Retries are disabled; a failed turn is terminal.
func NewOpenAIClient(apiKey, baseURL string, httpClient *http.Client) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &OpenAIClient{client: openai.NewClient(opts...)}
}

func (c *OpenAIClient) CreateCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}

// HostedBackend sends the structured message list to a chat-completion API.
type HostedBackend struct {
	client ChatCompletionClient
	model  string
}

func NewHostedBackend(client ChatCompletionClient, model string) *HostedBackend {
	if model == "" {
		model = string(openai.ChatModelGPT3_5Turbo)
	}
	return &HostedBackend{client: client, model: model}
}

func (b *HostedBackend) Name() string { return BackendHosted }

func (b *HostedBackend) Complete(ctx context.Context, messages []Message) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: openai.F(toOpenAIMessages(messages)),
		Model:    openai.F(b.model),
	}

	completion, err := b.client.CreateCompletion(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &HTTPStatusError{Backend: BackendHosted, StatusCode: apiErr.StatusCode, Body: apiErr.Message}
		}
		return "", fmt.Errorf("llm: hosted completion: %w", err)
	}
	if completion == nil || len(completion.Choices) == 0 {
		return "", fmt.Errorf("llm: hosted completion has no choices: %w", ErrEmptyReply)
	}
	reply := strings.TrimSpace(completion.Choices[0].Message.Content)
	if reply == "" {
		return "", ErrEmptyReply
	}
	return reply, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case db_models.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case db_models.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
