package gamemaster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const DefaultTextModel = "gemini-2.5-flash"

var ErrEmptyResponse = errors.New("empty response from model")

// TextGenerator produces the Game Master's free text reply to a prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// TextClient talks to Gemini through the generative-ai SDK.
type TextClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewTextClient connects to Gemini with apiKey. The caller owns the client and must Close it.
func NewTextClient(ctx context.Context, apiKey string, modelName string) (*TextClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key must be set")
	}
	if modelName == "" {
		modelName = DefaultTextModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating generative client: %w", err)
	}

	return &TextClient{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

func (c *TextClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Start blocks until ctx is done and then releases the underlying connection.
func (c *TextClient) Start(ctx context.Context) error {
	<-ctx.Done()
	slog.InfoContext(ctx, "closing game master client")
	return c.Close()
}

func (c *TextClient) Close() error {
	return c.client.Close()
}

func responseText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				sb.WriteString(string(txt))
			}
		}
	}
	return sb.String()
}
