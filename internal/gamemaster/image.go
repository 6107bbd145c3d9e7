package gamemaster

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pixil98/go-rpg/internal/storage"
)

const DefaultImageEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash-preview-image-generation:generateContent"

var ErrNoImageData = errors.New("no image data in response")

// ImageGenerator turns a prompt into a URI for an image.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

type ImageClient struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
	store      *storage.DiskStore
}

type ImageClientOpt func(*ImageClient)

func WithHTTPClient(c *http.Client) ImageClientOpt {
	return func(ic *ImageClient) {
		ic.httpClient = c
	}
}

func WithImageEndpoint(endpoint string) ImageClientOpt {
	return func(ic *ImageClient) {
		ic.endpoint = endpoint
	}
}

// NewImageClient creates a client that saves every generated image into store.
func NewImageClient(apiKey string, store *storage.DiskStore, opts ...ImageClientOpt) *ImageClient {
	ic := &ImageClient{
		endpoint:   DefaultImageEndpoint,
		apiKey:     apiKey,
		httpClient: http.DefaultClient,
		store:      store,
	}

	for _, opt := range opts {
		opt(ic)
	}

	return ic
}

type imageRequest struct {
	Contents         []imageContent        `json:"contents"`
	GenerationConfig imageGenerationConfig `json:"generationConfig"`
}

type imageContent struct {
	Parts []imagePart `json:"parts"`
}

type imagePart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type imageGenerationConfig struct {
	ResponseModalities []string `json:"responseModalities"`
}

type imageResponse struct {
	Candidates []struct {
		Content imageContent `json:"content"`
	} `json:"candidates"`
}

// GenerateImage returns the local path of an image for prompt. Images are
// keyed by a hash of the prompt, so a prompt already rendered is not requested again.
func (c *ImageClient) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		prompt = DefaultScenePrompt
	}

	id := storage.HashID(prompt)
	found, err := c.store.GeneratedExists(id)
	if err != nil {
		return "", fmt.Errorf("checking generated image: %w", err)
	}
	if found {
		return c.store.GeneratedPath(id), nil
	}

	text, err := ImageRequestText(prompt)
	if err != nil {
		return "", err
	}

	data, err := c.request(ctx, text)
	if err != nil {
		return "", err
	}

	path, err := c.store.SaveGenerated(id, data)
	if err != nil {
		return "", fmt.Errorf("saving generated image: %w", err)
	}

	slog.DebugContext(ctx, "generated image", "id", id, "bytes", len(data))
	return path, nil
}

func (c *ImageClient) request(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(imageRequest{
		Contents:         []imageContent{{Parts: []imagePart{{Text: text}}}},
		GenerationConfig: imageGenerationConfig{ResponseModalities: []string{"TEXT", "IMAGE"}},
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	u, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing endpoint: %w", err)
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("image request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var ir imageResponse
	err = json.NewDecoder(resp.Body).Decode(&ir)
	if err != nil {
		return nil, fmt.Errorf("decoding image response: %w", err)
	}

	return ir.imageData()
}

func (r *imageResponse) imageData() ([]byte, error) {
	if len(r.Candidates) == 0 {
		return nil, ErrNoImageData
	}

	for _, p := range r.Candidates[0].Content.Parts {
		if p.InlineData == nil || !strings.HasPrefix(p.InlineData.MimeType, "image/") {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
		if err != nil {
			return nil, fmt.Errorf("decoding image data: %w", err)
		}
		return data, nil
	}

	return nil, ErrNoImageData
}
