// Package gemini wraps the Google GenAI API as the two oracles the learning
// loop depends on: text embedding and text generation.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Sentinel errors for oracle failures. Wrapped around the underlying API
// error so callers can branch with errors.Is without losing the cause text.
var (
	ErrEmbeddingUnavailable  = errors.New("embedding model unavailable")
	ErrGenerationUnavailable = errors.New("generation model unavailable")
)

// EmbeddingDims is the dimensionality produced by gemini-embedding-001.
const EmbeddingDims = 768

type Client struct {
	client     *genai.Client
	genModel   string
	embedModel string
}

// NewClient creates a Gemini client serving both oracle roles.
func NewClient(ctx context.Context, apiKey, genModel, embedModel string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{
		client:     client,
		genModel:   genModel,
		embedModel: embedModel,
	}, nil
}

// Embed maps text to a fixed-length dense vector. Dimensionality is constant
// per model; newlines are flattened before embedding.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.ReplaceAll(text, "\n", " ")
	contents := []*genai.Content{
		genai.NewContentFromText(text, genai.RoleUser),
	}
	result, err := c.client.Models.EmbedContent(ctx,
		c.embedModel,
		contents,
		&genai.EmbedContentConfig{
			TaskType: "SEMANTIC_SIMILARITY",
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", ErrEmbeddingUnavailable)
	}
	return result.Embeddings[0].Values, nil
}

// Generate produces free-form text for a prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt, nil)
}

// GenerateJSON produces a response constrained to the JSON MIME type, used
// for the structured extraction, judging, and outcome-classification calls.
func (c *Client) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, prompt, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
}

func (c *Client) generate(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.genModel, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: empty response", ErrGenerationUnavailable)
	}
	return text, nil
}
