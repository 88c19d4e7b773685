package main

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/genai"

	"github.com/bodul/wordfall/game"
)

const (
	defaultRegion = "europe-west1"
	defaultModel  = "gemini-2.5-flash"
)

// generateFunc sends one prompt and returns the raw JSON text of the answer.
// fast disables model thinking.
type generateFunc func(ctx context.Context, prompt string, schema *genai.Schema, fast bool) (string, error)

// GeminiClient wraps the Google GenAI client. It is the validation, suggestion and
// name-check oracle of the game.
type GeminiClient struct {
	client    *genai.Client
	modelName string
	generate  generateFunc

	mu    sync.Mutex
	cache map[string]game.Verdict
}

// NewGeminiClient creates a VertexAI client using Application Default Credentials.
// Set GOOGLE_APPLICATION_CREDENTIALS to the service account key file path.
func NewGeminiClient(ctx context.Context, projectID, region, model string) (*GeminiClient, error) {
	if region == "" {
		region = defaultRegion
	}
	return newGeminiClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: region,
		Backend:  genai.BackendVertexAI,
	}, model)
}

// NewGeminiAPIClient creates a client for the Gemini Developer API authenticated by key.
func NewGeminiAPIClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	return newGeminiClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}, model)
}

func newGeminiClient(ctx context.Context, cfg *genai.ClientConfig, model string) (*GeminiClient, error) {
	if model == "" {
		model = defaultModel
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	g := &GeminiClient{
		client:    client,
		modelName: model,
		cache:     make(map[string]game.Verdict),
	}
	g.generate = g.generateContent
	return g, nil
}

// Close releases resources held by the client.
func (g *GeminiClient) Close() error {
	return nil
}
