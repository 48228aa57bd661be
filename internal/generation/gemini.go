// Package generation wraps the model provider behind small capability
// interfaces so the engine stays provider-agnostic.
package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"odyssai/internal/narrative"
)

// Generator produces narrative text from an instruction plus grounding
// context. Implementations do not retry; the engine owns retry policy.
type Generator interface {
	Generate(ctx context.Context, instruction, context string) (string, error)
}

// Gemini implements Generator and memory.Embedder on top of the Google
// generative AI client.
type Gemini struct {
	client         *genai.Client
	model          string
	embeddingModel string
	timeout        time.Duration
}

// NewGemini builds a provider client authenticated with an API key.
func NewGemini(ctx context.Context, apiKey, model, embeddingModel string, timeout time.Duration) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create generative client: %w", err)
	}
	return &Gemini{
		client:         client,
		model:          model,
		embeddingModel: embeddingModel,
		timeout:        timeout,
	}, nil
}

// Close releases the provider connection.
func (g *Gemini) Close() error { return g.client.Close() }

// Generate runs one model call. Timeouts, rate limits and empty outputs
// all surface as GenerationError for the engine to handle.
func (g *Gemini) Generate(ctx context.Context, instruction, groundingContext string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	prompt := instruction
	if groundingContext != "" {
		prompt = instruction + "\n\n## ESTABLISHED CONTEXT\n" + groundingContext
	}

	model := g.client.GenerativeModel(g.model)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", narrative.WrapError(narrative.KindGeneration, err, "provider call failed")
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", narrative.NewError(narrative.KindGeneration, "provider returned empty output")
	}
	return strings.TrimSpace(text), nil
}

// Embed produces the embedding vector used by the lore index.
func (g *Gemini) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	em := g.client.EmbeddingModel(g.embeddingModel)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("embedding call failed: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("embedding call returned no values")
	}
	return res.Embedding.Values, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				text.WriteString(string(txt))
			}
		}
	}
	return text.String()
}
