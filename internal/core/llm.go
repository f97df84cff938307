package core

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const defaultChatModelName = "gemini-2.0-flash"

// Generator is one credentialed model client. Implementations are stateless
// request issuers and safe for concurrent reuse.
type Generator interface {
	// Generate returns the full text of a completion.
	Generate(ctx context.Context, prompt string) (string, error)
	// GenerateStream emits incremental text fragments as they arrive and
	// returns the aggregated reply. emit must not be called concurrently.
	GenerateStream(ctx context.Context, prompt string, emit func(text string)) (string, error)
}

// GeminiClient wraps one genai client bound to a single API key.
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, apiKey string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiClient{client: client, model: defaultChatModelName}, nil
}

func (c *GeminiClient) Close() {
	if c.client != nil {
		if err := c.client.Close(); err != nil {
			log.Printf("Error closing GenAI client: %v", err)
		}
	}
}

func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.model)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate request failed: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("gemini response had no text candidates")
	}
	return text, nil
}

func (c *GeminiClient) GenerateStream(ctx context.Context, prompt string, emit func(text string)) (string, error) {
	model := c.client.GenerativeModel(c.model)
	iter := model.GenerateContentStream(ctx, genai.Text(prompt))

	var aggregate strings.Builder
	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return aggregate.String(), fmt.Errorf("gemini stream failed: %w", err)
		}
		if text := responseText(resp); text != "" {
			aggregate.WriteString(text)
			emit(text)
		}
	}
	return aggregate.String(), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}

// NewGeminiPool builds one client per API key, preserving key order. The
// returned close function closes every client.
func NewGeminiPool(ctx context.Context, apiKeys []string) ([]Generator, func(), error) {
	clients := make([]*GeminiClient, 0, len(apiKeys))
	closeAll := func() {
		for _, c := range clients {
			c.Close()
		}
	}

	pool := make([]Generator, 0, len(apiKeys))
	for _, key := range apiKeys {
		c, err := NewGeminiClient(ctx, key)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		clients = append(clients, c)
		pool = append(pool, c)
	}
	return pool, closeAll, nil
}
