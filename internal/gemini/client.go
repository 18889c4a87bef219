// Package gemini provides the shared Google Generative AI client used for both
// chat completions and query embeddings.
package gemini

import (
	"context"
	"fmt"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

// Client lazily constructs the underlying googleai client on first use so a
// missing API key surfaces on the first call rather than at startup.
type Client struct {
	opts []googleai.Option

	once sync.Once
	llm  *googleai.GoogleAI
	err  error
}

var (
	_ llms.Model = (*Client)(nil)
)

// New returns a client for chatModel and embeddingModel. apiKey may be empty.
func New(apiKey, chatModel, embeddingModel string) *Client {
	opts := []googleai.Option{
		googleai.WithDefaultModel(chatModel),
		googleai.WithDefaultEmbeddingModel(embeddingModel),
		googleai.WithDefaultTemperature(0),
	}
	if apiKey != "" {
		opts = append(opts, googleai.WithAPIKey(apiKey))
	}
	return &Client{opts: opts}
}

func (c *Client) get(ctx context.Context) (*googleai.GoogleAI, error) {
	c.once.Do(func() {
		// the client outlives the first request
		c.llm, c.err = googleai.New(context.WithoutCancel(ctx), c.opts...)
		if c.err != nil {
			c.err = fmt.Errorf("init googleai client: %w", c.err)
		}
	})
	return c.llm, c.err
}

func (c *Client) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	llm, err := c.get(ctx)
	if err != nil {
		return nil, err
	}
	return llm.GenerateContent(ctx, messages, options...)
}

func (c *Client) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, c, prompt, options...)
}

// CreateEmbedding satisfies embeddings.EmbedderClient.
func (c *Client) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	llm, err := c.get(ctx)
	if err != nil {
		return nil, err
	}
	return llm.CreateEmbedding(ctx, texts)
}
