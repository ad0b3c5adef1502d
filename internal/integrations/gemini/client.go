// Package gemini adapts the Google GenAI SDK to the chat interface used by
// the responder.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"profile-agent/internal/domain"
)

type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// contentGenerator is satisfied by (*genai.Client).Models.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type generatorFactory func(ctx context.Context, apiKey string) (contentGenerator, error)

func newGenAIGenerator(ctx context.Context, apiKey string) (contentGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return client.Models, nil
}

// Client lazily builds a GenAI client using a token read from SSM.
type Client struct {
	getter      Getter
	paramPrefix string
	factory     generatorFactory

	mu  sync.Mutex
	gen contentGenerator
}

func NewClient(ps Getter, paramPrefix string) (*Client, error) {
	if ps == nil {
		return nil, errors.New("gemini: paramstore getter must not be nil")
	}
	paramPrefix = strings.TrimRight(strings.TrimSpace(paramPrefix), "/")
	if paramPrefix == "" {
		return nil, errors.New("gemini: parameter prefix must not be empty")
	}
	return &Client{getter: ps, paramPrefix: paramPrefix, factory: newGenAIGenerator}, nil
}

// TokenParameter is the SSM parameter holding the Gemini API token.
func TokenParameter(paramPrefix string) string {
	return strings.TrimRight(paramPrefix, "/") + "/gemini-token"
}

// generator builds the GenAI client on first successful use. Failures are
// not cached so the next call retries.
func (c *Client) generator(ctx context.Context) (contentGenerator, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != nil {
		return c.gen, nil
	}

	raw, err := c.getter.GetParameter(ctx, TokenParameter(c.paramPrefix))
	if err != nil {
		return nil, fmt.Errorf("gemini: fetch token from paramstore: %w", err)
	}
	var tp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal([]byte(raw), &tp); err != nil {
		return nil, fmt.Errorf("gemini: unmarshal paramstore token value as JSON: %w", err)
	}
	if tp.Token == "" {
		return nil, errors.New("gemini: API token is empty")
	}
	gen, err := c.factory(ctx, tp.Token)
	if err != nil {
		return nil, err
	}
	c.gen = gen
	return gen, nil
}

// Chat maps system messages onto the system instruction and the rest onto
// user/model contents, then returns the text of the first candidate.
func (c *Client) Chat(ctx context.Context, in domain.ChatRequest) (string, error) {
	if in.Model == "" {
		return "", errors.New("gemini: model must not be empty")
	}
	gen, err := c.generator(ctx)
	if err != nil {
		return "", err
	}

	contents, system := toContents(in.Messages)
	if len(contents) == 0 {
		return "", errors.New("gemini: no conversational messages")
	}
	cfg := &genai.GenerateContentConfig{}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(system)}}
	}
	if in.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(in.Temperature))
	}
	if in.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(in.MaxTokens)
	}

	resp, err := gen.GenerateContent(ctx, in.Model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("gemini: no candidates in response")
	}
	return resp.Text(), nil
}

func toContents(msgs []domain.ChatMessage) ([]*genai.Content, string) {
	var system []string
	contents := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case domain.RoleSystem:
			system = append(system, m.Content)
		case domain.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return contents, strings.Join(system, "\n\n")
}
