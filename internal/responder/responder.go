// Package responder produces replies for synthetic profiles. A reply is
// always returned: text-generation failures fall back to canned replies.
package responder

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"profile-agent/internal/domain"
)

const (
	defaultTemperature  = 0.9
	defaultMaxTokens    = 150
	defaultTimeout      = 8 * time.Second
	defaultHistoryLimit = 20
)

type LLMClient interface {
	Chat(ctx context.Context, req domain.ChatRequest) (string, error)
}

// Moderator is implemented by clients that can screen inbound text.
type Moderator interface {
	Moderate(ctx context.Context, input string) (bool, error)
}

type Config struct {
	Model        string
	Temperature  float64
	MaxTokens    int
	Timeout      time.Duration
	HistoryLimit int
}

func (c Config) withDefaults() Config {
	if c.Temperature <= 0 {
		c.Temperature = defaultTemperature
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = defaultMaxTokens
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = defaultHistoryLimit
	}
	return c
}

// Request is the input of GenerateReply.
type Request struct {
	Personality domain.Personality
	Name        string
	Age         int
	Bio         string
	Message     string
	History     []domain.ConversationTurn
}

type Responder struct {
	llm    LLMClient
	cfg    Config
	logger *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func New(llm LLMClient, cfg Config, rng *rand.Rand, logger *zap.Logger) (*Responder, error) {
	if llm == nil {
		return nil, errors.New("responder: llm client must not be nil")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("responder: model must not be empty")
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Responder{llm: llm, cfg: cfg.withDefaults(), rng: rng, logger: logger}, nil
}

// GenerateReply never fails and never returns an empty string.
func (r *Responder) GenerateReply(ctx context.Context, req Request) string {
	p, ok := personaFor(req.Personality)
	if !ok {
		r.logger.Warn("unknown personality, using default tone", zap.String("personality", req.Personality.String()))
		p, _ = personaFor(domain.Divertida)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	if m, ok := r.llm.(Moderator); ok {
		flagged, err := m.Moderate(ctx, req.Message)
		if err != nil {
			r.logger.Debug("moderation unavailable", zap.Error(err))
		} else if flagged {
			r.logger.Info("inbound message flagged, using canned reply")
			return r.fallback(p)
		}
	}

	text, err := r.llm.Chat(ctx, domain.ChatRequest{
		Model:       r.cfg.Model,
		Messages:    buildMessages(p, req, r.cfg.HistoryLimit),
		Temperature: r.cfg.Temperature,
		MaxTokens:   r.cfg.MaxTokens,
	})
	if err != nil {
		r.logger.Warn("text generation failed, using canned reply",
			zap.String("personality", req.Personality.String()),
			zap.Error(err))
		return r.fallback(p)
	}
	text = cleanReply(text)
	if text == "" {
		r.logger.Warn("text generation returned an empty reply, using canned reply")
		return r.fallback(p)
	}
	return text
}

// Fallbacks returns the canned replies for a personality.
func Fallbacks(p domain.Personality) []string {
	ps, ok := personaFor(p)
	if !ok {
		return nil
	}
	return ps.fallbacks[:]
}

func (r *Responder) fallback(p persona) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return p.fallbacks[r.rng.IntN(len(p.fallbacks))]
}

func buildMessages(p persona, req Request, historyLimit int) []domain.ChatMessage {
	messages := []domain.ChatMessage{{Role: domain.RoleSystem, Content: systemPrompt(p, req)}}

	history := req.History
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}
	for _, turn := range history {
		text := strings.TrimSpace(turn.Text)
		if text == "" {
			continue
		}
		role := domain.RoleUser
		if turn.Role == domain.RoleAssistant {
			role = domain.RoleAssistant
		}
		messages = append(messages, domain.ChatMessage{Role: role, Content: text})
	}

	return append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: strings.TrimSpace(req.Message)})
}

func systemPrompt(p persona, req Request) string {
	lines := []string{
		fmt.Sprintf("Eres %s, tienes %d años y chateas en una app de citas.", req.Name, req.Age),
	}
	if bio := strings.TrimSpace(req.Bio); bio != "" {
		lines = append(lines, fmt.Sprintf("Tu bio: %q.", bio))
	}
	lines = append(lines,
		p.tone,
		"Responde en español, como en un chat: máximo 2 o 3 líneas.",
		"No uses listas ni formato, solo el texto del mensaje.",
	)
	return strings.Join(lines, "\n")
}

func cleanReply(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	return s
}
