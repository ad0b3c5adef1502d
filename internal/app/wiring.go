// Package app assembles the autoreply pipeline shared by the lambda and the
// operator CLI.
package app

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awsssm "github.com/aws/aws-sdk-go-v2/service/ssm"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"profile-agent/internal/autorespond"
	"profile-agent/internal/integrations/gemini"
	"profile-agent/internal/integrations/openai"
	"profile-agent/internal/integrations/paramstore"
	"profile-agent/internal/repository"
	"profile-agent/internal/responder"
	"profile-agent/internal/usecase"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	defaultOpenAIModel = "gpt-4o-mini"
	defaultGeminiModel = "gemini-2.0-flash"
)

type Settings struct {
	StateTable      string
	ParamPrefix     string
	Provider        string
	MaxContextItems int
	ReplyTimeout    time.Duration
	MinReplyDelay   time.Duration
	MaxReplyDelay   time.Duration
	// DynamoEndpoint points the thread store at DynamoDB Local when set.
	DynamoEndpoint string
}

// NewLogger builds a JSON production logger, at debug level when asked.
func NewLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// ModelParameter is the SSM parameter naming the chat model.
func ModelParameter(paramPrefix string) string {
	return strings.TrimRight(paramPrefix, "/") + "/config/model"
}

func newLLM(provider string, ps paramstore.Getter, paramPrefix string) (responder.LLMClient, string, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", ProviderOpenAI:
		c, err := openai.NewClient(ps, paramPrefix)
		return c, defaultOpenAIModel, err
	case ProviderGemini:
		c, err := gemini.NewClient(ps, paramPrefix)
		return c, defaultGeminiModel, err
	default:
		return nil, "", fmt.Errorf("app: unknown LLM provider %q", provider)
	}
}

// NewResponder resolves the model name from SSM (falling back to the
// provider default) and builds the personality responder.
func NewResponder(ctx context.Context, ps paramstore.Getter, s Settings, rng *rand.Rand, logger *zap.Logger) (*responder.Responder, error) {
	client, fallbackModel, err := newLLM(s.Provider, ps, s.ParamPrefix)
	if err != nil {
		return nil, err
	}
	model, err := paramstore.GetOptional(ctx, ps, ModelParameter(s.ParamPrefix), fallbackModel)
	if err != nil {
		return nil, fmt.Errorf("app: load model name: %w", err)
	}
	logger.Info("text generation configured", zap.String("provider", s.Provider), zap.String("model", model))
	return responder.New(client, responder.Config{Model: model, Timeout: s.ReplyTimeout}, rng, logger.Named("responder"))
}

// NewAutoReply wires the thread store, responder and timing policy.
func NewAutoReply(ctx context.Context, awsCfg aws.Config, s Settings, logger *zap.Logger) (*usecase.AutoReplyService, error) {
	ps, err := paramstore.New(awsssm.NewFromConfig(awsCfg))
	if err != nil {
		return nil, fmt.Errorf("app: create SSM client: %w", err)
	}

	dynamo := awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if s.DynamoEndpoint != "" {
			o.BaseEndpoint = aws.String(s.DynamoEndpoint)
		}
	})
	threads, err := repository.New(dynamo, s.StateTable)
	if err != nil {
		return nil, fmt.Errorf("app: create thread store: %w", err)
	}

	resp, err := NewResponder(ctx, ps, s, newRand(), logger)
	if err != nil {
		return nil, err
	}
	policy := autorespond.NewPolicy(newRand(), autorespond.WithDelayWindow(s.MinReplyDelay, s.MaxReplyDelay))

	return usecase.NewAutoReplyService(threads, resp, policy, s.MaxContextItems, logger.Named("autoreply"))
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
}
