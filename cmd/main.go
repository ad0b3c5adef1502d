package main

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"go.uber.org/zap"

	"profile-agent/handler"
	"profile-agent/internal/app"
)

func main() {
	ctx := context.Background()

	logger, err := app.NewLogger(strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug"))
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	// ---- Configuration (read only here) ----
	settings := app.Settings{
		StateTable:      mustEnv(logger, "STATE_TABLE"),
		ParamPrefix:     mustEnv(logger, "PARAM_PREFIX"),
		Provider:        envString("LLM_PROVIDER", app.ProviderOpenAI),
		MaxContextItems: envInt("MAX_CONTEXT_ITEMS", 20),
		ReplyTimeout:    envMillis("REPLY_TIMEOUT_MS", 8*time.Second),
		MinReplyDelay:   envMillis("MIN_REPLY_DELAY_MS", 5*time.Second),
		MaxReplyDelay:   envMillis("MAX_REPLY_DELAY_MS", 30*time.Second),
	}

	// ---- AWS SDK config ----
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		logger.Fatal("failed to load AWS config", zap.Error(err))
	}

	autoReply, err := app.NewAutoReply(ctx, cfg, settings, logger)
	if err != nil {
		logger.Fatal("failed to create autoreply service", zap.Error(err))
	}

	h, err := handler.NewHandler(autoReply, logger.Named("handler"))
	if err != nil {
		logger.Fatal("failed to create handler", zap.Error(err))
	}

	lambda.Start(h.Handle)
}

func mustEnv(logger *zap.Logger, key string) string {
	v := os.Getenv(key)
	if v == "" {
		logger.Fatal("required environment variable is not set", zap.String("key", key))
	}
	return v
}

func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envMillis(key string, def time.Duration) time.Duration {
	n := envInt(key, -1)
	if n <= 0 {
		return def
	}
	return time.Duration(n) * time.Millisecond
}
