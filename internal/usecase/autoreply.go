package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"profile-agent/internal/domain"
	"profile-agent/internal/responder"
)

const (
	defaultMaxContext = 20
	maxMessageLen     = 2000
)

type Status string

const (
	StatusSkipped  Status = "skipped"
	StatusIdle     Status = "idle"
	StatusDeferred Status = "deferred"
	StatusReplied  Status = "replied"
)

type ThreadStore interface {
	GetThreadMeta(ctx context.Context, threadID string) (domain.ThreadMeta, error)
	GetHistory(ctx context.Context, threadID string, limit int) ([]domain.ConversationTurn, error)
	AppendTurn(ctx context.Context, turn domain.ConversationTurn) error
}

type ReplyGenerator interface {
	GenerateReply(ctx context.Context, req responder.Request) string
}

type TimingPolicy interface {
	ShouldRespondNow(isSynthetic bool, lastIncoming *time.Time) bool
}

// InboundEvent is delivered by the messaging subsystem when a user writes to
// a profile, or with an empty Message when it polls a deferred thread.
type InboundEvent struct {
	ThreadID   string
	Profile    domain.ResponderProfile
	Message    string
	ReceivedAt time.Time
}

type Outcome struct {
	Status Status
	Reply  string
}

type AutoReplyService struct {
	threads         ThreadStore
	replies         ReplyGenerator
	policy          TimingPolicy
	maxContextItems int
	logger          *zap.Logger
	now             func() time.Time
}

func NewAutoReplyService(t ThreadStore, r ReplyGenerator, p TimingPolicy, maxContextItems int, logger *zap.Logger) (*AutoReplyService, error) {
	if t == nil {
		return nil, errors.New("usecase: thread store must not be nil")
	}
	if r == nil {
		return nil, errors.New("usecase: reply generator must not be nil")
	}
	if p == nil {
		return nil, errors.New("usecase: timing policy must not be nil")
	}
	if maxContextItems <= 0 {
		maxContextItems = defaultMaxContext
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutoReplyService{
		threads:         t,
		replies:         r,
		policy:          p,
		maxContextItems: maxContextItems,
		logger:          logger,
		now:             time.Now,
	}, nil
}

func (s *AutoReplyService) Handle(ctx context.Context, in InboundEvent) (Outcome, error) {
	threadID := strings.TrimSpace(in.ThreadID)
	if threadID == "" {
		return Outcome{}, newError(ErrorInvalidInput, "empty_thread_id", nil)
	}
	message := strings.TrimSpace(in.Message)
	if len(message) > maxMessageLen {
		return Outcome{}, newError(ErrorInvalidInput, "message_too_long", nil)
	}
	log := s.logger.With(zap.String("thread_id", threadID), zap.String("profile_id", in.Profile.ID))

	if !in.Profile.Synthetic || in.Profile.Personality == nil {
		log.Debug("profile is not eligible for automatic replies")
		return Outcome{Status: StatusSkipped}, nil
	}

	meta, err := s.threads.GetThreadMeta(ctx, threadID)
	if err != nil {
		return Outcome{}, newError(ErrorInternal, "dynamodb_meta_error", err)
	}
	previousInbound := meta.LastInboundAt

	if message != "" {
		receivedAt := in.ReceivedAt
		if receivedAt.IsZero() {
			receivedAt = s.now()
		}
		if err := s.threads.AppendTurn(ctx, domain.ConversationTurn{
			ThreadID:  threadID,
			Role:      domain.RoleUser,
			Text:      message,
			CreatedAt: receivedAt,
		}); err != nil {
			return Outcome{}, newError(ErrorInternal, "dynamodb_write_error", err)
		}
	}

	history, err := s.threads.GetHistory(ctx, threadID, s.maxContextItems)
	if err != nil {
		return Outcome{}, newError(ErrorInternal, "dynamodb_history_error", err)
	}
	if len(history) == 0 || history[len(history)-1].Role != domain.RoleUser {
		log.Debug("no unanswered message in thread")
		return Outcome{Status: StatusIdle}, nil
	}

	if !s.policy.ShouldRespondNow(in.Profile.Synthetic, previousInbound) {
		log.Debug("reply deferred by timing policy")
		return Outcome{Status: StatusDeferred}, nil
	}

	last := history[len(history)-1]
	reply := s.replies.GenerateReply(ctx, responder.Request{
		Personality: *in.Profile.Personality,
		Name:        in.Profile.Name,
		Age:         in.Profile.Age,
		Bio:         in.Profile.Bio,
		Message:     last.Text,
		History:     history[:len(history)-1],
	})

	if err := s.threads.AppendTurn(ctx, domain.ConversationTurn{
		ThreadID:  threadID,
		Role:      domain.RoleAssistant,
		Text:      reply,
		Automated: true,
		CreatedAt: s.now(),
	}); err != nil {
		return Outcome{}, newError(ErrorInternal, "dynamodb_write_error", err)
	}

	log.Info("automatic reply sent", zap.String("personality", in.Profile.Personality.String()))
	return Outcome{Status: StatusReplied, Reply: reply}, nil
}
