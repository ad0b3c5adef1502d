package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"profile-agent/internal/domain"
	"profile-agent/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

type AutoReplier interface {
	Handle(ctx context.Context, in usecase.InboundEvent) (usecase.Outcome, error)
}

type profileSnapshot struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Age         int    `json:"age"`
	Bio         string `json:"bio"`
	Personality string `json:"personality"`
	Synthetic   bool   `json:"synthetic"`
}

type inboundRequest struct {
	ThreadID   string          `json:"threadId"`
	Message    string          `json:"message"`
	ReceivedAt *time.Time      `json:"receivedAt,omitempty"`
	Profile    profileSnapshot `json:"profile"`
}

type outcomeResponse struct {
	Status string `json:"status"`
	Reply  string `json:"reply,omitempty"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

type Handler struct {
	uc     AutoReplier
	logger *zap.Logger
}

func NewHandler(uc AutoReplier, logger *zap.Logger) (*Handler, error) {
	if uc == nil {
		return nil, errors.New("handler: use case must not be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{uc: uc, logger: logger}, nil
}

// Handle serves API Gateway proxy events posted by the messaging subsystem.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := headerValue(req.Headers, correlationHeader)
	if corrID == "" {
		corrID = uuid.NewString()
	}
	status, body := h.process(ctx, corrID, []byte(req.Body))
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":    "application/json",
			correlationHeader: corrID,
		},
		Body: string(body),
	}, nil
}

// process decodes an inbound event, runs the use case and returns the HTTP
// status and JSON body. Shared by the lambda and the gin router.
func (h *Handler) process(ctx context.Context, corrID string, raw []byte) (int, []byte) {
	log := h.logger.With(zap.String("correlation_id", corrID))

	var in inboundRequest
	if err := json.Unmarshal(raw, &in); err != nil {
		log.Info("invalid request body", zap.Error(err))
		return marshal(http.StatusBadRequest, errorResponse{Error: string(usecase.ErrorInvalidInput), Reason: "invalid_json"})
	}

	out, err := h.uc.Handle(ctx, toEvent(in))
	if err != nil {
		status, resp := mapError(err)
		if status >= http.StatusInternalServerError {
			log.Error("autoreply failed", zap.Error(err))
		} else {
			log.Info("autoreply rejected", zap.Error(err))
		}
		return marshal(status, resp)
	}
	return marshal(http.StatusOK, outcomeResponse{Status: string(out.Status), Reply: out.Reply})
}

func toEvent(in inboundRequest) usecase.InboundEvent {
	ev := usecase.InboundEvent{
		ThreadID: in.ThreadID,
		Message:  in.Message,
		Profile: domain.ResponderProfile{
			ID:        in.Profile.ID,
			Name:      in.Profile.Name,
			Age:       in.Profile.Age,
			Bio:       in.Profile.Bio,
			Synthetic: in.Profile.Synthetic,
		},
	}
	if in.ReceivedAt != nil {
		ev.ReceivedAt = *in.ReceivedAt
	}
	// Unknown tags are passed through; the responder falls back to its
	// default tone for them.
	if p := domain.NormalizePersonality(in.Profile.Personality); p != "" {
		ev.Profile.Personality = &p
	}
	return ev
}

func mapError(err error) (int, errorResponse) {
	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		return http.StatusInternalServerError, errorResponse{Error: string(usecase.ErrorInternal)}
	}
	switch ucErr.Code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest, errorResponse{Error: string(ucErr.Code), Reason: ucErr.Reason}
	default:
		return http.StatusInternalServerError, errorResponse{Error: string(usecase.ErrorInternal)}
	}
}

func marshal(status int, v any) (int, []byte) {
	b, err := json.Marshal(v)
	if err != nil {
		return http.StatusInternalServerError, []byte(`{"error":"INTERNAL_ERROR"}`)
	}
	return status, b
}

func headerValue(headers map[string]string, name string) string {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
