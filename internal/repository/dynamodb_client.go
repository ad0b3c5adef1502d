package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"profile-agent/internal/domain"
)

const (
	pkPrefixThread = "THREAD#"
	skPrefixMsg    = "MSG#"
	skMeta         = "META"
	ttlDuration    = 30 * 24 * time.Hour
)

// dynamodbAPI is the subset of *dynamodb.Client used by Client.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Client stores chat threads in a single DynamoDB table. Each thread is one
// partition holding a META item plus one MSG# item per turn.
type Client struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName, now: time.Now}, nil
}

func threadPK(threadID string) string {
	return pkPrefixThread + threadID
}

// msgSK sorts chronologically; the suffix keeps two turns written in the
// same instant from colliding.
func msgSK(ts time.Time) string {
	return skPrefixMsg + ts.UTC().Format(time.RFC3339Nano) + "#" + newSuffix()
}

var newSuffix = func() string {
	return uuid.NewString()[:8]
}

func (c *Client) ttlValue() int64 {
	return c.now().Add(ttlDuration).Unix()
}

// GetThreadMeta returns the aggregate state of a thread. A thread that has
// never been written yields a zero meta carrying only the id.
func (c *Client) GetThreadMeta(ctx context.Context, threadID string) (domain.ThreadMeta, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: threadPK(threadID)},
			"SK": &types.AttributeValueMemberS{Value: skMeta},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.ThreadMeta{}, fmt.Errorf("repository: GetThreadMeta get item: %w", err)
	}
	meta := domain.ThreadMeta{ThreadID: threadID}
	if out == nil || len(out.Item) == 0 {
		return meta, nil
	}

	if meta.Turns, err = intAttr(out.Item, "turns"); err != nil {
		return domain.ThreadMeta{}, fmt.Errorf("repository: GetThreadMeta decode turns: %w", err)
	}
	if raw, err := strAttr(out.Item, "lastActivity"); err == nil {
		if meta.LastActivity, err = time.Parse(time.RFC3339Nano, raw); err != nil {
			return domain.ThreadMeta{}, fmt.Errorf("repository: GetThreadMeta decode lastActivity: %w", err)
		}
	}
	if raw, err := strAttr(out.Item, "lastInboundAt"); err == nil {
		ts, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return domain.ThreadMeta{}, fmt.Errorf("repository: GetThreadMeta decode lastInboundAt: %w", err)
		}
		meta.LastInboundAt = &ts
	}
	return meta, nil
}

// GetHistory returns up to limit of the most recent turns, oldest first.
func (c *Client) GetHistory(ctx context.Context, threadID string, limit int) ([]domain.ConversationTurn, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: threadPK(threadID)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixMsg},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		in.Limit = aws.Int32(int32(limit))
	}

	out, err := c.api.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("repository: GetHistory query: %w", err)
	}

	turns := make([]domain.ConversationTurn, 0, len(out.Items))
	for _, item := range out.Items {
		turn, err := itemToTurn(threadID, item)
		if err != nil {
			return nil, fmt.Errorf("repository: GetHistory unmarshal: %w", err)
		}
		turns = append(turns, turn)
	}
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// AppendTurn writes the turn and bumps the thread meta in one transaction.
// User turns also move lastInboundAt.
func (c *Client) AppendTurn(ctx context.Context, turn domain.ConversationTurn) error {
	if strings.TrimSpace(turn.ThreadID) == "" {
		return errors.New("repository: AppendTurn: thread id is required")
	}
	if turn.Role != domain.RoleUser && turn.Role != domain.RoleAssistant {
		return fmt.Errorf("repository: AppendTurn: unsupported role %q", turn.Role)
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = c.now()
	}
	ts := turn.CreatedAt.UTC().Format(time.RFC3339Nano)
	ttl := &types.AttributeValueMemberN{Value: strconv.FormatInt(c.ttlValue(), 10)}

	update := "SET lastActivity = :ts, #ttl = :ttl ADD turns :one"
	if turn.Role == domain.RoleUser {
		update = "SET lastActivity = :ts, lastInboundAt = :ts, #ttl = :ttl ADD turns :one"
	}

	_, err := c.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           aws.String(c.tableName),
					Item:                turnItem(turn, msgSK(turn.CreatedAt), ttl),
					ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
				},
			},
			{
				Update: &types.Update{
					TableName: aws.String(c.tableName),
					Key: map[string]types.AttributeValue{
						"PK": &types.AttributeValueMemberS{Value: threadPK(turn.ThreadID)},
						"SK": &types.AttributeValueMemberS{Value: skMeta},
					},
					UpdateExpression:         aws.String(update),
					ExpressionAttributeNames: map[string]string{"#ttl": "ttl"},
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":ts":  &types.AttributeValueMemberS{Value: ts},
						":ttl": ttl,
						":one": &types.AttributeValueMemberN{Value: "1"},
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: AppendTurn: %w", err)
	}
	return nil
}

func turnItem(turn domain.ConversationTurn, sk string, ttl types.AttributeValue) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: threadPK(turn.ThreadID)},
		"SK":        &types.AttributeValueMemberS{Value: sk},
		"threadId":  &types.AttributeValueMemberS{Value: turn.ThreadID},
		"role":      &types.AttributeValueMemberS{Value: turn.Role},
		"text":      &types.AttributeValueMemberS{Value: turn.Text},
		"automated": &types.AttributeValueMemberBOOL{Value: turn.Automated},
		"createdAt": &types.AttributeValueMemberS{Value: turn.CreatedAt.UTC().Format(time.RFC3339Nano)},
		"ttl":       ttl,
	}
}

func itemToTurn(threadID string, item map[string]types.AttributeValue) (domain.ConversationTurn, error) {
	role, err := strAttr(item, "role")
	if err != nil {
		return domain.ConversationTurn{}, err
	}
	text, err := strAttr(item, "text")
	if err != nil {
		return domain.ConversationTurn{}, err
	}
	turn := domain.ConversationTurn{ThreadID: threadID, Role: role, Text: text}
	if v, ok := item["automated"].(*types.AttributeValueMemberBOOL); ok {
		turn.Automated = v.Value
	}
	if raw, err := strAttr(item, "createdAt"); err == nil {
		if turn.CreatedAt, err = time.Parse(time.RFC3339Nano, raw); err != nil {
			return domain.ConversationTurn{}, fmt.Errorf("repository: parse createdAt: %w", err)
		}
	}
	return turn, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func intAttr(item map[string]types.AttributeValue, key string) (int, error) {
	v, ok := item[key]
	if !ok {
		return 0, nil
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
