package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/logger"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/outbox"
)

const analyticsConsumerName = "analytics"

type tableInserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Event is the decoded form of one domain event message.
type Event struct {
	Type          enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	AggregateID   string
	Envelope      outbox.PayloadEnvelope
}

// Consumer streams domain events into the BigQuery retention table while
// honoring Redis idempotency.
type Consumer struct {
	client       tableInserter
	table        string
	subscription *gcppubsub.Subscriber
	manager      idempotencyChecker
	logg         *logger.Logger
}

// NewConsumer builds the domain event analytics consumer.
func NewConsumer(client tableInserter, table string, subscription *gcppubsub.Subscriber, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}
	if strings.TrimSpace(table) == "" {
		return nil, fmt.Errorf("bigquery table name required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		client:       client,
		table:        strings.TrimSpace(table),
		subscription: subscription,
		manager:      manager,
		logg:         logg,
	}, nil
}

// Run consumes the analytics subscription until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	if c.subscription == nil {
		return errors.New("analytics subscription is required")
	}
	return c.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if c.handle(innerCtx, msg).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type handleResult struct {
	nack bool
}

func (c *Consumer) handle(ctx context.Context, msg *gcppubsub.Message) handleResult {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": msg.Attributes["event_type"],
	})

	event, err := decodeMessage(msg)
	if err != nil {
		// malformed messages never become processable; drop them
		c.logg.Warn(logCtx, fmt.Sprintf("dropping invalid domain event: %v", err))
		return handleResult{}
	}

	if err := c.Process(ctx, *event); err != nil {
		c.logg.Error(logCtx, "domain event ingestion failed", err)
		return handleResult{nack: true}
	}
	return handleResult{}
}

func decodeMessage(msg *gcppubsub.Message) (*Event, error) {
	eventType, err := enums.ParseOutboxEventType(strings.TrimSpace(msg.Attributes["event_type"]))
	if err != nil {
		return nil, fmt.Errorf("event_type: %w", err)
	}
	aggregateType, err := enums.ParseOutboxAggregateType(strings.TrimSpace(msg.Attributes["aggregate_type"]))
	if err != nil {
		return nil, fmt.Errorf("aggregate_type: %w", err)
	}
	aggregateID := strings.TrimSpace(msg.Attributes["aggregate_id"])
	if aggregateID == "" {
		return nil, errors.New("aggregate_id missing")
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if strings.TrimSpace(envelope.EventID) == "" {
		envelope.EventID = strings.TrimSpace(msg.Attributes["event_id"])
	}
	if envelope.EventID == "" {
		return nil, errors.New("event_id missing")
	}

	return &Event{
		Type:          eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Envelope:      envelope,
	}, nil
}

// Process ingests a decoded event into BigQuery exactly once.
func (c *Consumer) Process(ctx context.Context, event Event) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   event.Envelope.EventID,
		"event_type": event.Type,
	})

	eventID, err := uuid.Parse(event.Envelope.EventID)
	if err != nil {
		return fmt.Errorf("parse event id: %w", err)
	}

	already, err := c.manager.CheckAndMarkProcessed(ctx, analyticsConsumerName, eventID)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	row, err := buildRow(event)
	if err != nil {
		c.logg.Error(logCtx, "failed to build domain event row", err)
		_ = c.manager.Delete(ctx, analyticsConsumerName, eventID)
		return err
	}

	if err := c.client.InsertRows(ctx, c.table, []any{row}); err != nil {
		c.logg.Error(logCtx, "failed to insert domain event row", err)
		_ = c.manager.Delete(ctx, analyticsConsumerName, eventID)
		return err
	}

	c.logg.Info(logCtx, "domain event ingested")
	return nil
}

type domainEventRow struct {
	EventID       string             `bigquery:"event_id"`
	EventType     string             `bigquery:"event_type"`
	AggregateType string             `bigquery:"aggregate_type"`
	AggregateID   string             `bigquery:"aggregate_id"`
	OccurredAt    time.Time          `bigquery:"occurred_at"`
	Payload       cbigquery.NullJSON `bigquery:"payload"`
}

func buildRow(event Event) (*domainEventRow, error) {
	payloadJSON := cbigquery.NullJSON{}
	if len(event.Envelope.Data) > 0 {
		if !json.Valid(event.Envelope.Data) {
			return nil, errors.New("payload is not valid json")
		}
		payloadJSON.Valid = true
		payloadJSON.JSONVal = string(event.Envelope.Data)
	}

	occurredAt := event.Envelope.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	return &domainEventRow{
		EventID:       event.Envelope.EventID,
		EventType:     string(event.Type),
		AggregateType: string(event.AggregateType),
		AggregateID:   event.AggregateID,
		OccurredAt:    occurredAt.UTC(),
		Payload:       payloadJSON,
	}, nil
}
