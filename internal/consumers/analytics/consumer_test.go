package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/enums"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/logger"
	"github.com/dealerdeskhq/dealerdesk-backend/pkg/outbox"
	"github.com/google/uuid"
)

func TestAnalyticsConsumerIngestsPaymentRecorded(t *testing.T) {
	inserter := &fakeInserter{}
	manager := fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			return false, nil
		},
		deleteFn: func(_ context.Context, _ string, _ uuid.UUID) error {
			return nil
		},
	}
	consumer := mustConsumer(t, inserter, manager)

	paymentID := uuid.New()
	event := Event{
		Type:          enums.EventPaymentRecorded,
		AggregateType: enums.AggregatePayment,
		AggregateID:   paymentID.String(),
		Envelope: buildEnvelope(t, uuid.New(), map[string]any{
			"payment_id":     paymentID.String(),
			"receipt_number": "RCP-2026-00042",
		}),
	}

	if err := consumer.Process(context.Background(), event); err != nil {
		t.Fatalf("Process() error: %v", err)
	}

	if len(inserter.rows) != 1 {
		t.Fatalf("expected 1 row inserted, got %d", len(inserter.rows))
	}
	row, ok := inserter.rows[0].(*domainEventRow)
	if !ok {
		t.Fatalf("expected domainEventRow, got %T", inserter.rows[0])
	}
	if row.EventType != string(enums.EventPaymentRecorded) {
		t.Fatalf("unexpected event type: %s", row.EventType)
	}
	if row.AggregateType != string(enums.AggregatePayment) {
		t.Fatalf("unexpected aggregate type: %s", row.AggregateType)
	}
	if row.AggregateID != paymentID.String() {
		t.Fatalf("aggregate id mismatch")
	}
	if !row.Payload.Valid {
		t.Fatalf("payload should be valid json")
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(row.Payload.JSONVal), &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload["receipt_number"] != "RCP-2026-00042" {
		t.Fatalf("payload missing receipt_number")
	}
}

func TestAnalyticsConsumerIsIdempotent(t *testing.T) {
	inserter := &fakeInserter{}
	manager := fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			return true, nil
		},
		deleteFn: func(_ context.Context, _ string, _ uuid.UUID) error {
			return nil
		},
	}
	consumer := mustConsumer(t, inserter, manager)

	event := Event{
		Type:          enums.EventAuctionCompleted,
		AggregateType: enums.AggregateAuction,
		AggregateID:   uuid.NewString(),
		Envelope:      buildEnvelope(t, uuid.New(), map[string]any{}),
	}
	if err := consumer.Process(context.Background(), event); err != nil {
		t.Fatalf("Process() error: %v", err)
	}
	if len(inserter.rows) != 0 {
		t.Fatalf("expected no rows inserted when idempotent")
	}
}

func TestAnalyticsConsumerDeletesOnInsertFailure(t *testing.T) {
	inserter := &fakeInserter{err: errors.New("bigquery down")}
	deleted := false
	manager := fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			return false, nil
		},
		deleteFn: func(_ context.Context, _ string, _ uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	consumer := mustConsumer(t, inserter, manager)

	event := Event{
		Type:          enums.EventVehicleStatusChanged,
		AggregateType: enums.AggregateVehicle,
		AggregateID:   uuid.NewString(),
		Envelope: buildEnvelope(t, uuid.New(), map[string]any{
			"vin": "1HGBH41JXMN109186",
		}),
	}
	if err := consumer.Process(context.Background(), event); err == nil {
		t.Fatalf("expected error when insert fails")
	}
	if !deleted {
		t.Fatalf("expected idempotency key deletion on failure")
	}
}

func TestAnalyticsConsumerDeletesOnPayloadDecodeFailure(t *testing.T) {
	inserter := &fakeInserter{}
	deleted := false
	manager := fakeIdempotency{
		check: func(_ context.Context, _ string, _ uuid.UUID) (bool, error) {
			return false, nil
		},
		deleteFn: func(_ context.Context, _ string, _ uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	consumer := mustConsumer(t, inserter, manager)

	event := Event{
		Type:          enums.EventExpenseApproved,
		AggregateType: enums.AggregateExpense,
		AggregateID:   uuid.NewString(),
		Envelope: outbox.PayloadEnvelope{
			Version:    1,
			EventID:    uuid.NewString(),
			OccurredAt: time.Now(),
			Data:       []byte("{invalid json"),
		},
	}
	if err := consumer.Process(context.Background(), event); err == nil {
		t.Fatalf("expected error for bad payload")
	}
	if !deleted {
		t.Fatalf("expected idempotency key deletion on payload error")
	}
	if len(inserter.rows) != 0 {
		t.Fatalf("expected no rows inserted on payload failure")
	}
}

func TestDecodeMessageRejectsUnknownEventType(t *testing.T) {
	msg := newTestMessage(t, map[string]string{
		"event_type":     "not_a_real_event",
		"aggregate_type": string(enums.AggregateVehicle),
		"aggregate_id":   uuid.NewString(),
	}, buildEnvelope(t, uuid.New(), map[string]any{}))

	if _, err := decodeMessage(msg); err == nil {
		t.Fatalf("expected decode error for unknown event type")
	}
}

func TestDecodeMessageFallsBackToAttributeEventID(t *testing.T) {
	eventID := uuid.NewString()
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		OccurredAt: time.Now(),
		Data:       json.RawMessage(`{}`),
	}
	msg := newTestMessage(t, map[string]string{
		"event_type":     string(enums.EventBidPlaced),
		"aggregate_type": string(enums.AggregateAuction),
		"aggregate_id":   uuid.NewString(),
		"event_id":       eventID,
	}, envelope)

	decoded, err := decodeMessage(msg)
	if err != nil {
		t.Fatalf("decodeMessage() error: %v", err)
	}
	if decoded.Envelope.EventID != eventID {
		t.Fatalf("expected event id fallback to attribute, got %q", decoded.Envelope.EventID)
	}
}

type fakeInserter struct {
	rows []any
	err  error
}

func (f *fakeInserter) InsertRows(ctx context.Context, table string, rows []any) error {
	f.rows = append(f.rows, rows...)
	return f.err
}

type fakeIdempotency struct {
	check    func(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	deleteFn func(ctx context.Context, consumer string, eventID uuid.UUID) error
}

func (f fakeIdempotency) CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error) {
	return f.check(ctx, consumer, eventID)
}

func (f fakeIdempotency) Delete(ctx context.Context, consumer string, eventID uuid.UUID) error {
	return f.deleteFn(ctx, consumer, eventID)
}

func mustConsumer(t *testing.T, inserter *fakeInserter, manager fakeIdempotency) *Consumer {
	t.Helper()
	consumer, err := NewConsumer(inserter, "domain_events", nil, manager, logger.New(logger.Options{
		ServiceName: "analytics-test",
		Level:       logger.ParseLevel("debug"),
		Output:      io.Discard,
	}))
	if err != nil {
		t.Fatalf("failed to build consumer: %v", err)
	}
	return consumer
}

func buildEnvelope(t *testing.T, eventID uuid.UUID, payload any) outbox.PayloadEnvelope {
	t.Helper()
	bytes, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return outbox.PayloadEnvelope{
		Version:    1,
		EventID:    eventID.String(),
		OccurredAt: time.Now(),
		Data:       bytes,
	}
}

func newTestMessage(t *testing.T, attributes map[string]string, envelope outbox.PayloadEnvelope) *gcppubsub.Message {
	t.Helper()
	data, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return &gcppubsub.Message{
		Data:       data,
		Attributes: attributes,
	}
}
