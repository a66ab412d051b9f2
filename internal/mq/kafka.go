package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/swassyman/heart/internal/contracts"
)

func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           250 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

func NewReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		MaxWait:        time.Second,
	})
}

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

func jsonMessage(key string, payload any) (kafka.Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal %T: %w", payload, err)
	}
	return kafka.Message{
		Key:   []byte(key),
		Value: body,
		Time:  time.Now().UTC(),
	}, nil
}

func PublishJSON(ctx context.Context, writer MessageWriter, key string, payload any) error {
	msg, err := jsonMessage(key, payload)
	if err != nil {
		return err
	}
	if err := writer.WriteMessages(ctx, msg); err != nil {
		return &contracts.TransportError{Op: "kafka publish", Err: err}
	}
	return nil
}

func ParseMessageJSON[T any](msg kafka.Message) (T, error) {
	var payload T
	err := json.Unmarshal(msg.Value, &payload)
	return payload, err
}

// Publisher emits domain events. Inspections and alerts go to separate
// topics; alerts are keyed by property so a consumer sees them in order.
type Publisher struct {
	inspections MessageWriter
	alerts      MessageWriter
}

func NewPublisher(inspections, alerts MessageWriter) *Publisher {
	return &Publisher{inspections: inspections, alerts: alerts}
}

func (p *Publisher) InspectionSubmitted(ctx context.Context, in contracts.Inspection) error {
	return PublishJSON(ctx, p.inspections, in.PropertyID, contracts.InspectionSubmitted{
		Inspection: in,
		Timestamp:  time.Now().UTC(),
	})
}

func (p *Publisher) AlertsRaised(ctx context.Context, propertyID string, alerts []contracts.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(alerts))
	for _, a := range alerts {
		msg, err := jsonMessage(propertyID, contracts.AlertRaised{
			PropertyID: propertyID,
			Alert:      a,
			Timestamp:  time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}
	if err := p.alerts.WriteMessages(ctx, msgs...); err != nil {
		return &contracts.TransportError{Op: "kafka publish alerts", Err: err}
	}
	return nil
}

// Nop discards every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) InspectionSubmitted(context.Context, contracts.Inspection) error { return nil }
func (Nop) AlertsRaised(context.Context, string, []contracts.Alert) error   { return nil }
