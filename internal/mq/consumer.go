package mq

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageReader is the subset of *kafka.Reader the consume loop needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

const readBackoff = 500 * time.Millisecond

// Consume reads messages until ctx is cancelled, decoding each value as T
// and passing it to handle. Undecodable messages and handler failures are
// logged and skipped; the consumer group offset still advances past them.
func Consume[T any](ctx context.Context, reader MessageReader, logger *slog.Logger, handle func(context.Context, T) error) error {
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			logger.Error("kafka read failed", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(readBackoff):
			}
			continue
		}

		payload, err := ParseMessageJSON[T](msg)
		if err != nil {
			logger.Warn("skipping undecodable message", "topic", msg.Topic, "offset", msg.Offset, "error", err)
			continue
		}
		if err := handle(ctx, payload); err != nil {
			logger.Error("message handler failed", "topic", msg.Topic, "key", string(msg.Key), "error", err)
		}
	}
}
