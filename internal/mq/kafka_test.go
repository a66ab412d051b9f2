package mq

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swassyman/heart/internal/contracts"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestPublisher_AlertsRaised(t *testing.T) {
	alerts := &recordingWriter{}
	pub := NewPublisher(&recordingWriter{}, alerts)

	err := pub.AlertsRaised(context.Background(), "p2", []contracts.Alert{
		{ID: "a1", Level: contracts.AlertLevelProperty, EntityID: "p2", Type: "HIGH_RISK", RiskScore: 0.85},
		{ID: "a2", Level: contracts.AlertLevelRoom, EntityID: "Basement", Type: "ROOM_RISK", RiskScore: 0.67},
	})
	require.NoError(t, err)
	require.Len(t, alerts.msgs, 2)
	assert.Equal(t, "p2", string(alerts.msgs[0].Key))

	event, err := ParseMessageJSON[contracts.AlertRaised](alerts.msgs[1])
	require.NoError(t, err)
	assert.Equal(t, "p2", event.PropertyID)
	assert.Equal(t, "a2", event.Alert.ID)
	assert.Equal(t, "Basement", event.Alert.EntityID)

	require.NoError(t, pub.AlertsRaised(context.Background(), "p2", nil))
	assert.Len(t, alerts.msgs, 2)
}

func TestPublisher_InspectionSubmitted(t *testing.T) {
	inspections := &recordingWriter{}
	pub := NewPublisher(inspections, &recordingWriter{})

	in := contracts.Inspection{ID: "i1", PropertyID: "p1", InspectorID: "u3", Status: contracts.InspectionPending}
	require.NoError(t, pub.InspectionSubmitted(context.Background(), in))
	require.Len(t, inspections.msgs, 1)

	event, err := ParseMessageJSON[contracts.InspectionSubmitted](inspections.msgs[0])
	require.NoError(t, err)
	assert.Equal(t, in, event.Inspection)
	assert.False(t, event.Timestamp.IsZero())
}

func TestPublisher_WriteFailureIsTransportError(t *testing.T) {
	pub := NewPublisher(&recordingWriter{err: errors.New("broker down")}, &recordingWriter{})
	err := pub.InspectionSubmitted(context.Background(), contracts.Inspection{ID: "i1", PropertyID: "p1"})
	assert.ErrorIs(t, err, contracts.ErrTransport)
}
