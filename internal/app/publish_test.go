package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/relabs-tech/gyro2d/internal/orientation"
	"github.com/relabs-tech/gyro2d/internal/render"
)

// doneToken is an already completed MQTT token.
type doneToken struct {
	err error
}

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }

func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic    string
	retained bool
	payload  []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{topic: topic, retained: retained, payload: payload.([]byte)})
	return doneToken{err: p.err}
}

func (p *fakePublisher) messages() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.msgs...)
}

func TestPublish_Throttles(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewPublish(pub, "gyro2d/orientation", 100*time.Millisecond, zaptest.NewLogger(t))

	for i := 0; i < 10; i++ {
		f := Frame{Seq: uint64(i + 1), At: t0.Add(time.Duration(i) * 25 * time.Millisecond)}
		require.NoError(t, sink.Present(context.Background(), f))
	}

	// Frames at 0, 100 and 200 ms.
	msgs := pub.messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, "gyro2d/orientation", msgs[0].topic)
	assert.True(t, msgs[0].retained)
}

func TestPublish_Payload(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewPublish(pub, "o", time.Second, nil)

	st := orientation.State{RotationX: 0.1, RotationY: -0.2, RotationZ: 0.5}
	require.NoError(t, sink.Present(context.Background(), Frame{Seq: 1, At: t0, Scene: render.Scene{Orientation: st}}))

	msgs := pub.messages()
	require.Len(t, msgs, 1)

	var got map[string]float64
	require.NoError(t, json.Unmarshal(msgs[0].payload, &got))
	assert.InDelta(t, 0.1, got["rotation_x"], 1e-12)
	assert.InDelta(t, -0.2, got["rotation_y"], 1e-12)
	assert.InDelta(t, 0.5, got["rotation_z"], 1e-12)
	assert.InDelta(t, st.YawDegrees(), got["yaw_deg"], 1e-9)
	assert.Equal(t, float64(t0.UnixMilli()), got["time_ms"])
}

func TestPublish_ErrorIsReported(t *testing.T) {
	pub := &fakePublisher{err: errors.New("not connected")}
	sink := NewPublish(pub, "o", 0, nil)

	err := sink.Present(context.Background(), Frame{Seq: 1, At: t0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")

	// A failed publish does not start the interval.
	pub.err = nil
	require.NoError(t, sink.Present(context.Background(), Frame{Seq: 2, At: t0}))
	assert.Len(t, pub.messages(), 2)
}
