package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/relabs-tech/gyro2d/internal/imu"
)

type scriptedIMU struct {
	samples []imu.IMURaw
	errs    []error
	n       int
}

func (s *scriptedIMU) NextRaw() (imu.IMURaw, error) {
	i := s.n
	s.n++
	if i < len(s.errs) && s.errs[i] != nil {
		return imu.IMURaw{}, s.errs[i]
	}
	return s.samples[i], nil
}

func TestProduceIMU_PublishesEachTick(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := &scriptedIMU{
		samples: []imu.IMURaw{
			{Source: "imu", TimeMS: 1, Ax: 100, Gz: -5},
			{},
			{Source: "imu", TimeMS: 3, Ay: 200, Gx: 7},
		},
		errs: []error{nil, errors.New("spi timeout"), nil},
	}
	pub := &fakePublisher{}
	ticks := make(chan time.Time)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ProduceIMU(ctx, src, pub, "gyro2d/imu", ticks, zaptest.NewLogger(t)) }()

	for i := 0; i < 3; i++ {
		ticks <- t0.Add(time.Duration(i) * 20 * time.Millisecond)
	}
	cancel()
	require.NoError(t, <-done)

	msgs := pub.messages()
	require.Len(t, msgs, 2, "the failed read is skipped")
	assert.Equal(t, "gyro2d/imu", msgs[0].topic)
	assert.False(t, msgs[0].retained)

	var got imu.IMURaw
	require.NoError(t, json.Unmarshal(msgs[1].payload, &got))
	assert.Equal(t, src.samples[2], got)
}
