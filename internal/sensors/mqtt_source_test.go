package sensors

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/gyro2d/internal/imu"
)

func TestDecodeIMURaw(t *testing.T) {
	payload := []byte(`{"source":"left","time_ms":1767268800000,
		"ax":16384,"ay":0,"az":-16384,
		"gx":0,"gy":131,"gz":-655,
		"mx":200,"my":-100,"mz":0}`)

	// Producer clock is an hour behind; the first sample lands on the
	// local receive time.
	received := time.UnixMilli(1767268800000).Add(time.Hour)
	got, err := DecodeIMURaw(payload, imu.Ranges{}, &Timeline{}, received)
	require.NoError(t, err)
	require.Len(t, got, 3)

	at := received
	deg := math.Pi / 180

	assert.Equal(t, Gyro, got[0].Kind)
	assert.InDelta(t, 1*deg, got[0].Y, 1e-12)
	assert.InDelta(t, -5*deg, got[0].Z, 1e-12)
	assert.True(t, got[0].At.Equal(at))

	assert.Equal(t, Accel, got[1].Kind)
	assert.InDelta(t, imu.StandardGravity, got[1].X, 1e-9)
	assert.InDelta(t, -imu.StandardGravity, got[1].Z, 1e-9)

	assert.Equal(t, Mag, got[2].Kind)
	assert.InDelta(t, 20, got[2].X, 1e-12)
	assert.InDelta(t, -10, got[2].Y, 1e-12)
}

func TestDecodeIMURaw_NoMagNoTimestamp(t *testing.T) {
	received := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	got, err := DecodeIMURaw([]byte(`{"gx":1,"ax":2}`), imu.Ranges{Gyro: 3}, &Timeline{}, received)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, received, got[0].At)
	assert.InDelta(t, math.Pi/180/16.375, got[0].X, 1e-12)
}

func TestDecodeIMURaw_BadPayload(t *testing.T) {
	_, err := DecodeIMURaw([]byte(`{"gx":`), imu.Ranges{}, nil, time.Now())
	assert.ErrorContains(t, err, "unmarshal imu sample")
}

func TestDecodeIMURaw_NilTimelineUsesReceiveTime(t *testing.T) {
	received := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	got, err := DecodeIMURaw([]byte(`{"time_ms":1000,"gz":131}`), imu.Ranges{}, nil, received)
	require.NoError(t, err)
	assert.Equal(t, received, got[0].At)
}
