package sensors

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockSource_EmitsAllKinds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	out := make(chan Reading, 16)
	done := make(chan error, 1)
	go func() { done <- NewMockSource(time.Millisecond).Run(ctx, out) }()

	seen := map[Kind]bool{}
	for len(seen) < 3 {
		select {
		case r := <-out:
			seen[r.Kind] = true
			assert.False(t, r.At.IsZero())
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out, saw %v", seen)
		}
	}

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("source did not stop")
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "gyro", Gyro.String())
	assert.Equal(t, "accel", Accel.String())
	assert.Equal(t, "mag", Mag.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}
