package orientation

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestIntegrate_YawFromRest(t *testing.T) {
	in := NewIntegrator(t0)
	s := in.Integrate(0, 0, 1.0, t0.Add(500*time.Millisecond))

	assert.InDelta(t, 0.48, s.RotationZ, 1e-12)
	assert.Zero(t, s.RotationX)
	assert.Zero(t, s.RotationY)
	assert.Equal(t, s, in.State())
}

func TestIntegrate_TiltClampEngages(t *testing.T) {
	in := NewIntegrator(t0)
	s := in.Integrate(2.0, 0, 0, t0.Add(time.Second))

	assert.Equal(t, 0.5, s.RotationX)
	assert.Zero(t, s.RotationY)
	assert.Zero(t, s.RotationZ)
}

func TestIntegrate_DampingOnlyOnZ(t *testing.T) {
	for _, rate := range []float64{-3, -0.25, 0.1, 0.4, 7} {
		in := NewIntegrator(t0)
		s := in.Integrate(rate, rate, rate, t0.Add(100*time.Millisecond))

		assert.InDelta(t, clampTilt(rate*0.1), s.RotationX, 1e-12, "x rate %v", rate)
		assert.InDelta(t, clampTilt(rate*0.1), s.RotationY, 1e-12, "y rate %v", rate)
		assert.InDelta(t, rate*0.96*0.1, s.RotationZ, 1e-12, "z rate %v", rate)
		assert.Equal(t, rate*0.96, DampZ(rate))
	}
}

func TestStep_LongGapUsesMinimumStep(t *testing.T) {
	for _, gap := range []time.Duration{
		1001 * time.Millisecond,
		2 * time.Second,
		time.Hour,
	} {
		assert.Equal(t, MinTimeStep, Step(gap), "gap %v", gap)
	}
	assert.Equal(t, 1.0, Step(time.Second))
	assert.InDelta(t, 0.02, Step(20*time.Millisecond), 1e-12)
}

func TestIntegrate_AfterPauseStepsOnce(t *testing.T) {
	in := NewIntegrator(t0)
	s := in.Integrate(0, 0, 1, t0.Add(10*time.Second))
	assert.InDelta(t, 0.96/40, s.RotationZ, 1e-12)

	// The timestamp is updated even when the step was clamped.
	s = in.Integrate(0, 0, 1, t0.Add(10*time.Second+250*time.Millisecond))
	assert.InDelta(t, 0.96/40+0.96*0.25, s.RotationZ, 1e-12)
}

func TestIntegrate_TiltStaysBounded(t *testing.T) {
	in := NewIntegrator(t0)
	at := t0
	for i := 0; i < 500; i++ {
		at = at.Add(time.Duration(1+i%900) * time.Millisecond)
		x := 5 * math.Sin(float64(i)*0.37)
		y := -4 * math.Cos(float64(i)*0.11)
		s := in.Integrate(x, y, 0, at)

		require.LessOrEqual(t, s.RotationX, TiltLimit)
		require.GreaterOrEqual(t, s.RotationX, -TiltLimit)
		require.LessOrEqual(t, s.RotationY, TiltLimit)
		require.GreaterOrEqual(t, s.RotationY, -TiltLimit)
	}
}

func TestIntegrate_YawUnboundedAndLinear(t *testing.T) {
	in := NewIntegrator(t0)
	at := t0
	for i := 0; i < 100; i++ {
		at = at.Add(100 * time.Millisecond)
		in.Integrate(0, 0, 2, at)
	}
	// 10 s at 2 rad/s damped by 0.96.
	assert.InDelta(t, 2*0.96*10, in.State().RotationZ, 1e-9)

	before := in.State().RotationZ
	for i := 0; i < 20; i++ {
		at = at.Add(50 * time.Millisecond)
		in.Integrate(0, 0, 0, at)
	}
	assert.Equal(t, before, in.State().RotationZ)
}

func TestYawDegrees(t *testing.T) {
	assert.InDelta(t, 180, State{RotationZ: math.Pi}.YawDegrees(), 1e-9)
	assert.InDelta(t, -90, State{RotationZ: -math.Pi / 2}.YawDegrees(), 1e-9)
}
