// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package render

import (
	"image"
	"math"
)

// Gauge constants, in view units.
const (
	AccelScale     = 22.0
	AccelDotRadius = 5.0
	CompassScale   = 4.0
	GyroRadius     = 150.0
	TiltScale      = 350.0
	TiltDotRadius  = 10.0
)

// Vector is a planar sample or a point in view coordinates (y down).
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vector) Add(o Vector) Vector    { return Vector{v.X + o.X, v.Y + o.Y} }
func (v Vector) Sub(o Vector) Vector    { return Vector{v.X - o.X, v.Y - o.Y} }
func (v Vector) Scale(k float64) Vector { return Vector{v.X * k, v.Y * k} }
func (v Vector) Len() float64           { return math.Hypot(v.X, v.Y) }

// rotate turns v by rad about the origin. With y pointing down a positive
// angle turns clockwise on screen.
func (v Vector) rotate(rad float64) Vector {
	sin, cos := math.Sincos(rad)
	return Vector{v.X*cos - v.Y*sin, v.X*sin + v.Y*cos}
}

// Segment is a straight line between two points.
type Segment struct {
	From, To Vector
}

// Geometry is the resolved layout of one frame.
type Geometry struct {
	Center Vector

	TouchActive        bool
	TouchLine          Segment
	TouchPerpendicular Segment

	Accel    Segment
	AccelTip Vector

	North Segment
	South Segment

	// GyroCross holds the vertical then horizontal bar, already rotated by
	// GyroAngle degrees about Center.
	GyroCross [2]Segment
	GyroAngle float64
	TiltDot   Vector
}

// Layout places every gauge of s in a view of the given size.
func Layout(s Scene, size image.Point) Geometry {
	c := Vector{float64(size.X) / 2, float64(size.Y) / 2}
	g := Geometry{Center: c}

	if s.Touch.Active {
		first := Vector{s.Touch.First.X, s.Touch.First.Y}
		second := Vector{s.Touch.Second.X, s.Touch.Second.Y}
		mid := first.Add(second).Scale(0.5)
		d := second.Sub(mid)
		normal := Vector{d.Y, -d.X}

		g.TouchActive = true
		g.TouchLine = Segment{first, second}
		g.TouchPerpendicular = Segment{mid.Add(normal), mid.Sub(normal)}
	}

	g.AccelTip = c.Add(s.Accel.Scale(AccelScale))
	g.Accel = Segment{c, g.AccelTip}

	g.North = Segment{c, c.Add(s.Mag.Scale(CompassScale))}
	g.South = Segment{c, c.Sub(s.Mag.Scale(CompassScale))}

	rad := s.Orientation.RotationZ
	g.GyroAngle = s.Orientation.YawDegrees()
	up := Vector{0, -GyroRadius}.rotate(rad)
	right := Vector{GyroRadius, 0}.rotate(rad)
	g.GyroCross[0] = Segment{c.Add(up), c.Sub(up)}
	g.GyroCross[1] = Segment{c.Sub(right), c.Add(right)}

	// Y tilt moves the dot sideways, X tilt moves it vertically.
	g.TiltDot = Vector{
		X: c.X + s.Orientation.RotationY*TiltScale,
		Y: c.Y + s.Orientation.RotationX*TiltScale,
	}
	return g
}
