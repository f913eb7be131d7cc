// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package render draws the gyroscope, accelerometer, compass and touch
// gauges into a raster frame.
package render

import (
	"image"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/relabs-tech/gyro2d/internal/orientation"
	"github.com/relabs-tech/gyro2d/internal/touch"
)

// Scene is the immutable input of one frame.
type Scene struct {
	Orientation orientation.State
	Accel       Vector
	Mag         Vector
	Touch       touch.State

	// Status is an optional single line drawn in the top-left corner.
	Status string
}

// Renderer draws scenes into frames of a fixed size. It keeps a reusable
// rasterizer, so a Renderer must not be shared between goroutines.
type Renderer struct {
	size image.Point
	z    *vector.Rasterizer
	face font.Face
}

// NewRenderer returns a renderer for width x height frames.
func NewRenderer(width, height int) *Renderer {
	return &Renderer{
		size: image.Pt(width, height),
		z:    vector.NewRasterizer(width, height),
		face: basicfont.Face7x13,
	}
}

// Size returns the frame size.
func (r *Renderer) Size() image.Point {
	return r.size
}

// Render draws s into a newly allocated frame. Frames are handed to sinks,
// so each call returns a fresh image.
func (r *Renderer) Render(s Scene) *image.RGBA {
	dst := image.NewRGBA(image.Rectangle{Max: r.size})
	r.Draw(dst, s)
	return dst
}

// Draw paints s over the whole of dst.
func (r *Renderer) Draw(dst draw.Image, s Scene) {
	bounds := dst.Bounds()
	draw.Draw(dst, bounds, image.NewUniform(backgroundColor), image.Point{}, draw.Src)

	g := Layout(s, bounds.Size())
	p := painter{z: r.z, dst: dst, bounds: bounds}

	if g.TouchActive {
		p.line(g.TouchLine, TouchStyle)
		p.line(g.TouchPerpendicular, TouchStyle)
	}

	p.line(g.Accel, AccelStyle)
	p.circle(g.AccelTip, AccelDotRadius, AccelStyle)

	p.line(g.North, CompassNorthStyle)
	p.line(g.South, CompassSouthStyle)

	p.line(g.GyroCross[0], GyroStyle)
	p.line(g.GyroCross[1], GyroStyle)
	p.circle(g.Center, GyroRadius, GyroStyle)
	p.circle(g.TiltDot, TiltDotRadius, GyroStyle)

	if s.Status != "" {
		d := &font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(statusColor),
			Face: r.face,
			Dot:  fixed.P(bounds.Min.X+6, bounds.Min.Y+16),
		}
		d.DrawString(s.Status)
	}
}

type painter struct {
	z      *vector.Rasterizer
	dst    draw.Image
	bounds image.Rectangle
}

// fill paints the contours as one path, rasterizing only their bounding
// box.
func (p painter) fill(st Style, contours ...[]Vector) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range contours {
		for _, v := range c {
			minX, maxX = math.Min(minX, v.X), math.Max(maxX, v.X)
			minY, maxY = math.Min(minY, v.Y), math.Max(maxY, v.Y)
		}
	}
	if math.IsNaN(minX+minY+maxX+maxY) || math.IsInf(minX+minY+maxX+maxY, 0) {
		return
	}
	box := image.Rect(
		int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX)), int(math.Ceil(maxY)),
	).Intersect(image.Rectangle{Max: p.bounds.Size()})
	if box.Empty() {
		return
	}

	p.z.Reset(box.Dx(), box.Dy())
	p.z.DrawOp = draw.Over
	ox, oy := float64(box.Min.X), float64(box.Min.Y)
	for _, c := range contours {
		if len(c) < 3 {
			continue
		}
		p.z.MoveTo(float32(c[0].X-ox), float32(c[0].Y-oy))
		for _, v := range c[1:] {
			p.z.LineTo(float32(v.X-ox), float32(v.Y-oy))
		}
		p.z.ClosePath()
	}
	p.z.Draw(p.dst, box.Add(p.bounds.Min), image.NewUniform(st.Color), image.Point{})
}

// line strokes seg with butt caps. Degenerate segments draw nothing.
func (p painter) line(seg Segment, st Style) {
	d := seg.To.Sub(seg.From)
	n := d.Len()
	if n == 0 {
		return
	}
	off := Vector{-d.Y, d.X}.Scale(st.Width / 2 / n)
	p.fill(st, []Vector{
		seg.From.Add(off),
		seg.To.Add(off),
		seg.To.Sub(off),
		seg.From.Sub(off),
	})
}

// circle fills a disc, or strokes a ring of width st.Width for stroke
// styles.
func (p painter) circle(c Vector, radius float64, st Style) {
	if !st.Stroke {
		p.fill(st, polygon(c, radius, false))
		return
	}
	outer := radius + st.Width/2
	inner := radius - st.Width/2
	if inner <= 0 {
		p.fill(st, polygon(c, outer, false))
		return
	}
	// Opposite winding cuts the hole.
	p.fill(st, polygon(c, outer, false), polygon(c, inner, true))
}

func polygon(c Vector, radius float64, reverse bool) []Vector {
	n := segmentsFor(radius)
	step := 2 * math.Pi / float64(n)
	if reverse {
		step = -step
	}
	pts := make([]Vector, n)
	for i := range pts {
		sin, cos := math.Sincos(float64(i) * step)
		pts[i] = Vector{c.X + radius*cos, c.Y + radius*sin}
	}
	return pts
}

// segmentsFor keeps polygon edges around two pixels long.
func segmentsFor(radius float64) int {
	n := int(math.Ceil(math.Pi * radius))
	if n < 16 {
		return 16
	}
	if n > 512 {
		return 512
	}
	return n
}
