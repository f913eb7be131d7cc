// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package render

import "image/color"

// Style is one paint bucket. Stroke styles outline circles, fill styles
// paint them solid. Lines always use Width.
type Style struct {
	Color  color.NRGBA
	Width  float64
	Stroke bool
}

// The five fixed style buckets.
var (
	GyroStyle         = Style{Color: argb(0x77ffffff), Width: 5, Stroke: true}
	CompassNorthStyle = Style{Color: argb(0xffff0000), Width: 5}
	CompassSouthStyle = Style{Color: argb(0xffffffff), Width: 5}
	AccelStyle        = Style{Color: argb(0xff33bb33), Width: 5}
	TouchStyle        = Style{Color: argb(0xff4444cc), Width: 5}
)

var (
	backgroundColor = color.RGBA{A: 0xff}
	statusColor     = argb(0xffaaaaaa)
)

func argb(v uint32) color.NRGBA {
	return color.NRGBA{
		A: uint8(v >> 24),
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}
}
