// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"time"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/gyro2d/internal/orientation"
)

const (
	oledWidth  = 128
	oledHeight = 64

	// Luma above which a scaled pixel lights up.
	oledThreshold = 0x30
)

// Display mirrors frames on a 128x64 SSD1306. The frame is scaled to fit
// the left part of the panel and the yaw is printed on the right.
type Display struct {
	bus      i2c.BusCloser
	dev      *ssd1306.Dev
	interval time.Duration
	log      *zap.Logger
	lastDraw time.Time
}

// NewDisplay opens the I2C bus, an empty name meaning the first one, and
// shows a splash screen.
func NewDisplay(busName string, interval time.Duration, log *zap.Logger) (*Display, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("display: periph init: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("display: open I2C bus %q: %w", busName, err)
	}

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("display: init: %w", err)
	}
	log.Info("display: initialized", zap.String("bus", busName))

	d := &Display{bus: bus, dev: dev, interval: interval, log: log}
	if err := dev.Draw(dev.Bounds(), splash(), image.Point{}); err != nil {
		log.Warn("display: splash failed", zap.Error(err))
	}
	return d, nil
}

// Present draws the frame if the update interval has passed.
func (d *Display) Present(_ context.Context, f Frame) error {
	if !d.lastDraw.IsZero() && f.At.Sub(d.lastDraw) < d.interval {
		return nil
	}
	d.lastDraw = f.At

	img := monochrome(f.Image, f.Scene.Orientation)
	if err := d.dev.Draw(d.dev.Bounds(), img, image.Point{}); err != nil {
		return fmt.Errorf("display: draw frame %d: %w", f.Seq, err)
	}
	return nil
}

// Close blanks the panel and releases the bus.
func (d *Display) Close() error {
	if err := d.dev.Halt(); err != nil {
		d.log.Warn("display: halt failed", zap.Error(err))
	}
	return d.bus.Close()
}

// monochrome scales src into the panel, keeping its aspect ratio, and
// prints the yaw next to it.
func monochrome(src image.Image, st orientation.State) *image1bit.VerticalLSB {
	out := image1bit.NewVerticalLSB(image.Rect(0, 0, oledWidth, oledHeight))

	sb := src.Bounds()
	fit := fitRect(sb.Dx(), sb.Dy(), oledWidth, oledHeight)
	gray := image.NewGray(fit)
	draw.ApproxBiLinear.Scale(gray, fit, src, sb, draw.Src, nil)

	for y := fit.Min.Y; y < fit.Max.Y; y++ {
		for x := fit.Min.X; x < fit.Max.X; x++ {
			if gray.GrayAt(x, y).Y > oledThreshold {
				out.SetBit(x, y, image1bit.On)
			}
		}
	}

	if fit.Max.X+8 < oledWidth {
		drawer := &font.Drawer{
			Dst:  out,
			Src:  &image.Uniform{image1bit.On},
			Face: basicfont.Face7x13,
		}
		drawer.Dot = fixed.P(fit.Max.X+4, 26)
		drawer.DrawString("Yaw")
		drawer.Dot = fixed.P(fit.Max.X+4, 39)
		drawer.DrawString(fmt.Sprintf("%6.1f", st.YawDegrees()))
	}
	return out
}

// fitRect is the largest w x h aspect rectangle inside maxW x maxH, left
// aligned and vertically centered.
func fitRect(w, h, maxW, maxH int) image.Rectangle {
	if w <= 0 || h <= 0 {
		return image.Rectangle{}
	}
	fw, fh := maxW, maxW*h/w
	if fh > maxH {
		fw, fh = maxH*w/h, maxH
	}
	top := (maxH - fh) / 2
	return image.Rect(0, top, fw, top+fh)
}

func splash() *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, oledWidth, oledHeight))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{color.Gray{Y: 0xff}},
		Face: basicfont.Face7x13,
	}
	drawer.Dot = fixed.P(36, 26)
	drawer.DrawString("gyro2d")
	drawer.Dot = fixed.P(10, 43)
	drawer.DrawString("Waiting for IMU")
	return img
}
