package app

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/gyro2d/internal/orientation"
)

func TestFitRect(t *testing.T) {
	tests := []struct {
		name       string
		w, h       int
		maxW, maxH int
		want       image.Rectangle
	}{
		{"portrait", 720, 1280, 128, 64, image.Rect(0, 0, 36, 64)},
		{"landscape wide", 256, 64, 128, 64, image.Rect(0, 16, 128, 48)},
		{"same aspect", 256, 128, 128, 64, image.Rect(0, 0, 128, 64)},
		{"empty", 0, 10, 128, 64, image.Rectangle{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fitRect(tt.w, tt.h, tt.maxW, tt.maxH))
		})
	}
}

func TestMonochrome_Threshold(t *testing.T) {
	// Left half white, right half black.
	src := image.NewRGBA(image.Rect(0, 0, 72, 128))
	for y := 0; y < 128; y++ {
		for x := 0; x < 36; x++ {
			src.Set(x, y, color.White)
		}
	}

	out := monochrome(src, orientation.State{})
	assert.Equal(t, image.Rect(0, 0, oledWidth, oledHeight), out.Bounds())

	// Scaled to 36x64, white below x=18.
	assert.Equal(t, image1bit.On, out.BitAt(4, 32))
	assert.Equal(t, image1bit.Off, out.BitAt(28, 32))
}

func TestMonochrome_PrintsYaw(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 72, 128))
	out := monochrome(src, orientation.State{RotationZ: 1})

	lit := 0
	for y := 0; y < oledHeight; y++ {
		for x := 40; x < oledWidth; x++ {
			if out.BitAt(x, y) == image1bit.On {
				lit++
			}
		}
	}
	assert.Positive(t, lit)
}
