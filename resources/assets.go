package resources

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"sync"

	"fyne.io/fyne/v2"
	"golang.org/x/image/vector"

	"fivephase/internal/core/model"
)

// IconSize is the edge length of generated icons in pixels.
const IconSize = 64

var iconCache sync.Map

// Icon returns a pentagon icon filled with fill. Icons are cached per color.
func Icon(fill model.Color) (fyne.Resource, error) {
	name := fmt.Sprintf("pentagon-%s.png", fill.Hex()[1:])
	if cached, ok := iconCache.Load(name); ok {
		return cached.(fyne.Resource), nil
	}

	data, err := renderPentagon(fill, IconSize)
	if err != nil {
		return nil, fmt.Errorf("render icon %s: %w", name, err)
	}

	resource := fyne.NewStaticResource(name, data)
	iconCache.Store(name, resource)
	return resource, nil
}

// MustIcon returns an icon or panics on error.
func MustIcon(fill model.Color) fyne.Resource {
	resource, err := Icon(fill)
	if err != nil {
		panic(err)
	}
	return resource
}

// ActiveIcon is shown while the sequence plays.
func ActiveIcon() fyne.Resource {
	return MustIcon(model.Phases[1].Color)
}

// PausedIcon is shown while the sequence is paused.
func PausedIcon() fyne.Resource {
	return MustIcon(model.Color{R: 0x80, G: 0x80, B: 0x80})
}

func renderPentagon(fill model.Color, size int) ([]byte, error) {
	canvas := image.NewNRGBA(image.Rect(0, 0, size, size))
	center := float64(size) / 2
	radius := center * 0.92

	raster := vector.NewRasterizer(size, size)
	for i := 0; i < model.PhaseCount; i++ {
		rad := (float64(i)*72 - 90) * math.Pi / 180
		x := float32(center + radius*math.Cos(rad))
		y := float32(center + radius*math.Sin(rad))
		if i == 0 {
			raster.MoveTo(x, y)
			continue
		}
		raster.LineTo(x, y)
	}
	raster.ClosePath()

	src := image.NewUniform(color.NRGBA{R: fill.R, G: fill.G, B: fill.B, A: 0xFF})
	raster.DrawOp = draw.Over
	raster.Draw(canvas, canvas.Bounds(), src, image.Point{})

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
