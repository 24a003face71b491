package resources

import (
	"bytes"
	"image/png"
	"testing"

	"fivephase/internal/core/model"
)

func TestIconIsFilledPentagon(t *testing.T) {
	fill := model.Phases[3].Color
	resource, err := Icon(fill)
	if err != nil {
		t.Fatalf("Icon: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(resource.Content()))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if img.Bounds().Dx() != IconSize || img.Bounds().Dy() != IconSize {
		t.Fatalf("bounds = %v", img.Bounds())
	}

	r, g, b, a := img.At(IconSize/2, IconSize/2).RGBA()
	if uint8(r>>8) != fill.R || uint8(g>>8) != fill.G || uint8(b>>8) != fill.B || a != 0xFFFF {
		t.Errorf("center pixel = %d %d %d %d, want %s", r>>8, g>>8, b>>8, a>>8, fill.Hex())
	}
	if _, _, _, a := img.At(0, IconSize-1).RGBA(); a != 0 {
		t.Errorf("corner alpha = %d, want transparent", a)
	}
}

func TestIconIsCached(t *testing.T) {
	first := MustIcon(model.Phases[0].Color)
	second := MustIcon(model.Phases[0].Color)
	if first != second {
		t.Error("Icon returned a new resource for the same color")
	}
	if ActiveIcon().Name() == PausedIcon().Name() {
		t.Error("active and paused icons share a name")
	}
}
