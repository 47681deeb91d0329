package imaging

import (
	"bytes"
	"image"
	"testing"
)

func TestCropNilRectIsNoOp(t *testing.T) {
	data := encodePNG(t, 64, 64, stripes)

	got := Crop(data, nil)
	if !bytes.Equal(got, data) {
		t.Fatal("nil rect must return input unchanged")
	}
}

func TestCropRestrictsToRectangle(t *testing.T) {
	data := encodePNG(t, 100, 80, stripes)

	got := Crop(data, &Rect{X1: 10, Y1: 20, X2: 60, Y2: 70})

	img, format, err := image.Decode(bytes.NewReader(got))
	if err != nil {
		t.Fatalf("cropped output must decode: %v", err)
	}
	if format != "png" {
		t.Fatalf("expected cropped output re-encoded as png, got %s", format)
	}
	if img.Bounds().Dx() != 50 || img.Bounds().Dy() != 50 {
		t.Fatalf("expected 50x50 crop, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestCropClampsToImageBounds(t *testing.T) {
	data := encodePNG(t, 40, 40, stripes)

	got := Crop(data, &Rect{X1: 20, Y1: 20, X2: 200, Y2: 200})

	img, _, err := image.Decode(bytes.NewReader(got))
	if err != nil {
		t.Fatalf("cropped output must decode: %v", err)
	}
	if img.Bounds().Dx() != 20 || img.Bounds().Dy() != 20 {
		t.Fatalf("expected clamped 20x20 crop, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}

func TestCropFallsBackOnUndecodableInput(t *testing.T) {
	data := []byte("definitely not an image")

	got := Crop(data, &Rect{X1: 0, Y1: 0, X2: 10, Y2: 10})
	if !bytes.Equal(got, data) {
		t.Fatal("decode failure must fall back to original bytes")
	}
}

func TestCropFallsBackOnEmptyRectangle(t *testing.T) {
	data := encodePNG(t, 40, 40, stripes)

	// Rectangle entirely outside the image.
	got := Crop(data, &Rect{X1: 100, Y1: 100, X2: 120, Y2: 120})
	if !bytes.Equal(got, data) {
		t.Fatal("empty intersection must fall back to original bytes")
	}
}
