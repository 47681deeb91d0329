package imaging

import (
	"bytes"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
)

// Rect is a pixel-space crop rectangle. X2/Y2 are exclusive.
type Rect struct {
	X1 int `json:"x1" yaml:"x1"`
	Y1 int `json:"y1" yaml:"y1"`
	X2 int `json:"x2" yaml:"x2"`
	Y2 int `json:"y2" yaml:"y2"`
}

// Crop restricts the image to rect and re-encodes it in its original
// format. A nil rect is a no-op. Any decode, clamp, or encode failure falls
// back to returning the original bytes unchanged: cropping is an
// optimization for comparison quality and must never fail a capture cycle.
//
// Cropping exists so that timestamp overlays, sky, and other always-changing
// regions don't register as scene change.
func Crop(data []byte, rect *Rect) []byte {
	if rect == nil {
		return data
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}

	r := image.Rect(rect.X1, rect.Y1, rect.X2, rect.Y2).Intersect(img.Bounds())
	if r.Empty() {
		return data
	}

	cropped := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(cropped, cropped.Bounds(), img, r.Min, draw.Src)

	var buf bytes.Buffer
	switch format {
	case "png":
		err = png.Encode(&buf, cropped)
	case "gif":
		err = gif.Encode(&buf, cropped, nil)
	default:
		// JPEG, and formats we can decode but not encode (webp): both the
		// candidate and the reference pass through this same path, so the
		// comparison stays consistent.
		err = jpeg.Encode(&buf, cropped, nil)
	}
	if err != nil {
		return data
	}

	return buf.Bytes()
}
