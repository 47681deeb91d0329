// Package imaging provides the perceptual fingerprinting and region
// cropping used to compare webcam snapshots.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/corona10/goimagehash"
	_ "golang.org/x/image/webp"
)

// Fingerprint is a 64-bit perceptual signature of an image, derived from a
// DCT of a downsampled grayscale version. It is robust to compression and
// lighting noise but sensitive to structural scene change.
type Fingerprint struct {
	hash *goimagehash.ImageHash
}

// FingerprintBytes decodes raw image bytes and computes their perceptual
// fingerprint. Decode failures are recoverable: callers are expected to
// treat an error as "comparison unavailable", not as a fatal condition.
func FingerprintBytes(data []byte) (Fingerprint, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Fingerprint{}, fmt.Errorf("decode image: %w", err)
	}

	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("perception hash: %w", err)
	}

	return Fingerprint{hash: hash}, nil
}

// Distance returns the Hamming distance between two fingerprints: the count
// of differing bits. It is symmetric and zero for identical inputs.
func (f Fingerprint) Distance(other Fingerprint) (int, error) {
	if f.hash == nil || other.hash == nil {
		return 0, fmt.Errorf("fingerprint not initialized")
	}
	return f.hash.Distance(other.hash)
}
