package engine

import (
	"bytes"
	"fmt"
	"image"
	"os"

	_ "image/jpeg"

	"github.com/gipity/assetgen/internal/domain"
	_ "golang.org/x/image/webp"
)

// LoadMaster reads and decodes a master image from disk.
func LoadMaster(role domain.Role, path string) (*domain.Master, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read master %s: %w", path, err)
	}
	return DecodeMaster(role, path, data)
}

// DecodeMaster decodes raw master bytes, keeping the original encoding
// alongside the pixels. PNG is the expected master format; JPEG and WebP
// decode fine but give up the byte-copy fast path.
func DecodeMaster(role domain.Role, path string, data []byte) (*domain.Master, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode master %s (%s): %w", role, path, err)
	}

	bounds := img.Bounds()
	return &domain.Master{
		Role:   role,
		Path:   path,
		Format: format,
		Data:   data,
		Image:  img,
		Size:   domain.Dims{W: bounds.Dx(), H: bounds.Dy()},
		Alpha:  hasAlpha(img),
	}, nil
}

// hasAlpha reports whether the decoded image carries a stored alpha channel.
// The PNG decoder hands back *image.RGBA for RGB files with every pixel
// opaque, so only the non-premultiplied types count.
func hasAlpha(img image.Image) bool {
	switch img.(type) {
	case *image.NRGBA, *image.NRGBA64, *image.NYCbCrA:
		return true
	default:
		return false
	}
}
