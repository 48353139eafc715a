package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/disintegration/imaging"
	"github.com/gipity/assetgen/internal/domain"
)

var (
	ErrNoSource     = errors.New("transform requires a source image")
	ErrSizeMismatch = errors.New("copy requires the target size to equal the source size")
)

// Renderer produces the encoded output for one transform spec. Blank specs
// need no source, so src may be nil for those.
type Renderer interface {
	Render(ctx context.Context, src *domain.Master, spec domain.TransformSpec) (domain.Rendered, error)
}

func New() (Renderer, error) {
	return newRenderer()
}

// resolveRender validates the spec and pins down the target size, falling
// back to the source's native size when the spec leaves it open.
func resolveRender(src *domain.Master, spec domain.TransformSpec) (domain.Dims, error) {
	if err := spec.Validate(); err != nil {
		return domain.Dims{}, err
	}
	if spec.Mode == domain.ModeBlank {
		return *spec.Size, nil
	}
	if src == nil || src.Image == nil {
		return domain.Dims{}, ErrNoSource
	}
	if spec.Size == nil {
		return src.Size, nil
	}
	return *spec.Size, nil
}

// canCopyBytes reports whether the encoded source can be reused verbatim for
// a pad or stretch request: the sizes already match and the file carries an
// alpha channel. Margin mode never qualifies, its content box is smaller
// than the target even when the sizes match.
func canCopyBytes(src *domain.Master, target domain.Dims) bool {
	return src.Size == target && src.Alpha && src.Format == "png"
}

// fitWithin scales src to fit box while preserving aspect ratio. At least
// one axis lands exactly on its bound; smaller sources scale up.
func fitWithin(src, box domain.Dims) domain.Dims {
	if src.W*box.H >= src.H*box.W {
		h := int(math.Round(float64(src.H) * float64(box.W) / float64(src.W)))
		return domain.Dims{W: box.W, H: max(1, h)}
	}
	w := int(math.Round(float64(src.W) * float64(box.H) / float64(src.H)))
	return domain.Dims{W: max(1, w), H: box.H}
}

// marginBox shrinks the target per axis, flooring, so padded content keeps a
// transparent border.
func marginBox(target domain.Dims, margin float64) domain.Dims {
	return domain.Dims{
		W: max(1, int(float64(target.W)*margin)),
		H: max(1, int(float64(target.H)*margin)),
	}
}

// pasteOffset centers content on the canvas, flooring so any odd pixel of
// slack lands on the right/bottom edge.
func pasteOffset(canvas, content domain.Dims) (int, int) {
	return (canvas.W - content.W) / 2, (canvas.H - content.H) / 2
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	encoder := png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := encoder.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// blankPNG serves both renderers; a transparent canvas has no pixels worth
// pushing through libvips.
func blankPNG(size domain.Dims) (domain.Rendered, error) {
	data, err := encodePNG(imaging.New(size.W, size.H, color.NRGBA{}))
	if err != nil {
		return domain.Rendered{}, err
	}
	return domain.Rendered{Data: data, Size: size}, nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
