package engine

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/gipity/assetgen/internal/domain"
)

// imagingRenderer is the pure-Go renderer. Lanczos resampling matches the
// quality bar set for the govips build without needing cgo.
type imagingRenderer struct{}

func (imagingRenderer) Render(ctx context.Context, src *domain.Master, spec domain.TransformSpec) (domain.Rendered, error) {
	select {
	case <-ctx.Done():
		return domain.Rendered{}, ctx.Err()
	default:
	}

	target, err := resolveRender(src, spec)
	if err != nil {
		return domain.Rendered{}, err
	}

	switch spec.Mode {
	case domain.ModeBlank:
		return blankPNG(target)

	case domain.ModeCopy:
		if target != src.Size {
			return domain.Rendered{}, fmt.Errorf("%w: source %s, target %s", ErrSizeMismatch, src.Size, target)
		}
		return domain.Rendered{Data: src.Data, Size: src.Size}, nil

	case domain.ModePad:
		if canCopyBytes(src, target) {
			return domain.Rendered{Data: src.Data, Size: src.Size}, nil
		}
		return padOnto(src.Image, src.Size, target, target)

	case domain.ModeMargin:
		return padOnto(src.Image, src.Size, marginBox(target, spec.EffectiveMargin()), target)

	case domain.ModeStretch:
		if canCopyBytes(src, target) {
			return domain.Rendered{Data: src.Data, Size: src.Size}, nil
		}
		out := imaging.Resize(src.Image, target.W, target.H, imaging.Lanczos)
		data, err := encodePNG(out)
		if err != nil {
			return domain.Rendered{}, err
		}
		return domain.Rendered{Data: data, Size: target}, nil

	default:
		return domain.Rendered{}, fmt.Errorf("unknown transform mode: %q", spec.Mode)
	}
}

// padOnto fits the source into box, then centers the result on a transparent
// canvas. The canvas starts fully transparent so the paste is a plain
// overwrite, no blending involved.
func padOnto(src image.Image, srcSize, box, canvas domain.Dims) (domain.Rendered, error) {
	content := fitWithin(srcSize, box)
	resized := imaging.Resize(src, content.W, content.H, imaging.Lanczos)
	background := imaging.New(canvas.W, canvas.H, color.NRGBA{})
	x, y := pasteOffset(canvas, content)
	out := imaging.Paste(background, resized, image.Pt(x, y))

	data, err := encodePNG(out)
	if err != nil {
		return domain.Rendered{}, err
	}
	return domain.Rendered{Data: data, Size: canvas}, nil
}
