//go:build govips && cgo

package engine

import (
	"context"
	"fmt"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/gipity/assetgen/internal/domain"
)

type govipsRenderer struct{}

func (govipsRenderer) Render(ctx context.Context, src *domain.Master, spec domain.TransformSpec) (domain.Rendered, error) {
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
		return vipsPad(src, target, target)

	case domain.ModeMargin:
		return vipsPad(src, marginBox(target, spec.EffectiveMargin()), target)

	case domain.ModeStretch:
		if canCopyBytes(src, target) {
			return domain.Rendered{Data: src.Data, Size: src.Size}, nil
		}
		img, err := vips.NewImageFromBuffer(src.Data)
		if err != nil {
			return domain.Rendered{}, fmt.Errorf("decode master %s: %w", src.Role, err)
		}
		defer img.Close()

		if err := vipsScaleTo(img, target); err != nil {
			return domain.Rendered{}, err
		}
		if !img.HasAlpha() {
			if err := img.AddAlpha(); err != nil {
				return domain.Rendered{}, fmt.Errorf("add alpha band: %w", err)
			}
		}
		return vipsExportPNG(img, domain.Dims{W: img.Width(), H: img.Height()})

	default:
		return domain.Rendered{}, fmt.Errorf("unknown transform mode: %q", spec.Mode)
	}
}

// vipsPad scales the master to fit box, then embeds it centered on a
// transparent canvas. The alpha band has to exist before Embed so the
// extension fills with transparent black.
func vipsPad(src *domain.Master, box, canvas domain.Dims) (domain.Rendered, error) {
	img, err := vips.NewImageFromBuffer(src.Data)
	if err != nil {
		return domain.Rendered{}, fmt.Errorf("decode master %s: %w", src.Role, err)
	}
	defer img.Close()

	content := fitWithin(src.Size, box)
	if err := vipsScaleTo(img, content); err != nil {
		return domain.Rendered{}, err
	}
	if !img.HasAlpha() {
		if err := img.AddAlpha(); err != nil {
			return domain.Rendered{}, fmt.Errorf("add alpha band: %w", err)
		}
	}

	x, y := pasteOffset(canvas, domain.Dims{W: img.Width(), H: img.Height()})
	if err := img.Embed(x, y, canvas.W, canvas.H, vips.ExtendBlack); err != nil {
		return domain.Rendered{}, fmt.Errorf("pad to %s: %w", canvas, err)
	}
	return vipsExportPNG(img, canvas)
}

func vipsScaleTo(img *vips.ImageRef, size domain.Dims) error {
	if img.Width() <= 0 || img.Height() <= 0 {
		return fmt.Errorf("source image has invalid dimensions")
	}
	hscale := float64(size.W) / float64(img.Width())
	vscale := float64(size.H) / float64(img.Height())
	if err := img.ResizeWithVScale(hscale, vscale, vips.KernelLanczos3); err != nil {
		return fmt.Errorf("resize image: %w", err)
	}
	return nil
}

func vipsExportPNG(img *vips.ImageRef, size domain.Dims) (domain.Rendered, error) {
	data, _, err := img.ExportPng(vips.NewPngExportParams())
	if err != nil {
		return domain.Rendered{}, fmt.Errorf("encode png: %w", err)
	}
	return domain.Rendered{Data: data, Size: size}, nil
}
