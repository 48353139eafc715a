package engine

import (
	"context"
	"testing"

	"github.com/gipity/assetgen/internal/domain"
)

func BenchmarkRenderPadIcon(b *testing.B) {
	renderer := mustRenderer(b)
	master := newTestMaster(b, domain.RoleIcon, 1024, 1024, true)
	target := domain.Dims{W: 192, H: 192}
	spec := domain.TransformSpec{Size: &target, Mode: domain.ModePad}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := renderer.Render(context.Background(), master, spec); err != nil {
			b.Fatalf("render: %v", err)
		}
	}
}

func BenchmarkRenderMarginIcon(b *testing.B) {
	renderer := mustRenderer(b)
	master := newTestMaster(b, domain.RoleIcon, 1024, 1024, true)
	target := domain.Dims{W: 192, H: 192}
	spec := domain.TransformSpec{Size: &target, Mode: domain.ModeMargin}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := renderer.Render(context.Background(), master, spec); err != nil {
			b.Fatalf("render: %v", err)
		}
	}
}

func BenchmarkRenderStretchSplash(b *testing.B) {
	renderer := mustRenderer(b)
	master := newTestMaster(b, domain.RoleSplashPortrait, 1280, 1920, true)
	target := domain.Dims{W: 480, H: 720}
	spec := domain.TransformSpec{Size: &target, Mode: domain.ModeStretch}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := renderer.Render(context.Background(), master, spec); err != nil {
			b.Fatalf("render: %v", err)
		}
	}
}
