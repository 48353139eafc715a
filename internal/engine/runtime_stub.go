//go:build !govips || !cgo

package engine

func Startup() error {
	return nil
}

func Shutdown() {}

func newRenderer() (Renderer, error) {
	return imagingRenderer{}, nil
}
