package backend

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"

	"github.com/valerio/jeebie-color/jeebie/video"
)

// SaveSnapshot writes frame as <dir>/<name>.png, upscaled by an integer
// factor with nearest neighbour so pixels stay sharp. Returns the path.
func SaveSnapshot(frame *video.FrameBuffer, dir, name string, scale int) (string, error) {
	if frame == nil {
		return "", fmt.Errorf("no frame to snapshot")
	}
	if scale < 1 {
		scale = 1
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating snapshot dir: %w", err)
	}

	src := frame.Image()
	img := src
	if scale > 1 {
		b := src.Bounds()
		img = image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
		draw.NearestNeighbor.Scale(img, img.Bounds(), src, b, draw.Src, nil)
	}

	path := filepath.Join(dir, name+".png")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return "", fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	slog.Info("Snapshot saved", "path", path, "size", fmt.Sprintf("%dx%d", img.Bounds().Dx(), img.Bounds().Dy()))
	return path, nil
}
