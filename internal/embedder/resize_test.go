package embedder

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTestPNG writes a solid-color png of the given size and returns its path.
func writeTestPNG(t *testing.T, dir string, name string, w, h int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test image: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return path
}

func TestResizeForDisplay(t *testing.T) {
	tests := []struct {
		name  string
		srcW  int
		srcH  int
		wantW int
		wantH int
	}{
		{
			name:  "landscape is width-bound",
			srcW:  1920,
			srcH:  1080,
			wantW: 480,
			wantH: 270,
		},
		{
			name:  "portrait is height-bound",
			srcW:  1080,
			srcH:  1920,
			wantW: 270,
			wantH: 480,
		},
		{
			name:  "square is width-bound",
			srcW:  1000,
			srcH:  1000,
			wantW: 480,
			wantH: 480,
		},
		{
			name:  "floor rounding on odd ratio",
			srcW:  1000,
			srcH:  333,
			wantW: 480,
			wantH: 159, // floor(333*480/1000)
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			src := writeTestPNG(t, dir, "input.png", tt.srcW, tt.srcH)

			displayPath, w, h, err := ResizeForDisplay(src, 480, 480)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if w != tt.wantW || h != tt.wantH {
				t.Errorf("got %dx%d, want %dx%d", w, h, tt.wantW, tt.wantH)
			}
			if !strings.HasSuffix(displayPath, "_display.png") {
				t.Errorf("display path %q does not carry the display suffix", displayPath)
			}

			// The written copy must decode to the reported dimensions
			out, _, err := DecodeImage(displayPath)
			if err != nil {
				t.Fatalf("display copy does not decode: %v", err)
			}
			bounds := out.Bounds()
			if bounds.Dx() != tt.wantW || bounds.Dy() != tt.wantH {
				t.Errorf("display copy is %dx%d, want %dx%d", bounds.Dx(), bounds.Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestResizeForDisplayDecodeFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.png")
	if err := os.WriteFile(path, []byte("not an image"), 0644); err != nil {
		t.Fatalf("failed to write broken file: %v", err)
	}

	if _, _, _, err := ResizeForDisplay(path, 480, 480); err == nil {
		t.Error("expected an error for undecodable input")
	}
}

func TestDisplayPathFor(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"uploads/123_1_cat.png", "uploads/123_1_cat_display.png"},
		{"a.b.jpg", "a.b_display.jpg"},
		{"noext", "noext_display"},
	}

	for _, tt := range tests {
		if got := DisplayPathFor(tt.path); got != tt.want {
			t.Errorf("DisplayPathFor(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
