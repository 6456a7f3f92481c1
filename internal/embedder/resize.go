package embedder

import (
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
)

// displaySuffix is inserted before the extension of resized copies.
const displaySuffix = "_display"

// ResizeForDisplay re-encodes an image to a sibling file capped at
// maxWidth x maxHeight while preserving aspect ratio. The longer dimension is
// bound: width when width >= height, height otherwise. The new dimensions use
// floor rounding, so a 1920x1080 input capped at 480x480 yields 480x270.
// Parameters:
//   - path: source image file.
//   - maxWidth, maxHeight: dimension caps; non-positive values default to 480.
// Returns:
//   - string: path of the resized copy (source base + "_display" + ext).
//   - int, int: the resized width and height.
//   - error: non-nil if the source cannot be decoded or the copy not written;
//     callers are expected to fall back to the original path.
func ResizeForDisplay(path string, maxWidth, maxHeight int) (string, int, int, error) {
	if maxWidth <= 0 {
		maxWidth = 480
	}
	if maxHeight <= 0 {
		maxHeight = 480
	}

	src, format, err := DecodeImage(path)
	if err != nil {
		return "", 0, 0, err
	}

	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return "", 0, 0, fmt.Errorf("image %s has empty bounds", path)
	}

	var newW, newH int
	if w >= h {
		newW = maxWidth
		newH = h * maxWidth / w
	} else {
		newH = maxHeight
		newW = w * maxHeight / h
	}
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	displayPath := DisplayPathFor(path)
	out, err := os.Create(displayPath)
	if err != nil {
		return "", 0, 0, fmt.Errorf("failed to create display copy %s: %w", displayPath, err)
	}
	defer out.Close()

	switch format {
	case "jpeg":
		err = jpeg.Encode(out, dst, &jpeg.Options{Quality: 90})
	case "gif":
		err = gif.Encode(out, dst, nil)
	case "bmp":
		err = bmp.Encode(out, dst)
	default:
		err = png.Encode(out, dst)
	}
	if err != nil {
		return "", 0, 0, fmt.Errorf("failed to encode display copy %s: %w", displayPath, err)
	}

	return displayPath, newW, newH, nil
}

// DisplayPathFor returns the sibling path a display copy of path is written
// to. Exposed so cleanup can find siblings of stored uploads.
func DisplayPathFor(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + displaySuffix + ext
}
