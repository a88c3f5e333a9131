// Package imaging prepares sketches for a vision model: it scales them to fit
// a bounding box, drops the alpha channel and re-encodes them as JPEG.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ErrImageTooLarge is returned for images above Options.MaxPixels.
var ErrImageTooLarge = errors.New("imaging: image too large")

// Options controls Optimize.
type Options struct {
	MaxWidth  int
	MaxHeight int
	Quality   int   // JPEG quality 1-100
	MaxPixels int64 // decode guard against image bombs
}

// DefaultOptions matches what the model sees best at modest token cost.
var DefaultOptions = Options{
	MaxWidth:  512,
	MaxHeight: 512,
	Quality:   60,
	MaxPixels: 40_000_000,
}

func (o Options) withDefaults() Options {
	if o.MaxWidth <= 0 {
		o.MaxWidth = DefaultOptions.MaxWidth
	}
	if o.MaxHeight <= 0 {
		o.MaxHeight = DefaultOptions.MaxHeight
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultOptions.Quality
	}
	if o.MaxPixels <= 0 {
		o.MaxPixels = DefaultOptions.MaxPixels
	}
	return o
}

// Optimize decodes a PNG, JPEG, GIF or WebP image, scales it to fit within
// MaxWidth x MaxHeight keeping the aspect ratio, flattens transparency onto
// white and returns JPEG bytes.
func Optimize(data []byte, opts Options) ([]byte, error) {
	opts = opts.withDefaults()

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode config: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > opts.MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrImageTooLarge, cfg.Width, cfg.Height, opts.MaxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode: %w", err)
	}

	bounds := img.Bounds()
	w, h := Fit(bounds.Dx(), bounds.Dy(), opts.MaxWidth, opts.MaxHeight)

	// JPEG has no alpha, so paint white first and composite the sketch over it.
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return nil, fmt.Errorf("imaging: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Fit scales w x h by min(maxW/w, maxH/h), truncating. Small images are
// scaled up, large ones down; each side is at least one pixel.
func Fit(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return 1, 1
	}
	// Integer cross-multiplication keeps the limiting side exact.
	if maxW*h <= maxH*w {
		return maxW, max(h*maxW/w, 1)
	}
	return max(w*maxH/h, 1), maxH
}

// DataURI embeds JPEG bytes in a data URI suitable for a prompt.
func DataURI(jpegData []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpegData)
}
