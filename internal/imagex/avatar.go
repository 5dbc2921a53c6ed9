// Package imagex validates avatar uploads and normalizes them into fixed-size PNGs.
package imagex

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"golang.org/x/image/draw"
)

const (
	MaxUploadSize = 1_000_000
	AvatarSize    = 250
	// MaxInputPixels caps the declared canvas of an upload so a small,
	// highly compressed file cannot expand into a huge bitmap.
	MaxInputPixels = 4096 * 4096
)

var allowedExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
}

// CheckUpload rejects files over MaxUploadSize or with an extension other
// than png, jpg or jpeg.
func CheckUpload(filename string, size int64) error {
	if size > MaxUploadSize {
		return common.ErrImageTooLarge
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedExtensions[ext]; !ok {
		return common.ErrUnsupportedImageType
	}
	return nil
}

// ResizeToPNG decodes a PNG or JPEG, scales it to cover an
// AvatarSize x AvatarSize square, crops the overflow around the centre and
// returns the PNG encoding.
// Inputs larger than MaxUploadSize or declaring more than MaxInputPixels are
// rejected before any pixel data is decoded.
func ResizeToPNG(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(raw) > MaxUploadSize {
		return nil, common.ErrImageTooLarge
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnsupportedImageType, err)
	}
	if format != "png" && format != "jpeg" {
		return nil, common.ErrUnsupportedImageType
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxInputPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds pixel limit", common.ErrUnsupportedImageType, cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrUnsupportedImageType, err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, AvatarSize, AvatarSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, coverRect(src.Bounds(), AvatarSize, AvatarSize), draw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// coverRect returns the largest centred sub-rectangle of b with the aspect
// ratio w:h.
func coverRect(b image.Rectangle, w, h int) image.Rectangle {
	bw, bh := b.Dx(), b.Dy()
	if bw*h > bh*w {
		cw := bh * w / h
		x0 := b.Min.X + (bw-cw)/2
		return image.Rect(x0, b.Min.Y, x0+cw, b.Max.Y)
	}
	ch := bw * h / w
	y0 := b.Min.Y + (bh-ch)/2
	return image.Rect(b.Min.X, y0, b.Max.X, y0+ch)
}
