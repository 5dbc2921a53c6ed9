package imagex

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestCheckUpload(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     int64
		wantErr  error
	}{
		{"png", "me.png", 10, nil},
		{"jpg upper case", "ME.JPG", 10, nil},
		{"jpeg", "holiday.photo.jpeg", MaxUploadSize, nil},
		{"gif", "anim.gif", 10, common.ErrUnsupportedImageType},
		{"no extension", "avatar", 10, common.ErrUnsupportedImageType},
		{"too large", "me.png", MaxUploadSize + 1, common.ErrImageTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, CheckUpload(tt.filename, tt.size), tt.wantErr)
		})
	}
}

func TestResizeToPNG_PNG(t *testing.T) {
	var in bytes.Buffer
	require.NoError(t, png.Encode(&in, solid(640, 480, color.RGBA{R: 255, A: 255})))

	out, err := ResizeToPNG(&in)
	require.NoError(t, err)

	img, format, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, image.Rect(0, 0, AvatarSize, AvatarSize), img.Bounds())

	r, g, b, _ := img.At(AvatarSize/2, AvatarSize/2).RGBA()
	assert.InDelta(t, 0xffff, r, 0x101)
	assert.InDelta(t, 0, g, 0x101)
	assert.InDelta(t, 0, b, 0x101)
}

func TestResizeToPNG_JPEGUpscaled(t *testing.T) {
	var in bytes.Buffer
	require.NoError(t, jpeg.Encode(&in, solid(40, 90, color.White), nil))

	out, err := ResizeToPNG(&in)
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, AvatarSize, cfg.Width)
	assert.Equal(t, AvatarSize, cfg.Height)
}

func TestResizeToPNG_Rejects(t *testing.T) {
	t.Run("garbage", func(t *testing.T) {
		_, err := ResizeToPNG(strings.NewReader("definitely not an image"))
		assert.ErrorIs(t, err, common.ErrUnsupportedImageType)
	})

	t.Run("gif", func(t *testing.T) {
		var in bytes.Buffer
		pal := image.NewPaletted(image.Rect(0, 0, 4, 4), color.Palette{color.Black, color.White})
		require.NoError(t, gif.Encode(&in, pal, nil))

		_, err := ResizeToPNG(&in)
		assert.ErrorIs(t, err, common.ErrUnsupportedImageType)
	})
}

// withDeclaredSize encodes a tiny PNG and rewrites its IHDR so the header
// claims a w x h canvas.
func withDeclaredSize(t *testing.T, w, h uint32) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1, 1))))
	b := buf.Bytes()

	require.Equal(t, "IHDR", string(b[12:16]))
	binary.BigEndian.PutUint32(b[16:20], w)
	binary.BigEndian.PutUint32(b[20:24], h)
	binary.BigEndian.PutUint32(b[29:33], crc32.ChecksumIEEE(b[12:29]))
	return b
}

func TestResizeToPNG_PixelLimit(t *testing.T) {
	tests := []struct {
		name string
		w, h uint32
	}{
		{"huge square", 12000, 12000},
		{"one row over", 4096, 4097},
		{"very wide", 1 << 20, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := withDeclaredSize(t, tt.w, tt.h)
			require.NoError(t, CheckUpload("bomb.png", int64(len(in))))

			_, err := ResizeToPNG(bytes.NewReader(in))
			assert.ErrorIs(t, err, common.ErrUnsupportedImageType)
			assert.ErrorContains(t, err, "pixel limit")
		})
	}
}

func TestResizeToPNG_OversizedStream(t *testing.T) {
	r := io.LimitReader(zeroReader{}, MaxUploadSize+1)
	_, err := ResizeToPNG(r)
	assert.ErrorIs(t, err, common.ErrImageTooLarge)
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

func TestCoverRect(t *testing.T) {
	assert.Equal(t, image.Rect(80, 0, 560, 480), coverRect(image.Rect(0, 0, 640, 480), 250, 250))
	assert.Equal(t, image.Rect(0, 25, 40, 65), coverRect(image.Rect(0, 0, 40, 90), 250, 250))
	assert.Equal(t, image.Rect(0, 0, 100, 100), coverRect(image.Rect(0, 0, 100, 100), 250, 250))
}
