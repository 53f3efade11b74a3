package storage

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestThumbnail(t *testing.T) {
	out, err := Thumbnail(pngBytes(t, 640, 480))
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(out))
	require.NoError(t, err, "output must be a JPEG")
	assert.Equal(t, ThumbnailWidth, img.Bounds().Dx())
	assert.Equal(t, 240, img.Bounds().Dy())
}

func TestThumbnail_Invalid(t *testing.T) {
	_, err := Thumbnail([]byte("not an image"))
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestMemoryBucket(t *testing.T) {
	ctx := context.Background()
	b := NewMemory("pics", "https://cdn.example.com/")

	url, err := b.Put(ctx, ProfileKey("u1"), "image/jpeg", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/users/u1/profile.jpg", url)

	_, err = b.Put(ctx, "users/u2/profile.jpg", "image/jpeg", []byte("y"))
	require.NoError(t, err)

	require.NoError(t, b.DeletePrefix(ctx, UserPrefix("u1")))
	_, err = b.Get(ProfileKey("u1"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, b.Len())

	require.NoError(t, b.DeletePrefix(ctx, UserPrefix("nobody")))
}

func TestNew_Drivers(t *testing.T) {
	b, err := New(context.Background(), Config{Driver: "memory"})
	require.NoError(t, err)
	assert.Equal(t, "memory", b.Driver())

	_, err = New(context.Background(), Config{Driver: "ftp"})
	assert.Error(t, err)

	_, err = New(context.Background(), Config{Driver: "minio"})
	assert.Error(t, err, "minio without endpoint")
}
