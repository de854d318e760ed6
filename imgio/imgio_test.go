package imgio

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func TestSupportedExt(t *testing.T) {
	cases := map[string]bool{
		"photo.png":      true,
		"photo.PNG":      true,
		"dir/photo.JPeG": true,
		"photo.jpg":      true,
		"photo.webp":     true,
		"photo.bmp":      true,
		"notes.txt":      false,
		"archive.zip":    false,
		"noextension":    false,
		"photo.png.bak":  false,
	}
	for name, want := range cases {
		assert.Equal(t, want, SupportedExt(name), name)
	}
}

func TestDecodePNGRoundTrip(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	src.SetNRGBA(1, 2, color.NRGBA{12, 34, 56, 255})

	data, err := EncodePNG(src)
	require.NoError(t, err)

	img, format, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, 3, img.Bounds().Dy())
}

func TestDecodeJPEG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, src, nil))

	_, format, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestDecodeBMP(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 5, 5))
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, src))

	_, format, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "bmp", format)
}

func TestDecodeMalformedBytes(t *testing.T) {
	_, _, err := Decode([]byte("definitely not an image"))
	assert.Error(t, err)
}

func TestDecodeTruncatedPNG(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	data, err := EncodePNG(src)
	require.NoError(t, err)

	_, _, err = Decode(data[:len(data)/2])
	assert.Error(t, err)
}
