package rod

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngFrame(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEncodeScreenshot_Downscales(t *testing.T) {
	shot, err := encodeScreenshot(pngFrame(t, 2048, 1024))

	require.NoError(t, err)
	assert.Equal(t, "jpeg", shot.Format)
	assert.Equal(t, maxScreenshotWidth, shot.Width)
	assert.Equal(t, 512, shot.Height)

	_, format, err := image.DecodeConfig(bytes.NewReader(shot.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
}

func TestEncodeScreenshot_KeepsSmallFrames(t *testing.T) {
	shot, err := encodeScreenshot(pngFrame(t, 640, 360))

	require.NoError(t, err)
	assert.Equal(t, 640, shot.Width)
	assert.Equal(t, 360, shot.Height)
}

func TestEncodeScreenshot_Garbage(t *testing.T) {
	_, err := encodeScreenshot([]byte("not an image"))

	assert.Error(t, err)
}
