package reporting

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int, fill color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, fill)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestDiffImagesIdenticalIsZero(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writePNG(t, a, 4, 4, color.White)
	writePNG(t, b, 4, 4, color.White)

	diff, err := DiffImages(a, b)
	require.NoError(t, err)
	assert.Zero(t, diff)
}

func TestDiffImagesDifferentColorsCountAllPixels(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writePNG(t, a, 3, 3, color.White)
	writePNG(t, b, 3, 3, color.Black)

	diff, err := DiffImages(a, b)
	require.NoError(t, err)
	assert.Equal(t, 9, diff)
}

func TestWriteDiffMaskWritesMaskAndCountsDiff(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writePNG(t, a, 3, 3, color.White)
	writePNG(t, b, 3, 3, color.Black)

	maskPath := filepath.Join(dir, "diff", "diff_1", "diff_mask")
	diff, err := WriteDiffMask(a, b, maskPath)
	require.NoError(t, err)
	assert.Equal(t, 9, diff)

	f, err := os.Open(maskPath)
	require.NoError(t, err)
	defer f.Close()
	mask, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 3), mask.Bounds())
}

func TestDiffImagesMismatchedSizeCountsFullBaseline(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writePNG(t, a, 4, 4, color.White)
	writePNG(t, b, 2, 2, color.White)

	diff, err := DiffImages(a, b)
	require.NoError(t, err)
	assert.Equal(t, 16, diff)
}
