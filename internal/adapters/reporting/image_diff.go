// image_diff.go implements the campaign's SDC-by-output-image comparison
// (a "silent data corruption" check against a baseline
// screenshot or rendered frame). No example repo in the retrieved pack
// carries an image-diff or perceptual-hash library, so this uses the
// standard library's image/image-png packages directly (see DESIGN.md).
package reporting

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
)

// DiffImages compares two PNG files pixel-by-pixel and returns the count of
// differing pixels, used to classify an iteration as SDC when its output
// image diverges from the baseline without the process crashing or hanging.
func DiffImages(baselinePath, candidatePath string) (int, error) {
	base, err := loadPNG(baselinePath)
	if err != nil {
		return 0, err
	}
	cand, err := loadPNG(candidatePath)
	if err != nil {
		return 0, err
	}

	bb := base.Bounds()
	cb := cand.Bounds()
	if bb.Dx() != cb.Dx() || bb.Dy() != cb.Dy() {
		return bb.Dx() * bb.Dy(), nil
	}

	diff := 0
	for y := 0; y < bb.Dy(); y++ {
		for x := 0; x < bb.Dx(); x++ {
			br, bg, bbl, ba := base.At(bb.Min.X+x, bb.Min.Y+y).RGBA()
			cr, cg, cbl, ca := cand.At(cb.Min.X+x, cb.Min.Y+y).RGBA()
			if br != cr || bg != cg || bbl != cbl || ba != ca {
				diff++
			}
		}
	}
	return diff, nil
}

// WriteDiffMask compares baselinePath against candidatePath like DiffImages
// and additionally writes a visual mask to maskPath: differing pixels in
// red, matching pixels in black. Used by the campaign runner to populate a
// non-benign iteration's diff/diff_<i>/diff_mask artifact.
func WriteDiffMask(baselinePath, candidatePath, maskPath string) (int, error) {
	base, err := loadPNG(baselinePath)
	if err != nil {
		return 0, err
	}
	cand, err := loadPNG(candidatePath)
	if err != nil {
		return 0, err
	}

	bb := base.Bounds()
	cb := cand.Bounds()
	mask := image.NewRGBA(bb)
	diff := 0
	for y := 0; y < bb.Dy(); y++ {
		for x := 0; x < bb.Dx(); x++ {
			br, bg, bbl, ba := base.At(bb.Min.X+x, bb.Min.Y+y).RGBA()
			var cr, cg, cbl, ca uint32
			if x < cb.Dx() && y < cb.Dy() {
				cr, cg, cbl, ca = cand.At(cb.Min.X+x, cb.Min.Y+y).RGBA()
			}
			if br != cr || bg != cg || bbl != cbl || ba != ca {
				diff++
				mask.Set(bb.Min.X+x, bb.Min.Y+y, color.RGBA{R: 255, A: 255})
			} else {
				mask.Set(bb.Min.X+x, bb.Min.Y+y, color.RGBA{A: 255})
			}
		}
	}

	if err := os.MkdirAll(filepath.Dir(maskPath), 0o755); err != nil {
		return diff, fmt.Errorf("image diff: mkdir %s: %w", filepath.Dir(maskPath), err)
	}
	f, err := os.Create(maskPath)
	if err != nil {
		return diff, fmt.Errorf("image diff: create %s: %w", maskPath, err)
	}
	defer f.Close()
	if err := png.Encode(f, mask); err != nil {
		return diff, fmt.Errorf("image diff: encode %s: %w", maskPath, err)
	}
	return diff, nil
}

func loadPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("image diff: open %s: %w", path, err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("image diff: decode %s: %w", path, err)
	}
	return img, nil
}
