package backend

import (
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/termsprite/internal/render/core"
)

// Color cube levels for the 6x6x6 palette (indices 16-231).
var cubeValues = [6]uint8{0, 95, 135, 175, 215, 255}

// grayscaleStart is the first grayscale index (232-255, 24 shades).
const grayscaleStart = 232

// palette256 holds indices 16-255 in Lab-ready form. The first sixteen
// entries are user-themeable and never chosen.
var palette256 [240]colorful.Color

func init() {
	i := 0
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				palette256[i] = rgbColor(cubeValues[r], cubeValues[g], cubeValues[b])
				i++
			}
		}
	}
	for step := 0; step < 24; step++ {
		level := uint8(8 + 10*step)
		palette256[i] = rgbColor(level, level, level)
		i++
	}
}

func rgbColor(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

// Nearest256 maps a true color to the perceptually closest xterm-256 index.
// Indexed colors are returned unchanged.
func Nearest256(c core.Color) uint8 {
	if c.Indexed {
		return c.R
	}
	target := rgbColor(c.R, c.G, c.B)
	best, bestDist := 0, target.DistanceLab(palette256[0])
	for i := 1; i < len(palette256); i++ {
		if d := target.DistanceLab(palette256[i]); d < bestDist {
			best, bestDist = i, d
		}
	}
	return uint8(16 + best)
}

// PaletteRGB returns the RGB value of an xterm index at or above 16.
func PaletteRGB(idx uint8) (r, g, b uint8, ok bool) {
	if idx < 16 {
		return 0, 0, 0, false
	}
	if idx >= grayscaleStart {
		level := uint8(8 + 10*int(idx-grayscaleStart))
		return level, level, level, true
	}
	n := int(idx) - 16
	return cubeValues[n/36], cubeValues[n/6%6], cubeValues[n%6], true
}
