package vision

import (
	"image"

	"golang.org/x/image/draw"
)

// CategoryInputSize is the square edge expected by the category model.
const CategoryInputSize = 224

// ColorFeatures is the color model input: the image shrunk to a single pixel,
// as RGB followed by HSV.
type ColorFeatures [6]float64

// ExtractColorFeatures shrinks img to 1×1 with bilinear sampling. Transparent
// pixels count as black, the same as reading a cut-out without its alpha.
func ExtractColorFeatures(img image.Image) ColorFeatures {
	dst := image.NewRGBA(image.Rect(0, 0, 1, 1))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	px := dst.RGBAAt(0, 0)
	return featuresFromRGB(px.R, px.G, px.B)
}

func featuresFromRGB(r, g, b uint8) ColorFeatures {
	h, s, v := rgbToHSV(r, g, b)
	return ColorFeatures{float64(r), float64(g), float64(b), h, s, v}
}

// rgbToHSV uses the 8-bit OpenCV ranges: H in [0,180), S and V in [0,255].
func rgbToHSV(r, g, b uint8) (float64, float64, float64) {
	rf, gf, bf := float64(r), float64(g), float64(b)
	maxV := max(rf, gf, bf)
	minV := min(rf, gf, bf)
	diff := maxV - minV

	var s float64
	if maxV > 0 {
		s = diff * 255 / maxV
	}

	var h float64
	if diff > 0 {
		switch maxV {
		case rf:
			h = 60 * (gf - bf) / diff
		case gf:
			h = 120 + 60*(bf-rf)/diff
		default:
			h = 240 + 60*(rf-gf)/diff
		}
		if h < 0 {
			h += 360
		}
	}
	return roundHalf(h / 2), roundHalf(s), maxV
}

func roundHalf(v float64) float64 {
	return float64(int(v + 0.5))
}

// CategoryTensor resizes img to 224×224 and returns raw 0–255 RGB values in
// height, width, channel order.
func CategoryTensor(img image.Image) [][][3]float32 {
	dst := image.NewRGBA(image.Rect(0, 0, CategoryInputSize, CategoryInputSize))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	tensor := make([][][3]float32, CategoryInputSize)
	for y := 0; y < CategoryInputSize; y++ {
		row := make([][3]float32, CategoryInputSize)
		for x := 0; x < CategoryInputSize; x++ {
			px := dst.RGBAAt(x, y)
			row[x] = [3]float32{float32(px.R), float32(px.G), float32(px.B)}
		}
		tensor[y] = row
	}
	return tensor
}

// argmax returns the index of the highest score, or -1 for an empty slice.
func argmax(scores []float64) int {
	best := -1
	for i, v := range scores {
		if best < 0 || v > scores[best] {
			best = i
		}
	}
	return best
}
