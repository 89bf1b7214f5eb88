package vision

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestRGBToHSV(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		want    [3]float64
	}{
		{name: "black", r: 0, g: 0, b: 0, want: [3]float64{0, 0, 0}},
		{name: "grey", r: 128, g: 128, b: 128, want: [3]float64{0, 0, 128}},
		{name: "red", r: 255, g: 0, b: 0, want: [3]float64{0, 255, 255}},
		{name: "green", r: 0, g: 255, b: 0, want: [3]float64{60, 255, 255}},
		{name: "blue", r: 0, g: 0, b: 255, want: [3]float64{120, 255, 255}},
		{name: "orange", r: 255, g: 128, b: 0, want: [3]float64{15, 255, 255}},
	}

	for _, tt := range tests {
		h, s, v := rgbToHSV(tt.r, tt.g, tt.b)
		got := [3]float64{h, s, v}
		if got != tt.want {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestExtractColorFeaturesSolid(t *testing.T) {
	img := solidImage(16, 12, color.RGBA{R: 0, G: 0, B: 255, A: 255})
	got := ExtractColorFeatures(img)
	want := ColorFeatures{0, 0, 255, 120, 255, 255}
	if got != want {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestExtractColorFeaturesTransparentIsBlack(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	got := ExtractColorFeatures(img)
	if got != (ColorFeatures{}) {
		t.Fatalf("expected zero features for a transparent image, got %v", got)
	}
}

func TestCategoryTensorShape(t *testing.T) {
	img := solidImage(50, 80, color.RGBA{R: 255, G: 0, B: 0, A: 255})
	tensor := CategoryTensor(img)
	if len(tensor) != CategoryInputSize {
		t.Fatalf("expected %d rows, got %d", CategoryInputSize, len(tensor))
	}
	for _, y := range []int{0, CategoryInputSize / 2, CategoryInputSize - 1} {
		row := tensor[y]
		if len(row) != CategoryInputSize {
			t.Fatalf("row %d: expected %d columns, got %d", y, CategoryInputSize, len(row))
		}
		if row[0] != [3]float32{255, 0, 0} || row[CategoryInputSize-1] != [3]float32{255, 0, 0} {
			t.Fatalf("row %d: unexpected pixel values %v %v", y, row[0], row[CategoryInputSize-1])
		}
	}
}

func TestArgmax(t *testing.T) {
	tests := []struct {
		scores []float64
		want   int
	}{
		{scores: nil, want: -1},
		{scores: []float64{0.1, 0.7, 0.2}, want: 1},
		{scores: []float64{0.5, 0.5}, want: 0},
		{scores: []float64{-3, -1, -2}, want: 1},
	}
	for _, tt := range tests {
		if got := argmax(tt.scores); got != tt.want {
			t.Fatalf("argmax(%v): expected %d, got %d", tt.scores, tt.want, got)
		}
	}
}

func TestDecodeImage(t *testing.T) {
	img := solidImage(4, 4, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	var jpg bytes.Buffer
	if err := jpeg.Encode(&jpg, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}

	for name, data := range map[string][]byte{"png": pngBytes(t, img), "jpeg": jpg.Bytes()} {
		decoded, err := DecodeImage(data)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
		if decoded.Bounds().Dx() != 4 || decoded.Bounds().Dy() != 4 {
			t.Fatalf("%s: unexpected bounds %v", name, decoded.Bounds())
		}
	}

	for _, data := range [][]byte{nil, []byte("not an image")} {
		if _, err := DecodeImage(data); !errors.Is(err, ErrUnsupportedImage) {
			t.Fatalf("expected ErrUnsupportedImage, got %v", err)
		}
	}
}
