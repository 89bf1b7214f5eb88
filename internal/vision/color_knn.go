package vision

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"wardrobe/internal/wardrobe"
)

// ColorClassifier predicts the dominant color label of a garment image.
type ColorClassifier interface {
	PredictColor(ctx context.Context, img image.Image) (wardrobe.Color, error)
}

// ColorSample is one labeled training point of the KNN model.
type ColorSample struct {
	Features ColorFeatures
	Label    wardrobe.Color
}

// KNNColorClassifier votes among the k nearest labeled samples in RGB+HSV space.
type KNNColorClassifier struct {
	samples []ColorSample
	k       int
}

func NewKNNColorClassifier(samples []ColorSample, k int) (*KNNColorClassifier, error) {
	if len(samples) == 0 {
		return nil, errors.New("knn color classifier needs at least one sample")
	}
	if k <= 0 {
		k = 5
	}
	if k > len(samples) {
		k = len(samples)
	}
	return &KNNColorClassifier{samples: samples, k: k}, nil
}

func (c *KNNColorClassifier) PredictColor(_ context.Context, img image.Image) (wardrobe.Color, error) {
	return c.Classify(ExtractColorFeatures(img)), nil
}

type neighbour struct {
	label    wardrobe.Color
	distance float64
}

// Classify returns the majority label of the k nearest samples. Ties go to the
// label whose voters are closest overall.
func (c *KNNColorClassifier) Classify(features ColorFeatures) wardrobe.Color {
	neighbours := make([]neighbour, len(c.samples))
	for i, sample := range c.samples {
		neighbours[i] = neighbour{label: sample.Label, distance: euclidean(features, sample.Features)}
	}
	sort.SliceStable(neighbours, func(i, j int) bool { return neighbours[i].distance < neighbours[j].distance })

	votes := make(map[wardrobe.Color]int)
	total := make(map[wardrobe.Color]float64)
	for _, n := range neighbours[:c.k] {
		votes[n.label]++
		total[n.label] += n.distance
	}

	var best wardrobe.Color
	for _, label := range wardrobe.Colors {
		if votes[label] == 0 {
			continue
		}
		if best == "" || votes[label] > votes[best] || (votes[label] == votes[best] && total[label] < total[best]) {
			best = label
		}
	}
	return best
}

func euclidean(a, b ColorFeatures) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// LoadColorSamples reads a CSV dataset. Rows are either r,g,b,label or
// r,g,b,h,s,v,label; a non-numeric first row is treated as a header.
func LoadColorSamples(path string) ([]ColorSample, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open color dataset: %w", err)
	}
	defer file.Close()
	return ReadColorSamples(file)
}

// ReadColorSamples parses the CSV format accepted by LoadColorSamples.
func ReadColorSamples(r io.Reader) ([]ColorSample, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var samples []ColorSample
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read color dataset: %w", err)
		}
		if line == 1 && len(record) > 0 {
			if _, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64); err != nil {
				continue
			}
		}
		sample, err := parseColorRecord(record)
		if err != nil {
			return nil, fmt.Errorf("color dataset line %d: %w", line, err)
		}
		samples = append(samples, sample)
	}
	if len(samples) == 0 {
		return nil, errors.New("color dataset is empty")
	}
	return samples, nil
}

func parseColorRecord(record []string) (ColorSample, error) {
	if len(record) != 4 && len(record) != 7 {
		return ColorSample{}, fmt.Errorf("expected 4 or 7 columns, got %d", len(record))
	}
	label, ok := wardrobe.ParseColor(record[len(record)-1])
	if !ok {
		return ColorSample{}, fmt.Errorf("unknown color label %q", record[len(record)-1])
	}

	values := make([]float64, len(record)-1)
	for i, raw := range record[:len(record)-1] {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return ColorSample{}, fmt.Errorf("column %d: %w", i+1, err)
		}
		values[i] = v
	}

	if len(values) == 3 {
		return ColorSample{
			Features: featuresFromRGB(clampByte(values[0]), clampByte(values[1]), clampByte(values[2])),
			Label:    label,
		}, nil
	}
	var features ColorFeatures
	copy(features[:], values)
	return ColorSample{Features: features, Label: label}, nil
}

func clampByte(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v + 0.5)
	}
}

// DefaultColorSamples is a small reference palette used when no dataset is configured.
func DefaultColorSamples() []ColorSample {
	palette := map[wardrobe.Color][][3]uint8{
		wardrobe.ColorBlack:  {{0, 0, 0}, {25, 25, 25}, {40, 40, 45}, {20, 20, 35}},
		wardrobe.ColorBlue:   {{0, 0, 255}, {30, 60, 170}, {20, 40, 100}, {100, 150, 230}, {0, 120, 200}},
		wardrobe.ColorBrown:  {{139, 69, 19}, {100, 60, 30}, {160, 110, 60}, {90, 50, 20}},
		wardrobe.ColorGreen:  {{0, 128, 0}, {50, 160, 60}, {30, 90, 40}, {120, 180, 90}, {80, 110, 50}},
		wardrobe.ColorGrey:   {{128, 128, 128}, {90, 90, 95}, {170, 170, 170}, {110, 115, 120}},
		wardrobe.ColorOrange: {{255, 140, 0}, {240, 120, 40}, {255, 165, 80}, {210, 105, 30}},
		wardrobe.ColorRed:    {{255, 0, 0}, {230, 30, 30}, {200, 30, 20}, {180, 0, 0}, {255, 50, 50}, {220, 20, 60}, {150, 20, 30}},
		wardrobe.ColorViolet: {{148, 0, 211}, {128, 60, 160}, {180, 130, 210}, {90, 40, 120}},
		wardrobe.ColorWhite:  {{255, 255, 255}, {240, 240, 235}, {225, 225, 230}, {250, 245, 240}},
		wardrobe.ColorYellow: {{255, 255, 0}, {240, 220, 60}, {250, 230, 120}, {210, 190, 40}},
	}

	var samples []ColorSample
	for _, label := range wardrobe.Colors {
		for _, rgb := range palette[label] {
			samples = append(samples, ColorSample{Features: featuresFromRGB(rgb[0], rgb[1], rgb[2]), Label: label})
		}
	}
	return samples
}

var _ ColorClassifier = (*KNNColorClassifier)(nil)
