package vision

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wardrobe/internal/config"
	"wardrobe/internal/metrics"
	"wardrobe/internal/wardrobe"

	"github.com/sirupsen/logrus"
)

// Backend names accepted by the BACKGROUND_REMOVER, CATEGORY_CLASSIFIER and
// COLOR_CLASSIFIER settings.
const (
	BackendNone       = "none"
	BackendRembg      = "rembg"
	BackendTFServing  = "tfserving"
	BackendKNN        = "knn"
	BackendVolcengine = "volcengine"
	BackendOpenRouter = "openrouter"
)

// Result is a processed upload: the cut-out image and its predicted labels.
type Result struct {
	Image       []byte
	ContentType string
	Category    wardrobe.Category
	Color       wardrobe.Color
}

// Pipeline runs background removal followed by color and category prediction.
type Pipeline struct {
	remover  BackgroundRemover
	color    ColorClassifier
	category CategoryClassifier

	removerName  string
	colorName    string
	categoryName string
}

// NewPipeline 组装推理流水线；remover 为 nil 时跳过背景去除。
func NewPipeline(remover BackgroundRemover, color ColorClassifier, category CategoryClassifier) *Pipeline {
	if remover == nil {
		remover = NoopRemover{}
	}
	return &Pipeline{
		remover:      remover,
		color:        color,
		category:     category,
		removerName:  backendName(remover),
		colorName:    backendName(color),
		categoryName: backendName(category),
	}
}

// Process removes the background of raw, predicts both labels and returns the
// cut-out re-encoded as PNG.
func (p *Pipeline) Process(ctx context.Context, raw []byte) (*Result, error) {
	if p.color == nil || p.category == nil {
		return nil, fmt.Errorf("inference pipeline is not configured")
	}
	if _, err := DecodeImage(raw); err != nil {
		return nil, err
	}

	start := time.Now()
	cutout, err := p.remover.Remove(ctx, raw)
	metrics.InferenceDuration.WithLabelValues("background", p.removerName).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("remove background: %w", err)
	}

	img, err := DecodeImage(cutout)
	if err != nil {
		return nil, err
	}

	start = time.Now()
	color, err := p.color.PredictColor(ctx, img)
	metrics.InferenceDuration.WithLabelValues("color", p.colorName).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("predict color: %w", err)
	}

	start = time.Now()
	category, err := p.category.PredictCategory(ctx, img)
	metrics.InferenceDuration.WithLabelValues("category", p.categoryName).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("predict category: %w", err)
	}

	metrics.Predictions.WithLabelValues("color", string(color)).Inc()
	metrics.Predictions.WithLabelValues("category", string(category)).Inc()

	encoded, err := EncodePNG(img)
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"category": category,
		"color":    color,
		"bytes":    len(encoded),
	}).Debug("image_classified")

	return &Result{
		Image:       encoded,
		ContentType: "image/png",
		Category:    category,
		Color:       color,
	}, nil
}

func backendName(v any) string {
	switch v.(type) {
	case NoopRemover, *NoopRemover:
		return BackendNone
	case *RembgRemover:
		return BackendRembg
	case *KNNColorClassifier:
		return BackendKNN
	case *TFServingColorClassifier, *TFServingCategoryClassifier:
		return BackendTFServing
	case *VolcengineClassifier:
		return BackendVolcengine
	case *OpenRouterClassifier:
		return BackendOpenRouter
	default:
		return "custom"
	}
}

// NewPipelineFromConfig builds the pipeline selected by cfg.
func NewPipelineFromConfig(cfg config.Config) (*Pipeline, error) {
	timeout := time.Duration(cfg.InferenceTimeoutSec) * time.Second

	var remover BackgroundRemover
	switch normalizeBackend(cfg.BackgroundRemover) {
	case "", BackendNone:
		remover = NoopRemover{}
	case BackendRembg:
		r, err := NewRembgRemover(RembgOptions{
			BaseURL:             cfg.RembgURL,
			Model:               cfg.RembgModel,
			AlphaMatting:        cfg.RembgAlphaMatting,
			BackgroundThreshold: cfg.RembgBackgroundThreshold,
			Timeout:             timeout,
		})
		if err != nil {
			return nil, err
		}
		remover = r
	default:
		return nil, fmt.Errorf("unsupported background remover: %s", cfg.BackgroundRemover)
	}

	// 远端客户端按需创建并共享
	var tf *TFServingClient
	tfClient := func() (*TFServingClient, error) {
		if tf != nil {
			return tf, nil
		}
		c, err := NewTFServingClient(cfg.TFServingURL, timeout)
		if err != nil {
			return nil, err
		}
		tf = c
		return tf, nil
	}
	var volc *VolcengineClassifier
	volcClient := func() (*VolcengineClassifier, error) {
		if volc != nil {
			return volc, nil
		}
		c, err := NewVolcengineClassifier(cfg.VolcengineAPIKey, cfg.VolcengineVisionModel)
		if err != nil {
			return nil, err
		}
		volc = c
		return volc, nil
	}
	var router *OpenRouterClassifier
	orClient := func() (*OpenRouterClassifier, error) {
		if router != nil {
			return router, nil
		}
		c, err := NewOpenRouterClassifier(cfg.OpenRouterURL, cfg.OpenRouterAPIKey, cfg.OpenRouterVisionModel, timeout)
		if err != nil {
			return nil, err
		}
		router = c
		return router, nil
	}

	var color ColorClassifier
	switch normalizeBackend(cfg.ColorClassifier) {
	case "", BackendKNN:
		samples := DefaultColorSamples()
		if path := strings.TrimSpace(cfg.ColorKNNDataset); path != "" {
			loaded, err := LoadColorSamples(path)
			if err != nil {
				return nil, err
			}
			samples = loaded
		}
		knn, err := NewKNNColorClassifier(samples, cfg.ColorKNNNeighbours)
		if err != nil {
			return nil, err
		}
		color = knn
	case BackendTFServing:
		c, err := tfClient()
		if err != nil {
			return nil, err
		}
		color = NewTFServingColorClassifier(c, cfg.TFServingColorID)
	case BackendVolcengine:
		c, err := volcClient()
		if err != nil {
			return nil, err
		}
		color = c
	case BackendOpenRouter:
		c, err := orClient()
		if err != nil {
			return nil, err
		}
		color = c
	default:
		return nil, fmt.Errorf("unsupported color classifier: %s", cfg.ColorClassifier)
	}

	var category CategoryClassifier
	switch normalizeBackend(cfg.CategoryClassifier) {
	case "", BackendTFServing:
		c, err := tfClient()
		if err != nil {
			return nil, err
		}
		category = NewTFServingCategoryClassifier(c, cfg.TFServingCategoryID)
	case BackendVolcengine:
		c, err := volcClient()
		if err != nil {
			return nil, err
		}
		category = c
	case BackendOpenRouter:
		c, err := orClient()
		if err != nil {
			return nil, err
		}
		category = c
	default:
		return nil, fmt.Errorf("unsupported category classifier: %s", cfg.CategoryClassifier)
	}

	p := NewPipeline(remover, color, category)
	logrus.WithFields(logrus.Fields{
		"remover":  p.removerName,
		"color":    p.colorName,
		"category": p.categoryName,
	}).Info("inference pipeline ready")
	return p, nil
}

func normalizeBackend(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
