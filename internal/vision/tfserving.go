package vision

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wardrobe/internal/wardrobe"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
)

// CategoryClassifier predicts the garment category of an image.
type CategoryClassifier interface {
	PredictCategory(ctx context.Context, img image.Image) (wardrobe.Category, error)
}

// TFServingClient calls the TensorFlow Serving REST predict API
// (POST /v1/models/<name>:predict).
type TFServingClient struct {
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[]float64]
}

type tfPredictRequest struct {
	Instances any `json:"instances"`
}

type tfPredictResponse struct {
	Predictions [][]float64 `json:"predictions"`
	Error       string      `json:"error"`
}

func NewTFServingClient(baseURL string, timeout time.Duration) (*TFServingClient, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("tensorflow serving url is not configured")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse tensorflow serving url: %w", err)
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &TFServingClient{
		baseURL: base,
		client:  &http.Client{Timeout: timeout},
		breaker: newBreaker[[]float64]("tfserving"),
	}, nil
}

// Predict sends a single instance and returns the model's output scores.
func (c *TFServingClient) Predict(ctx context.Context, model string, instance any) ([]float64, error) {
	return c.breaker.Execute(func() ([]float64, error) {
		return c.predict(ctx, model, instance)
	})
}

func (c *TFServingClient) predict(ctx context.Context, model string, instance any) ([]float64, error) {
	payload, err := json.Marshal(tfPredictRequest{Instances: []any{instance}})
	if err != nil {
		return nil, fmt.Errorf("marshal predict request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/models/%s:predict", c.baseURL, url.PathEscape(model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predict request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read predict response: %w", err)
	}
	return parsePredictResponse(resp.StatusCode, body)
}

func parsePredictResponse(status int, body []byte) ([]float64, error) {
	var decoded tfPredictResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		if status != http.StatusOK {
			return nil, fmt.Errorf("predict http %d: %s", status, snippet(string(body)))
		}
		return nil, fmt.Errorf("decode predict response: %w", err)
	}
	if status != http.StatusOK || decoded.Error != "" {
		msg := decoded.Error
		if msg == "" {
			msg = snippet(string(body))
		}
		return nil, fmt.Errorf("predict http %d: %s", status, msg)
	}
	if len(decoded.Predictions) == 0 || len(decoded.Predictions[0]) == 0 {
		return nil, fmt.Errorf("predict response has no scores")
	}
	return decoded.Predictions[0], nil
}

// TFServingCategoryClassifier feeds a 224×224 RGB tensor to the category model.
type TFServingCategoryClassifier struct {
	client *TFServingClient
	model  string
}

func NewTFServingCategoryClassifier(client *TFServingClient, model string) *TFServingCategoryClassifier {
	return &TFServingCategoryClassifier{client: client, model: model}
}

func (c *TFServingCategoryClassifier) PredictCategory(ctx context.Context, img image.Image) (wardrobe.Category, error) {
	scores, err := c.client.Predict(ctx, c.model, CategoryTensor(img))
	if err != nil {
		return "", err
	}
	if len(scores) != len(wardrobe.Categories) {
		return "", fmt.Errorf("category model returned %d scores, want %d", len(scores), len(wardrobe.Categories))
	}
	return wardrobe.CategoryAt(argmax(scores))
}

// TFServingColorClassifier feeds the 1×1 RGB+HSV feature vector to the color model.
type TFServingColorClassifier struct {
	client *TFServingClient
	model  string
}

func NewTFServingColorClassifier(client *TFServingClient, model string) *TFServingColorClassifier {
	return &TFServingColorClassifier{client: client, model: model}
}

func (c *TFServingColorClassifier) PredictColor(ctx context.Context, img image.Image) (wardrobe.Color, error) {
	features := ExtractColorFeatures(img)
	scores, err := c.client.Predict(ctx, c.model, features[:])
	if err != nil {
		return "", err
	}
	if len(scores) != len(wardrobe.Colors) {
		return "", fmt.Errorf("color model returned %d scores, want %d", len(scores), len(wardrobe.Colors))
	}
	return wardrobe.ColorAt(argmax(scores))
}

var (
	_ CategoryClassifier = (*TFServingCategoryClassifier)(nil)
	_ ColorClassifier    = (*TFServingColorClassifier)(nil)
)
