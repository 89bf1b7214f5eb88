package vision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"wardrobe/internal/utils"
	"wardrobe/internal/wardrobe"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
)

// OpenAI 兼容的 chat/completions 接口（OpenRouter、AiHubMix 等）

type orImageURL struct {
	URL string `json:"url"`
}

type orMsgPart struct {
	Type     string      `json:"type"` // "text" | "image_url"
	Text     string      `json:"text,omitempty"`
	ImageURL *orImageURL `json:"image_url,omitempty"`
}

type orMessage struct {
	Role    string      `json:"role"`
	Content []orMsgPart `json:"content"`
}

type orRequest struct {
	Model       string      `json:"model"`
	Messages    []orMessage `json:"messages"`
	Temperature float64     `json:"temperature"`
	MaxTokens   int         `json:"max_tokens,omitempty"`
}

type orResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// 输入图片 data:URL 也行，http(s) 也行
func makeUserMessage(prompt string, imageURL string) orMessage {
	return orMessage{
		Role: "user",
		Content: []orMsgPart{
			{Type: "image_url", ImageURL: &orImageURL{URL: imageURL}},
			{Type: "text", Text: prompt},
		},
	}
}

// OpenRouterClassifier classifies garments through any OpenAI compatible
// multimodal chat endpoint.
type OpenRouterClassifier struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[string]
}

func NewOpenRouterClassifier(endpoint, apiKey, model string, timeout time.Duration) (*OpenRouterClassifier, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openrouter api key missing")
	}
	if strings.TrimSpace(endpoint) == "" {
		return nil, errors.New("openrouter endpoint is not configured")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("openrouter vision model is not configured")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenRouterClassifier{
		endpoint: strings.TrimSpace(endpoint),
		apiKey:   strings.TrimSpace(apiKey),
		model:    model,
		client:   &http.Client{Timeout: timeout},
		breaker:  newBreaker[string]("openrouter"),
	}, nil
}

func (o *OpenRouterClassifier) PredictCategory(ctx context.Context, img image.Image) (wardrobe.Category, error) {
	answer, err := o.ask(ctx, img, buildClassifyPrompt("garment category", categoryLabels()))
	if err != nil {
		return "", err
	}
	category, ok := wardrobe.ParseCategory(matchLabel(answer, categoryLabels()))
	if !ok {
		return "", fmt.Errorf("openrouter answered %q, no category label found", snippet(answer))
	}
	return category, nil
}

func (o *OpenRouterClassifier) PredictColor(ctx context.Context, img image.Image) (wardrobe.Color, error) {
	answer, err := o.ask(ctx, img, buildClassifyPrompt("dominant color", colorLabels()))
	if err != nil {
		return "", err
	}
	color, ok := wardrobe.ParseColor(matchLabel(answer, append(colorLabels(), "gray")))
	if !ok {
		return "", fmt.Errorf("openrouter answered %q, no color label found", snippet(answer))
	}
	return color, nil
}

func (o *OpenRouterClassifier) ask(ctx context.Context, img image.Image, prompt string) (string, error) {
	encoded, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(orRequest{
		Model:       o.model,
		Messages:    []orMessage{makeUserMessage(prompt, utils.DataURL("image/png", encoded))},
		Temperature: 0,
		MaxTokens:   16,
	})
	if err != nil {
		return "", err
	}

	return o.breaker.Execute(func() (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
		if err != nil {
			return "", err
		}
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := o.client.Do(req)
		if err != nil {
			return "", fmt.Errorf("openrouter request: %w", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return "", fmt.Errorf("read openrouter response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			logrus.WithFields(logrus.Fields{
				"status": resp.StatusCode,
				"body":   snippet(string(raw)),
			}).Error("openrouter classify failed")
			return "", fmt.Errorf("openrouter http %d: %s", resp.StatusCode, snippet(string(raw)))
		}

		var parsed orResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return "", fmt.Errorf("decode openrouter response: %w", err)
		}
		if parsed.Error != nil && parsed.Error.Message != "" {
			return "", fmt.Errorf("openrouter error: %s", parsed.Error.Message)
		}
		if len(parsed.Choices) == 0 {
			return "", errors.New("openrouter returned no choices")
		}
		answer := strings.TrimSpace(parsed.Choices[0].Message.Content)
		logrus.WithFields(logrus.Fields{
			"model":  o.model,
			"answer": snippet(answer),
		}).Debug("openrouter_classify")
		if answer == "" {
			return "", errors.New("openrouter returned an empty answer")
		}
		return answer, nil
	})
}

var (
	_ CategoryClassifier = (*OpenRouterClassifier)(nil)
	_ ColorClassifier    = (*OpenRouterClassifier)(nil)
)
