package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"unicode"

	"wardrobe/internal/utils"
	"wardrobe/internal/wardrobe"

	"github.com/sirupsen/logrus"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/volcengine/volcengine-go-sdk/service/arkruntime"
	volcModel "github.com/volcengine/volcengine-go-sdk/service/arkruntime/model"
)

//文档:https://www.volcengine.com/docs/82379/1362931

type chatCompletionFunc func(ctx context.Context, req volcModel.CreateChatCompletionRequest) (volcModel.ChatCompletionResponse, error)

// VolcengineClassifier asks a multimodal Ark model to name the garment's
// category and color. It serves as either classifier.
type VolcengineClassifier struct {
	model    string
	complete chatCompletionFunc
	breaker  *gobreaker.CircuitBreaker[string]
}

func NewVolcengineClassifier(apiKey, model string) (*VolcengineClassifier, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("volcengine api key is not configured")
	}
	if strings.TrimSpace(model) == "" {
		return nil, errors.New("volcengine vision model is not configured")
	}
	client := arkruntime.NewClientWithApiKey(apiKey)
	return &VolcengineClassifier{
		model: model,
		complete: func(ctx context.Context, req volcModel.CreateChatCompletionRequest) (volcModel.ChatCompletionResponse, error) {
			return client.CreateChatCompletion(ctx, req)
		},
		breaker: newBreaker[string]("volcengine"),
	}, nil
}

func (v *VolcengineClassifier) PredictCategory(ctx context.Context, img image.Image) (wardrobe.Category, error) {
	answer, err := v.ask(ctx, img, buildClassifyPrompt("garment category", categoryLabels()))
	if err != nil {
		return "", err
	}
	label := matchLabel(answer, categoryLabels())
	category, ok := wardrobe.ParseCategory(label)
	if !ok {
		return "", fmt.Errorf("volcengine answered %q, no category label found", snippet(answer))
	}
	return category, nil
}

func (v *VolcengineClassifier) PredictColor(ctx context.Context, img image.Image) (wardrobe.Color, error) {
	answer, err := v.ask(ctx, img, buildClassifyPrompt("dominant color", colorLabels()))
	if err != nil {
		return "", err
	}
	label := matchLabel(answer, append(colorLabels(), "gray"))
	color, ok := wardrobe.ParseColor(label)
	if !ok {
		return "", fmt.Errorf("volcengine answered %q, no color label found", snippet(answer))
	}
	return color, nil
}

func (v *VolcengineClassifier) ask(ctx context.Context, img image.Image, prompt string) (string, error) {
	encoded, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	dataURL := utils.DataURL("image/png", encoded)

	req := volcModel.CreateChatCompletionRequest{
		Model: v.model,
		Messages: []*volcModel.ChatCompletionMessage{
			{
				Role: volcModel.ChatMessageRoleUser,
				Content: &volcModel.ChatCompletionMessageContent{
					ListValue: []*volcModel.ChatCompletionMessageContentPart{
						{
							Type:     volcModel.ChatCompletionMessageContentPartTypeImageURL,
							ImageURL: &volcModel.ChatMessageImageURL{URL: dataURL},
						},
						{
							Type: volcModel.ChatCompletionMessageContentPartTypeText,
							Text: prompt,
						},
					},
				},
			},
		},
	}

	return v.breaker.Execute(func() (string, error) {
		resp, err := v.complete(ctx, req)
		if err != nil {
			return "", fmt.Errorf("volcengine chat completion: %w", err)
		}
		answer := firstChoiceText(resp)
		logrus.WithFields(logrus.Fields{
			"model":  v.model,
			"answer": snippet(answer),
		}).Debug("volcengine_classify")
		if answer == "" {
			return "", errors.New("volcengine returned an empty answer")
		}
		return answer, nil
	})
}

func firstChoiceText(resp volcModel.ChatCompletionResponse) string {
	if len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return ""
	}
	content := resp.Choices[0].Message.Content
	if content == nil || content.StringValue == nil {
		return ""
	}
	return strings.TrimSpace(*content.StringValue)
}

func buildClassifyPrompt(subject string, labels []string) string {
	return fmt.Sprintf(
		"Look at the clothing item in the image and classify its %s. Answer with exactly one word from this list and nothing else: %s.",
		subject, strings.Join(labels, ", "),
	)
}

// matchLabel returns the first word of answer that equals one of labels, ignoring case.
func matchLabel(answer string, labels []string) string {
	words := strings.FieldsFunc(answer, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, word := range words {
		for _, label := range labels {
			if strings.EqualFold(word, label) {
				return label
			}
		}
	}
	return ""
}

func categoryLabels() []string {
	labels := make([]string, len(wardrobe.Categories))
	for i, c := range wardrobe.Categories {
		labels[i] = string(c)
	}
	return labels
}

func colorLabels() []string {
	labels := make([]string, len(wardrobe.Colors))
	for i, c := range wardrobe.Colors {
		labels[i] = string(c)
	}
	return labels
}

var (
	_ CategoryClassifier = (*VolcengineClassifier)(nil)
	_ ColorClassifier    = (*VolcengineClassifier)(nil)
)
