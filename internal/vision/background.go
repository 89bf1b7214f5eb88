package vision

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
)

// BackgroundRemover cuts the garment out of its background.
type BackgroundRemover interface {
	Remove(ctx context.Context, data []byte) ([]byte, error)
}

// NoopRemover returns the input unchanged.
type NoopRemover struct{}

func (NoopRemover) Remove(_ context.Context, data []byte) ([]byte, error) {
	return data, nil
}

// RembgOptions 对应 rembg 服务端 /api/remove 的表单参数。
type RembgOptions struct {
	BaseURL             string
	Model               string
	AlphaMatting        bool
	BackgroundThreshold int
	Timeout             time.Duration
}

// RembgRemover calls a rembg HTTP server ("rembg s") and returns the PNG cut-out.
type RembgRemover struct {
	endpoint string
	opts     RembgOptions
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[[]byte]
}

func NewRembgRemover(opts RembgOptions) (*RembgRemover, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("rembg base url is not configured")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &RembgRemover{
		endpoint: base + "/api/remove",
		opts:     opts,
		client:   &http.Client{Timeout: opts.Timeout},
		breaker:  newBreaker[[]byte]("rembg"),
	}, nil
}

func (r *RembgRemover) Remove(ctx context.Context, data []byte) ([]byte, error) {
	return r.breaker.Execute(func() ([]byte, error) {
		return r.remove(ctx, data)
	})
}

func (r *RembgRemover) remove(ctx context.Context, data []byte) ([]byte, error) {
	body, contentType, err := r.buildForm(data)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create rembg request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rembg request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read rembg response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rembg http %d: %s", resp.StatusCode, snippet(string(payload)))
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("rembg returned an empty image")
	}
	return payload, nil
}

func (r *RembgRemover) buildForm(data []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "input")
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("write form file: %w", err)
	}

	fields := map[string]string{
		"a":  strconv.FormatBool(r.opts.AlphaMatting),
		"ab": strconv.Itoa(r.opts.BackgroundThreshold),
	}
	if model := strings.TrimSpace(r.opts.Model); model != "" {
		fields["model"] = model
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close form: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}

const snippetLimit = 120

func snippet(value string) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if len(runes) <= snippetLimit {
		return value
	}
	return string(runes[:snippetLimit]) + "..."
}
