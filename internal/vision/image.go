// Package vision wraps the pretrained models used to process wardrobe photos:
// background removal, dominant color prediction and garment category prediction.
package vision

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"

	// 注册解码器
	_ "image/jpeg"

	_ "golang.org/x/image/webp"
)

// ErrUnsupportedImage is returned when the payload cannot be decoded.
var ErrUnsupportedImage = errors.New("unsupported or corrupt image")

// DecodeImage decodes jpeg, png or webp bytes.
func DecodeImage(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrUnsupportedImage
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	return img, nil
}

// EncodePNG keeps the alpha channel produced by background removal.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
