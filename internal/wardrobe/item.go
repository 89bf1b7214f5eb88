// Package wardrobe holds the clothing item model and the outfit matching rules.
//
// Item identity lives in the object name itself: <id>_<Category>_<color>.<ext>.
package wardrobe

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// Category 服装类别，顺序与类别模型的输出下标一致。
type Category string

const (
	CategoryAccessories Category = "Accessories"
	CategoryBottomwear  Category = "Bottomwear"
	CategoryDress       Category = "Dress"
	CategorySandals     Category = "Sandals"
	CategoryShoes       Category = "Shoes"
	CategoryTopwear     Category = "Topwear"
)

// Categories lists every class label in model output order.
var Categories = []Category{
	CategoryAccessories,
	CategoryBottomwear,
	CategoryDress,
	CategorySandals,
	CategoryShoes,
	CategoryTopwear,
}

// Color 颜色标签，顺序与颜色模型的输出下标一致。
type Color string

const (
	ColorBlack  Color = "black"
	ColorBlue   Color = "blue"
	ColorBrown  Color = "brown"
	ColorGreen  Color = "green"
	ColorGrey   Color = "grey"
	ColorOrange Color = "orange"
	ColorRed    Color = "red"
	ColorViolet Color = "violet"
	ColorWhite  Color = "white"
	ColorYellow Color = "yellow"
)

// Colors lists every color label in model output order.
var Colors = []Color{
	ColorBlack,
	ColorBlue,
	ColorBrown,
	ColorGreen,
	ColorGrey,
	ColorOrange,
	ColorRed,
	ColorViolet,
	ColorWhite,
	ColorYellow,
}

// Valid reports whether c is one of the known category labels.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Valid reports whether c is one of the known color labels.
func (c Color) Valid() bool {
	for _, known := range Colors {
		if c == known {
			return true
		}
	}
	return false
}

// CategoryAt maps a model output index to its label.
func CategoryAt(idx int) (Category, error) {
	if idx < 0 || idx >= len(Categories) {
		return "", fmt.Errorf("category index %d out of range", idx)
	}
	return Categories[idx], nil
}

// ColorAt maps a model output index to its label.
func ColorAt(idx int) (Color, error) {
	if idx < 0 || idx >= len(Colors) {
		return "", fmt.Errorf("color index %d out of range", idx)
	}
	return Colors[idx], nil
}

// ParseCategory matches a label case-insensitively.
func ParseCategory(value string) (Category, bool) {
	trimmed := strings.TrimSpace(value)
	for _, known := range Categories {
		if strings.EqualFold(trimmed, string(known)) {
			return known, true
		}
	}
	return "", false
}

// ParseColor matches a label case-insensitively. "gray" is accepted as grey.
func ParseColor(value string) (Color, bool) {
	trimmed := strings.TrimSpace(value)
	if strings.EqualFold(trimmed, "gray") {
		return ColorGrey, true
	}
	for _, known := range Colors {
		if strings.EqualFold(trimmed, string(known)) {
			return known, true
		}
	}
	return "", false
}

// ErrInvalidFilename is returned when a name does not follow <id>_<Category>_<color>.<ext>.
var ErrInvalidFilename = errors.New("filename must look like <id>_<category>_<color>.jpg|.jpeg|.png")

var imageExtensions = []string{".jpg", ".jpeg", ".png"}

// ClothingItem 一件已分类的衣物。
type ClothingItem struct {
	Filename string   `json:"filename"`
	ID       string   `json:"id"`
	Category Category `json:"category"`
	Color    Color    `json:"color"`
}

// EncodeFilename builds the object name for a classified item.
func EncodeFilename(id string, category Category, color Color, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	if ext == "" {
		ext = "png"
	}
	return fmt.Sprintf("%s_%s_%s.%s", id, category, color, ext)
}

// ParseFilename recovers category and color from an encoded object name. Only
// the base name is considered, so full object keys are accepted too.
func ParseFilename(name string) (ClothingItem, error) {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	parts := strings.Split(base, "_")
	if len(parts) != 3 {
		return ClothingItem{}, ErrInvalidFilename
	}
	last := parts[2]
	if !hasImageExtension(last) {
		return ClothingItem{}, ErrInvalidFilename
	}
	color := last[:strings.Index(last, ".")]
	if parts[0] == "" || parts[1] == "" || color == "" {
		return ClothingItem{}, ErrInvalidFilename
	}
	return ClothingItem{
		Filename: base,
		ID:       parts[0],
		Category: Category(parts[1]),
		Color:    Color(color),
	}, nil
}

// ScanItems parses every name and drops the ones that are not encoded items.
func ScanItems(names []string) []ClothingItem {
	items := make([]ClothingItem, 0, len(names))
	for _, name := range names {
		item, err := ParseFilename(name)
		if err != nil {
			continue
		}
		items = append(items, item)
	}
	return items
}

// IsImageName reports whether name carries one of the accepted image extensions.
func IsImageName(name string) bool {
	return hasImageExtension(path.Base(name))
}

func hasImageExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range imageExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
