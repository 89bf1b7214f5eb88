package wardrobe

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	userRoot         = "userimages"
	outfitFolderStem = "myoutfits_"
)

// SanitizeID turns an uploaded filename into the <id> token of an item name.
// It keeps ASCII letters, digits and dots, drops the extension and never
// returns a value containing '_' or '-'.
func SanitizeID(filename string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if ext := path.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}

	builder := strings.Builder{}
	builder.Grow(len(base))
	for i := 0; i < len(base); i++ {
		ch := base[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9', ch == '.':
			builder.WriteByte(ch)
		}
	}
	id := strings.Trim(builder.String(), ".")
	if id == "" {
		id = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	return id
}

// ClothesPrefix is the object prefix holding a user's classified items.
func ClothesPrefix(uid string) string {
	return fmt.Sprintf("%s/%s/clothes/", userRoot, uid)
}

// OutfitsPrefix is the object prefix holding a user's outfit collections.
func OutfitsPrefix(uid string) string {
	return fmt.Sprintf("%s/%s/outfits/", userRoot, uid)
}

// OutfitCollectionPrefix is the folder of collection n (1-based).
func OutfitCollectionPrefix(uid string, n int) string {
	return fmt.Sprintf("%s%s%d/", OutfitsPrefix(uid), outfitFolderStem, n)
}

// ClothingKey is the object key of an item in the user's wardrobe.
func ClothingKey(uid, filename string) string {
	return ClothesPrefix(uid) + filename
}

// ParseCollectionFolder extracts n from a "myoutfits_<n>" folder name.
func ParseCollectionFolder(name string) (int, bool) {
	digits, ok := strings.CutPrefix(strings.Trim(name, "/"), outfitFolderStem)
	if !ok || digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 || strconv.Itoa(n) != digits {
		return 0, false
	}
	return n, true
}
