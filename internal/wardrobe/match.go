package wardrobe

import "sort"

// OutfitCategories are the slots filled when building an outfit.
var OutfitCategories = []Category{
	CategoryTopwear,
	CategoryBottomwear,
	CategoryShoes,
	CategoryAccessories,
}

// Outfit groups the candidate items of each slot for one target color.
type Outfit struct {
	Color Color
	Items map[Category][]ClothingItem
}

// FindMatchingItems returns the items of category whose color is preferred.
// When nothing in the category has a preferred color, every item of the
// category is returned instead.
func FindMatchingItems(category Category, preferred []Color, items []ClothingItem) []ClothingItem {
	wanted := make(map[Color]struct{}, len(preferred))
	for _, c := range preferred {
		wanted[c] = struct{}{}
	}

	var inCategory, colorMatched []ClothingItem
	for _, item := range items {
		if item.Category != category {
			continue
		}
		inCategory = append(inCategory, item)
		if _, ok := wanted[item.Color]; ok {
			colorMatched = append(colorMatched, item)
		}
	}
	if len(colorMatched) > 0 {
		return colorMatched
	}
	return inCategory
}

// BuildOutfit fills every outfit slot for color. Slot members are ordered by
// filename so equal inputs always produce equal outfits.
func BuildOutfit(color Color, items []ClothingItem) Outfit {
	outfit := Outfit{Color: color, Items: make(map[Category][]ClothingItem, len(OutfitCategories))}
	for _, category := range OutfitCategories {
		matched := FindMatchingItems(category, []Color{color}, items)
		if len(matched) == 0 {
			continue
		}
		sorted := append([]ClothingItem(nil), matched...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Filename < sorted[j].Filename })
		outfit.Items[category] = sorted
	}
	return outfit
}

// Filenames flattens the outfit in slot order.
func (o Outfit) Filenames() []string {
	var names []string
	for _, category := range OutfitCategories {
		for _, item := range o.Items[category] {
			names = append(names, item.Filename)
		}
	}
	return names
}

// IsEmpty reports whether no slot has a candidate.
func (o Outfit) IsEmpty() bool {
	for _, items := range o.Items {
		if len(items) > 0 {
			return false
		}
	}
	return true
}
