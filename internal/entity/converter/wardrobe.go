package converter

import (
	"wardrobe/internal/entity/db"
	"wardrobe/internal/entity/dto"
)

// ItemToSummary converts a stored item; urlFor resolves the object key to a public URL.
func ItemToSummary(item *db.WardrobeItem, urlFor func(key string) string) dto.ItemSummary {
	if item == nil {
		return dto.ItemSummary{}
	}
	url := item.ObjectKey
	if urlFor != nil {
		url = urlFor(item.ObjectKey)
	}
	return dto.ItemSummary{
		ID:        item.ID,
		Filename:  item.Filename,
		URL:       url,
		Category:  item.Category,
		Color:     item.Color,
		Size:      item.Size,
		CreatedAt: item.CreatedAt,
	}
}

// ItemsToSummaries converts a slice of db.WardrobeItem.
func ItemsToSummaries(items []db.WardrobeItem, urlFor func(key string) string) []dto.ItemSummary {
	summaries := make([]dto.ItemSummary, len(items))
	for i := range items {
		summaries[i] = ItemToSummary(&items[i], urlFor)
	}
	return summaries
}

// OutfitSetToSummary converts a stored outfit set.
func OutfitSetToSummary(set *db.OutfitSet) dto.OutfitSetSummary {
	if set == nil {
		return dto.OutfitSetSummary{}
	}
	return dto.OutfitSetSummary{
		ID:             set.ID,
		Number:         set.Number,
		Color:          set.Color,
		SourceFilename: set.SourceFilename,
		Items:          set.Items.ToSlice(),
		CreatedAt:      set.CreatedAt,
	}
}

// OutfitSetsToSummaries converts a slice of db.OutfitSet.
func OutfitSetsToSummaries(sets []db.OutfitSet) []dto.OutfitSetSummary {
	summaries := make([]dto.OutfitSetSummary, len(sets))
	for i := range sets {
		summaries[i] = OutfitSetToSummary(&sets[i])
	}
	return summaries
}
