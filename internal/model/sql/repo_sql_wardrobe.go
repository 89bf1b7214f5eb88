package sql

import (
	"context"
	"fmt"
	"strings"

	"wardrobe/internal/entity/common"
	"wardrobe/internal/entity/db"
	"wardrobe/internal/entity/dto"
	"wardrobe/internal/wardrobe"

	"gorm.io/gorm/clause"
)

// CreateWardrobeItem inserts an item, or refreshes it when the same object key is uploaded again.
func (r *GormRepository) CreateWardrobeItem(ctx context.Context, item *db.WardrobeItem) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if item == nil {
		return fmt.Errorf("item is nil")
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "object_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"filename", "category", "color", "content_type", "size"}),
	}).Create(item).Error
}

// ListWardrobeItems returns a user's items, newest first.
func (r *GormRepository) ListWardrobeItems(ctx context.Context, params *dto.ItemQuery) ([]db.WardrobeItem, *common.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}
	if params == nil || strings.TrimSpace(params.UserUID) == "" {
		return nil, nil, fmt.Errorf("user uid is required")
	}

	query := r.db.WithContext(ctx).Model(&db.WardrobeItem{}).Where("user_uid = ?", params.UserUID)
	if category := categoryFilter(params.Category); category != "" {
		query = query.Where("category = ?", category)
	}
	if color := colorFilter(params.Color); color != "" {
		query = query.Where("color = ?", color)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	page, pageSize := params.Normalize()
	var items []db.WardrobeItem
	if err := query.Order("created_at DESC, id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&items).Error; err != nil {
		return nil, nil, err
	}
	return items, r.calculatePagination(total, page, pageSize), nil
}

// CreateOutfitSet records a generated collection.
func (r *GormRepository) CreateOutfitSet(ctx context.Context, set *db.OutfitSet) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("repository not initialised")
	}
	if set == nil {
		return fmt.Errorf("outfit set is nil")
	}
	return r.db.WithContext(ctx).Create(set).Error
}

// ListOutfitSets returns a user's generated collections, newest first.
func (r *GormRepository) ListOutfitSets(ctx context.Context, params *dto.OutfitSetQuery) ([]db.OutfitSet, *common.Meta, error) {
	if r == nil || r.db == nil {
		return nil, nil, fmt.Errorf("repository not initialised")
	}
	if params == nil || strings.TrimSpace(params.UserUID) == "" {
		return nil, nil, fmt.Errorf("user uid is required")
	}

	query := r.db.WithContext(ctx).Model(&db.OutfitSet{}).Where("user_uid = ?", params.UserUID)
	if color := colorFilter(params.Color); color != "" {
		query = query.Where("color = ?", color)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, nil, err
	}

	page, pageSize := params.Normalize()
	var sets []db.OutfitSet
	if err := query.Order("number DESC, id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&sets).Error; err != nil {
		return nil, nil, err
	}
	return sets, r.calculatePagination(total, page, pageSize), nil
}

// categoryFilter 把查询参数映射到库里存的规范标签，未知值原样保留，结果为空集
func categoryFilter(raw string) string {
	if category, ok := wardrobe.ParseCategory(raw); ok {
		return string(category)
	}
	return strings.TrimSpace(raw)
}

func colorFilter(raw string) string {
	if color, ok := wardrobe.ParseColor(raw); ok {
		return string(color)
	}
	return strings.ToLower(strings.TrimSpace(raw))
}
