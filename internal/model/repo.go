package model

import (
	"context"

	"wardrobe/internal/entity/common"
	"wardrobe/internal/entity/db"
	"wardrobe/internal/entity/dto"
)

// Repository 定义数据库操作接口
type Repository interface {
	// 用户管理
	CreateUser(ctx context.Context, user *db.User) error
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
	GetUserByUID(ctx context.Context, uid string) (*db.User, error)
	CountUsers(ctx context.Context) (int64, error)

	// 衣橱记录
	CreateWardrobeItem(ctx context.Context, item *db.WardrobeItem) error
	ListWardrobeItems(ctx context.Context, params *dto.ItemQuery) ([]db.WardrobeItem, *common.Meta, error)

	// 搭配记录
	CreateOutfitSet(ctx context.Context, set *db.OutfitSet) error
	ListOutfitSets(ctx context.Context, params *dto.OutfitSetQuery) ([]db.OutfitSet, *common.Meta, error)
}
