package db

import (
	"time"

	"wardrobe/internal/entity/common"
)

// WardrobeItem 记录一次上传并分类后的衣物。
type WardrobeItem struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UserUID     string    `gorm:"column:user_uid;type:varchar(64);index;not null" json:"user_uid"`
	ObjectKey   string    `gorm:"column:object_key;type:varchar(512);uniqueIndex;not null" json:"object_key"`
	Filename    string    `gorm:"column:filename;type:varchar(255);not null" json:"filename"`
	Category    string    `gorm:"column:category;type:varchar(32);index;not null" json:"category"`
	Color       string    `gorm:"column:color;type:varchar(32);index;not null" json:"color"`
	ContentType string    `gorm:"column:content_type;type:varchar(64)" json:"content_type"`
	Size        int64     `gorm:"column:size" json:"size"`
}

// TableName 指定表名。
func (WardrobeItem) TableName() string {
	return "wardrobe_items"
}

// OutfitSet 记录一次搭配生成的结果集合。
type OutfitSet struct {
	ID             uint               `gorm:"primarykey" json:"id"`
	CreatedAt      time.Time          `json:"created_at"`
	UserUID        string             `gorm:"column:user_uid;type:varchar(64);index;not null" json:"user_uid"`
	Number         int                `gorm:"column:number;not null" json:"number"`
	Color          string             `gorm:"column:color;type:varchar(32)" json:"color"`
	SourceFilename string             `gorm:"column:source_filename;type:varchar(255)" json:"source_filename"`
	Items          common.StringArray `gorm:"column:items;type:text" json:"items"`
}

// TableName 指定表名。
func (OutfitSet) TableName() string {
	return "outfit_sets"
}
