package sql

import (
	"context"
	"path/filepath"
	"testing"

	"wardrobe/internal/entity/common"
	"wardrobe/internal/entity/db"
	"wardrobe/internal/entity/dto"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepository(t *testing.T) *GormRepository {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "wardrobe.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(&db.WardrobeItem{}, &db.OutfitSet{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewGormRepository(gdb)
}

func TestFilterNormalisation(t *testing.T) {
	tests := []struct {
		raw          string
		wantCategory string
		wantColor    string
	}{
		{raw: "", wantCategory: "", wantColor: ""},
		{raw: "  topwear ", wantCategory: "Topwear", wantColor: "topwear"},
		{raw: "SHOES", wantCategory: "Shoes", wantColor: "shoes"},
		{raw: "Gray", wantCategory: "Gray", wantColor: "grey"},
		{raw: "Navy", wantCategory: "Navy", wantColor: "navy"},
	}
	for _, tt := range tests {
		if got := categoryFilter(tt.raw); got != tt.wantCategory {
			t.Errorf("categoryFilter(%q): expected %q, got %q", tt.raw, tt.wantCategory, got)
		}
		if got := colorFilter(tt.raw); got != tt.wantColor {
			t.Errorf("colorFilter(%q): expected %q, got %q", tt.raw, tt.wantColor, got)
		}
	}
}

func TestListWardrobeItemsFilters(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	for _, item := range []db.WardrobeItem{
		{UserUID: "u1", ObjectKey: "userimages/u1/clothes/a_Topwear_red.png", Filename: "a_Topwear_red.png", Category: "Topwear", Color: "red"},
		{UserUID: "u1", ObjectKey: "userimages/u1/clothes/b_Shoes_grey.png", Filename: "b_Shoes_grey.png", Category: "Shoes", Color: "grey"},
		{UserUID: "u1", ObjectKey: "userimages/u1/clothes/c_Topwear_grey.png", Filename: "c_Topwear_grey.png", Category: "Topwear", Color: "grey"},
		{UserUID: "u2", ObjectKey: "userimages/u2/clothes/d_Topwear_red.png", Filename: "d_Topwear_red.png", Category: "Topwear", Color: "red"},
	} {
		item := item
		if err := repo.CreateWardrobeItem(ctx, &item); err != nil {
			t.Fatalf("create %s: %v", item.Filename, err)
		}
	}

	tests := []struct {
		name      string
		query     dto.ItemQuery
		wantTotal int64
	}{
		{name: "all", query: dto.ItemQuery{UserUID: "u1"}, wantTotal: 3},
		{name: "lower case category", query: dto.ItemQuery{UserUID: "u1", Category: "topwear"}, wantTotal: 2},
		{name: "gray alias", query: dto.ItemQuery{UserUID: "u1", Color: "GRAY"}, wantTotal: 2},
		{name: "both", query: dto.ItemQuery{UserUID: "u1", Category: " TOPWEAR ", Color: "Grey"}, wantTotal: 1},
		{name: "unknown category", query: dto.ItemQuery{UserUID: "u1", Category: "Hats"}, wantTotal: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := tt.query
			items, meta, err := repo.ListWardrobeItems(ctx, &query)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if meta.Total != tt.wantTotal || int64(len(items)) != tt.wantTotal {
				t.Fatalf("expected %d items, got %d (total %d)", tt.wantTotal, len(items), meta.Total)
			}
		})
	}
}

func TestListWithHugePage(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	if err := repo.CreateWardrobeItem(ctx, &db.WardrobeItem{UserUID: "u1", ObjectKey: "k", Filename: "a_Topwear_red.png", Category: "Topwear", Color: "red"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.CreateOutfitSet(ctx, &db.OutfitSet{UserUID: "u1", Number: 1, Color: "red", Items: common.StringArray{"a_Topwear_red.png"}}); err != nil {
		t.Fatalf("create set: %v", err)
	}
	huge := common.BaseParams{Page: 691752902764108186, PageSize: 20}

	items, meta, err := repo.ListWardrobeItems(ctx, &dto.ItemQuery{UserUID: "u1", BaseParams: huge})
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 0 || meta.Total != 1 {
		t.Fatalf("expected empty page with total 1, got %d items (total %d)", len(items), meta.Total)
	}

	sets, meta, err := repo.ListOutfitSets(ctx, &dto.OutfitSetQuery{UserUID: "u1", BaseParams: huge})
	if err != nil {
		t.Fatalf("list sets: %v", err)
	}
	if len(sets) != 0 || meta.Total != 1 {
		t.Fatalf("expected empty page with total 1, got %d sets (total %d)", len(sets), meta.Total)
	}
}
