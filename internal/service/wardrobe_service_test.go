package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"wardrobe/internal/entity/common"
	"wardrobe/internal/entity/db"
	"wardrobe/internal/entity/dto"
	"wardrobe/internal/storage"
	"wardrobe/internal/utils"
	"wardrobe/internal/vision"
	"wardrobe/internal/wardrobe"
)

type fakeProcessor struct {
	category wardrobe.Category
	color    wardrobe.Color
	err      error
}

func (f fakeProcessor) Process(_ context.Context, raw []byte) (*vision.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &vision.Result{Image: raw, ContentType: "image/png", Category: f.category, Color: f.color}, nil
}

type fakeRepo struct {
	items []db.WardrobeItem
	sets  []db.OutfitSet
}

func (r *fakeRepo) CreateUser(context.Context, *db.User) error { return nil }
func (r *fakeRepo) GetUserByEmail(context.Context, string) (*db.User, error) {
	return nil, errors.New("not implemented")
}
func (r *fakeRepo) GetUserByUID(context.Context, string) (*db.User, error) {
	return nil, errors.New("not implemented")
}
func (r *fakeRepo) CountUsers(context.Context) (int64, error) { return 0, nil }

func (r *fakeRepo) CreateWardrobeItem(_ context.Context, item *db.WardrobeItem) error {
	r.items = append(r.items, *item)
	return nil
}

func (r *fakeRepo) ListWardrobeItems(_ context.Context, params *dto.ItemQuery) ([]db.WardrobeItem, *common.Meta, error) {
	var out []db.WardrobeItem
	for _, item := range r.items {
		if item.UserUID == params.UserUID {
			out = append(out, item)
		}
	}
	return out, &common.Meta{Page: 1, PageSize: 20, Total: int64(len(out))}, nil
}

func (r *fakeRepo) CreateOutfitSet(_ context.Context, set *db.OutfitSet) error {
	r.sets = append(r.sets, *set)
	return nil
}

func (r *fakeRepo) ListOutfitSets(_ context.Context, params *dto.OutfitSetQuery) ([]db.OutfitSet, *common.Meta, error) {
	var out []db.OutfitSet
	for _, set := range r.sets {
		if set.UserUID == params.UserUID {
			out = append(out, set)
		}
	}
	return out, &common.Meta{Page: 1, PageSize: 20, Total: int64(len(out))}, nil
}

func pngPayload(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 3))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newTestService(t *testing.T, repo *fakeRepo, proc Processor) (*WardrobeService, *storage.LocalStorage) {
	t.Helper()
	store, err := storage.NewLocalStorage(filepath.Join(t.TempDir(), "objects"))
	if err != nil {
		t.Fatalf("new local storage: %v", err)
	}
	var svc *WardrobeService
	if repo != nil {
		svc = NewWardrobeService(repo, store, proc, "/files")
	} else {
		svc = NewWardrobeService(nil, store, proc, "/files")
	}
	svc.tempRoot = t.TempDir()
	return svc, store
}

func seedClothes(t *testing.T, store storage.Storage, uid string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := store.Put(context.Background(), wardrobe.ClothingKey(uid, name), []byte("img:"+name), storage.PutOptions{}); err != nil {
			t.Fatalf("seed %s: %v", name, err)
		}
	}
}

func imageNames(images []dto.Image) []string {
	names := make([]string, len(images))
	for i, img := range images {
		names[i] = img.Filename
	}
	return names
}

func TestClassifyAndStore(t *testing.T) {
	repo := &fakeRepo{}
	svc, store := newTestService(t, repo, fakeProcessor{category: wardrobe.CategoryTopwear, color: wardrobe.ColorBlue})
	payload := pngPayload(t)

	result, err := svc.ClassifyAndStore(context.Background(), "user1", "my-shirt_1.jpg", payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantKey := "userimages/user1/clothes/myshirt1_Topwear_blue.png"
	if result.Key != wantKey {
		t.Fatalf("expected key %s, got %s", wantKey, result.Key)
	}
	if result.URL != "/files/"+wantKey {
		t.Fatalf("unexpected url %s", result.URL)
	}
	stored, err := store.Get(context.Background(), wantKey)
	if err != nil {
		t.Fatalf("stored object missing: %v", err)
	}
	if !bytes.Equal(stored, payload) {
		t.Fatal("stored bytes differ from processed image")
	}
	if len(repo.items) != 1 || repo.items[0].Category != "Topwear" || repo.items[0].UserUID != "user1" {
		t.Fatalf("unexpected recorded items %+v", repo.items)
	}
}

func TestClassifyAndStoreRejects(t *testing.T) {
	svc, _ := newTestService(t, nil, fakeProcessor{category: wardrobe.CategoryShoes, color: wardrobe.ColorRed})
	ctx := context.Background()
	payload := pngPayload(t)

	if _, err := svc.ClassifyAndStore(ctx, "user1", "", payload); !errors.Is(err, ErrMissingFilename) {
		t.Fatalf("expected ErrMissingFilename, got %v", err)
	}
	if _, err := svc.ClassifyAndStore(ctx, "user1", "notes.txt", []byte("plain text")); !errors.Is(err, utils.ErrNotImage) {
		t.Fatalf("expected ErrNotImage, got %v", err)
	}
	if _, err := svc.ClassifyAndStore(ctx, "../x", "a.png", payload); !errors.Is(err, ErrInvalidUID) {
		t.Fatalf("expected ErrInvalidUID, got %v", err)
	}

	failing, _ := newTestService(t, nil, fakeProcessor{err: vision.ErrUnsupportedImage})
	if _, err := failing.ClassifyAndStore(ctx, "user1", "a.png", payload); !errors.Is(err, vision.ErrUnsupportedImage) {
		t.Fatalf("expected ErrUnsupportedImage, got %v", err)
	}

	backendDown := errors.New("rembg: connection refused")
	broken, _ := newTestService(t, nil, fakeProcessor{err: backendDown})
	_, err := broken.ClassifyAndStore(ctx, "user1", "a.png", payload)
	if !errors.Is(err, ErrClassification) || !errors.Is(err, backendDown) {
		t.Fatalf("expected wrapped ErrClassification, got %v", err)
	}
}

func TestMixMatch(t *testing.T) {
	repo := &fakeRepo{}
	svc, store := newTestService(t, repo, nil)
	seedClothes(t, store, "u1",
		"a_Topwear_red.png",
		"b_Topwear_blue.png",
		"c_Bottomwear_blue.png",
		"d_Shoes_black.jpg",
		"e_Dress_red.png",
		"stray.png",
	)
	ctx := context.Background()

	first, err := svc.MixMatch(ctx, "u1", "a_Topwear_red.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Number != 1 || first.Color != wardrobe.ColorRed {
		t.Fatalf("unexpected collection %+v", first)
	}
	want := []string{"a_Topwear_red.png", "c_Bottomwear_blue.png", "d_Shoes_black.jpg"}
	if got := imageNames(first.Images); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if first.Images[0].URL != "/files/userimages/u1/outfits/myoutfits_1/a_Topwear_red.png" {
		t.Fatalf("unexpected url %s", first.Images[0].URL)
	}

	second, err := svc.MixMatch(ctx, "u1", "a_Topwear_red.png")
	if err != nil {
		t.Fatalf("unexpected error on second run: %v", err)
	}
	if second.Number != 2 {
		t.Fatalf("expected collection 2, got %d", second.Number)
	}
	if !reflect.DeepEqual(imageNames(second.Images), imageNames(first.Images)) {
		t.Fatalf("repeated run changed membership: %v vs %v", imageNames(second.Images), imageNames(first.Images))
	}

	if len(repo.sets) != 2 || repo.sets[1].Number != 2 || repo.sets[1].Color != "red" {
		t.Fatalf("unexpected recorded sets %+v", repo.sets)
	}

	entries, err := os.ReadDir(svc.tempRoot)
	if err != nil {
		t.Fatalf("read temp root: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected temporary directories to be removed, found %d entries", len(entries))
	}
}

func TestMixMatchFillsCollectionGaps(t *testing.T) {
	svc, store := newTestService(t, nil, nil)
	seedClothes(t, store, "u1", "a_Topwear_red.png")
	ctx := context.Background()

	// only collection 10 exists; 1 must still be considered free
	if err := store.Put(ctx, wardrobe.OutfitCollectionPrefix("u1", 10)+"x_Topwear_red.png", []byte("x"), storage.PutOptions{}); err != nil {
		t.Fatalf("seed collection: %v", err)
	}
	got, err := svc.MixMatch(ctx, "u1", "a_Topwear_red.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Number != 1 {
		t.Fatalf("expected collection 1, got %d", got.Number)
	}
}

func TestMixMatchErrors(t *testing.T) {
	svc, store := newTestService(t, nil, nil)
	seedClothes(t, store, "u1", "e_Dress_red.png", "photo.png")
	ctx := context.Background()

	tests := []struct {
		name     string
		filename string
		target   error
	}{
		{name: "missing filename", filename: "  ", target: ErrMissingFilename},
		{name: "unknown file", filename: "zz_Topwear_red.png", target: ErrItemNotFound},
		{name: "not an encoded item", filename: "photo.png", target: wardrobe.ErrInvalidFilename},
		{name: "no outfit slot", filename: "e_Dress_red.png", target: ErrNoOutfits},
	}
	for _, tt := range tests {
		if _, err := svc.MixMatch(ctx, "u1", tt.filename); !errors.Is(err, tt.target) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.target, err)
		}
	}

	if _, err := svc.MixMatch(ctx, "nobody", "a_Topwear_red.png"); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("empty wardrobe: expected ErrItemNotFound, got %v", err)
	}
	if exists, _ := storage.Exists(ctx, store, wardrobe.OutfitsPrefix("u1")); exists {
		t.Fatal("failed requests must not create collections")
	}
}

func TestGetOutfitCollection(t *testing.T) {
	svc, store := newTestService(t, nil, nil)
	seedClothes(t, store, "u1", "a_Topwear_red.png", "b_Shoes_red.png")
	ctx := context.Background()

	if _, err := svc.GetOutfitCollection(ctx, "u1", 1); !errors.Is(err, ErrCollectionNotFound) {
		t.Fatalf("expected ErrCollectionNotFound, got %v", err)
	}
	if _, err := svc.MixMatch(ctx, "u1", "b_Shoes_red.png"); err != nil {
		t.Fatalf("mix match: %v", err)
	}

	got, err := svc.GetOutfitCollection(ctx, "u1", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"a_Topwear_red.png", "b_Shoes_red.png"}
	if !reflect.DeepEqual(imageNames(got.Images), want) {
		t.Fatalf("expected %v, got %v", want, imageNames(got.Images))
	}
	if _, err := svc.GetOutfitCollection(ctx, "u1", 0); !errors.Is(err, ErrCollectionNotFound) {
		t.Fatalf("expected ErrCollectionNotFound for 0, got %v", err)
	}
}

func TestListItemsFromStorage(t *testing.T) {
	svc, store := newTestService(t, nil, nil)
	seedClothes(t, store, "u1", "b_Topwear_blue.png", "a_Shoes_red.png", "c_Topwear_red.png", "junk.png")
	ctx := context.Background()

	all, err := svc.ListItems(ctx, &dto.ItemQuery{UserUID: "u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if all.Meta.Total != 3 || len(all.Items) != 3 || all.Items[0].Filename != "a_Shoes_red.png" {
		t.Fatalf("unexpected listing %+v", all.Items)
	}

	red, err := svc.ListItems(ctx, &dto.ItemQuery{UserUID: "u1", Color: "RED", BaseParams: common.BaseParams{PageSize: 1, Page: 2}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if red.Meta.Total != 2 || len(red.Items) != 1 || red.Items[0].Filename != "c_Topwear_red.png" {
		t.Fatalf("unexpected filtered page %+v (meta %+v)", red.Items, red.Meta)
	}
}

func TestListOutfitSetsFromStorage(t *testing.T) {
	svc, store := newTestService(t, nil, nil)
	seedClothes(t, store, "u1", "a_Topwear_red.png", "b_Shoes_blue.png")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := svc.MixMatch(ctx, "u1", "a_Topwear_red.png"); err != nil {
			t.Fatalf("mix match: %v", err)
		}
	}

	got, err := svc.ListOutfitSets(ctx, &dto.OutfitSetQuery{UserUID: "u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Meta.Total != 2 || got.Sets[0].Number != 2 || got.Sets[1].Number != 1 {
		t.Fatalf("unexpected sets %+v", got.Sets)
	}
	want := []string{"a_Topwear_red.png", "b_Shoes_blue.png"}
	if !reflect.DeepEqual(got.Sets[0].Items, want) {
		t.Fatalf("expected %v, got %v", want, got.Sets[0].Items)
	}
}

func TestListUsesRepository(t *testing.T) {
	repo := &fakeRepo{
		items: []db.WardrobeItem{{ID: 1, UserUID: "u1", ObjectKey: "userimages/u1/clothes/a_Topwear_red.png", Filename: "a_Topwear_red.png"}},
		sets:  []db.OutfitSet{{ID: 1, UserUID: "u1", Number: 3, Items: common.StringArray{"a_Topwear_red.png"}}},
	}
	svc, _ := newTestService(t, repo, nil)
	ctx := context.Background()

	items, err := svc.ListItems(ctx, &dto.ItemQuery{UserUID: "u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items.Items) != 1 || items.Items[0].URL != "/files/userimages/u1/clothes/a_Topwear_red.png" {
		t.Fatalf("unexpected items %+v", items.Items)
	}

	sets, err := svc.ListOutfitSets(ctx, &dto.OutfitSetQuery{UserUID: "u1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sets.Sets) != 1 || sets.Sets[0].Number != 3 {
		t.Fatalf("unexpected sets %+v", sets.Sets)
	}
}

func TestValidateUID(t *testing.T) {
	for _, uid := range []string{"abc", "u-1_2.x", "550e8400-e29b-41d4-a716-446655440000"} {
		if err := validateUID(uid); err != nil {
			t.Fatalf("expected %q to be valid, got %v", uid, err)
		}
	}
	for _, uid := range []string{"", ".", "..", "a/b", "a b", "用户"} {
		if err := validateUID(uid); !errors.Is(err, ErrInvalidUID) {
			t.Fatalf("expected %q to be rejected", uid)
		}
	}
}

// recordingStorage keeps the options of every Put and can advertise extra
// listed keys whose download fails.
type recordingStorage struct {
	storage.Storage
	puts       map[string]storage.PutOptions
	unreadable []string
}

func newRecordingStorage(inner storage.Storage, unreadable ...string) *recordingStorage {
	return &recordingStorage{Storage: inner, puts: make(map[string]storage.PutOptions), unreadable: unreadable}
}

func (r *recordingStorage) Put(ctx context.Context, key string, data []byte, opts storage.PutOptions) error {
	r.puts[key] = opts
	return r.Storage.Put(ctx, key, data, opts)
}

func (r *recordingStorage) Get(ctx context.Context, key string) ([]byte, error) {
	for _, k := range r.unreadable {
		if k == key {
			return nil, errors.New("storage: invalid key " + key)
		}
	}
	return r.Storage.Get(ctx, key)
}

func (r *recordingStorage) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	objects, err := r.Storage.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	for _, k := range r.unreadable {
		if strings.HasPrefix(k, prefix) {
			objects = append(objects, storage.ObjectInfo{Key: k, Size: 1})
		}
	}
	return objects, nil
}

func TestStoredObjectsCarryMetadata(t *testing.T) {
	svc, local := newTestService(t, nil, fakeProcessor{category: wardrobe.CategoryShoes, color: wardrobe.ColorBlack})
	store := newRecordingStorage(local)
	svc.storage = store
	ctx := context.Background()

	result, err := svc.ClassifyAndStore(ctx, "u1", "boots.jpg", pngPayload(t))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	opts, ok := store.puts[result.Key]
	if !ok {
		t.Fatalf("no put recorded for %s", result.Key)
	}
	if opts.ContentType != "image/png" {
		t.Fatalf("expected image/png, got %q", opts.ContentType)
	}
	want := map[string]string{"category": "Shoes", "color": "black"}
	if !reflect.DeepEqual(opts.Metadata, want) {
		t.Fatalf("expected metadata %v, got %v", want, opts.Metadata)
	}

	top := wardrobe.ClothingKey("u1", "a_Topwear_black.png")
	if err := store.Put(ctx, top, pngPayload(t), storage.PutOptions{}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	collection, err := svc.MixMatch(ctx, "u1", "a_Topwear_black.png")
	if err != nil {
		t.Fatalf("mix match: %v", err)
	}
	prefix := wardrobe.OutfitCollectionPrefix("u1", collection.Number)
	expected := map[string]map[string]string{
		"a_Topwear_black.png":   {"category": "Topwear", "color": "black"},
		"boots_Shoes_black.png": {"category": "Shoes", "color": "black"},
	}
	for name, meta := range expected {
		opts, ok := store.puts[prefix+name]
		if !ok {
			t.Fatalf("no put recorded for %s", prefix+name)
		}
		if opts.ContentType != "image/png" {
			t.Fatalf("%s: expected image/png, got %q", name, opts.ContentType)
		}
		if !reflect.DeepEqual(opts.Metadata, meta) {
			t.Fatalf("%s: expected metadata %v, got %v", name, meta, opts.Metadata)
		}
	}
}

func TestMixMatchSkipsForeignObjects(t *testing.T) {
	svc, local := newTestService(t, nil, nil)
	seedClothes(t, local, "u1", "a_Topwear_red.png", "b_Shoes_blue.png")
	foreign := wardrobe.ClothesPrefix("u1") + "IMG 001.jpg"
	svc.storage = newRecordingStorage(local, foreign)
	ctx := context.Background()

	got, err := svc.MixMatch(ctx, "u1", "a_Topwear_red.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"a_Topwear_red.png", "b_Shoes_blue.png"}
	if !reflect.DeepEqual(imageNames(got.Images), want) {
		t.Fatalf("expected %v, got %v", want, imageNames(got.Images))
	}

	// the selected object is still fetched, so its failure surfaces
	if _, err := svc.MixMatch(ctx, "u1", "IMG 001.jpg"); err == nil || !strings.Contains(err.Error(), "download") {
		t.Fatalf("expected download error for selected foreign object, got %v", err)
	}
}

func TestListWithHugePage(t *testing.T) {
	svc, store := newTestService(t, nil, nil)
	seedClothes(t, store, "u1", "a_Topwear_red.png", "b_Shoes_blue.png")
	ctx := context.Background()
	huge := common.BaseParams{Page: 691752902764108186, PageSize: 20}

	items, err := svc.ListItems(ctx, &dto.ItemQuery{UserUID: "u1", BaseParams: huge})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items.Items) != 0 || items.Meta.Total != 2 {
		t.Fatalf("expected empty page with total 2, got %+v (meta %+v)", items.Items, items.Meta)
	}

	if _, err := svc.MixMatch(ctx, "u1", "a_Topwear_red.png"); err != nil {
		t.Fatalf("mix match: %v", err)
	}
	sets, err := svc.ListOutfitSets(ctx, &dto.OutfitSetQuery{UserUID: "u1", BaseParams: huge})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sets.Sets) != 0 || sets.Meta.Total != 1 {
		t.Fatalf("expected empty page with total 1, got %+v", sets.Sets)
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	tests := []struct {
		name           string
		page, pageSize int
		want           []int
	}{
		{name: "first", page: 1, pageSize: 2, want: []int{1, 2}},
		{name: "last partial", page: 3, pageSize: 2, want: []int{5}},
		{name: "past end", page: 4, pageSize: 2, want: []int{}},
		{name: "overflowing offset", page: 1 << 62, pageSize: 20, want: []int{}},
		{name: "zero page", page: 0, pageSize: 2, want: []int{}},
	}
	for _, tt := range tests {
		if got := paginate(items, tt.page, tt.pageSize); !reflect.DeepEqual(got, tt.want) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}
