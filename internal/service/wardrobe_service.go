package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"wardrobe/internal/entity/common"
	"wardrobe/internal/entity/converter"
	"wardrobe/internal/entity/db"
	"wardrobe/internal/entity/dto"
	"wardrobe/internal/metrics"
	"wardrobe/internal/model"
	"wardrobe/internal/storage"
	"wardrobe/internal/utils"
	"wardrobe/internal/vision"
	"wardrobe/internal/wardrobe"

	"github.com/sirupsen/logrus"
)

// Processor 推理流水线，由 vision.Pipeline 实现。
type Processor interface {
	Process(ctx context.Context, raw []byte) (*vision.Result, error)
}

// WardrobeService 衣橱服务：上传分类、搭配生成与历史查询。
type WardrobeService struct {
	repo       model.Repository
	storage    storage.Storage
	pipeline   Processor
	publicBase string

	// tempRoot 为空时使用系统临时目录
	tempRoot string
}

// NewWardrobeService 创建衣橱服务实例，repo 可以为 nil。
func NewWardrobeService(repo model.Repository, store storage.Storage, pipeline Processor, publicBase string) *WardrobeService {
	return &WardrobeService{
		repo:       repo,
		storage:    store,
		pipeline:   pipeline,
		publicBase: utils.NormalisePublicBase(publicBase),
	}
}

// PublicURL resolves an object key to the URL clients fetch it from.
func (s *WardrobeService) PublicURL(key string) string {
	return utils.PublicURL(s.publicBase, key)
}

// UploadResult 上传分类结果。
type UploadResult struct {
	Key      string
	Filename string
	URL      string
	Category wardrobe.Category
	Color    wardrobe.Color
}

// OutfitCollection 一个已上传的搭配集合。
type OutfitCollection struct {
	Number         int
	Color          wardrobe.Color
	SourceFilename string
	Images         []dto.Image
}

// ClassifyAndStore removes the background of an uploaded photo, predicts its
// category and color and stores the cut-out as <id>_<Category>_<color>.png.
func (s *WardrobeService) ClassifyAndStore(ctx context.Context, uid, originalFilename string, data []byte) (*UploadResult, error) {
	if err := validateUID(uid); err != nil {
		return nil, err
	}
	if strings.TrimSpace(originalFilename) == "" {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		return nil, ErrMissingFilename
	}
	if _, _, err := utils.DetectImage(data); err != nil {
		metrics.Uploads.WithLabelValues("rejected").Inc()
		return nil, err
	}

	result, err := s.pipeline.Process(ctx, data)
	if err != nil {
		if errors.Is(err, vision.ErrUnsupportedImage) {
			metrics.Uploads.WithLabelValues("rejected").Inc()
			return nil, err
		}
		metrics.Uploads.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %w", ErrClassification, err)
	}

	filename := wardrobe.EncodeFilename(wardrobe.SanitizeID(originalFilename), result.Category, result.Color, "png")
	key := wardrobe.ClothingKey(uid, filename)
	opts := storage.PutOptions{
		ContentType: result.ContentType,
		Metadata: map[string]string{
			"category": string(result.Category),
			"color":    string(result.Color),
		},
	}
	if err := s.storage.Put(ctx, key, result.Image, opts); err != nil {
		metrics.Uploads.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("store classified image: %w", err)
	}

	if s.repo != nil {
		item := &db.WardrobeItem{
			UserUID:     uid,
			ObjectKey:   key,
			Filename:    filename,
			Category:    string(result.Category),
			Color:       string(result.Color),
			ContentType: result.ContentType,
			Size:        int64(len(result.Image)),
		}
		if err := s.repo.CreateWardrobeItem(ctx, item); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("record wardrobe item failed")
		}
	}

	metrics.Uploads.WithLabelValues("success").Inc()
	logrus.WithFields(logrus.Fields{
		"uid":      uid,
		"key":      key,
		"category": result.Category,
		"color":    result.Color,
	}).Info("wardrobe_item_stored")

	return &UploadResult{
		Key:      key,
		Filename: filename,
		URL:      s.PublicURL(key),
		Category: result.Category,
		Color:    result.Color,
	}, nil
}

// MixMatch builds an outfit around the selected item's color and uploads it as
// the user's next numbered collection.
func (s *WardrobeService) MixMatch(ctx context.Context, uid, filename string) (*OutfitCollection, error) {
	collection, err := s.mixMatch(ctx, uid, filename)
	metrics.MixMatches.WithLabelValues(mixMatchOutcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	metrics.OutfitSize.Observe(float64(len(collection.Images)))
	return collection, nil
}

func (s *WardrobeService) mixMatch(ctx context.Context, uid, filename string) (*OutfitCollection, error) {
	if err := validateUID(uid); err != nil {
		return nil, err
	}
	selected := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if strings.TrimSpace(filename) == "" || selected == "." || selected == "/" {
		return nil, ErrMissingFilename
	}

	workDir, err := os.MkdirTemp(s.tempRoot, "wardrobe-clothes-*")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	outDir, err := os.MkdirTemp(s.tempRoot, "wardrobe-outfit-*")
	if err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	names, err := s.downloadClothes(ctx, uid, workDir, selected)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Join(workDir, selected)); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, selected)
	}

	item, err := wardrobe.ParseFilename(selected)
	if err != nil {
		return nil, err
	}

	outfit := wardrobe.BuildOutfit(item.Color, wardrobe.ScanItems(names))
	if outfit.IsEmpty() {
		return nil, ErrNoOutfits
	}

	chosen := outfit.Filenames()
	for _, name := range chosen {
		if err := copyFile(filepath.Join(workDir, name), filepath.Join(outDir, name)); err != nil {
			return nil, err
		}
	}

	number, err := s.nextCollectionNumber(ctx, uid)
	if err != nil {
		return nil, err
	}
	prefix := wardrobe.OutfitCollectionPrefix(uid, number)
	if err := s.uploadDir(ctx, outDir, prefix); err != nil {
		return nil, err
	}

	images, err := s.collectionImages(ctx, prefix)
	if err != nil {
		return nil, err
	}

	if s.repo != nil {
		set := &db.OutfitSet{
			UserUID:        uid,
			Number:         number,
			Color:          string(item.Color),
			SourceFilename: selected,
			Items:          common.StringArray(chosen),
		}
		if err := s.repo.CreateOutfitSet(ctx, set); err != nil {
			logrus.WithError(err).WithField("collection", number).Warn("record outfit set failed")
		}
	}

	logrus.WithFields(logrus.Fields{
		"uid":        uid,
		"selected":   selected,
		"color":      item.Color,
		"collection": number,
		"items":      len(chosen),
	}).Info("outfit_collection_created")

	return &OutfitCollection{
		Number:         number,
		Color:          item.Color,
		SourceFilename: selected,
		Images:         images,
	}, nil
}

// downloadClothes copies the user's wardrobe items into dir and returns the
// local file names. Objects whose names do not encode an item are skipped,
// except selected, which is fetched so the caller can report why it is unusable.
func (s *WardrobeService) downloadClothes(ctx context.Context, uid, dir, selected string) ([]string, error) {
	prefix := wardrobe.ClothesPrefix(uid)
	objects, err := s.storage.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list wardrobe: %w", err)
	}

	names := make([]string, 0, len(objects))
	for _, obj := range objects {
		name := strings.TrimPrefix(obj.Key, prefix)
		if name == "" || strings.Contains(name, "/") || name == "." || name == ".." {
			continue
		}
		if _, err := wardrobe.ParseFilename(name); err != nil && name != selected {
			continue
		}
		data, err := s.storage.Get(ctx, obj.Key)
		if err != nil {
			return nil, fmt.Errorf("download %s: %w", obj.Key, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", name, err)
		}
		names = append(names, name)
	}
	return names, nil
}

// nextCollectionNumber returns the lowest n >= 1 with no objects under its folder.
func (s *WardrobeService) nextCollectionNumber(ctx context.Context, uid string) (int, error) {
	for n := 1; ; n++ {
		exists, err := storage.Exists(ctx, s.storage, wardrobe.OutfitCollectionPrefix(uid, n))
		if err != nil {
			return 0, fmt.Errorf("check collection %d: %w", n, err)
		}
		if !exists {
			return n, nil
		}
	}
}

func (s *WardrobeService) uploadDir(ctx context.Context, dir, prefix string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read output dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		opts := storage.PutOptions{}
		if mimeType, _, err := utils.DetectImage(data); err == nil {
			opts.ContentType = mimeType
		}
		if item, err := wardrobe.ParseFilename(entry.Name()); err == nil {
			opts.Metadata = map[string]string{
				"category": string(item.Category),
				"color":    string(item.Color),
			}
		}
		if err := s.storage.Put(ctx, prefix+entry.Name(), data, opts); err != nil {
			return fmt.Errorf("upload %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// GetOutfitCollection lists the images of collection n.
func (s *WardrobeService) GetOutfitCollection(ctx context.Context, uid string, n int) (*OutfitCollection, error) {
	if err := validateUID(uid); err != nil {
		return nil, err
	}
	if n < 1 {
		return nil, ErrCollectionNotFound
	}
	images, err := s.collectionImages(ctx, wardrobe.OutfitCollectionPrefix(uid, n))
	if err != nil {
		return nil, err
	}
	if len(images) == 0 {
		return nil, ErrCollectionNotFound
	}
	return &OutfitCollection{Number: n, Images: images}, nil
}

func (s *WardrobeService) collectionImages(ctx context.Context, prefix string) ([]dto.Image, error) {
	objects, err := s.storage.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list collection: %w", err)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })

	images := make([]dto.Image, 0, len(objects))
	for _, obj := range objects {
		if !wardrobe.IsImageName(obj.Key) {
			continue
		}
		images = append(images, dto.Image{
			Filename: path.Base(obj.Key),
			URL:      s.PublicURL(obj.Key),
		})
	}
	return images, nil
}

// ListItems returns the user's wardrobe. Without a database the storage
// listing is used instead.
func (s *WardrobeService) ListItems(ctx context.Context, params *dto.ItemQuery) (*dto.ItemListResponse, error) {
	if params == nil {
		params = &dto.ItemQuery{}
	}
	if err := validateUID(params.UserUID); err != nil {
		return nil, err
	}
	if s.repo != nil {
		items, meta, err := s.repo.ListWardrobeItems(ctx, params)
		if err != nil {
			return nil, err
		}
		return &dto.ItemListResponse{Items: converter.ItemsToSummaries(items, s.PublicURL), Meta: meta}, nil
	}

	prefix := wardrobe.ClothesPrefix(params.UserUID)
	objects, err := s.storage.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list wardrobe: %w", err)
	}
	var summaries []dto.ItemSummary
	for _, obj := range objects {
		item, err := wardrobe.ParseFilename(strings.TrimPrefix(obj.Key, prefix))
		if err != nil {
			continue
		}
		if !matchesFilter(params.Category, string(item.Category), wardrobe.ParseCategory) {
			continue
		}
		if !matchesFilter(params.Color, string(item.Color), wardrobe.ParseColor) {
			continue
		}
		summaries = append(summaries, dto.ItemSummary{
			Filename:  item.Filename,
			URL:       s.PublicURL(obj.Key),
			Category:  string(item.Category),
			Color:     string(item.Color),
			Size:      obj.Size,
			CreatedAt: obj.LastModified,
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Filename < summaries[j].Filename })

	page, pageSize := params.Normalize()
	return &dto.ItemListResponse{
		Items: paginate(summaries, page, pageSize),
		Meta:  &common.Meta{Page: int64(page), PageSize: int64(pageSize), Total: int64(len(summaries))},
	}, nil
}

// ListOutfitSets returns the user's generated collections, newest first.
// Without a database the collections are rebuilt from the storage listing.
func (s *WardrobeService) ListOutfitSets(ctx context.Context, params *dto.OutfitSetQuery) (*dto.OutfitSetListResponse, error) {
	if params == nil {
		params = &dto.OutfitSetQuery{}
	}
	if err := validateUID(params.UserUID); err != nil {
		return nil, err
	}
	if s.repo != nil {
		sets, meta, err := s.repo.ListOutfitSets(ctx, params)
		if err != nil {
			return nil, err
		}
		return &dto.OutfitSetListResponse{Sets: converter.OutfitSetsToSummaries(sets), Meta: meta}, nil
	}

	prefix := wardrobe.OutfitsPrefix(params.UserUID)
	objects, err := s.storage.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list outfits: %w", err)
	}
	grouped := make(map[int]*dto.OutfitSetSummary)
	for _, obj := range objects {
		folder, name, ok := strings.Cut(strings.TrimPrefix(obj.Key, prefix), "/")
		if !ok || name == "" || strings.Contains(name, "/") {
			continue
		}
		n, ok := wardrobe.ParseCollectionFolder(folder)
		if !ok {
			continue
		}
		set, exists := grouped[n]
		if !exists {
			set = &dto.OutfitSetSummary{Number: n, CreatedAt: obj.LastModified}
			grouped[n] = set
		}
		set.Items = append(set.Items, name)
		if obj.LastModified.Before(set.CreatedAt) {
			set.CreatedAt = obj.LastModified
		}
	}

	summaries := make([]dto.OutfitSetSummary, 0, len(grouped))
	for _, set := range grouped {
		sort.Strings(set.Items)
		summaries = append(summaries, *set)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Number > summaries[j].Number })

	page, pageSize := params.Normalize()
	return &dto.OutfitSetListResponse{
		Sets: paginate(summaries, page, pageSize),
		Meta: &common.Meta{Page: int64(page), PageSize: int64(pageSize), Total: int64(len(summaries))},
	}, nil
}

// matchesFilter 与数据库查询一致：已知标签按规范值比较，未知值不匹配任何衣物
func matchesFilter[L ~string](raw, value string, parse func(string) (L, bool)) bool {
	if strings.TrimSpace(raw) == "" {
		return true
	}
	label, ok := parse(raw)
	return ok && string(label) == value
}

func paginate[T any](items []T, page, pageSize int) []T {
	if page < 1 || pageSize < 1 || page-1 > len(items)/pageSize {
		return []T{}
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := min(start+pageSize, len(items))
	return items[start:end]
}

// validateUID 用户标识会成为对象路径的一段，只允许字母、数字、'-'、'_' 和 '.'。
func validateUID(uid string) error {
	if uid == "" || uid == "." || uid == ".." || len(uid) > 128 {
		return ErrInvalidUID
	}
	for _, r := range uid {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
		default:
			return ErrInvalidUID
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(src), err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(dst), err)
	}
	return nil
}

func mixMatchOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNoOutfits):
		return "no_outfits"
	case errors.Is(err, ErrItemNotFound):
		return "not_found"
	case errors.Is(err, ErrMissingFilename), errors.Is(err, wardrobe.ErrInvalidFilename), errors.Is(err, ErrInvalidUID):
		return "rejected"
	default:
		return "error"
	}
}
