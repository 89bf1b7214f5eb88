package service

import "errors"

var (
	// ErrMissingFilename 请求未提供文件名。
	ErrMissingFilename = errors.New("filename is required")
	// ErrItemNotFound 所选衣物不在用户衣橱中。
	ErrItemNotFound = errors.New("selected item not found in wardrobe")
	// ErrNoOutfits 衣橱中没有可用于搭配的衣物。
	ErrNoOutfits = errors.New("no outfits found for the selected item")
	// ErrCollectionNotFound 指定编号的搭配集合不存在。
	ErrCollectionNotFound = errors.New("outfit collection not found")
	// ErrInvalidUID 用户标识不能作为存储路径使用。
	ErrInvalidUID = errors.New("invalid user id")
	// ErrClassification 抠图或分类推理失败。
	ErrClassification = errors.New("classification failed")
)
