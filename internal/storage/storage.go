package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wardrobe/internal/config"
)

const (
	// TypeLocal 表示本地文件系统存储。
	TypeLocal = "local"
	// TypeS3 表示 Amazon S3 或兼容的存储后端。
	TypeS3 = "s3"
	// TypeOSS 表示阿里云 OSS 存储。
	TypeOSS = "oss"
	// TypeCOS 表示腾讯云 COS 存储。
	TypeCOS = "cos"
	// TypeR2 表示 Cloudflare R2 存储。
	TypeR2 = "r2"
	// TypeMinio 表示自建 MinIO 存储。
	TypeMinio = "minio"
)

// ErrNotFound 对象不存在。
var ErrNotFound = errors.New("storage: object not found")

// PutOptions 控制对象写入时附带的内容类型与用户元数据。
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo 描述列举出的对象，Key 不含后端前缀。
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Storage 是对象存储的抽象，key 使用 "/" 分隔且相对于后端配置的前缀。
type Storage interface {
	Put(ctx context.Context, key string, data []byte, opts PutOptions) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
}

// LocalBaseDirProvider 由暴露可通过 HTTP 直接提供服务的本地目录的存储驱动实现。
type LocalBaseDirProvider interface {
	LocalBaseDir() string
}

// NewStorage 根据配置实例化存储后端。
func NewStorage(cfg config.Config) (Storage, error) {
	typeName := strings.ToLower(strings.TrimSpace(cfg.StorageType))
	switch typeName {
	case "", TypeLocal:
		return NewLocalStorage(cfg.StorageLocalDir)
	case TypeS3:
		return NewS3Storage(cfg)
	case TypeOSS:
		return NewOSSStorage(cfg)
	case TypeCOS:
		return NewCOSStorage(cfg)
	case TypeR2:
		return NewR2Storage(cfg)
	case TypeMinio:
		return NewMinioStorage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.StorageType)
	}
}

// Exists reports whether at least one object lives under prefix.
func Exists(ctx context.Context, s Storage, prefix string) (bool, error) {
	objects, err := s.List(ctx, prefix)
	if err != nil {
		return false, err
	}
	return len(objects) > 0, nil
}
