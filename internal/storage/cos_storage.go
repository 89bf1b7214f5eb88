package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wardrobe/internal/config"

	"github.com/tencentyun/cos-go-sdk-v5"
)

type cosStorage struct {
	client *cos.Client
	prefix string
}

func NewCOSStorage(cfg config.Config) (Storage, error) {
	baseURL := strings.TrimSpace(cfg.StorageCOSBucketURL)
	if baseURL == "" {
		return nil, errors.New("storage: missing COS bucket URL")
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("storage: parse COS bucket URL: %w", err)
	}

	secretID := strings.TrimSpace(cfg.StorageCOSSecretID)
	secretKey := strings.TrimSpace(cfg.StorageCOSSecretKey)
	if secretID == "" || secretKey == "" {
		return nil, errors.New("storage: missing COS credentials")
	}

	transport := &cos.AuthorizationTransport{
		SecretID:  secretID,
		SecretKey: secretKey,
	}

	client := cos.NewClient(&cos.BaseURL{BucketURL: parsedURL}, &http.Client{Transport: transport})

	return &cosStorage{
		client: client,
		prefix: trimPrefix(cfg.StorageCOSPrefix),
	}, nil
}

func (s *cosStorage) Put(ctx context.Context, key string, data []byte, opts PutOptions) error {
	if len(data) == 0 {
		return errors.New("empty payload")
	}
	cleaned, err := cleanKey(key)
	if err != nil {
		return err
	}

	headers := &cos.ObjectPutHeaderOptions{
		ContentType: contentTypeOrDetect(opts, cleaned),
	}
	if len(opts.Metadata) > 0 {
		meta := http.Header{}
		for k, v := range opts.Metadata {
			meta.Add("x-cos-meta-"+k, v)
		}
		headers.XCosMetaXXX = &meta
	}

	resp, err := s.client.Object.Put(
		ctx,
		joinPrefix(s.prefix, cleaned),
		bytes.NewReader(data),
		&cos.ObjectPutOptions{ObjectPutHeaderOptions: headers},
	)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

func (s *cosStorage) Get(ctx context.Context, key string) ([]byte, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Object.Get(ctx, joinPrefix(s.prefix, cleaned), nil)
	if err != nil {
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if cos.IsNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	return data, nil
}

func (s *cosStorage) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var (
		objects []ObjectInfo
		marker  string
	)
	for {
		result, resp, err := s.client.Bucket.Get(ctx, &cos.BucketGetOptions{
			Prefix:  joinPrefix(s.prefix, prefix),
			Marker:  marker,
			MaxKeys: 1000,
		})
		if resp != nil && resp.Body != nil {
			resp.Body.Close()
		}
		if err != nil {
			return nil, fmt.Errorf("list objects: %w", err)
		}
		for _, obj := range result.Contents {
			if strings.HasSuffix(obj.Key, "/") {
				continue
			}
			info := ObjectInfo{Key: stripPrefix(s.prefix, obj.Key), Size: obj.Size}
			if modified, err := time.Parse(time.RFC3339, obj.LastModified); err == nil {
				info.LastModified = modified
			}
			objects = append(objects, info)
		}
		if !result.IsTruncated {
			break
		}
		marker = result.NextMarker
		if marker == "" && len(result.Contents) > 0 {
			marker = result.Contents[len(result.Contents)-1].Key
		}
		if marker == "" {
			break
		}
	}
	return objects, nil
}

var _ Storage = (*cosStorage)(nil)
