package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"VinylShop/config"
	"VinylShop/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const coverPrefix = "covers/"

var (
	// ErrUnsupportedImage is returned for cover uploads that are not JPEG, PNG or WebP.
	ErrUnsupportedImage = errors.New("unsupported cover image type")
	// ErrInvalidObjectName rejects keys outside the cover prefix.
	ErrInvalidObjectName = errors.New("invalid cover object name")
)

var coverExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ObjectInfo 文件信息
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
}

// CoverStorage 封装了 MinIO 客户端，存放专辑封面
type CoverStorage struct {
	client *minio.Client
	bucket string
	region string
}

// NewCoverStorage 创建 MinIO 客户端（不会发起网络请求）
func NewCoverStorage(cfg *config.Config) (*CoverStorage, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}
	return &CoverStorage{client: client, bucket: cfg.MinioBucket, region: cfg.MinioRegion}, nil
}

// EnsureBucket 检查存储桶是否存在，不存在则创建
func (s *CoverStorage) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}

	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
	}
	logger.Info("[Storage] 成功创建存储桶", logger.String("bucket", s.bucket))
	return nil
}

// CoverObjectName returns a fresh key for an album cover of the given content type.
func CoverObjectName(albumID uint64, contentType string) (string, error) {
	ext, ok := coverExtensions[strings.ToLower(contentType)]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, contentType)
	}
	return fmt.Sprintf("%s%d/%s%s", coverPrefix, albumID, uuid.NewString(), ext), nil
}

// ValidObjectName reports whether name is a clean key under the cover prefix.
func ValidObjectName(name string) bool {
	if !strings.HasPrefix(name, coverPrefix) {
		return false
	}
	return path.Clean(name) == name && !strings.Contains(name, "..")
}

// PutCover uploads r and returns the object key.
func (s *CoverStorage) PutCover(ctx context.Context, albumID uint64, r io.Reader, size int64, contentType string) (string, error) {
	name, err := CoverObjectName(albumID, contentType)
	if err != nil {
		return "", err
	}

	_, err = s.client.PutObject(ctx, s.bucket, name, r, size, minio.PutObjectOptions{
		ContentType:  contentType,
		CacheControl: "public, max-age=31536000",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload cover %s: %w", name, err)
	}

	logger.Info("[Storage] 封面上传成功", logger.String("object", name), logger.Int64("size", size))
	return name, nil
}

// OpenCover returns a reader for the object and its metadata. The caller closes the reader.
func (s *CoverStorage) OpenCover(ctx context.Context, name string) (io.ReadCloser, ObjectInfo, error) {
	if !ValidObjectName(name) {
		return nil, ObjectInfo{}, ErrInvalidObjectName
	}

	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, ObjectInfo{}, fmt.Errorf("failed to open cover %s: %w", name, err)
	}
	// GetObject is lazy; Stat surfaces NoSuchKey
	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, ObjectInfo{}, fmt.Errorf("failed to stat cover %s: %w", name, err)
	}
	return obj, ObjectInfo{Key: stat.Key, Size: stat.Size, ContentType: stat.ContentType}, nil
}

// DeleteCover removes one object; a missing object is not an error.
func (s *CoverStorage) DeleteCover(ctx context.Context, name string) error {
	if !ValidObjectName(name) {
		return ErrInvalidObjectName
	}
	if err := s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete cover %s: %w", name, err)
	}
	return nil
}

// ListCovers 列出封面对象，prefix 相对于 covers/
func (s *CoverStorage) ListCovers(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	var out []ObjectInfo
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    coverPrefix + prefix,
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list covers: %w", obj.Err)
		}
		out = append(out, ObjectInfo{Key: obj.Key, Size: obj.Size, ContentType: obj.ContentType})
	}
	return out, nil
}
