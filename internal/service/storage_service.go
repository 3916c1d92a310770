package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"recruit_backend/internal/config"
	"recruit_backend/internal/util"
	"recruit_backend/pkg/logger"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

var errInvalidArtifactKey = errors.New("invalid artifact key")

// artifactTypes 只归档报告与导出文件
var artifactTypes = map[string]bool{
	util.MimeJSON: true,
	util.MimeXLSX: true,
}

// ArtifactBackend 归档产物的存储后端
type ArtifactBackend interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	URL(key string) string
}

// LocalArtifactBackend 写入本地目录，由 /uploads 静态路由对外提供
type LocalArtifactBackend struct {
	Root string
}

func (b *LocalArtifactBackend) Put(ctx context.Context, key string, body []byte, contentType string) error {
	dst := filepath.Join(b.Root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	// 先写临时文件再改名，读取方不会看到写了一半的报告
	tmp := dst + ".tmp"
	if err := os.WriteFile(tmp, body, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, dst)
}

func (b *LocalArtifactBackend) Get(ctx context.Context, key string) ([]byte, error) {
	return os.ReadFile(filepath.Join(b.Root, filepath.FromSlash(key)))
}

func (b *LocalArtifactBackend) URL(key string) string {
	return "/uploads/" + key
}

// MinioArtifactBackend MinIO / S3 兼容存储
type MinioArtifactBackend struct {
	Bucket string
	Client *minio.Client
}

func NewMinioArtifactBackend(cfg *config.StorageConfig) (*MinioArtifactBackend, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: false,
	})
	if err != nil {
		return nil, err
	}
	return &MinioArtifactBackend{Bucket: cfg.MinioBucket, Client: client}, nil
}

func (b *MinioArtifactBackend) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := b.Client.PutObject(ctx, b.Bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (b *MinioArtifactBackend) Get(ctx context.Context, key string) ([]byte, error) {
	obj, err := b.Client.GetObject(ctx, b.Bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}

func (b *MinioArtifactBackend) URL(key string) string {
	return "/" + b.Bucket + "/" + key
}

// OSSArtifactBackend 阿里云OSS
type OSSArtifactBackend struct {
	Endpoint string
	Bucket   *oss.Bucket
}

func NewOSSArtifactBackend(cfg *config.StorageConfig) (*OSSArtifactBackend, error) {
	client, err := oss.New(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSSecretKey)
	if err != nil {
		return nil, err
	}
	bucket, err := client.Bucket(cfg.OSSBucket)
	if err != nil {
		return nil, err
	}
	return &OSSArtifactBackend{Endpoint: cfg.OSSEndpoint, Bucket: bucket}, nil
}

func (b *OSSArtifactBackend) Put(ctx context.Context, key string, body []byte, contentType string) error {
	return b.Bucket.PutObject(key, bytes.NewReader(body), oss.ContentType(contentType))
}

func (b *OSSArtifactBackend) Get(ctx context.Context, key string) ([]byte, error) {
	rc, err := b.Bucket.GetObject(key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (b *OSSArtifactBackend) URL(key string) string {
	return fmt.Sprintf("https://%s.%s/%s", b.Bucket.BucketName, b.Endpoint, key)
}

// StorageService 评估报告、排行榜导出等产物的归档
type StorageService struct {
	Backend ArtifactBackend
	Prefix  string // 多个部署共用一个 bucket 时区分命名空间
}

func NewStorageService(cfg *config.Config) *StorageService {
	var backend ArtifactBackend
	switch cfg.Storage.Type {
	case util.StorageMinio:
		b, err := NewMinioArtifactBackend(&cfg.Storage)
		if err != nil {
			logger.Log.Warn("minio unavailable, falling back to local storage", zap.Error(err))
		} else {
			backend = b
		}
	case util.StorageOSS:
		b, err := NewOSSArtifactBackend(&cfg.Storage)
		if err != nil {
			logger.Log.Warn("oss unavailable, falling back to local storage", zap.Error(err))
		} else {
			backend = b
		}
	}

	if backend == nil {
		backend = &LocalArtifactBackend{Root: cfg.Storage.LocalPath}
	}
	return &StorageService{Backend: backend}
}

// objectKey 规范化归档路径，拒绝跳出命名空间的 key
func (s *StorageService) objectKey(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", errInvalidArtifactKey
	}
	clean := path.Clean(key)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", errInvalidArtifactKey
	}
	if s.Prefix != "" {
		clean = path.Join(s.Prefix, clean)
	}
	return clean, nil
}

// SaveArtifact 归档一段内存中的内容，返回访问地址
func (s *StorageService) SaveArtifact(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	if !artifactTypes[contentType] {
		return "", fmt.Errorf("unsupported artifact type %q", contentType)
	}
	k, err := s.objectKey(key)
	if err != nil {
		return "", err
	}
	if err := s.Backend.Put(ctx, k, body, contentType); err != nil {
		return "", fmt.Errorf("archive %s: %w", k, err)
	}
	logger.Log.Debug("artifact archived", zap.String("key", k), zap.Int("bytes", len(body)))
	return s.Backend.URL(k), nil
}

func (s *StorageService) LoadArtifact(ctx context.Context, key string) ([]byte, error) {
	k, err := s.objectKey(key)
	if err != nil {
		return nil, err
	}
	return s.Backend.Get(ctx, k)
}
