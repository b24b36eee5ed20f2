package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	appconfig "recipe-catalog/internal/infrastructure/config"
	"recipe-catalog/internal/pkg/common"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// ObjectPutter S3 上傳介面（測試可替換）
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store 將食譜照片上傳至 S3 相容儲存
type S3Store struct {
	client ObjectPutter
	config *appconfig.StorageConfig
}

// NewS3Store 依設定建立 S3 客戶端
func NewS3Store(ctx context.Context, cfg *appconfig.StorageConfig) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	common.LogInfo("物件儲存已初始化",
		zap.String("bucket", cfg.Bucket),
		zap.String("region", cfg.Region),
		zap.String("endpoint", cfg.Endpoint),
	)
	return NewS3StoreWithClient(client, cfg), nil
}

// NewS3StoreWithClient 使用既有客戶端
func NewS3StoreWithClient(client ObjectPutter, cfg *appconfig.StorageConfig) *S3Store {
	return &S3Store{client: client, config: cfg}
}

// Put 上傳並回傳公開網址
func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	common.LogInfo("照片已上傳", zap.String("key", key), zap.Int("size", len(data)))
	return s.PublicURL(key), nil
}

// PublicURL 物件的公開網址
func (s *S3Store) PublicURL(key string) string {
	switch {
	case s.config.PublicBaseURL != "":
		return strings.TrimRight(s.config.PublicBaseURL, "/") + "/" + key
	case s.config.Endpoint != "":
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.config.Endpoint, "/"), s.config.Bucket, key)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.config.Bucket, s.config.Region, key)
	}
}
