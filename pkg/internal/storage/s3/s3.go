// Package s3 封装 MinIO 客户端，照片原件全部走对象存储.
package s3

import (
	"context"
	"fmt"
	"net/url"

	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/yeisme/photovault/pkg/configs"
	nlog "github.com/yeisme/photovault/pkg/log"
)

// Client 包装 MinIO 客户端.
type Client struct {
	*minio.Client
}

// New 按配置连接对象存储并确保所有 bucket 存在.
// 第一个 bucket 存放照片原件，其余 bucket（缩略图、导出包等）按需配置.
func New(ctx context.Context) (*Client, error) {
	cfg := configs.GetConfig().S3

	cli, err := minio.New(normalizeEndpoint(&cfg), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	cli.SetAppInfo("photovault", configs.AppVersion)

	c := &Client{Client: cli}
	if err := c.ensureBuckets(ctx, cfg); err != nil {
		return nil, err
	}

	nlog.Logger().Info().
		Str("endpoint", cfg.Endpoint).
		Int("bucket_count", len(cfg.Buckets)).
		Msg("s3 connected")

	return c, nil
}

// normalizeEndpoint 兼容带 schema 的 endpoint 写法，https 时强制开启 TLS.
func normalizeEndpoint(cfg *configs.S3Config) string {
	endpoint := cfg.Endpoint
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		endpoint = u.Host
		if u.Scheme == "https" {
			cfg.UseSSL = true
		}
	}

	return endpoint
}

func (c *Client) ensureBuckets(ctx context.Context, cfg configs.S3Config) error {
	for _, bkt := range cfg.Buckets {
		if bkt == "" {
			continue
		}

		exists, err := c.BucketExists(ctx, bkt)
		if err != nil {
			return fmt.Errorf("check bucket %s: %w", bkt, err)
		}

		if exists {
			continue
		}

		if err := c.MakeBucket(ctx, bkt, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return fmt.Errorf("create bucket %s: %w", bkt, err)
		}

		nlog.Logger().Info().Str("bucket", bkt).Msg("bucket created")
	}

	return nil
}

// HealthCheck 通过列桶验证连接可用.
func (c *Client) HealthCheck(ctx context.Context) error {
	_, err := c.ListBuckets(ctx)
	return err
}

// Close 保持接口兼容，MinIO 客户端无需显式关闭.
func (c *Client) Close() error {
	return nil
}

func (c *Client) GetConfig() configs.S3Config {
	return configs.GetConfig().S3
}
