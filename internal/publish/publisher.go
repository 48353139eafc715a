// Package publish uploads a finished run's outputs to S3-compatible object
// storage. It runs strictly after generation; render tasks never touch the
// network.
package publish

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/gipity/assetgen/internal/domain"
)

type Config struct {
	Endpoint string
	Access   string
	Secret   string
	Bucket   string
	UseSSL   bool
	Prefix   string
}

type Publisher struct {
	minio  *minio.Client
	bucket string
	prefix string
}

func NewPublisher(cfg Config) (*Publisher, error) {
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Access, cfg.Secret, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("bucket is required")
	}

	return &Publisher{
		minio:  mc,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (p *Publisher) Bucket() string {
	return p.bucket
}

func (p *Publisher) EnsureBucket(ctx context.Context) error {
	exists, err := p.minio.BucketExists(ctx, p.bucket)
	if err != nil {
		return fmt.Errorf("check bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	// MakeBucket can lose a race with a concurrent creator; re-check before
	// reporting failure.
	if err := p.minio.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{}); err != nil {
		exists, checkErr := p.minio.BucketExists(ctx, p.bucket)
		if checkErr == nil && exists {
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", p.bucket, err)
	}

	return nil
}

// PublishRun uploads every output the report lists, keyed by its
// project-relative path under the configured prefix. Object keys are stable
// across runs, so republishing overwrites in place. Returns the number of
// objects uploaded.
func (p *Publisher) PublishRun(ctx context.Context, root string, report domain.RunReport) (int, error) {
	uploaded := 0
	for _, rel := range report.Outputs {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return uploaded, fmt.Errorf("read output %s: %w", rel, err)
		}
		key := rel
		if p.prefix != "" {
			key = path.Join(p.prefix, rel)
		}
		if err := p.writeObject(ctx, key, data, contentTypeFor(rel)); err != nil {
			return uploaded, err
		}
		uploaded++
	}
	return uploaded, nil
}

func (p *Publisher) writeObject(ctx context.Context, objectKey string, data []byte, contentType string) error {
	reader := bytes.NewReader(data)
	_, err := p.minio.PutObject(
		ctx,
		p.bucket,
		objectKey,
		reader,
		int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return fmt.Errorf("put object %s: %w", objectKey, err)
	}
	return nil
}

func contentTypeFor(rel string) string {
	switch strings.ToLower(path.Ext(rel)) {
	case ".png":
		return "image/png"
	case ".json":
		return "application/json"
	case ".xml":
		return "application/xml"
	default:
		return "application/octet-stream"
	}
}
