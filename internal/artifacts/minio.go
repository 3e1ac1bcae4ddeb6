// Package artifacts uploads scan reports and tool output files to object
// storage.
package artifacts

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Store uploads files to one MinIO (or S3-compatible) bucket.
type Store struct {
	client *minio.Client
	bucket string
}

// New connects to the endpoint and ensures the bucket exists.
func New(ctx context.Context, endpoint, bucket, accessKey, secretKey string, useSSL bool) (*Store, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}

	return &Store{client: cli, bucket: bucket}, nil
}

// Upload stores one local file under key and returns its URL.
func (s *Store) Upload(ctx context.Context, localPath, key string) (string, error) {
	_, err := s.client.FPutObject(ctx, s.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: contentTypeFor(localPath),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s", s.client.EndpointURL(), s.bucket, key), nil
}

// UploadScanDir uploads the contents of one scan output directory, keyed as
// <scanID>/<filename>. It returns the URLs of the uploaded files.
func (s *Store) UploadScanDir(ctx context.Context, scanID, dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		return nil, err
	}

	var urls []string
	for _, path := range matches {
		url, err := s.Upload(ctx, path, scanID+"/"+filepath.Base(path))
		if err != nil {
			return urls, fmt.Errorf("failed to upload %s: %w", path, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func contentTypeFor(path string) string {
	switch filepath.Ext(path) {
	case ".json":
		return "application/json"
	case ".html":
		return "text/html"
	case ".xml":
		return "application/xml"
	case ".csv":
		return "text/csv"
	case ".md", ".txt", ".log":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
