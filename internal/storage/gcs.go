package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore uploads proofs to a Google Cloud Storage bucket. Credentials come
// from GCS_CREDENTIALS_JSON when set, otherwise from the ambient service account.
type GCSStore struct {
	client *storage.Client
	bucket string
}

func NewGCSStore(ctx context.Context, bucket, credJSON string) (*GCSStore, error) {
	var (
		client *storage.Client
		err    error
	)
	if strings.TrimSpace(credJSON) != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	} else {
		client, err = storage.NewClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}

	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("gcs bucket %q not found or not accessible: %w", bucket, err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

func (s *GCSStore) Put(ctx context.Context, name string, data []byte) (string, error) {
	if name == "" {
		return "", ErrEmptyObject
	}
	wc := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	wc.ContentType = "image/jpeg"

	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("upload proof to gcs: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("close gcs writer: %w", err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, name), nil
}

func (s *GCSStore) Delete(ctx context.Context, name string) error {
	if name == "" {
		return ErrEmptyObject
	}
	err := s.client.Bucket(s.bucket).Object(name).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("delete proof from gcs: %w", err)
	}
	return nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
