// Package storage puts city images in an S3-compatible bucket and maps
// object keys to the public URLs stored on cities.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stoiyeet/TravelShare/internal/config"
)

// ErrForeignURL is returned for image URLs outside the bucket's public URL.
var ErrForeignURL = errors.New("image url does not belong to this bucket")

// ClientMinio is the subset of *minio.Client the store uses.
type ClientMinio interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error
}

type ImageStore struct {
	client    ClientMinio
	bucket    string
	publicURL string
	now       func() time.Time
}

func NewImageStore(cfg config.S3Config) (*ImageStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client for %s: %w", cfg.Endpoint, err)
	}
	return NewImageStoreWithClient(client, cfg.Bucket, cfg.PublicURL), nil
}

func NewImageStoreWithClient(client ClientMinio, bucket, publicURL string) *ImageStore {
	return &ImageStore{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}
}

// Image is one file to upload.
type Image struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Upload stores img under the city's prefix and returns its public URL.
// A non-negative index is added to the key so files uploaded in the same
// millisecond do not collide.
func (s *ImageStore) Upload(ctx context.Context, cityID uuid.UUID, index int, img Image) (string, error) {
	key := s.objectKey(cityID, index, img.Filename)

	_, err := s.client.PutObject(ctx, s.bucket, key, img.Body, img.Size, minio.PutObjectOptions{
		ContentType: img.ContentType,
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}
	return s.publicURL + "/" + key, nil
}

// Delete removes the object behind a public URL.
func (s *ImageStore) Delete(ctx context.Context, url string) error {
	key, err := s.KeyFor(url)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

// KeyFor returns the object key of a public URL.
func (s *ImageStore) KeyFor(url string) (string, error) {
	key, ok := strings.CutPrefix(url, s.publicURL+"/")
	if !ok || key == "" {
		return "", ErrForeignURL
	}
	return key, nil
}

func (s *ImageStore) objectKey(cityID uuid.UUID, index int, filename string) string {
	name := strings.ReplaceAll(path.Base(filename), " ", "_")
	if name == "." || name == "/" {
		name = "image"
	}
	millis := s.now().UnixMilli()
	if index < 0 {
		return fmt.Sprintf("%s/%d_%s", cityID, millis, name)
	}
	return fmt.Sprintf("%s/%d_%d_%s", cityID, millis, index, name)
}
