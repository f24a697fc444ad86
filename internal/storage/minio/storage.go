package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"chantier-rapports/internal/storage/garage"
	"chantier-rapports/pkg/rapport"
	"chantier-rapports/pkg/storage"
)

const presignExpiry = time.Hour

// minioStorage implémente storage.Storage avec le client MinIO
type minioStorage struct {
	client     *minio.Client
	bucketName string
}

// NewMinIOStorage crée un client MinIO et s'assure que le bucket existe
func NewMinIOStorage(ctx context.Context, cfg *storage.StorageConfig) (storage.Storage, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio endpoint is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("minio bucket is required")
	}

	// minio-go attend "host:port" sans schéma
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &minioStorage{
		client:     client,
		bucketName: cfg.Bucket,
	}, nil
}

func objectKey(p string) string {
	return strings.TrimPrefix(p, "/")
}

func (m *minioStorage) Upload(ctx context.Context, p string, data io.Reader) error {
	key := objectKey(p)

	_, err := m.client.PutObject(ctx, m.bucketName, key, data, -1, minio.PutObjectOptions{
		ContentType: garage.ContentType(key),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to minio: %w", key, translate(err))
	}

	return nil
}

func (m *minioStorage) Download(ctx context.Context, p string) (io.ReadCloser, error) {
	key := objectKey(p)

	// GetObject est paresseux : Stat force la requête pour détecter l'absence
	obj, err := m.client.GetObject(ctx, m.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to download %s from minio: %w", key, translate(err))
	}
	if _, err := obj.Stat(); err != nil {
		obj.Close()
		return nil, fmt.Errorf("failed to download %s from minio: %w", key, translate(err))
	}

	return obj, nil
}

func (m *minioStorage) Exists(ctx context.Context, p string) (bool, error) {
	key := objectKey(p)

	_, err := m.client.StatObject(ctx, m.bucketName, key, minio.StatObjectOptions{})
	if err != nil {
		err = translate(err)
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", key, err)
	}

	return true, nil
}

func (m *minioStorage) Delete(ctx context.Context, p string) error {
	key := objectKey(p)

	if err := m.client.RemoveObject(ctx, m.bucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete %s from minio: %w", key, translate(err))
	}

	return nil
}

func (m *minioStorage) List(ctx context.Context, prefix string) ([]string, error) {
	var objects []string

	for obj := range m.client.ListObjects(ctx, m.bucketName, minio.ListObjectsOptions{
		Prefix:    objectKey(prefix),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects with prefix %s: %w", prefix, translate(obj.Err))
		}
		objects = append(objects, obj.Key)
	}

	return objects, nil
}

func (m *minioStorage) GetURL(ctx context.Context, p string) (string, error) {
	key := objectKey(p)

	u, err := m.client.PresignedGetObject(ctx, m.bucketName, key, presignExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL for %s: %w", key, err)
	}

	return u.String(), nil
}

// EnsureDir dépose le marqueur {dir}/.keep s'il est absent
func (m *minioStorage) EnsureDir(ctx context.Context, dir string) error {
	key := path.Join(objectKey(dir), rapport.MarkerName)

	if _, err := m.client.StatObject(ctx, m.bucketName, key, minio.StatObjectOptions{}); err == nil {
		return storage.ErrAlreadyExists
	} else if err = translate(err); !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to probe folder marker %s: %w", key, err)
	}

	_, err := m.client.PutObject(ctx, m.bucketName, key, bytes.NewReader(nil), 0, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("failed to create folder marker %s: %w", key, translate(err))
	}

	return nil
}

func (m *minioStorage) Close() error {
	return nil
}

// translate ramène les réponses d'erreur MinIO aux erreurs du package storage
func translate(err error) error {
	resp := minio.ToErrorResponse(err)

	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return fmt.Errorf("%w: %v", storage.ErrNotFound, err)
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
	case "PreconditionFailed":
		return fmt.Errorf("%w: %v", storage.ErrAlreadyExists, err)
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %v", storage.ErrNotFound, err)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
	}

	return err
}
