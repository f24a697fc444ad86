package garage

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

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"chantier-rapports/pkg/rapport"
	"chantier-rapports/pkg/storage"
)

const presignExpiry = time.Hour

type garageStorage struct {
	client *s3.Client
	bucket string
}

// NewGarageStorage crée une nouvelle instance de storage Garage S3-compatible
func NewGarageStorage(ctx context.Context, cfg *storage.StorageConfig) (storage.Storage, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("garage endpoint is required")
	}
	if cfg.AccessKey == "" {
		return nil, fmt.Errorf("garage access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("garage secret key is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("garage bucket is required")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"", // session token (pas nécessaire pour Garage)
		)),
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Client S3 avec endpoint personnalisé pour Garage
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true // Important pour Garage/MinIO
	})

	garage := &garageStorage{
		client: client,
		bucket: cfg.Bucket,
	}

	if err := garage.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket exists: %w", err)
	}

	return garage, nil
}

// ensureBucket vérifie que le bucket existe et le crée si nécessaire
func (g *garageStorage) ensureBucket(ctx context.Context) error {
	_, err := g.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(g.bucket),
	})
	if err == nil {
		return nil
	}

	_, createErr := g.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(g.bucket),
	})
	if createErr != nil {
		return fmt.Errorf("bucket %s does not exist and cannot be created: %w", g.bucket, createErr)
	}

	return nil
}

// objectKey retire le "/" initial, S3 utilise des clés relatives
func objectKey(p string) string {
	return strings.TrimPrefix(p, "/")
}

func (g *garageStorage) Upload(ctx context.Context, p string, data io.Reader) error {
	key := objectKey(p)

	_, err := g.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(g.bucket),
		Key:         aws.String(key),
		Body:        data,
		ContentType: aws.String(ContentType(key)),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s to bucket %s: %w", key, g.bucket, translate(err))
	}

	return nil
}

func (g *garageStorage) Download(ctx context.Context, p string) (io.ReadCloser, error) {
	key := objectKey(p)

	result, err := g.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download object %s from bucket %s: %w", key, g.bucket, translate(err))
	}

	return result.Body, nil
}

func (g *garageStorage) Exists(ctx context.Context, p string) (bool, error) {
	key := objectKey(p)

	_, err := g.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		err = translate(err)
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence %s: %w", key, err)
	}

	return true, nil
}

func (g *garageStorage) Delete(ctx context.Context, p string) error {
	key := objectKey(p)

	_, err := g.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s from bucket %s: %w", key, g.bucket, translate(err))
	}

	return nil
}

func (g *garageStorage) List(ctx context.Context, prefix string) ([]string, error) {
	cleanPrefix := objectKey(prefix)

	var objects []string
	paginator := s3.NewListObjectsV2Paginator(g.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(g.bucket),
		Prefix: aws.String(cleanPrefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects with prefix %s: %w", cleanPrefix, translate(err))
		}

		for _, obj := range page.Contents {
			if obj.Key != nil {
				objects = append(objects, *obj.Key)
			}
		}
	}

	return objects, nil
}

func (g *garageStorage) GetURL(ctx context.Context, p string) (string, error) {
	key := objectKey(p)

	// URL présignée valide pour 1 heure
	presigner := s3.NewPresignClient(g.client)

	request, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL for %s: %w", key, err)
	}

	return request.URL, nil
}

// EnsureDir dépose un marqueur vide {dir}/.keep, S3 n'ayant pas de dossiers.
// If-None-Match évite d'écraser un marqueur existant (412 -> ErrAlreadyExists).
func (g *garageStorage) EnsureDir(ctx context.Context, dir string) error {
	key := path.Join(objectKey(dir), rapport.MarkerName)

	_, err := g.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(g.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(nil),
		ContentLength: aws.Int64(0),
		IfNoneMatch:   aws.String("*"),
	})
	if err != nil {
		return fmt.Errorf("failed to create folder marker %s: %w", key, translate(err))
	}

	return nil
}

func (g *garageStorage) Close() error {
	return nil
}

// translate ramène les erreurs S3 aux erreurs du package storage
func translate(err error) error {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return fmt.Errorf("%w: %v", storage.ErrNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return fmt.Errorf("%w: %v", storage.ErrNotFound, err)
		case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
		case "PreconditionFailed", "ConditionalRequestConflict":
			return fmt.Errorf("%w: %v", storage.ErrAlreadyExists, err)
		}
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", storage.ErrNotFound, err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", storage.ErrUnauthorized, err)
		case http.StatusPreconditionFailed, http.StatusConflict:
			return fmt.Errorf("%w: %v", storage.ErrAlreadyExists, err)
		}
	}

	return err
}

// ContentType détermine le content-type basé sur l'extension du fichier
func ContentType(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".json":
		return "application/json"
	case ".zip":
		return "application/zip"
	default:
		return "application/octet-stream"
	}
}
