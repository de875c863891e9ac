package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/ikkim/orders-backend/pkg/logger"
)

const (
	priceListFolder   = "price-lists"
	priceListMIME     = "application/yaml"
	presignExpiration = 15 * time.Minute
)

var ErrUnsupportedFileType = errors.New("only .yaml and .yml price lists can be uploaded")

type S3Storage struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

type PresignedURLResponse struct {
	UploadURL   string    `json:"upload_url"`
	FileURL     string    `json:"file_url"`
	Key         string    `json:"key"`
	ContentType string    `json:"content_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func NewS3Storage(region, bucket, accessKeyID, secretAccessKey, baseURL string) *S3Storage {
	var cfg aws.Config
	var err error

	if accessKeyID != "" && secretAccessKey != "" {
		cfg = aws.Config{
			Region:      region,
			Credentials: credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		}
	} else {
		// environment, shared config or instance role
		cfg, err = config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
		if err != nil {
			logger.Warn("Falling back to region-only AWS config", map[string]interface{}{
				"error": err.Error(),
			})
			cfg = aws.Config{Region: region}
		}
	}

	return &S3Storage{
		client:  s3.NewFromConfig(cfg),
		bucket:  bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// PriceListKey returns the object key for an uploaded price list, or
// ErrUnsupportedFileType when filename is not YAML.
func PriceListKey(shopUserID uint, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".yaml" && ext != ".yml" {
		return "", ErrUnsupportedFileType
	}
	return fmt.Sprintf("%s/%d/%s%s", priceListFolder, shopUserID, uuid.NewString(), ext), nil
}

// PresignPriceListUpload returns a PUT URL the partner uploads the document
// to and the URL it can then be fetched from.
func (s *S3Storage) PresignPriceListUpload(ctx context.Context, shopUserID uint, filename string) (*PresignedURLResponse, error) {
	key, err := PriceListKey(shopUserID, filename)
	if err != nil {
		return nil, err
	}

	presignClient := s3.NewPresignClient(s.client)
	req, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(priceListMIME),
	}, s3.WithPresignExpires(presignExpiration))
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	logger.Info("Price list upload URL issued", map[string]interface{}{
		"user_id": shopUserID,
		"key":     key,
	})

	return &PresignedURLResponse{
		UploadURL:   req.URL,
		FileURL:     s.fileURL(key),
		Key:         key,
		ContentType: priceListMIME,
		ExpiresAt:   time.Now().Add(presignExpiration),
	}, nil
}

func (s *S3Storage) fileURL(key string) string {
	if s.baseURL != "" {
		return fmt.Sprintf("%s/%s", s.baseURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.client.Options().Region, key)
}
