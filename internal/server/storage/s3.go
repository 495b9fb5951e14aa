// Package storage generates presigned URLs for receipt images kept in an
// S3-compatible object store. Receipt bytes never pass through the server.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Config carries the object-storage connection settings.
type Config struct {
	User         string
	Password     string
	Bucket       string
	Region       string
	BaseEndpoint string
}

type ReceiptStorage struct {
	cfg Config
}

func NewReceiptStorage(cfg Config) *ReceiptStorage {
	return &ReceiptStorage{cfg: cfg}
}

// RandomReceiptKey builds a collision-free object key partitioned by user
// and date.
func RandomReceiptKey(userID string) string {
	d := time.Now()
	return fmt.Sprintf("receipts/%s/%d/%d/%v", userID, d.Year(), d.Month(), uuid.New())
}

func (s *ReceiptStorage) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(s.cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.cfg.User, s.cfg.Password, "",
		)))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.cfg.BaseEndpoint)
		o.UsePathStyle = true
	})

	return s3.NewPresignClient(client), nil
}

// PresignPut returns a time-limited URL the client can PUT the receipt to.
func (s *ReceiptStorage) PresignPut(ctx context.Context, key string) (string, error) {
	presignClient, err := s.presignClient(ctx)
	if err != nil {
		return "", err
	}

	req, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: &s.cfg.Bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// PresignGet returns a time-limited download URL for a stored receipt.
func (s *ReceiptStorage) PresignGet(ctx context.Context, key string) (string, error) {
	presignClient, err := s.presignClient(ctx)
	if err != nil {
		return "", err
	}

	req, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.cfg.Bucket,
		Key:    &key,
	}, s3.WithPresignExpires(15*time.Minute))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
