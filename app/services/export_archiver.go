package services

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/amirphl/partyline/config"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// ExportArchiver stores generated export files and returns the object key
type ExportArchiver interface {
	Archive(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// S3Archiver uploads exports to an S3 compatible bucket
type S3Archiver struct {
	client s3iface.S3API
	bucket string
	prefix string
}

// NewS3Archiver creates an archiver from the archive config
func NewS3Archiver(cfg config.ArchiveConfig) (*S3Archiver, error) {
	awsCfg := &aws.Config{
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(cfg.ForcePathStyle),
	}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}

	return &S3Archiver{
		client: s3.New(sess),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

func (a *S3Archiver) Archive(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	key := path.Join(a.prefix, name)
	_, err := a.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}
	return key, nil
}
