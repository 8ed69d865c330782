// Package documents загружает документы бронирования в S3.
package documents

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/magabrotheeeer/car-subscription/internal/config"
	"github.com/magabrotheeeer/car-subscription/internal/models"
)

// PutObjectAPI — часть клиента S3, используемая загрузчиком.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader сохраняет документы под ключом owners/{owner}/{document}{ext}.
type Uploader struct {
	client PutObjectAPI
	bucket string
}

// NewUploader создаёт загрузчик поверх готового клиента.
func NewUploader(client PutObjectAPI, bucket string) *Uploader {
	return &Uploader{client: client, bucket: bucket}
}

// NewS3Uploader собирает клиент S3 из стандартной цепочки учётных данных AWS.
// Endpoint задаётся для S3-совместимых хранилищ.
func NewS3Uploader(ctx context.Context, cfg config.S3) (*Uploader, error) {
	const op = "documents.NewS3Uploader"
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return NewUploader(client, cfg.Bucket), nil
}

// ObjectKey возвращает ключ объекта документа.
func ObjectKey(ownerID string, doc models.Document) string {
	ext := strings.ToLower(path.Ext(doc.Name))
	return path.Join("owners", ownerID, doc.ID+ext)
}

// objectMetadata возвращает пользовательские метаданные объекта.
// S3 принимает в них только US-ASCII, поэтому значения экранируются.
func objectMetadata(ownerID string, doc models.Document) map[string]string {
	return map[string]string{
		"owner-id":      url.PathEscape(ownerID),
		"original-name": url.PathEscape(doc.Name),
	}
}

// Upload загружает содержимое документа и возвращает его адрес s3://bucket/key.
func (u *Uploader) Upload(ctx context.Context, ownerID string, doc models.Document) (string, error) {
	const op = "documents.Upload"
	key := ObjectKey(ownerID, doc)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(doc.Content),
		ContentType: aws.String(doc.ContentType),
		Metadata:    objectMetadata(ownerID, doc),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %s: %w", op, doc.Name, err)
	}
	return "s3://" + u.bucket + "/" + key, nil
}
