// Package publish stores the report artifact in S3 and issues the
// time-limited download link.
package publish

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/haltiala/vahti/telemetry"
	"github.com/haltiala/vahti/types"
)

// LinkTTL is how long the download link stays valid. The notification text
// promises exactly this.
const LinkTTL = 24 * time.Hour

// S3API defines the object operations the publisher uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// PresignAPI issues presigned GET URLs.
type PresignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Publisher uploads artifacts under a date-keyed path.
type Publisher struct {
	api     S3API
	presign PresignAPI
	bucket  string
	logger  *telemetry.Logger
}

// NewPublisher creates a publisher targeting bucket.
func NewPublisher(api S3API, presign PresignAPI, bucket string) *Publisher {
	return &Publisher{
		api:     api,
		presign: presign,
		bucket:  bucket,
		logger:  telemetry.NewLogger("publish"),
	}
}

// NewPublisherFromClient wires a publisher from a concrete S3 client.
func NewPublisherFromClient(client *s3.Client, bucket string) *Publisher {
	return NewPublisher(client, s3.NewPresignClient(client), bucket)
}

// Key returns the deterministic object key for a report window.
func Key(w types.ReportWindow) string {
	return fmt.Sprintf("reports/%s-aws-resource-report.xlsx", w.Date())
}

// Publish uploads the artifact at path and returns the object key plus a
// download URL valid for LinkTTL. The local file is removed whatever the
// outcome; the artifact is scoped to this one attempt.
func (p *Publisher) Publish(ctx context.Context, path string, w types.ReportWindow) (key, url string, err error) {
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			p.logger.WithContext(ctx).Warn().
				Err(rmErr).
				Str("path", path).
				Msg("failed to remove temp artifact")
		}
	}()

	file, err := os.Open(path) // #nosec G304 -- path comes from our own temp file
	if err != nil {
		return "", "", fmt.Errorf("failed to open artifact: %w", err)
	}
	defer func() { _ = file.Close() }()

	key = Key(w)
	_, err = p.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"),
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to upload report to s3://%s/%s: %w", p.bucket, key, err)
	}

	req, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = LinkTTL
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to presign report link: %w", err)
	}

	p.logger.WithContext(ctx).Info().
		Str("bucket", p.bucket).
		Str("key", key).
		Msg("report uploaded")
	return key, req.URL, nil
}
