// Package uploads keeps payment screenshots attached to booking forms.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/fitness-funnel/internal/booking"
	"github.com/wolfman30/fitness-funnel/pkg/logging"
)

var tracer = otel.Tracer("fitfunnel.internal.uploads")

// ErrDisabled is returned by Put when no bucket is configured.
var ErrDisabled = errors.New("uploads: screenshot storage is not configured")

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store writes payment screenshots to S3.
type S3Store struct {
	bucket string
	client S3API
	logger *logging.Logger
	now    func() time.Time
}

// NewS3Store creates a store. An empty bucket disables it.
func NewS3Store(client S3API, bucket string, logger *logging.Logger) *S3Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &S3Store{bucket: bucket, client: client, logger: logger, now: time.Now}
}

// Enabled reports whether uploads are configured.
func (s *S3Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.client != nil
}

// Key returns the object key for a screenshot uploaded at t.
func Key(t time.Time, sessionID, filename string) string {
	t = t.UTC()
	return fmt.Sprintf("screenshots/%d/%02d/%02d/%s/%s",
		t.Year(), t.Month(), t.Day(), sanitize(sessionID), sanitize(path.Base(filename)))
}

// Put stores body and returns the attachment pointing at it.
func (s *S3Store) Put(ctx context.Context, sessionID, filename, contentType string, body io.ReadSeeker) (booking.Attachment, error) {
	if !s.Enabled() {
		return booking.Attachment{}, ErrDisabled
	}

	size, err := body.Seek(0, io.SeekEnd)
	if err != nil {
		return booking.Attachment{}, fmt.Errorf("uploads: measure body: %w", err)
	}
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return booking.Attachment{}, fmt.Errorf("uploads: rewind body: %w", err)
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := Key(s.now(), sessionID, filename)
	ctx, span := tracer.Start(ctx, "uploads.s3.put")
	defer span.End()
	span.SetAttributes(
		attribute.String("uploads.bucket", s.bucket),
		attribute.String("uploads.key", key),
	)

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return booking.Attachment{}, fmt.Errorf("uploads: s3 put %s: %w", key, err)
	}

	location := fmt.Sprintf("s3://%s/%s", s.bucket, key)
	s.logger.Info("stored payment screenshot", "session_id", sessionID, "location", location, "size", size)
	return booking.Attachment{
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
		Location:    location,
	}, nil
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func sanitize(s string) string {
	s = strings.Trim(unsafeKeyChars.ReplaceAllString(strings.TrimSpace(s), "_"), "_.")
	if s == "" {
		return "unnamed"
	}
	return s
}
