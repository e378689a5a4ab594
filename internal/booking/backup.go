package booking

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/hrznstays/direct-booking-api/pkg/logging"
)

// S3API is the subset of the S3 client used by S3Backup.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Backup uploads store snapshots to S3 so a lost disk does not lose the
// booking history. If bucket is empty, all operations are no-ops.
type S3Backup struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
	now      func() time.Time
}

// NewS3Backup creates a snapshot backup writer.
func NewS3Backup(s3Client S3API, bucket string, logger *logging.Logger) *S3Backup {
	if logger == nil {
		logger = logging.Default()
	}
	return &S3Backup{bucket: bucket, s3Client: s3Client, logger: logger, now: time.Now}
}

// Enabled returns true if backups are configured (bucket is set).
func (b *S3Backup) Enabled() bool {
	return b != nil && b.bucket != "" && b.s3Client != nil
}

// Upload writes the serialized store under a date-partitioned key and
// overwrites the rolling latest key.
func (b *S3Backup) Upload(ctx context.Context, snapshot []byte) error {
	if !b.Enabled() {
		return nil
	}

	now := b.now().UTC()
	datedKey := fmt.Sprintf("bookings/v1/by-date/%d/%02d/%02d/bookings-%s.json",
		now.Year(), now.Month(), now.Day(), now.Format("20060102T150405Z"))

	for _, key := range []string{datedKey, "bookings/v1/latest.json"} {
		_, err := b.s3Client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(b.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(snapshot),
			ContentType: aws.String("application/json"),
		})
		if err != nil {
			return fmt.Errorf("booking: s3 put %s: %w", key, err)
		}
	}

	b.logger.Info("uploaded bookings snapshot", "key", datedKey, "bytes", len(snapshot))
	return nil
}
