package voice

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// PutObjectAPI is the slice of the S3 client the archive needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archive keeps generated voice notes in an S3 bucket.
type Archive struct {
	client PutObjectAPI
	bucket string
	now    func() time.Time
}

func NewArchive(client PutObjectAPI, bucket string) *Archive {
	return &Archive{client: client, bucket: bucket, now: time.Now}
}

// NewS3Archive loads the default AWS credential chain for region.
func NewS3Archive(ctx context.Context, bucket, region string) (*Archive, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewArchive(s3.NewFromConfig(cfg), bucket), nil
}

// Key lays notes out by day: voice/2024/01/02/<kind>-<uuid>.mp3.
func (a *Archive) Key(kind string, at time.Time) string {
	if kind == "" {
		kind = "note"
	}
	return fmt.Sprintf("voice/%s/%s-%s.mp3", at.UTC().Format("2006/01/02"), kind, uuid.NewString())
}

func (a *Archive) Put(ctx context.Context, kind string, audio []byte) (string, error) {
	if a == nil || a.client == nil || a.bucket == "" {
		return "", ErrNotConfigured
	}
	key := a.Key(kind, a.now())
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(audio),
		ContentType: aws.String("audio/mpeg"),
	})
	if err != nil {
		return "", fmt.Errorf("archive voice note: %w", err)
	}
	return key, nil
}
