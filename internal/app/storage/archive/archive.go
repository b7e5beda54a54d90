// Package archive stores transcripts and validated summaries as JSON objects
// in S3-compatible object storage.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	apperrors "reel-digest/internal/app/errors"
	"reel-digest/internal/app/model"
)

// Archiver writes pipeline artefacts keyed by request identity.
type Archiver interface {
	PutTranscript(ctx context.Context, id model.Identity, transcript, caption string) (string, error)
	PutSummary(ctx context.Context, id model.Identity, summary *model.StructuredSummary) (string, error)
}

// Config holds MinIO connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioArchiver implements Archiver using MinIO.
type MinioArchiver struct {
	client *minio.Client
	bucket string
}

// NewMinioArchiver connects to the endpoint and creates the bucket when it
// does not exist.
func NewMinioArchiver(ctx context.Context, cfg Config) (*MinioArchiver, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &MinioArchiver{client: client, bucket: cfg.Bucket}, nil
}

// SummaryKey is the object key of a summary, e.g.
// "summaries/instagram/C8xYz.json".
func SummaryKey(id model.Identity) string {
	return fmt.Sprintf("summaries/%s/%s.json", id.Platform, id.ContentID)
}

// TranscriptKey is the object key of a transcript.
func TranscriptKey(id model.Identity) string {
	return fmt.Sprintf("transcripts/%s/%s.json", id.Platform, id.ContentID)
}

type transcriptObject struct {
	Platform   string    `json:"platform"`
	ContentID  string    `json:"content_id"`
	Text       string    `json:"text"`
	Caption    string    `json:"caption,omitempty"`
	ArchivedAt time.Time `json:"archived_at"`
}

func (a *MinioArchiver) PutTranscript(ctx context.Context, id model.Identity, transcript, caption string) (string, error) {
	return a.put(ctx, TranscriptKey(id), transcriptObject{
		Platform:   id.Platform,
		ContentID:  id.ContentID,
		Text:       transcript,
		Caption:    caption,
		ArchivedAt: time.Now().UTC(),
	})
}

func (a *MinioArchiver) PutSummary(ctx context.Context, id model.Identity, summary *model.StructuredSummary) (string, error) {
	return a.put(ctx, SummaryKey(id), summary)
}

// put overwrites the object, so repeating a write for the same identity is
// harmless.
func (a *MinioArchiver) put(ctx context.Context, key string, v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.KindInternal, "encode archive object")
	}
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", apperrors.StoreUnavailable(err, "archive "+key)
	}
	return key, nil
}
