package archive

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"reel-digest/internal/app/model"
)

func TestKeys(t *testing.T) {
	id := model.Identity{Platform: model.PlatformInstagram, ContentID: "C8xYz"}
	assert.Equal(t, "summaries/instagram/C8xYz.json", SummaryKey(id))
	assert.Equal(t, "transcripts/instagram/C8xYz.json", TranscriptKey(id))
}

func TestNewMinioArchiverInvalidEndpoint(t *testing.T) {
	_, err := NewMinioArchiver(context.Background(), Config{Endpoint: "http://not a host", Bucket: "b"})
	assert.Error(t, err)
}

// Runs against the server at MINIO_ENDPOINT.
func TestMinioArchiverIntegration(t *testing.T) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("MINIO_ENDPOINT not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a, err := NewMinioArchiver(ctx, Config{
		Endpoint:  endpoint,
		AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		SecretKey: os.Getenv("MINIO_SECRET_KEY"),
		Bucket:    "reel-digest-test",
	})
	require.NoError(t, err)

	id := model.Identity{Platform: model.PlatformInstagram, ContentID: "integration"}
	summary := &model.StructuredSummary{Type: model.TypeGeneral, Title: "t", Summary: "One. Two."}
	summary.Normalize()

	key, err := a.PutSummary(ctx, id, summary)
	require.NoError(t, err)

	obj, err := a.client.GetObject(ctx, "reel-digest-test", key, minio.GetObjectOptions{})
	require.NoError(t, err)
	defer obj.Close()
	data, err := io.ReadAll(obj)
	require.NoError(t, err)

	var got model.StructuredSummary
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, *summary, got)
}
