// Package archive keeps a copy of every submitted media blob in GCS for
// later auditing of what the extraction model was actually given. The
// archive is best-effort: ingestion must never fail because of it.
package archive

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// Archiver writes media blobs to a GCS bucket. A zero-value bucket name
// disables archiving entirely.
type Archiver struct {
	bucket string
}

// New creates an archiver for the given bucket. Pass "" to disable.
func New(bucket string) *Archiver {
	return &Archiver{bucket: bucket}
}

// Enabled reports whether a bucket is configured.
func (a *Archiver) Enabled() bool {
	return a.bucket != ""
}

// Save uploads the blob under a date-partitioned object name and returns
// its gs:// URI. When archiving is disabled it returns "" and no error.
func (a *Archiver) Save(ctx context.Context, data []byte, mimeType string) (string, error) {
	if !a.Enabled() {
		return "", nil
	}

	objectName := fmt.Sprintf("media/%s/%s%s",
		time.Now().Format("2006/01/02"), uuid.NewString(), extensionFor(mimeType))

	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("archive: create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	w := client.Bucket(a.bucket).Object(objectName).NewWriter(ctx)
	w.ContentType = mimeType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("archive: write object %s: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("archive: finalize object %s: %w", objectName, err)
	}

	return fmt.Sprintf("gs://%s/%s", a.bucket, objectName), nil
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/ogg":
		return ".ogg"
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
