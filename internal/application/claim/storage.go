package claim

import (
	"context"
	"time"
)

// EvidenceStorage is the object store holding claim evidence. Clients upload
// and download directly through pre-signed URLs.
type EvidenceStorage interface {
	GenerateUploadURL(ctx context.Context, key, contentType string, expiresIn time.Duration) (string, time.Time, error)
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
	ObjectExists(ctx context.Context, key string) (bool, error)
}
