package storage

import (
	"context"
	"time"

	claimapp "github.com/memberportal/backend/internal/application/claim"
	"github.com/memberportal/backend/internal/domain/shared"
)

// ErrStorageDisabled is returned by DisabledStorage for every operation that needs a bucket
var ErrStorageDisabled = shared.NewDomainError("STORAGE_DISABLED", "Evidence uploads are not available")

// DisabledStorage stands in when storage.enabled is false. Claims can still be
// submitted without evidence; presigning fails with ErrStorageDisabled.
type DisabledStorage struct{}

var _ claimapp.EvidenceStorage = DisabledStorage{}

func (DisabledStorage) GenerateUploadURL(context.Context, string, string, time.Duration) (string, time.Time, error) {
	return "", time.Time{}, ErrStorageDisabled
}

func (DisabledStorage) GenerateDownloadURL(context.Context, string, time.Duration) (string, time.Time, error) {
	return "", time.Time{}, ErrStorageDisabled
}

func (DisabledStorage) ObjectExists(context.Context, string) (bool, error) {
	return false, ErrStorageDisabled
}
