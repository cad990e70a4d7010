package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/memberportal/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testStorageConfig(endpoint string) *config.StorageConfig {
	return &config.StorageConfig{
		Enabled:      true,
		Endpoint:     endpoint,
		Region:       "ap-southeast-1",
		Bucket:       "evidence",
		AccessKey:    "test-key",
		SecretKey:    "test-secret",
		UsePathStyle: true,
	}
}

func TestNewS3ObjectStorage_Validation(t *testing.T) {
	_, err := NewS3ObjectStorage(nil)
	assert.ErrorContains(t, err, "configuration is required")

	cfg := testStorageConfig("http://localhost:9000")
	cfg.Bucket = ""
	_, err = NewS3ObjectStorage(cfg)
	assert.ErrorContains(t, err, "bucket is required")

	cfg = testStorageConfig("http://localhost:9000")
	cfg.AccessKey = ""
	_, err = NewS3ObjectStorage(cfg)
	assert.ErrorContains(t, err, "access key is required")

	cfg = testStorageConfig("http://localhost:9000")
	cfg.SecretKey = ""
	_, err = NewS3ObjectStorage(cfg)
	assert.ErrorContains(t, err, "secret key is required")

	s, err := NewS3ObjectStorage(testStorageConfig("http://localhost:9000"), WithLogger(zap.NewNop()))
	require.NoError(t, err)
	assert.Equal(t, "evidence", s.Bucket())
	assert.Equal(t, defaultPresignExpiration, s.presignExpiration)

	s, err = NewS3ObjectStorage(testStorageConfig("http://localhost:9000"), WithPresignExpiration(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, time.Minute, s.presignExpiration)
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		in     string
		useSSL bool
		want   string
	}{
		{"", false, "http://localhost:9000"},
		{"minio:9000", false, "http://minio:9000"},
		{"s3.amazonaws.com", true, "https://s3.amazonaws.com"},
		{"https://r2.example.com", false, "https://r2.example.com"},
	}
	for _, tt := range tests {
		got, err := normalizeEndpoint(tt.in, tt.useSSL)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := normalizeEndpoint("http://", false)
	assert.Error(t, err)
}

func TestS3ObjectStorage_PresignedURLs(t *testing.T) {
	s, err := NewS3ObjectStorage(testStorageConfig("http://localhost:9000"))
	require.NoError(t, err)
	ctx := context.Background()
	key := "claims/t1/u1/receipt.png"

	before := time.Now()
	upload, expires, err := s.GenerateUploadURL(ctx, key, "image/png", 10*time.Minute)
	require.NoError(t, err)
	u, err := url.Parse(upload)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/evidence/"+key, u.Path)
	assert.Equal(t, "600", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
	assert.WithinDuration(t, before.Add(10*time.Minute), expires, 5*time.Second)

	download, _, err := s.GenerateDownloadURL(ctx, key, 0)
	require.NoError(t, err)
	u, err = url.Parse(download)
	require.NoError(t, err)
	assert.Equal(t, "/evidence/"+key, u.Path)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))

	_, _, err = s.GenerateUploadURL(ctx, "", "image/png", 0)
	assert.ErrorIs(t, err, ErrEmptyKey)
	_, _, err = s.GenerateDownloadURL(ctx, "", 0)
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestS3ObjectStorage_ObjectExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		switch {
		case strings.HasSuffix(r.URL.Path, "/present.png"):
			w.Header().Set("Content-Type", "image/png")
			w.WriteHeader(http.StatusOK)
		case strings.HasSuffix(r.URL.Path, "/forbidden.png"):
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	s, err := NewS3ObjectStorage(testStorageConfig(srv.URL))
	require.NoError(t, err)
	ctx := context.Background()

	ok, err := s.ObjectExists(ctx, "claims/t1/u1/present.png")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ObjectExists(ctx, "claims/t1/u1/missing.png")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.ObjectExists(ctx, "claims/t1/u1/forbidden.png")
	assert.Error(t, err)

	_, err = s.ObjectExists(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyKey)
}

func TestDisabledStorage(t *testing.T) {
	var d DisabledStorage
	_, _, err := d.GenerateUploadURL(context.Background(), "k", "image/png", time.Minute)
	assert.ErrorIs(t, err, ErrStorageDisabled)
	_, _, err = d.GenerateDownloadURL(context.Background(), "k", time.Minute)
	assert.ErrorIs(t, err, ErrStorageDisabled)
	_, err = d.ObjectExists(context.Background(), "k")
	assert.ErrorIs(t, err, ErrStorageDisabled)
}
