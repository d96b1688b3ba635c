// Package storage provides a domain-agnostic interface for S3-compatible object storage.
// Item icons and point photos both go through it.
package storage

import (
	"context"
	"io"
)

// StorageService defines the object storage operations used by the modules.
type StorageService interface {
	// UploadFile uploads reader under folder with a collision-free name and
	// returns the object key.
	UploadFile(ctx context.Context, bucket, folder, fileName, contentType string, reader io.Reader, size int64) (string, error)

	// DeleteObject removes an object from storage.
	DeleteObject(ctx context.Context, bucket, fileKey string) error

	// EnsureBucketExists creates the bucket if it doesn't exist.
	EnsureBucketExists(ctx context.Context, bucket string) error

	// EnsurePublicRead grants anonymous GET on every object in bucket.
	EnsurePublicRead(ctx context.Context, bucket string) error

	// PublicURL builds the anonymous URL of an object.
	PublicURL(bucket, fileKey string) string

	// ValidateContentType checks if the content type is allowed.
	ValidateContentType(contentType string) error

	// ValidateFileSize checks if the file size is within limits.
	ValidateFileSize(sizeBytes int64) error

	// GetMaxFileSize returns the configured maximum file size in bytes.
	GetMaxFileSize() int64
}

// Config defines the configuration interface for storage.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinIOPublicBaseURL() string
	IsMinIOEnabled() bool
}
