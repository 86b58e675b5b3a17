// Package upload abstracts remote image hosting behind a small
// capability contract so the auth and profile flows stay identical
// whether or not an avatar was supplied.
package upload

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrUploadFailed is returned when the remote host rejected the file
	ErrUploadFailed = errors.New("file upload failed")
	// ErrNotConfigured is returned when no upload backend was configured
	ErrNotConfigured = errors.New("upload backend not configured")
)

// Uploader stores a file on a remote host and returns its public URL
type Uploader interface {
	Upload(ctx context.Context, file io.Reader, filename string) (string, error)
}

// Unconfigured is the Uploader used when no backend credentials are set;
// every upload attempt fails with ErrNotConfigured
type Unconfigured struct{}

func (Unconfigured) Upload(ctx context.Context, file io.Reader, filename string) (string, error) {
	return "", ErrNotConfigured
}
