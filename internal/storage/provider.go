// Package storage defines the blob-archive contract for raw vendor payloads.
// The abstraction keeps the harvester independent of where archives land
// (Google Cloud Storage, the local filesystem, or nowhere).
package storage

import "context"

// Provider saves one raw payload under an object path and returns the URI
// it landed at.
type Provider interface {
	Save(ctx context.Context, objectName string, data []byte) (string, error)
}

// NoOpProvider discards payloads. Used when archiving is disabled.
type NoOpProvider struct{}

// Save does nothing and reports a sentinel URI.
func (NoOpProvider) Save(_ context.Context, objectName string, _ []byte) (string, error) {
	return "noop://" + objectName, nil
}
