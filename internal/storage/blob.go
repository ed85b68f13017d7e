package storage

import "io"

// BlobStore holds uploaded study materials (videos, PDFs, transcripts)
// keyed by a path-like string.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
	Delete(key string) error
	SignedURL(key string) (string, error) // fs returns "file://..." for dev
}
