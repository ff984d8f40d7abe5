package storage

import "errors"

var (
	ErrConflict          = errors.New("document with same owner and checksum already exists")
	ErrNotFound          = errors.New("document not found")
	ErrQdrantUnreachable = errors.New("qdrant server unreachable")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
