// Package source provides content source adapters. An adapter resolves a
// caller-supplied reference to raw document text and attaches the source
// type explicitly, so nothing downstream ever infers a document's origin
// from path substrings.
package source

import "errors"

var (
	// ErrNotFound means the reference does not resolve to a document.
	ErrNotFound = errors.New("source document not found")

	// ErrAuth means the source rejected our credentials.
	ErrAuth = errors.New("source authorization failed")
)

// RawDocument is the unprocessed result of fetching one source reference.
type RawDocument struct {
	Path  string // Canonical path within the source
	Title string // Best-effort title: first markdown heading or file name
	Type  string // Adapter identity: "filesystem", "github"
	Text  string // Raw content, not yet normalized
}
