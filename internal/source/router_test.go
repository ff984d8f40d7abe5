package source

import (
	"context"
	"errors"
	"testing"
)

type recordingAdapter struct {
	lastRef string
	doc     *RawDocument
}

func (a *recordingAdapter) Fetch(_ context.Context, _, sourceRef string) (*RawDocument, error) {
	a.lastRef = sourceRef
	if a.doc == nil {
		return nil, ErrNotFound
	}
	return a.doc, nil
}

func TestRouter_SchemeDispatch(t *testing.T) {
	fs := &recordingAdapter{doc: &RawDocument{Type: TypeFilesystem}}
	gh := &recordingAdapter{doc: &RawDocument{Type: TypeGitHub}}

	router := NewRouter(fs)
	router.Register("github", gh)

	doc, err := router.Fetch(context.Background(), "owner-a", "github:acme/docs/readme.md")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if doc.Type != TypeGitHub {
		t.Errorf("Expected github adapter, got %q", doc.Type)
	}
	if gh.lastRef != "acme/docs/readme.md" {
		t.Errorf("Scheme prefix must be stripped, got %q", gh.lastRef)
	}
}

func TestRouter_FallbackForBareReference(t *testing.T) {
	fs := &recordingAdapter{doc: &RawDocument{Type: TypeFilesystem}}
	router := NewRouter(fs)

	doc, err := router.Fetch(context.Background(), "owner-a", "notes/a.md")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if doc.Type != TypeFilesystem {
		t.Errorf("Expected filesystem adapter, got %q", doc.Type)
	}
	if fs.lastRef != "notes/a.md" {
		t.Errorf("Bare reference must pass through intact, got %q", fs.lastRef)
	}
}

func TestRouter_UnknownSchemeFallsThrough(t *testing.T) {
	fs := &recordingAdapter{}
	router := NewRouter(fs)

	_, err := router.Fetch(context.Background(), "owner-a", "s3:bucket/key.md")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if fs.lastRef != "s3:bucket/key.md" {
		t.Errorf("Unknown scheme must reach the fallback whole, got %q", fs.lastRef)
	}
}

func TestRouter_NoFallback(t *testing.T) {
	router := NewRouter(nil)

	_, err := router.Fetch(context.Background(), "owner-a", "a.md")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
