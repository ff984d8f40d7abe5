package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// TypeFilesystem is the source type tag attached by FilesystemAdapter.
const TypeFilesystem = "filesystem"

// FilesystemAdapter serves documents from a directory tree. References are
// paths relative to the configured root; escapes above the root are
// rejected.
type FilesystemAdapter struct {
	root string
}

// NewFilesystemAdapter creates an adapter rooted at the given directory.
func NewFilesystemAdapter(root string) *FilesystemAdapter {
	return &FilesystemAdapter{root: root}
}

// Fetch reads the referenced file. The owner ID does not influence
// resolution here; filesystem content is whatever the caller points at.
func (a *FilesystemAdapter) Fetch(ctx context.Context, ownerID, sourceRef string) (*RawDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cleaned := filepath.Clean(sourceRef)
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return nil, fmt.Errorf("%w: reference %q escapes the source root", ErrNotFound, sourceRef)
	}

	fullPath := filepath.Join(a.root, cleaned)
	content, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, sourceRef)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrAuth, sourceRef)
		}
		return nil, fmt.Errorf("failed to read %s: %w", sourceRef, err)
	}

	return &RawDocument{
		Path:  filepath.ToSlash(cleaned),
		Title: titleFor(cleaned, content),
		Type:  TypeFilesystem,
		Text:  string(content),
	}, nil
}

// List walks the root and returns references for all plain-text documents,
// for batch imports. Hidden directories are skipped.
func (a *FilesystemAdapter) List(ctx context.Context) ([]string, error) {
	var refs []string

	err := filepath.WalkDir(a.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != a.root {
				return filepath.SkipDir
			}
			return nil
		}
		switch strings.ToLower(filepath.Ext(d.Name())) {
		case ".md", ".markdown", ".txt":
			rel, relErr := filepath.Rel(a.root, path)
			if relErr != nil {
				return relErr
			}
			refs = append(refs, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", a.root, err)
	}

	return refs, nil
}
