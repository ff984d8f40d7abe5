package source

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v81/github"
)

// TypeGitHub is the source type tag attached by GitHubAdapter.
const TypeGitHub = "github"

// GitHubAdapter fetches files from GitHub repositories. A source reference
// has the form "owner/repo/path/to/file.md".
type GitHubAdapter struct {
	client *github.Client
}

// NewGitHubAdapter creates a GitHub-backed adapter with rate limiting.
// If GITHUB_TOKEN is set the client is authenticated, which raises the
// rate limit from 60 to 5000 requests per hour; secondary (abuse) limits
// are handled with automatic retry either way.
func NewGitHubAdapter() (*GitHubAdapter, error) {
	rateLimiter, err := github_ratelimit.NewRateLimitWaiterClient(nil)
	if err != nil {
		return nil, err
	}

	ghClient := github.NewClient(rateLimiter)
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		ghClient = ghClient.WithAuthToken(token)
	}

	return &GitHubAdapter{client: ghClient}, nil
}

// Fetch retrieves the referenced file's content from GitHub.
func (a *GitHubAdapter) Fetch(ctx context.Context, ownerID, sourceRef string) (*RawDocument, error) {
	repoOwner, repo, filePath, err := splitRef(sourceRef)
	if err != nil {
		return nil, err
	}

	fileContent, _, _, err := a.client.Repositories.GetContents(ctx, repoOwner, repo, filePath, nil)
	if err != nil {
		return nil, mapGitHubError(sourceRef, err)
	}
	if fileContent == nil {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, sourceRef)
	}

	content, err := base64.StdEncoding.DecodeString(*fileContent.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode content of %s: %w", sourceRef, err)
	}

	return &RawDocument{
		Path:  sourceRef,
		Title: titleFor(filePath, content),
		Type:  TypeGitHub,
		Text:  string(content),
	}, nil
}

// splitRef parses "owner/repo/path/to/file" references.
func splitRef(sourceRef string) (owner, repo, filePath string, err error) {
	parts := strings.SplitN(sourceRef, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("%w: reference %q is not owner/repo/path", ErrNotFound, sourceRef)
	}
	return parts[0], parts[1], parts[2], nil
}

// mapGitHubError translates API failures into the adapter error taxonomy.
func mapGitHubError(sourceRef string, err error) error {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case 404:
			return fmt.Errorf("%w: %s", ErrNotFound, sourceRef)
		case 401, 403:
			return fmt.Errorf("%w: %s", ErrAuth, sourceRef)
		}
	}
	return fmt.Errorf("failed to fetch %s: %w", sourceRef, err)
}
