package source

import (
	"context"
	"fmt"
	"strings"
)

// Adapter resolves a source reference to raw content.
type Adapter interface {
	Fetch(ctx context.Context, ownerID, sourceRef string) (*RawDocument, error)
}

// Router dispatches references to the adapter named by their scheme
// prefix. A bare reference like "notes/a.md" goes to the default
// adapter; "github:owner/repo/path.md" goes to the adapter registered
// under "github".
type Router struct {
	fallback Adapter
	schemes  map[string]Adapter
}

// NewRouter creates a router with a default adapter for unprefixed
// references.
func NewRouter(fallback Adapter) *Router {
	return &Router{
		fallback: fallback,
		schemes:  make(map[string]Adapter),
	}
}

// Register maps a scheme prefix to an adapter.
func (r *Router) Register(scheme string, adapter Adapter) {
	r.schemes[scheme] = adapter
}

// Fetch strips a recognized scheme prefix and delegates. An unrecognized
// scheme falls through whole to the default adapter, where it will fail
// with a clear not-found rather than a silent misroute.
func (r *Router) Fetch(ctx context.Context, ownerID, sourceRef string) (*RawDocument, error) {
	if scheme, rest, ok := strings.Cut(sourceRef, ":"); ok {
		if adapter, registered := r.schemes[scheme]; registered {
			return adapter.Fetch(ctx, ownerID, rest)
		}
	}
	if r.fallback == nil {
		return nil, fmt.Errorf("%w: no adapter for %q", ErrNotFound, sourceRef)
	}
	return r.fallback.Fetch(ctx, ownerID, sourceRef)
}
