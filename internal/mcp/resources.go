package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ResourceHandler produces the text of a resource.
type ResourceHandler func(ctx context.Context) (string, error)

type ResourceEntry struct {
	Resource Resource
	Handler  ResourceHandler
}

// NewResource declares a text/plain resource. Its name is the part of the URI
// after "://", or the whole URI when there is no scheme separator.
func NewResource(uri, description string, handler ResourceHandler) ResourceEntry {
	return ResourceEntry{
		Resource: Resource{
			URI:         uri,
			Name:        ResourceName(uri),
			Description: description,
			MimeType:    TextMimeType,
		},
		Handler: handler,
	}
}

func ResourceName(uri string) string {
	if _, path, found := strings.Cut(uri, "://"); found {
		return path
	}
	return uri
}

// ResourceRegistry maps URIs to resource entries, preserving registration
// order. Like ToolRegistry it is read-only once the server runs.
type ResourceRegistry struct {
	order   []string
	entries map[string]ResourceEntry
	logger  zerolog.Logger
}

func NewResourceRegistry() *ResourceRegistry {
	return &ResourceRegistry{
		entries: make(map[string]ResourceEntry),
		logger:  log.With().Str("component", "resource_registry").Logger(),
	}
}

// Register adds entries to the registry. Registering a URI twice replaces
// the earlier entry in place.
func (r *ResourceRegistry) Register(entries ...ResourceEntry) {
	for _, entry := range entries {
		uri := entry.Resource.URI
		if _, exists := r.entries[uri]; exists {
			r.logger.Warn().Str("uri", uri).Msg("Resource registered twice, replacing previous entry")
		} else {
			r.order = append(r.order, uri)
		}
		r.entries[uri] = entry
		r.logger.Debug().Str("uri", uri).Msg("Resource registered")
	}
}

func (r *ResourceRegistry) List() []Resource {
	resources := make([]Resource, 0, len(r.order))
	for _, uri := range r.order {
		resources = append(resources, r.entries[uri].Resource)
	}
	return resources
}

func (r *ResourceRegistry) Len() int { return len(r.order) }

// Read returns the text produced by the resource at uri.
func (r *ResourceRegistry) Read(ctx context.Context, uri string) (string, error) {
	entry, ok := r.entries[uri]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownResource, uri)
	}
	return entry.Handler(ctx)
}
