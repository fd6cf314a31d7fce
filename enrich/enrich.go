// Package enrich attaches type-specific status details to inventory
// records. Each supported resource type registers a DetailProvider;
// everything here is best-effort and degrades instead of failing.
package enrich

import (
	"context"

	"github.com/haltiala/vahti/telemetry"
)

// DetailProvider fetches extra status fields for one resource type.
// Implementations must tolerate resources that no longer exist.
type DetailProvider interface {
	Describe(ctx context.Context, resourceID, region string) (map[string]string, error)
}

// Registry dispatches enrichment by resource type string. Adding a type is
// a Register call; call sites never change.
type Registry struct {
	providers map[string]DetailProvider
	logger    *telemetry.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]DetailProvider),
		logger:    telemetry.NewLogger("enrich"),
	}
}

// Register installs a provider for a resource type, replacing any previous one.
func (r *Registry) Register(resourceType string, provider DetailProvider) {
	r.providers[resourceType] = provider
}

// Describe returns detail fields for the resource. Unsupported types yield
// an empty map; a provider failure yields {"State": "Unknown"}. Errors are
// never surfaced to the caller.
func (r *Registry) Describe(ctx context.Context, resourceType, resourceID, region string) map[string]string {
	provider, ok := r.providers[resourceType]
	if !ok {
		return map[string]string{}
	}

	details, err := provider.Describe(ctx, resourceID, region)
	if err != nil {
		r.logger.WithContext(ctx).Debug().
			Err(err).
			Str("resource_id", resourceID).
			Str("resource_type", resourceType).
			Msg("detail lookup failed")
		return map[string]string{"State": "Unknown"}
	}
	if details == nil {
		details = map[string]string{}
	}
	return details
}
