package worldbible

import (
	"github.com/fablecraft/backend/internal/domain/shared"
	"github.com/fablecraft/backend/internal/domain/worldbible"
)

// Registry maps each entry kind to its service
type Registry struct {
	services map[worldbible.Kind]EntryService
}

// NewRegistry creates a registry from the given services
func NewRegistry(services ...EntryService) *Registry {
	r := &Registry{services: make(map[worldbible.Kind]EntryService, len(services))}
	for _, svc := range services {
		r.Register(svc)
	}
	return r
}

// Register adds or replaces the service for its kind
func (r *Registry) Register(svc EntryService) {
	r.services[svc.Kind()] = svc
}

// Get returns the service for a kind
func (r *Registry) Get(kind worldbible.Kind) (EntryService, error) {
	svc, ok := r.services[kind]
	if !ok {
		return nil, shared.NewDomainError("INVALID_KIND", "Unknown world bible kind: "+string(kind))
	}
	return svc, nil
}

// All returns the registered services in display order
func (r *Registry) All() []EntryService {
	out := make([]EntryService, 0, len(r.services))
	for _, kind := range worldbible.AllKinds() {
		if svc, ok := r.services[kind]; ok {
			out = append(out, svc)
		}
	}
	return out
}
