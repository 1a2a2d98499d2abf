package cost

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the inventory analyzers keyed by billed service name.
type Registry interface {
	Register(analyzer Analyzer) error
	Get(service string) (Analyzer, bool)
	ListServices() []string
}

type registry struct {
	mu        sync.RWMutex
	analyzers map[string]Analyzer
}

func NewRegistry(analyzers ...Analyzer) (Registry, error) {
	r := &registry{
		analyzers: make(map[string]Analyzer),
	}
	for _, a := range analyzers {
		if err := r.Register(a); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *registry) Register(analyzer Analyzer) error {
	if analyzer == nil {
		return fmt.Errorf("analyzer cannot be nil")
	}
	service := analyzer.GetResourceType()
	if service == "" {
		return fmt.Errorf("service name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.analyzers[service]; exists {
		return fmt.Errorf("analyzer for %q is already registered", service)
	}

	r.analyzers[service] = analyzer
	return nil
}

func (r *registry) Get(service string) (Analyzer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.analyzers[service]
	return a, ok
}

func (r *registry) ListServices() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	services := make([]string, 0, len(r.analyzers))
	for service := range r.analyzers {
		services = append(services, service)
	}
	sort.Strings(services)
	return services
}
