package tools

import "sync"

// Registry maps tool identifiers to their adapters.
type Registry struct {
	adapters map[string]Adapter
	mutex    sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// NewDefaultRegistry returns a registry with all built-in adapters.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(NewNiktoAdapter())
	r.Register(NewZapAdapter())
	r.Register(NewWapitiAdapter())
	r.Register(NewNucleiAdapter())
	r.Register(NewSqlmapAdapter())
	return r
}

func (r *Registry) Register(a Adapter) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.adapters[a.Name()] = a
}

func (r *Registry) Get(name string) (Adapter, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	a, ok := r.adapters[name]
	return a, ok
}

// Names returns the registered tool identifiers.
func (r *Registry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}
