package lifts

// Registry binds lift names to LED positions. The binding is fixed once the
// registry is built; lift N of the catalog drives LED N+1 because LED 0 is
// reserved for the controller.
type Registry struct {
	names []string
	index map[string]int
}

// NewRegistry builds a registry from an ordered catalog. When a name appears
// more than once only its first position is reachable.
func NewRegistry(names []string) *Registry {
	r := &Registry{
		names: make([]string, len(names)),
		index: make(map[string]int, len(names)),
	}
	copy(r.names, names)

	for i, name := range r.names {
		if _, exists := r.index[name]; exists {
			continue
		}
		r.index[name] = i + 1
	}
	return r
}

// Lookup returns the LED index bound to name. Matching is exact and case-sensitive.
func (r *Registry) Lookup(name string) (int, bool) {
	idx, ok := r.index[name]
	return idx, ok
}

// Names returns the catalog in registry order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of catalog entries.
func (r *Registry) Len() int {
	return len(r.names)
}

// Duplicates returns catalog names that appear more than once.
// Used at startup to warn about unreachable entries.
func (r *Registry) Duplicates() []string {
	seen := make(map[string]int, len(r.names))
	var dups []string
	for _, name := range r.names {
		seen[name]++
		if seen[name] == 2 {
			dups = append(dups, name)
		}
	}
	return dups
}
