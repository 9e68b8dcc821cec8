package coordinator

import "playlistdl/internal/downloads"

// activeDownload is one admitted item with its running process.
type activeDownload struct {
	handle     downloads.Handle
	attempt    uint64
	suspended  bool
	cancelling bool
}

// registry is the set of admitted items, bounded by limit.
type registry struct {
	limit  int
	active map[string]*activeDownload
}

func newRegistry(limit int) *registry {
	return &registry{limit: max(limit, 1), active: make(map[string]*activeDownload)}
}

func (r *registry) hasCapacity() bool {
	return len(r.active) < r.limit
}

func (r *registry) setLimit(n int) {
	r.limit = max(n, 1)
}

func (r *registry) get(id string) (*activeDownload, bool) {
	a, ok := r.active[id]
	return a, ok
}

func (r *registry) add(id string, a *activeDownload) {
	r.active[id] = a
}

func (r *registry) remove(id string) {
	delete(r.active, id)
}

func (r *registry) size() int {
	return len(r.active)
}
