package association

// AccessRecord accumulates the distinct objects an association was resolved on
type AccessRecord struct {
	Key     Key
	Context Path
	Objects []ObjectRef
}

type accessEntry struct {
	key     Key
	context Path
	seen    map[ObjectRef]struct{}
	objects []ObjectRef
}

// AccessRegistry records association accesses keyed by (Key, Path).
// Repeated access to the same object counts once.
type AccessRegistry struct {
	entries map[slot]*accessEntry
	order   []slot
}

// NewAccessRegistry creates an empty registry
func NewAccessRegistry() *AccessRegistry {
	return &AccessRegistry{entries: make(map[slot]*accessEntry)}
}

// Record adds obj to the set for (k, path). Unsaved objects are ignored and
// Record reports whether obj was newly added.
func (r *AccessRegistry) Record(k Key, path Path, obj ObjectRef) bool {
	if !obj.Persisted() {
		return false
	}

	s := slotFor(k, path)
	entry, ok := r.entries[s]
	if !ok {
		entry = &accessEntry{key: k, context: clonePath(path), seen: make(map[ObjectRef]struct{})}
		r.entries[s] = entry
		r.order = append(r.order, s)
	}

	if _, dup := entry.seen[obj]; dup {
		return false
	}
	entry.seen[obj] = struct{}{}
	entry.objects = append(entry.objects, obj)
	return true
}

// Accessed reports whether any persisted object was recorded for (k, path)
func (r *AccessRegistry) Accessed(k Key, path Path) bool {
	_, ok := r.entries[slotFor(k, path)]
	return ok
}

// Count returns the number of distinct objects recorded for (k, path)
func (r *AccessRegistry) Count(k Key, path Path) int {
	if entry, ok := r.entries[slotFor(k, path)]; ok {
		return len(entry.objects)
	}
	return 0
}

// Records returns a snapshot of every entry in first-access order
func (r *AccessRegistry) Records() []AccessRecord {
	out := make([]AccessRecord, 0, len(r.order))
	for _, s := range r.order {
		entry := r.entries[s]
		objects := make([]ObjectRef, len(entry.objects))
		copy(objects, entry.objects)
		out = append(out, AccessRecord{Key: entry.key, Context: entry.context, Objects: objects})
	}
	return out
}
