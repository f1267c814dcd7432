package association

// PreloadMark records that an association was batch loaded under a context
type PreloadMark struct {
	Key     Key
	Context Path
}

// PreloadRegistry records which associations were satisfied by eager loading.
// Marks are exact-path: a mark at the top level says nothing about the same
// association reached through a nested traversal.
type PreloadRegistry struct {
	marks map[slot]PreloadMark
	order []slot
}

// NewPreloadRegistry creates an empty registry
func NewPreloadRegistry() *PreloadRegistry {
	return &PreloadRegistry{marks: make(map[slot]PreloadMark)}
}

// Mark records k as preloaded under path. Marking twice has no further effect.
func (r *PreloadRegistry) Mark(k Key, path Path) {
	s := slotFor(k, path)
	if _, ok := r.marks[s]; ok {
		return
	}
	r.marks[s] = PreloadMark{Key: k, Context: clonePath(path)}
	r.order = append(r.order, s)
}

// WasPreloaded reports whether k was marked under exactly path
func (r *PreloadRegistry) WasPreloaded(k Key, path Path) bool {
	_, ok := r.marks[slotFor(k, path)]
	return ok
}

// Marks returns every mark in the order it was first recorded
func (r *PreloadRegistry) Marks() []PreloadMark {
	out := make([]PreloadMark, 0, len(r.order))
	for _, s := range r.order {
		out = append(out, r.marks[s])
	}
	return out
}

// Len returns the number of distinct marks
func (r *PreloadRegistry) Len() int {
	return len(r.order)
}
