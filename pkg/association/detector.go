package association

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// DefaultMinObjects is the distinct-object count at which an unpreloaded
// association is reported. One lazy load is a single extra query; two or more
// is the multiplicative pattern a batched query would collapse.
const DefaultMinObjects = 2

// Finding is one reported association under its caller context
type Finding struct {
	Key     Key  `json:"key" msgpack:"key"`
	Context Path `json:"context" msgpack:"context"`
	Objects int  `json:"objects" msgpack:"objects"`
}

// Fingerprint returns a stable hash of the key and context, independent of
// the object count, suitable for aggregating findings across requests
func (f Finding) Fingerprint() string {
	s := slotFor(f.Key, f.Context)
	return fmt.Sprintf("%016x", xxhash.Sum64String(s.key.Owner+"\x1d"+s.key.Name+"\x1d"+s.path))
}

func (f Finding) String() string {
	return fmt.Sprintf("%s under %s (%d objects)", f.Key, f.Context, f.Objects)
}

// Report is a set of findings. Order is deterministic but carries no meaning.
type Report []Finding

func newReport(findings []Finding) Report {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Key.Owner != b.Key.Owner {
			return a.Key.Owner < b.Key.Owner
		}
		if a.Key.Name != b.Key.Name {
			return a.Key.Name < b.Key.Name
		}
		return a.Context.String() < b.Context.String()
	})
	if findings == nil {
		findings = []Finding{}
	}
	return Report(findings)
}

// Empty reports whether there are no findings
func (r Report) Empty() bool {
	return len(r) == 0
}

// Len returns the number of findings
func (r Report) Len() int {
	return len(r)
}

// Contains reports whether a finding exists for k under exactly path
func (r Report) Contains(k Key, path Path) bool {
	for _, f := range r {
		if f.Key == k && f.Context.Equal(path) {
			return true
		}
	}
	return false
}

// Keys returns the reported association keys without their contexts
func (r Report) Keys() []Key {
	seen := make(map[Key]struct{}, len(r))
	keys := make([]Key, 0, len(r))
	for _, f := range r {
		if _, ok := seen[f.Key]; ok {
			continue
		}
		seen[f.Key] = struct{}{}
		keys = append(keys, f.Key)
	}
	return keys
}

// Equal compares two reports as sets of (Key, Context)
func (r Report) Equal(other Report) bool {
	if len(r) != len(other) {
		return false
	}
	for _, f := range r {
		if !other.Contains(f.Key, f.Context) {
			return false
		}
	}
	return true
}

// Detector reduces the registries of a request into reports
type Detector struct {
	// MinObjects is the distinct-object threshold; values below 1 use DefaultMinObjects
	MinObjects int
}

func (d Detector) threshold() int {
	if d.MinObjects < 1 {
		return DefaultMinObjects
	}
	return d.MinObjects
}

// Unpreloaded returns the associations lazily accessed on at least MinObjects
// distinct objects without a preload mark under the same context
func (d Detector) Unpreloaded(preloads *PreloadRegistry, accesses *AccessRegistry) Report {
	need := d.threshold()
	var findings []Finding
	for _, rec := range accesses.Records() {
		if preloads.WasPreloaded(rec.Key, rec.Context) {
			continue
		}
		if len(rec.Objects) >= need {
			findings = append(findings, Finding{Key: rec.Key, Context: rec.Context, Objects: len(rec.Objects)})
		}
	}
	return newReport(findings)
}

// Unused returns the associations that were preloaded but never accessed
// under the context they were preloaded in
func (d Detector) Unused(preloads *PreloadRegistry, accesses *AccessRegistry) Report {
	var findings []Finding
	for _, mark := range preloads.Marks() {
		if !accesses.Accessed(mark.Key, mark.Context) {
			findings = append(findings, Finding{Key: mark.Key, Context: mark.Context})
		}
	}
	return newReport(findings)
}
