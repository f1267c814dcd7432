// Package association tracks how associations are resolved during a unit of
// work and reports the lazy traversals that should have been eager loaded.
package association

import (
	"fmt"
	"reflect"
	"strings"
)

// ObjectRef identifies a loaded entity instance by type and primary key
type ObjectRef struct {
	TypeName   string
	PrimaryKey string
}

// NewObjectRef builds a reference from a raw primary key value. Pointer keys
// are dereferenced. A nil primary key (or one that renders empty) yields an
// unsaved reference.
func NewObjectRef(typeName string, primaryKey interface{}) ObjectRef {
	if primaryKey == nil {
		return ObjectRef{TypeName: typeName}
	}
	rv := reflect.ValueOf(primaryKey)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return ObjectRef{TypeName: typeName}
		}
		rv = rv.Elem()
	}
	return ObjectRef{TypeName: typeName, PrimaryKey: fmt.Sprint(rv.Interface())}
}

// Persisted reports whether the referenced instance has a primary key
func (o ObjectRef) Persisted() bool {
	return o.PrimaryKey != ""
}

func (o ObjectRef) String() string {
	if !o.Persisted() {
		return o.TypeName + "(unsaved)"
	}
	return o.TypeName + "(" + o.PrimaryKey + ")"
}

// Key identifies an association relationship: owning type plus association name
type Key struct {
	Owner string `json:"owner" msgpack:"owner"`
	Name  string `json:"name" msgpack:"name"`
}

// NewKey validates and builds an association key
func NewKey(owner, name string) (Key, error) {
	if owner == "" || name == "" {
		return Key{}, fmt.Errorf("%w: owner=%q name=%q", ErrInvalidAssociation, owner, name)
	}
	return Key{Owner: owner, Name: name}, nil
}

func (k Key) String() string {
	return k.Owner + "#" + k.Name
}

// Path is the ordered nesting of associations active when an event occurs.
// The empty path is the top-level context.
type Path []Key

// Append returns a new path with k added at the innermost position
func (p Path) Append(k Key) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, k)
}

func clonePath(p Path) Path {
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Equal compares two paths element by element
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, k := range p {
		parts[i] = k.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// slot is the comparable registry key for a (Key, Path) pair
type slot struct {
	key  Key
	path string
}

func slotFor(k Key, p Path) slot {
	parts := make([]string, len(p))
	for i, pk := range p {
		parts[i] = pk.Owner + "\x1f" + pk.Name
	}
	return slot{key: k, path: strings.Join(parts, "\x1e")}
}
