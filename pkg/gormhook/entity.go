package gormhook

import (
	"fmt"
	"reflect"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Entity lets a model report its own primary key instead of relying on the
// GORM schema's prioritized primary field
type Entity interface {
	// GetPrimaryKeyValue returns the primary key, or nil for an unsaved instance
	GetPrimaryKeyValue() interface{}
}

// parseModel resolves the GORM schema for a model instance
func parseModel(db *gorm.DB, model interface{}) (*schema.Schema, error) {
	if model == nil {
		return nil, ErrNilOwner
	}
	rv := reflect.ValueOf(model)
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return nil, ErrNilOwner
	}

	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return nil, fmt.Errorf("failed to parse model %T: %w", model, err)
	}
	return stmt.Schema, nil
}

// lookupRelation returns the named relationship of sch
func lookupRelation(sch *schema.Schema, name string) (*schema.Relationship, error) {
	rel, ok := sch.Relationships.Relations[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no association %q", ErrUnknownAssociation, sch.Name, name)
	}
	return rel, nil
}

// primaryKeyOf extracts the primary key of model, returning nil when the
// instance is unsaved or the schema declares no primary key
func primaryKeyOf(db *gorm.DB, sch *schema.Schema, model interface{}) interface{} {
	if ent, ok := model.(Entity); ok {
		pk := ent.GetPrimaryKeyValue()
		if pk == nil || reflect.ValueOf(pk).IsZero() {
			return nil
		}
		return pk
	}

	field := sch.PrioritizedPrimaryField
	if field == nil {
		return nil
	}
	value, zero := field.ValueOf(db.Statement.Context, reflect.Indirect(reflect.ValueOf(model)))
	if zero {
		return nil
	}
	return value
}
