package gormhook

import (
	"errors"
	"fmt"

	"github.com/ammar0144/bullet4go/pkg/association"

	"gorm.io/gorm"
)

// tracked returns the active request of db when the plugin is installed.
// Without the plugin no preloads are recorded, so accesses must not be either.
func tracked(db *gorm.DB) (*association.Request, bool) {
	if db.Config == nil || db.Config.Plugins[pluginName] == nil {
		return nil, false
	}
	return association.FromContext(db.Statement.Context)
}

// Access records that the named association was read on owner. It is a no-op
// when the plugin is not installed or db's context carries no active request.
func Access(db *gorm.DB, owner interface{}, name string) error {
	req, ok := tracked(db)
	if !ok {
		return nil
	}

	sch, err := parseModel(db, owner)
	if err != nil {
		return err
	}
	rel, err := lookupRelation(sch, name)
	if err != nil {
		return err
	}
	return req.NotifyAccess(sch.Name, rel.Name, primaryKeyOf(db, sch, owner))
}

// Load lazily resolves the named association of owner into dest and records
// the access
func Load(db *gorm.DB, owner interface{}, name string, dest interface{}) error {
	if err := Access(db, owner, name); err != nil {
		return err
	}

	assoc := db.Model(owner).Association(name)
	if assoc.Error != nil {
		return fmt.Errorf("failed to resolve association %s: %w", name, assoc.Error)
	}
	if err := assoc.Find(dest); err != nil {
		return fmt.Errorf("failed to load association %s: %w", name, err)
	}
	return nil
}

// Each records the access of owner's association and runs fn with that
// association entered, so reads inside fn are attributed to it
func Each(db *gorm.DB, owner interface{}, name string, fn func() error) (err error) {
	req, ok := tracked(db)
	if !ok {
		return fn()
	}

	sch, err := parseModel(db, owner)
	if err != nil {
		return err
	}
	rel, err := lookupRelation(sch, name)
	if err != nil {
		return err
	}
	if err := req.NotifyAccess(sch.Name, rel.Name, primaryKeyOf(db, sch, owner)); err != nil {
		return err
	}

	if err := req.EnterAssociation(sch.Name, rel.Name); err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, req.LeaveAssociation())
	}()
	return fn()
}
