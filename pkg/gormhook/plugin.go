// Package gormhook feeds GORM preloads and association reads into the
// association tracker carried by a statement's context.
package gormhook

import (
	"context"
	"sort"
	"strings"

	"github.com/ammar0144/bullet4go/pkg/association"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

const (
	pluginName       = "bullet4go"
	callbackPreload  = "bullet4go:preload"
	callbackRestored = "bullet4go:after_preload"
)

// preloadScopeKey marks queries issued by GORM while resolving another
// query's preloads; the outer query already recorded them with full nesting
type preloadScopeKey struct{}

// Plugin registers the query callbacks that record eager loads
type Plugin struct {
	logger *zap.Logger
}

// New creates the plugin. A nil logger disables logging.
func New(logger *zap.Logger) *Plugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Plugin{logger: logger.Named("gormhook")}
}

// Name implements gorm.Plugin
func (p *Plugin) Name() string {
	return pluginName
}

// Initialize implements gorm.Plugin
func (p *Plugin) Initialize(db *gorm.DB) error {
	query := db.Callback().Query()
	if err := query.Before("gorm:preload").Register(callbackPreload, p.recordPreloads); err != nil {
		return err
	}
	return query.After("gorm:preload").Register(callbackRestored, p.restoreContext)
}

// recordPreloads marks every eager load of the statement under the request's
// current context: Preload entries and Joins that name an association.
// Nested names ("Posts.Comments") are marked one level deeper for each segment.
func (p *Plugin) recordPreloads(db *gorm.DB) {
	stmt := db.Statement
	if db.Error != nil || stmt.Schema == nil || stmt.Context == nil {
		return
	}
	if len(stmt.Preloads) == 0 && len(stmt.Joins) == 0 {
		return
	}
	if stmt.Context.Value(preloadScopeKey{}) != nil {
		return
	}
	req, ok := association.FromContext(stmt.Context)
	if !ok {
		return
	}

	names := make([]string, 0, len(stmt.Preloads)+len(stmt.Joins))
	for name := range stmt.Preloads {
		names = append(names, name)
	}
	for _, join := range stmt.Joins {
		// raw SQL joins carry no association name
		if _, ok := stmt.Schema.Relationships.Relations[strings.SplitN(join.Name, ".", 2)[0]]; ok {
			names = append(names, join.Name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if err := p.markPath(req, stmt.Schema, strings.Split(name, ".")); err != nil {
			_ = db.AddError(err)
			return
		}
	}

	stmt.Context = context.WithValue(stmt.Context, preloadScopeKey{}, stmt.Context)
}

// restoreContext drops the marker installed by recordPreloads so a reused
// statement records its next preloads again
func (p *Plugin) restoreContext(db *gorm.DB) {
	if db.Statement.Context == nil {
		return
	}
	if outer, ok := db.Statement.Context.Value(preloadScopeKey{}).(context.Context); ok {
		db.Statement.Context = outer
	}
}

func (p *Plugin) markPath(req *association.Request, sch *schema.Schema, segments []string) error {
	entered := 0
	defer func() {
		for ; entered > 0; entered-- {
			_ = req.LeaveAssociation()
		}
	}()

	current := sch
	for i, segment := range segments {
		if segment == clause.Associations {
			return p.markAll(req, current)
		}

		rel, ok := current.Relationships.Relations[segment]
		if !ok {
			// GORM reports unsupported relations itself
			p.logger.Debug("skipping unknown preload", zap.String("model", current.Name), zap.String("preload", segment))
			return nil
		}
		if err := req.NotifyPreload(current.Name, rel.Name); err != nil {
			return err
		}

		if i < len(segments)-1 {
			if err := req.EnterAssociation(current.Name, rel.Name); err != nil {
				return err
			}
			entered++
			current = rel.FieldSchema
		}
	}
	return nil
}

func (p *Plugin) markAll(req *association.Request, sch *schema.Schema) error {
	names := make([]string, 0, len(sch.Relationships.Relations))
	for name := range sch.Relationships.Relations {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := req.NotifyPreload(sch.Name, name); err != nil {
			return err
		}
	}
	return nil
}
