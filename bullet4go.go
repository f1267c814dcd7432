// Package bullet4go detects N+1 queries and unused eager loading in
// GORM-backed applications.
package bullet4go

import (
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ammar0144/bullet4go/pkg/association"
	"github.com/ammar0144/bullet4go/pkg/db"
	"github.com/ammar0144/bullet4go/pkg/gormhook"
	"github.com/ammar0144/bullet4go/pkg/middleware"
	"github.com/ammar0144/bullet4go/pkg/notify"
	"github.com/ammar0144/bullet4go/pkg/redis"
)

// Config represents detection configuration
type Config = association.Config

// Report is the set of findings produced at request end
type Report = association.Report

// Summary describes one finished request
type Summary = association.Summary

// DBConfig represents database configuration
type DBConfig = db.Config

// RedisConfig represents findings store configuration
type RedisConfig = redis.Config

// Entity lets models report their own primary key
type Entity = gormhook.Entity

// DefaultConfig returns detection enabled with the default threshold
func DefaultConfig() *Config {
	return association.DefaultConfig()
}

// NewScope creates a single-active-request container
func NewScope(config *Config, logger *zap.Logger) *association.Scope {
	return association.NewScope(config, logger)
}

// NewManager opens a MySQL database with detection installed
func NewManager(config *DBConfig, logger *zap.Logger) (*db.Manager, error) {
	return db.NewManager(config, logger)
}

// Use installs the detection plugin on an existing GORM handle
func Use(gdb *gorm.DB, logger *zap.Logger) error {
	return gdb.Use(gormhook.New(logger))
}

// NewRedisManager creates a findings store
func NewRedisManager(config *RedisConfig) (*redis.Manager, error) {
	return redis.NewManager(config)
}

// Middleware tracks each HTTP request and reports its findings to notifier.
// A nil notifier only logs.
func Middleware(config *Config, notifier notify.Notifier, logger *zap.Logger) middleware.Middleware {
	return middleware.Track(middleware.TrackConfig{
		Detection: config,
		Notifier:  notifier,
		Logger:    logger,
	})
}
