package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ammar0144/bullet4go/pkg/association"
	"github.com/ammar0144/bullet4go/pkg/gormhook"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewManager connects to MySQL and installs association tracking
func NewManager(config *Config, log *zap.Logger) (*Manager, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dsn, err := config.GetDSN()
	if err != nil {
		return nil, fmt.Errorf("failed to build DSN: %w", err)
	}

	m, err := NewManagerWithDialector(mysql.Open(dsn), config, log)
	if err != nil {
		return nil, err
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	return m, nil
}

// NewManagerWithDialector opens GORM over an arbitrary dialector. Connection
// settings of config are not validated, only its logging and detection parts.
func NewManagerWithDialector(dialector gorm.Dialector, config *Config, log *zap.Logger) (*Manager, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Detection.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detection config: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(getLogLevel(config.Logging.Level)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if config.Detection.Enabled {
		if err := db.Use(gormhook.New(log)); err != nil {
			return nil, fmt.Errorf("failed to install tracking plugin: %w", err)
		}
	}

	return &Manager{config: config, db: db, logger: log}, nil
}

// DB returns the GORM database instance
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Track starts a unit of work outside HTTP (jobs, scripts, tests): it returns
// a session bound to a fresh tracker. The caller must End the request.
// With detection disabled the plugin is absent and the request records nothing.
func (m *Manager) Track(ctx context.Context) (*gorm.DB, *association.Request) {
	req := association.NewRequest(&m.config.Detection, m.logger)
	return m.db.WithContext(association.WithRequest(ctx, req)), req
}

// SqlDB returns the underlying sql.DB instance
func (m *Manager) SqlDB() (*sql.DB, error) {
	return m.db.DB()
}

// Close closes the database connection
func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Config returns the manager's configuration
func (m *Manager) Config() *Config {
	return m.config
}

// Ping tests the database connection
func (m *Manager) Ping(ctx context.Context) error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func getLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "info":
		return logger.Info
	case "warn":
		return logger.Warn
	case "error":
		return logger.Error
	case "silent":
		return logger.Silent
	default:
		return logger.Error // Default to error
	}
}
