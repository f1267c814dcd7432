package db

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/ammar0144/bullet4go/pkg/association"

	"github.com/go-sql-driver/mysql"
)

// DefaultConfig returns a configuration for a local MySQL server
func DefaultConfig() *Config {
	return &Config{
		Host:            "localhost",
		Port:            3306,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		Collation:       "utf8mb4_unicode_ci",
		TimeZone:        "UTC",
		Logging:         LoggingConfig{Level: "error"},
		Detection:       *association.DefaultConfig(),
	}
}

// Validate checks if the database configuration is valid
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("database port must be between 1 and 65535, got %d", c.Port)
	}
	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Username == "" {
		return fmt.Errorf("database username is required")
	}
	if c.MaxOpenConns < 1 {
		return fmt.Errorf("max_open_conns must be at least 1")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return fmt.Errorf("max_idle_conns cannot be greater than max_open_conns")
	}
	if c.SSL.Enabled && !c.SSL.SkipVerify && c.SSL.CAFile != "" {
		if _, err := os.Stat(c.SSL.CAFile); err != nil {
			return fmt.Errorf("TLS configuration error: CA file not accessible: %w", err)
		}
	}
	if (c.SSL.CertFile == "") != (c.SSL.KeyFile == "") {
		return fmt.Errorf("TLS configuration error: both cert_file and key_file must be provided together")
	}
	if err := c.Detection.Validate(); err != nil {
		return fmt.Errorf("invalid detection config: %w", err)
	}
	return nil
}

// GetDSN returns the MySQL Data Source Name built with the driver's config builder.
// TLS material is loaded and registered with the driver when SSL is enabled.
func (c *Config) GetDSN() (string, error) {
	loc, err := time.LoadLocation(c.timeZone())
	if err != nil {
		return "", fmt.Errorf("invalid timezone %q: %w", c.TimeZone, err)
	}

	cfg := mysql.NewConfig()
	cfg.User = c.Username
	cfg.Passwd = c.Password
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", c.Host, c.Port)
	cfg.DBName = c.Database
	cfg.Collation = c.Collation
	cfg.Loc = loc
	cfg.ParseTime = true

	if c.SSL.Enabled {
		name, err := c.registerTLS()
		if err != nil {
			return "", err
		}
		cfg.TLSConfig = name
	}

	return cfg.FormatDSN(), nil
}

func (c *Config) timeZone() string {
	if c.TimeZone == "" {
		return "UTC"
	}
	return c.TimeZone
}

// registerTLS registers the TLS configuration with the MySQL driver under a
// name derived from the SSL settings, so distinct configs never collide
func (c *Config) registerTLS() (string, error) {
	if c.SSL.SkipVerify {
		return "skip-verify", nil
	}

	tlsConfig := &tls.Config{ServerName: c.SSL.ServerName}
	if c.SSL.CAFile != "" {
		caCert, err := os.ReadFile(c.SSL.CAFile)
		if err != nil {
			return "", fmt.Errorf("failed to read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return "", fmt.Errorf("invalid CA certificate in %s", c.SSL.CAFile)
		}
		tlsConfig.RootCAs = pool
	}
	if c.SSL.CertFile != "" && c.SSL.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(c.SSL.CertFile, c.SSL.KeyFile)
		if err != nil {
			return "", fmt.Errorf("failed to load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	h := sha256.New()
	h.Write([]byte(c.SSL.CAFile))
	h.Write([]byte(c.SSL.CertFile))
	h.Write([]byte(c.SSL.KeyFile))
	h.Write([]byte(c.SSL.ServerName))
	name := "bullet4go_tls_" + hex.EncodeToString(h.Sum(nil))[:16]

	if err := mysql.RegisterTLSConfig(name, tlsConfig); err != nil {
		return "", fmt.Errorf("failed to register TLS config: %w", err)
	}
	return name, nil
}
