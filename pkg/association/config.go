package association

import "fmt"

// Config controls detection behavior
type Config struct {
	// Enabled turns tracking on for integrations (middleware, GORM plugin)
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// MinObjects is the distinct-object count at which an unpreloaded association is reported
	MinObjects int `json:"min_objects" yaml:"min_objects" mapstructure:"min_objects"`

	// DetectUnusedEagerLoading also reports preloads that were never accessed
	DetectUnusedEagerLoading bool `json:"detect_unused_eager_loading" yaml:"detect_unused_eager_loading" mapstructure:"detect_unused_eager_loading"`
}

// DefaultConfig returns a detection configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Enabled:                  true,
		MinObjects:               DefaultMinObjects,
		DetectUnusedEagerLoading: false,
	}
}

// Validate checks if the detection configuration is valid
func (c *Config) Validate() error {
	if c.MinObjects < 1 {
		return fmt.Errorf("min_objects must be at least 1, got %d", c.MinObjects)
	}
	return nil
}
