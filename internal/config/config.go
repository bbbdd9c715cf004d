// Package config provides configuration structures and defaults for blockbucket.
package config

import (
	"os"
)

const (
	defaultFileMode = os.FileMode(0644)
)

// Config holds the tunable parameters of a bucket.
type Config struct {
	// FileMode is applied to the bucket file on creation and to the
	// replacement file produced by a rewrite.
	FileMode os.FileMode
	// SyncWrites fsyncs after every append and rewrite. Disabling it
	// trades durability on the last writes for throughput.
	SyncWrites bool
}

// DefaultConfig returns a Config struct populated with default values.
func DefaultConfig() *Config {
	return &Config{
		FileMode:   defaultFileMode,
		SyncWrites: true,
	}
}

// FillDefaults sets any zero-value fields in the Config to their default values.
// SyncWrites is left as set, since false is a meaningful choice.
func (c *Config) FillDefaults() {
	if c.FileMode == 0 {
		c.FileMode = defaultFileMode
	}
}
