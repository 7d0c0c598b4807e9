package grovedb

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/Silvanasss/GroveDB/cost"
)

// DefaultCacheSize is the default capacity of the root record cache, in
// subtrees.
const DefaultCacheSize = 4096

// Config carries the tunables a deployment typically loads from a yaml
// file. The store never reads files itself; parse with LoadConfig and pass
// the result to Open through WithConfig.
type Config struct {
	// Weights prices the four cost units when computing weighted totals.
	Weights cost.Weights `yaml:"weights"`
	// CacheSize bounds the root record cache, in subtrees.
	CacheSize int `yaml:"cacheSize"`
}

// WithDefaults fills in zero fields with default values.
func (c Config) WithDefaults() Config {
	c.Weights = c.Weights.WithDefaults()
	if c.CacheSize == 0 {
		c.CacheSize = DefaultCacheSize
	}
	return c
}

// LoadConfig parses a yaml config document and applies defaults. An empty
// document yields the default config.
func LoadConfig(r io.Reader) (Config, error) {
	var c Config
	if err := yaml.NewDecoder(r).Decode(&c); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return c.WithDefaults(), nil
}
