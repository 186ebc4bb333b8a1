package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/viper"

	"shardlog/internal/router"
)

type Config struct {
	Engine  EngineConfig  `mapstructure:"engine"`
	Router  RouterConfig  `mapstructure:"router"`
	Archive ArchiveConfig `mapstructure:"archive"`
}

type EngineConfig struct {
	NodeID string `mapstructure:"node_id"`
}

type RouterConfig struct {
	Strategy     string        `mapstructure:"strategy"` // hash | consistent | range
	Partitions   int           `mapstructure:"partitions"`
	VirtualNodes int           `mapstructure:"virtual_nodes"`
	Ranges       []RangeConfig `mapstructure:"ranges"`
}

// RangeConfig is one custom interval for the range strategy. Bounds are
// int64 in the file so out-of-domain values survive parsing and fail
// validation instead of silently wrapping.
type RangeConfig struct {
	Start     int64 `mapstructure:"start"`
	End       int64 `mapstructure:"end"`
	Partition int   `mapstructure:"partition"`
}

type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("shardlog")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("router.strategy", "consistent")
	v.SetDefault("router.partitions", 16)
	v.SetDefault("router.virtual_nodes", router.DefaultVirtualNodes)
	v.SetDefault("archive.enabled", false)
}

func (c Config) Validate() error {
	if c.Engine.NodeID == "" {
		return fmt.Errorf("engine.node_id is required")
	}
	switch c.Router.Strategy {
	case "hash", "consistent", "range":
	default:
		return fmt.Errorf("router.strategy %q is not one of hash, consistent, range", c.Router.Strategy)
	}
	if c.Router.Partitions < 1 {
		return fmt.Errorf("router.partitions must be >= 1, got %d", c.Router.Partitions)
	}
	if c.Router.VirtualNodes < 1 {
		return fmt.Errorf("router.virtual_nodes must be >= 1, got %d", c.Router.VirtualNodes)
	}
	if len(c.Router.Ranges) > 0 && c.Router.Strategy != "range" {
		return fmt.Errorf("router.ranges is only valid with the range strategy")
	}
	if len(c.Router.Ranges) > 0 && len(c.Router.Ranges) != c.Router.Partitions {
		return fmt.Errorf("router.ranges has %d entries for %d partitions", len(c.Router.Ranges), c.Router.Partitions)
	}
	for _, r := range c.Router.Ranges {
		// Both bounds checked pre-cast so negative or oversized values
		// fail here instead of wrapping at the uint32 conversion.
		if r.Start < 0 || r.Start > math.MaxUint32 || r.End < 0 || r.End > math.MaxUint32 {
			return fmt.Errorf("range [%d, %d] outside the 32-bit key domain", r.Start, r.End)
		}
		if r.Start > r.End {
			return fmt.Errorf("inverted range [%d, %d]", r.Start, r.End)
		}
		if r.Partition < 0 || r.Partition >= c.Router.Partitions {
			return fmt.Errorf("range partition %d outside [0, %d)", r.Partition, c.Router.Partitions)
		}
	}
	if c.Archive.Enabled && c.Archive.Path == "" {
		return fmt.Errorf("archive.path is required when archive.enabled=true")
	}
	return nil
}

// BuildStrategy constructs the routing strategy the config describes.
// Custom range layouts still go through the strategy's own overlap and
// coverage validation.
func (c Config) BuildStrategy() (router.Strategy, error) {
	switch c.Router.Strategy {
	case "hash":
		return router.NewHashStrategy(c.Router.Partitions)
	case "consistent":
		return router.NewConsistentStrategy(c.Router.Partitions, c.Router.VirtualNodes)
	case "range":
		if len(c.Router.Ranges) == 0 {
			return router.NewRangeStrategy(c.Router.Partitions)
		}
		ranges := make([]router.Range, 0, len(c.Router.Ranges))
		for _, r := range c.Router.Ranges {
			ranges = append(ranges, router.Range{Start: uint32(r.Start), End: uint32(r.End), Partition: r.Partition})
		}
		return router.NewCustomRangeStrategy(0, math.MaxUint32, ranges)
	default:
		return nil, fmt.Errorf("unknown strategy %q", c.Router.Strategy)
	}
}
