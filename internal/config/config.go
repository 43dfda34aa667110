package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Coordinator holds the coordinator service configuration.
type Coordinator struct {
	ListenAddr   string        `mapstructure:"listen_addr"`
	VirtualNodes int           `mapstructure:"virtual_nodes"`
	ShardTimeout time.Duration `mapstructure:"shard_timeout"`
}

// Shard holds a shard node's configuration. AdvertiseURL is the base URL
// the coordinator will use to reach this shard, which may differ from the
// listen address behind Docker or NAT.
type Shard struct {
	Name           string `mapstructure:"name"`
	ListenAddr     string `mapstructure:"listen_addr"`
	AdvertiseURL   string `mapstructure:"advertise_url"`
	CoordinatorURL string `mapstructure:"coordinator_url"`
}

// LoadCoordinator reads coordinator configuration. path may be empty, in
// which case defaults and environment variables apply.
func LoadCoordinator(path string) (Coordinator, error) {
	v := newViper()
	v.SetDefault("listen_addr", ":8000")
	v.SetDefault("virtual_nodes", 128)
	v.SetDefault("shard_timeout", "5s")

	if err := readFile(v, path); err != nil {
		return Coordinator{}, err
	}

	var cfg Coordinator
	if err := v.Unmarshal(&cfg); err != nil {
		return Coordinator{}, fmt.Errorf("decode coordinator config: %w", err)
	}
	if cfg.VirtualNodes <= 0 {
		return Coordinator{}, fmt.Errorf("virtual_nodes must be positive, got %d", cfg.VirtualNodes)
	}
	if cfg.ShardTimeout <= 0 {
		return Coordinator{}, fmt.Errorf("shard_timeout must be positive, got %s", cfg.ShardTimeout)
	}
	return cfg, nil
}

// LoadShard reads shard configuration. Name, advertise URL and coordinator
// URL have no sensible defaults and must be set.
func LoadShard(path string) (Shard, error) {
	v := newViper()
	v.SetDefault("name", "")
	v.SetDefault("listen_addr", ":8100")
	v.SetDefault("advertise_url", "")
	v.SetDefault("coordinator_url", "")

	if err := readFile(v, path); err != nil {
		return Shard{}, err
	}

	var cfg Shard
	if err := v.Unmarshal(&cfg); err != nil {
		return Shard{}, fmt.Errorf("decode shard config: %w", err)
	}
	if cfg.Name == "" {
		return Shard{}, fmt.Errorf("shard name is required (name / SHARDKV_NAME)")
	}
	if cfg.AdvertiseURL == "" {
		return Shard{}, fmt.Errorf("advertise URL is required (advertise_url / SHARDKV_ADVERTISE_URL)")
	}
	if cfg.CoordinatorURL == "" {
		return Shard{}, fmt.Errorf("coordinator URL is required (coordinator_url / SHARDKV_COORDINATOR_URL)")
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("SHARDKV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func readFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}
