// Package config loads and hot-reloads this service's settings, the way
// the teacher pack's token-accounting service layers viper defaults, a
// config file, and environment variables into a single atomically-swapped
// snapshot.
package config

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"k8s.io/klog/v2"

	"github.com/rpcpool/inferencestore/matchpolicy"
)

// RequestMatchingConfig mirrors matchpolicy.Policy in the config-file shape
// spec.md §6 names under the `request_matching.*` keys. `InputParameterMatching`
// and `OutputParameterMatching` are recognized keys but spec.md §4.2 defines
// only the `same` mode for them (always IgnoreKeys-equivalent over the
// per-tensor key lists), so ToPolicy doesn't switch on their value.
type RequestMatchingConfig struct {
	MatchID                 bool                `mapstructure:"match_id"`
	ParameterMatching       string              `mapstructure:"parameter_matching"` // "disable" | "match_keys" | "ignore_keys"
	ParameterKeys           []string            `mapstructure:"parameter_keys"`
	InputParameterMatching  string              `mapstructure:"input_parameter_matching"`
	InputParameterKeys      map[string][]string `mapstructure:"input_parameter_keys"`
	OutputParameterMatching string              `mapstructure:"output_parameter_matching"`
	OutputParameterKeys     map[string][]string `mapstructure:"output_parameter_keys"`
	MatchPrunedOutput       bool                `mapstructure:"match_pruned_output"`
}

// ServerConfig is the `server.*` key group: the KServe v2 gRPC listener.
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the host:port the gRPC server binds to.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// TargetServerConfig is the `target_server.*` key group: the upstream
// inference backend, only consulted in collect mode.
type TargetServerConfig struct {
	Host string `mapstructure:"host"`
}

// RequestCollectionConfig is the `request_collection.*` key group: the
// on-disk store directory.
type RequestCollectionConfig struct {
	Path string `mapstructure:"path"`
}

// Config is this service's full runtime configuration, matching spec.md
// §6's "Recognized keys and their defaults" exactly.
type Config struct {
	Debug bool `mapstructure:"debug"`
	// Mode is "collect" or "serve" (spec.md §2).
	Mode string `mapstructure:"mode"`

	Server           ServerConfig            `mapstructure:"server"`
	TargetServer     TargetServerConfig      `mapstructure:"target_server"`
	RequestMatching  RequestMatchingConfig   `mapstructure:"request_matching"`
	RequestCollection RequestCollectionConfig `mapstructure:"request_collection"`

	// Metrics is an additive, non-spec key group: an optional Prometheus
	// exporter address. Empty Listen disables it.
	Metrics struct {
		Listen string `mapstructure:"listen"`
	} `mapstructure:"metrics"`
}

// ToPolicy converts the config-file shape into matchpolicy.Policy.
func (m RequestMatchingConfig) ToPolicy() matchpolicy.Policy {
	mode := matchpolicy.Disable
	switch m.ParameterMatching {
	case "match_keys":
		mode = matchpolicy.MatchKeys
	case "ignore_keys":
		mode = matchpolicy.IgnoreKeys
	}
	return matchpolicy.Policy{
		MatchID:             m.MatchID,
		ParameterMatching:   mode,
		ParameterKeys:       m.ParameterKeys,
		InputParameterKeys:  m.InputParameterKeys,
		OutputParameterKeys: m.OutputParameterKeys,
		MatchPrunedOutput:   m.MatchPrunedOutput,
	}
}

var (
	configPtr   atomic.Pointer[Config]
	activeViper *viper.Viper
)

// Get returns the currently active configuration. Load must have been
// called at least once before this is safe to call.
func Get() *Config {
	return configPtr.Load()
}

func setViperDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)
	v.SetDefault("mode", "collect")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 50051)

	v.SetDefault("target_server.host", "http://localhost:8001")

	v.SetDefault("request_matching.match_id", false)
	v.SetDefault("request_matching.parameter_matching", "disable")
	v.SetDefault("request_matching.parameter_keys", []string{})
	v.SetDefault("request_matching.input_parameter_matching", "disable")
	v.SetDefault("request_matching.input_parameter_keys", map[string][]string{})
	v.SetDefault("request_matching.output_parameter_matching", "disable")
	v.SetDefault("request_matching.output_parameter_keys", map[string][]string{})
	v.SetDefault("request_matching.match_pruned_output", false)

	v.SetDefault("request_collection.path", "inferencestore")

	v.SetDefault("metrics.listen", "")
}

// Load builds a Config from defaults, an optional config file at
// explicitPath (searched for as "inferencestore.{yaml,json,toml}" in the
// working directory when empty), and "APP__"-prefixed environment
// variables, then installs it as the active config. The env convention
// uses "__" as the nesting separator, so APP__SERVER__PORT binds to
// server.port: SetEnvPrefix appends viper's own "_" joiner to "APP_",
// producing the leading "APP__", and the key replacer turns the
// remaining "." separators into a second "__".
func Load(explicitPath string) (*Config, error) {
	v := viper.New()
	setViperDefaults(v)

	v.SetEnvPrefix("APP_")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else {
		v.SetConfigName("inferencestore")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("config: read config: %w", err)
		}
		klog.V(2).Infof("config: no config file found, using defaults and environment")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}

	configPtr.Store(&cfg)
	activeViper = v
	return &cfg, nil
}

// WatchAndReload re-reads the active config file whenever it changes on
// disk, installing the new snapshot via Get's atomic pointer. onReload, if
// non-nil, is called with the new config after each successful reload so
// callers (e.g. the dispatcher) can pick up a changed match policy without
// a restart. Load must have been called first.
func WatchAndReload(onReload func(*Config)) {
	v := activeViper
	v.OnConfigChange(func(e fsnotify.Event) {
		var cfg Config
		if err := v.Unmarshal(&cfg); err != nil {
			klog.Errorf("config: reload failed, keeping previous config: %v", err)
			return
		}
		configPtr.Store(&cfg)
		klog.Infof("config: reloaded from %s", e.Name)
		if onReload != nil {
			onReload(&cfg)
		}
	})
	v.WatchConfig()
}
