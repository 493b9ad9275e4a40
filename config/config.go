package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hogwarts-cloud/fleetplan/internal/models"
	"github.com/hogwarts-cloud/fleetplan/internal/network"
	"github.com/hogwarts-cloud/fleetplan/internal/source"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

const (
	FileName     = "fleetplan"
	OverridesKey = "overrides"
	envPrefix    = "ARDANA_"
)

var ErrInvalidConfig = errors.New("invalid config")

// bindings lists the environment variables read for each named key, first
// match wins.
var bindings = map[string][]string{
	"provider":        {"ARDANA_PROVIDER", "VAGRANT_DEFAULT_PROVIDER"},
	"servers":         {"ARDANA_SERVERS"},
	"ref_model_tag":   {"ARDANA_REF_MODEL_TAG"},
	"tool_root":       {"ARDANA_TOOL_ROOT"},
	"tool_remote":     {"ARDANA_TOOL_REMOTE"},
	"model_remote":    {"ARDANA_MODEL_REMOTE"},
	"schema_version":  {"ARDANA_SCHEMA_VERSION"},
	"idle_interfaces": {"ARDANA_IDLE_INTERFACES"},
	"vip_modifier":    {"ARDANA_VIP_MODIFIER"},
	"verbose":         {"ARDANA_VERBOSE"},
	"fetch_timeout":   {"ARDANA_FETCH_TIMEOUT"},
	"incus.pool":      {"ARDANA_INCUS_POOL"},
	"incus.network":   {"ARDANA_INCUS_NETWORK"},
	"incus.project":   {"ARDANA_INCUS_PROJECT"},
}

type Incus struct {
	Pool    string `mapstructure:"pool"`
	Network string `mapstructure:"network"`
	Project string `mapstructure:"project"`
}

type Config struct {
	Provider       string            `mapstructure:"provider"`
	Servers        string            `mapstructure:"servers"`
	RefModelTag    string            `mapstructure:"ref_model_tag"`
	ToolRoot       string            `mapstructure:"tool_root"`
	ToolRemote     string            `mapstructure:"tool_remote"`
	ModelRemote    string            `mapstructure:"model_remote"`
	SchemaVersion  int               `mapstructure:"schema_version"`
	IdleInterfaces int               `mapstructure:"idle_interfaces"`
	VIPModifier    int               `mapstructure:"vip_modifier"`
	Verbose        bool              `mapstructure:"verbose"`
	FetchTimeout   time.Duration     `mapstructure:"fetch_timeout"`
	Incus          Incus             `mapstructure:"incus"`
	Overrides      map[string]string `mapstructure:"overrides"`
}

// ModelOverrides freezes the merged override map for the resolvers.
func (c Config) ModelOverrides() models.Overrides {
	return models.NewOverrides(c.Overrides)
}

func (c Config) validate() error {
	if c.SchemaVersion < 1 {
		return fmt.Errorf("%w: schema_version %d", ErrInvalidConfig, c.SchemaVersion)
	}
	if c.IdleInterfaces < 0 {
		return fmt.Errorf("%w: idle_interfaces %d", ErrInvalidConfig, c.IdleInterfaces)
	}
	return nil
}

// Load reads fleetplan.yaml from path when present and layers the
// environment on top of it. Every ARDANA_* variable also lands in the
// overrides map, replacing a value of the same name from the file.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")

	setDefaults(v)

	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return Config{}, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := Config{}

	if err := v.Unmarshal(&cfg, viper.DecodeHook(
		mapstructure.StringToTimeDurationHookFunc(),
	)); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.Overrides = mergeEnviron(cfg.Overrides, os.Environ())

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", "libvirt")
	v.SetDefault("model_remote", source.DefaultModelRemote)
	v.SetDefault("schema_version", source.DefaultSchema)
	v.SetDefault("idle_interfaces", network.DefaultIdleCount)
	v.SetDefault("vip_modifier", 0)
	v.SetDefault("verbose", false)
	v.SetDefault("fetch_timeout", "30s")
	v.SetDefault("incus.pool", "default")
	v.SetDefault("incus.network", "ardana")
	v.SetDefault("incus.project", "default")
}

func mergeEnviron(fromFile map[string]string, environ []string) map[string]string {
	merged := make(map[string]string, len(fromFile))
	for key, value := range fromFile {
		merged[strings.ToUpper(key)] = value
	}

	for _, entry := range environ {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasPrefix(key, envPrefix) {
			continue
		}
		merged[key] = value
	}

	return merged
}
