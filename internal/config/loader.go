package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const envPrefix = "LEADPULSE"

var (
	configMu  sync.Mutex
	appConfig *Config
)

// EnvSpec maps one environment variable onto a config path.
type EnvSpec struct {
	Name string
	Path string
}

// getEnvSpecs returns the flat environment variable mappings. These are
// the operator-facing names; nested keys also resolve through the
// automatic LEADPULSE_ prefix.
func getEnvSpecs() []EnvSpec {
	return []EnvSpec{
		{Name: envPrefix + "_HOST", Path: "server.host"},
		{Name: envPrefix + "_PORT", Path: "server.port"},
		{Name: envPrefix + "_READ_TIMEOUT", Path: "server.read_timeout"},
		{Name: envPrefix + "_WRITE_TIMEOUT", Path: "server.write_timeout"},
		{Name: envPrefix + "_IDLE_TIMEOUT", Path: "server.idle_timeout"},
		{Name: envPrefix + "_SHUTDOWN_TIMEOUT", Path: "server.shutdown_timeout"},
		{Name: envPrefix + "_LOG_LEVEL", Path: "logging.level"},
		{Name: envPrefix + "_LOG_PROFILE", Path: "logging.profile"},
		{Name: envPrefix + "_API_BASE_URL", Path: "instantly.base_url"},
		{Name: envPrefix + "_API_KEY", Path: "instantly.api_key"},
		{Name: envPrefix + "_API_FILTER", Path: "instantly.filter"},
		{Name: envPrefix + "_API_TIMEOUT", Path: "instantly.timeout"},
		{Name: envPrefix + "_CONTACTS_PATH", Path: "refdata.contacts_path"},
		{Name: envPrefix + "_MESSAGES_GLOB", Path: "refdata.messages_glob"},
		{Name: envPrefix + "_PAGE_DELAY", Path: "engine.page_delay"},
		{Name: envPrefix + "_HEALTH_ENABLED", Path: "health.enabled"},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.profile", "structured")

	v.SetDefault("instantly.base_url", "https://api.instantly.ai")
	v.SetDefault("instantly.filter", "FILTER_VAL_OPENED_NO_REPLY")
	v.SetDefault("instantly.timeout", "30s")

	v.SetDefault("refdata.contacts_path", "apollo.csv")
	v.SetDefault("refdata.messages_glob", "personalized_messages*.csv")

	v.SetDefault("engine.page_delay", "500ms")

	v.SetDefault("health.enabled", true)
}

// Load builds the configuration. Optional override maps take the highest
// precedence; they mirror the config file's nesting.
func Load(ctx context.Context, overrides ...map[string]any) (*Config, error) {
	configMu.Lock()
	defer configMu.Unlock()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("leadpulse")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.leadpulse")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, spec := range getEnvSpecs() {
		if err := v.BindEnv(spec.Path, spec.Name); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", spec.Name, err)
		}
	}

	for _, override := range overrides {
		if err := v.MergeConfigMap(override); err != nil {
			return nil, fmt.Errorf("config: apply overrides: %w", err)
		}
		applyOverrides(v, "", override)
	}

	var cfg Config
	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	// Env values arrive as strings; decode them weakly into ints/bools.
	weakly := func(dc *mapstructure.DecoderConfig) { dc.WeaklyTypedInput = true }
	if err := v.Unmarshal(&cfg, decodeHook, weakly); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	appConfig = &cfg
	return &cfg, nil
}

// applyOverrides walks a nested override map and pins each leaf with
// viper's highest precedence. MergeConfigMap alone sits below env vars.
func applyOverrides(v *viper.Viper, prefix string, values map[string]any) {
	for key, value := range values {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			applyOverrides(v, path, nested)
			continue
		}
		v.Set(path, value)
	}
}

// GetConfig returns the last loaded configuration, or nil before Load.
func GetConfig() *Config {
	configMu.Lock()
	defer configMu.Unlock()
	return appConfig
}
