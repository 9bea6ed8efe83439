package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/parley/pkg/dotdir"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "PARLEY"

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the PARLEY_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound via BindRegisteredFlags)
//  2. Environment variables (PARLEY_SERVER_LISTEN, PARLEY_OLLAMA_ENDPOINT, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	setViperDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")

	target, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}
	v.AddConfigPath(target)

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// FromViper resolves the effective Config from a viper instance built by
// InitViper, after flags have been bound.
func FromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Version: v.GetInt("version"),
		Server: ServerConfig{
			Listen: v.GetString("server.listen"),
		},
		Ollama: OllamaConfig{
			Endpoint:       v.GetString("ollama.endpoint"),
			TimeoutSeconds: v.GetUint("ollama.timeout_seconds"),
			StreamEnabled:  v.GetBool("ollama.stream_enabled"),
		},
		Chat: ChatConfig{
			DefaultModel: v.GetString("chat.default_model"),
			DarkMode:     v.GetBool("chat.dark_mode"),
			Greeting:     v.GetString("chat.greeting"),
			Models:       listValue(v, "chat.models"),
		},
		Events: EventsConfig{
			Provider:     v.GetString("events.provider"),
			KafkaBrokers: listValue(v, "events.kafka_brokers"),
			KafkaTopic:   v.GetString("events.kafka_topic"),
		},
	}

	applyDefaults(cfg)
	return cfg
}

// listValue reads a list key that may come from TOML as an array or from
// the environment as a comma separated string.
func listValue(v *viper.Viper, key string) []string {
	var out []string
	for _, item := range v.GetStringSlice(key) {
		out = append(out, splitList(item)...)
	}
	return out
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	v.SetDefault("server.listen", d.Server.Listen)

	v.SetDefault("ollama.endpoint", d.Ollama.Endpoint)
	v.SetDefault("ollama.timeout_seconds", d.Ollama.TimeoutSeconds)
	v.SetDefault("ollama.stream_enabled", d.Ollama.StreamEnabled)

	v.SetDefault("chat.default_model", d.Chat.DefaultModel)
	v.SetDefault("chat.dark_mode", d.Chat.DarkMode)
	v.SetDefault("chat.greeting", d.Chat.Greeting)
	v.SetDefault("chat.models", d.Chat.Models)

	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.kafka_brokers", d.Events.KafkaBrokers)
	v.SetDefault("events.kafka_topic", d.Events.KafkaTopic)
}

// Resolve builds the effective Config for a cobra command: defaults, the
// config file found through --config-dir, PARLEY_* environment variables
// and finally the command's registered flags.
func Resolve(cmd *cobra.Command, registryKeys ...string) (*Config, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := InitViper(configDir)
	if err != nil {
		return nil, err
	}

	BindRegisteredFlags(v, cmd, Flags, registryKeys)
	return FromViper(v), nil
}
