package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/gogpu/glstate"
	"github.com/gogpu/glstate/backend"
)

const (
	configFileName = "glreplay"
	configFileType = "yaml"
	envPrefix      = "GLREPLAY"

	cfgKeyBackend    = "backend"
	cfgKeyLinkPolicy = "link_policy"
	cfgKeyStereo     = "stereo"
	cfgKeyLogLevel   = "log_level"
)

// config is the resolved glreplay configuration.
type config struct {
	Backend    string
	LinkPolicy glstate.LinkPolicy
	Stereo     bool
	LogLevel   slog.Level
}

// newViper returns a viper instance with defaults, environment binding and
// the persistent flags of the root command bound to their keys.
func newViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, backend.BackendMemory)
	v.SetDefault(cfgKeyLinkPolicy, "default")
	v.SetDefault(cfgKeyStereo, false)
	v.SetDefault(cfgKeyLogLevel, "warn")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, flag := range map[string]string{
		cfgKeyBackend:    "backend",
		cfgKeyLinkPolicy: "link-policy",
		cfgKeyStereo:     "stereo",
		cfgKeyLogLevel:   "log-level",
	} {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return v, nil
}

// loadConfig reads the config file into v. An explicit path must exist;
// otherwise glreplay.yaml is looked up in the working directory and a
// missing file is not an error.
func loadConfig(v *viper.Viper, path string) (config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return config{}, fmt.Errorf("read config: %w", err)
		}
	}

	policy, err := glstate.ParseLinkPolicy(v.GetString(cfgKeyLinkPolicy))
	if err != nil {
		return config{}, fmt.Errorf("config %s: %w", cfgKeyLinkPolicy, err)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v.GetString(cfgKeyLogLevel))); err != nil {
		return config{}, fmt.Errorf("config %s: %w", cfgKeyLogLevel, err)
	}
	return config{
		Backend:    v.GetString(cfgKeyBackend),
		LinkPolicy: policy,
		Stereo:     v.GetBool(cfgKeyStereo),
		LogLevel:   level,
	}, nil
}

// options returns the context options of c.
func (c config) options() []glstate.ContextOption {
	return []glstate.ContextOption{
		glstate.WithLinkPolicy(c.LinkPolicy),
		glstate.WithStereo(c.Stereo),
	}
}

// setupLogging routes glstate logs to stderr at the configured level.
func (c config) setupLogging() {
	glstate.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.LogLevel})))
}
