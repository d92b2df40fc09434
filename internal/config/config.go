// Package config loads node settings from <home>/config.toml, TTG_*
// environment variables and command-line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "TTG"

	KeyHome               = "home"
	KeyAddr               = "addr"
	KeyTransport          = "transport"
	KeyLogLevel           = "log_level"
	KeyLogFormat          = "log_format"
	KeyFaucet             = "faucet"
	KeyRegistrationBlocks = "registration_blocks"
	KeyCommitBlocks       = "commit_blocks"
	KeyRevealBlocks       = "reveal_blocks"
	KeySigCacheSize       = "sig_cache_size"
)

type Config struct {
	Home      string `mapstructure:"home"`
	Addr      string `mapstructure:"addr"`
	Transport string `mapstructure:"transport"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// Faucet enables unsigned bank/mint txs. Devnets only.
	Faucet bool `mapstructure:"faucet"`

	// Default phase windows (blocks) for games that do not set their own.
	RegistrationBlocks uint64 `mapstructure:"registration_blocks"`
	CommitBlocks       uint64 `mapstructure:"commit_blocks"`
	RevealBlocks       uint64 `mapstructure:"reveal_blocks"`

	SigCacheSize int `mapstructure:"sig_cache_size"`
}

func Default() Config {
	return Config{
		Home:               ".ttg",
		Addr:               "tcp://127.0.0.1:26658",
		Transport:          "socket",
		LogLevel:           "info",
		LogFormat:          "plain",
		Faucet:             false,
		RegistrationBlocks: 20,
		CommitBlocks:       20,
		RevealBlocks:       20,
		SigCacheSize:       4096,
	}
}

// DataDir is where the state database lives.
func (c Config) DataDir() string {
	return filepath.Join(c.Home, "data")
}

func (c Config) Validate() error {
	if c.Home == "" {
		return fmt.Errorf("%s must be set", KeyHome)
	}
	switch c.Transport {
	case "socket", "grpc":
	default:
		return fmt.Errorf("unknown %s %q (want socket|grpc)", KeyTransport, c.Transport)
	}
	switch c.LogFormat {
	case "plain", "json":
	default:
		return fmt.Errorf("unknown %s %q (want plain|json)", KeyLogFormat, c.LogFormat)
	}
	if c.RegistrationBlocks == 0 || c.CommitBlocks == 0 || c.RevealBlocks == 0 {
		return fmt.Errorf("phase windows must be > 0 blocks")
	}
	if c.SigCacheSize <= 0 {
		return fmt.Errorf("%s must be > 0", KeySigCacheSize)
	}
	return nil
}

// RegisterFlags adds the node flags to fs with their defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String(KeyHome, d.Home, "node home directory (state is stored under <home>/data)")
	fs.String(KeyAddr, d.Addr, "ABCI listen address")
	fs.String(KeyTransport, d.Transport, "ABCI transport (socket|grpc)")
	fs.String(KeyLogLevel, d.LogLevel, "log level (trace|debug|info|warn|error)")
	fs.String(KeyLogFormat, d.LogFormat, "log format (plain|json)")
	fs.Bool(KeyFaucet, d.Faucet, "accept unsigned bank/mint txs")
	fs.Uint64(KeyRegistrationBlocks, d.RegistrationBlocks, "default registration window in blocks")
	fs.Uint64(KeyCommitBlocks, d.CommitBlocks, "default commit window in blocks")
	fs.Uint64(KeyRevealBlocks, d.RevealBlocks, "default reveal window in blocks")
	fs.Int(KeySigCacheSize, d.SigCacheSize, "number of recovered tx signers to cache")
}

// Load resolves the config. fs may be nil.
func Load(v *viper.Viper, fs *pflag.FlagSet) (Config, error) {
	d := Default()
	v.SetDefault(KeyHome, d.Home)
	v.SetDefault(KeyAddr, d.Addr)
	v.SetDefault(KeyTransport, d.Transport)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyLogFormat, d.LogFormat)
	v.SetDefault(KeyFaucet, d.Faucet)
	v.SetDefault(KeyRegistrationBlocks, d.RegistrationBlocks)
	v.SetDefault(KeyCommitBlocks, d.CommitBlocks)
	v.SetDefault(KeyRevealBlocks, d.RevealBlocks)
	v.SetDefault(KeySigCacheSize, d.SigCacheSize)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	// The home dir itself may come from a flag or env, so read the file last.
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(v.GetString(KeyHome))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
