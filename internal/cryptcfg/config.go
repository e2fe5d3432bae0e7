// Package cryptcfg loads the process-wide configuration for the crypt core:
// the compiled-in patch secret and cache tuning knobs, layered from a config
// file with environment-variable overrides.
package cryptcfg

import (
	"fmt"

	"github.com/spf13/viper"
)

// defaultPatchSecret is the ITG2-style 47-byte ASCII secret compiled into
// the binary for patch files. It is never read from the environment at
// runtime; the patch_secret key below is a config-file override provided
// purely so tests can exercise SecretDeriver against fixture files signed
// with a different secret.
const defaultPatchSecret = "58691958710496814910943867304986071324198643072"

// Config holds the crypt core's process-wide, compiled-in-by-default
// settings.
type Config struct {
	// PatchSecret is the 47-byte ASCII secret used by SecretDeriver for
	// patch (".patch") files.
	PatchSecret string `mapstructure:"patch_secret"`

	// KeyCacheHint is a size hint for the KeyCache. It is loaded but not
	// read by any component: crypt.NewKeyCache takes no size argument.
	KeyCacheHint int `mapstructure:"key_cache_hint"`

	// MaxSubkeyBytes is a subkey_len cap setting. It is loaded but not read
	// by any component: crypt.ParseHeader enforces the fixed
	// types.MaxSubkeySize instead.
	MaxSubkeyBytes int `mapstructure:"max_subkey_bytes"`
}

// Load reads cryptvfs-config.{yaml,...} from the standard search path,
// falling back to compiled-in defaults for anything unset. Environment
// variables prefixed CRYPTVFS_ override file values (e.g.
// CRYPTVFS_KEY_CACHE_HINT). PatchSecret is read from file/default only,
// before the CRYPTVFS_ environment prefix is bound below, so no
// CRYPTVFS_PATCH_SECRET variable can override the compiled-in secret at
// runtime.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("cryptvfs-config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("$HOME/.cryptvfs")
	v.AddConfigPath("/etc/cryptvfs")

	v.SetDefault("patch_secret", defaultPatchSecret)
	v.SetDefault("key_cache_hint", 64)
	v.SetDefault("max_subkey_bytes", 4096)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("cryptcfg: read config file: %w", err)
		}
	}

	// Read before CRYPTVFS_ environment binding below so no environment
	// variable can override the compiled-in secret.
	patchSecret := v.GetString("patch_secret")

	v.SetEnvPrefix("CRYPTVFS")
	if err := v.BindEnv("key_cache_hint"); err != nil {
		return nil, fmt.Errorf("cryptcfg: bind env: %w", err)
	}
	if err := v.BindEnv("max_subkey_bytes"); err != nil {
		return nil, fmt.Errorf("cryptcfg: bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cryptcfg: unmarshal config: %w", err)
	}
	cfg.PatchSecret = patchSecret
	return &cfg, nil
}
