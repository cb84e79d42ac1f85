package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override. Nested keys use a double
// underscore: REDIRECTLINT_CHECK__TIMEOUT=5s sets check.timeout.
const EnvPrefix = "REDIRECTLINT_"

// LoadOptions controls where LoadConfig looks for settings.
type LoadOptions struct {
	// ConfigFile is an explicit config file path. When empty, ConfigFileName
	// inside the root directory is used if it exists.
	ConfigFile string
	// Overrides are dotted keys set on the command line. They win over every
	// other layer.
	Overrides map[string]any
}

// LoadConfig layers DefaultConfig, the config file, REDIRECTLINT_* environment
// variables and command-line overrides, in that order.
func LoadConfig(opts LoadOptions) (Config, error) {
	cfg := DefaultConfig()

	// Env and flags decide the root, which decides where the default config file lives.
	pre := koanf.New(".")
	if err := loadEnvAndOverrides(pre, opts.Overrides); err != nil {
		return cfg, err
	}
	root := cfg.RootDir
	if pre.Exists("root") {
		root = pre.String("root")
	}

	k := koanf.New(".")
	path, explicit := opts.ConfigFile, opts.ConfigFile != ""
	if !explicit {
		path = filepath.Join(root, ConfigFileName)
	}
	if err := k.Load(file.Provider(path), kyaml.Parser()); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}
	if err := loadEnvAndOverrides(k, opts.Overrides); err != nil {
		return cfg, err
	}

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.DecodeHookFuncType(splitListHook),
			),
			Result:           &cfg,
			WeaklyTypedInput: true,
			TagName:          "koanf",
		},
	}); err != nil {
		return cfg, fmt.Errorf("failed to decode config: %w", err)
	}

	// GitHub Actions debug logging.
	if os.Getenv("RUNNER_DEBUG") != "" {
		cfg.Verbose = true
	}
	if cfg.Verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func loadEnvAndOverrides(k *koanf.Koanf, overrides map[string]any) error {
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return fmt.Errorf("failed to load environment: %w", err)
	}
	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return fmt.Errorf("failed to load overrides: %w", err)
		}
	}
	return nil
}

// envKey maps REDIRECTLINT_CHECK__BROKEN_STATUSES to check.broken_statuses.
func envKey(name string) string {
	name = strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
	return strings.ReplaceAll(name, "__", ".")
}

// splitListHook splits comma-separated strings for any slice target, so
// REDIRECTLINT_CHECK__BROKEN_STATUSES=404,410 decodes into []int.
func splitListHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Slice {
		return data, nil
	}
	raw := strings.TrimSpace(reflect.ValueOf(data).String())
	if raw == "" {
		return []string{}, nil
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, nil
}
