package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/phobologic/autoinstall/internal/hydrate"
)

const (
	envPrefix      = "AUTOINSTALL"
	configFileName = ".autoinstall.toml"
)

// config is the merged result of flags, AUTOINSTALL_* environment variables,
// <root>/.env and <root>/.autoinstall.toml, in that order of precedence.
type config struct {
	Root        string
	Manifest    string
	Verbose     bool
	Autoinstall bool
	DryRun      bool
	SDK         string
	Ignore      []string
}

func loadConfig(flags *pflag.FlagSet, root string) (config, error) {
	// .env never overrides variables already set in the environment.
	if err := godotenv.Load(filepath.Join(root, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config{}, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("autoinstall", true)
	v.SetDefault("sdk", hydrate.DefaultSDK)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	path := filepath.Join(root, configFileName)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return config{}, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	if err := v.BindPFlags(flags); err != nil {
		return config{}, fmt.Errorf("binding flags: %w", err)
	}

	return config{
		Root:        root,
		Manifest:    v.GetString("manifest"),
		Verbose:     v.GetBool("verbose"),
		Autoinstall: v.GetBool("autoinstall"),
		DryRun:      v.GetBool("dry-run"),
		SDK:         v.GetString("sdk"),
		Ignore:      v.GetStringSlice("ignore"),
	}, nil
}
