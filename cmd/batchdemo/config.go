package main

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// demoConfig is the frame description. It can be loaded from a YAML file
// and overridden by flags.
type demoConfig struct {
	Width        int    `yaml:"width"`
	Height       int    `yaml:"height"`
	Count        int    `yaml:"count"`
	Backend      string `yaml:"backend"`
	Output       string `yaml:"output"`
	MaxCommands  int    `yaml:"max_commands"`
	MaxCircles   int    `yaml:"max_circles"`
	TextureUnits int    `yaml:"texture_units"`
	CacheSize    int    `yaml:"cache_size"`
}

func defaultConfig() demoConfig {
	return demoConfig{Width: 800, Height: 600, Count: 5000, CacheSize: 32}
}

const maxConfigSize = 1 << 20

// loadConfig reads path over base. Keys missing from the file keep their
// value in base.
func loadConfig(path string, base demoConfig) (demoConfig, error) {
	info, err := os.Stat(path)
	if err != nil {
		return base, err
	}
	if info.Size() > maxConfigSize {
		return base, fmt.Errorf("config %s: file too large (%d bytes)", path, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return base, err
	}
	cfg := base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return base, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// bindFlags registers flags backed by cfg.
func bindFlags(fs *flag.FlagSet, cfg *demoConfig) {
	fs.IntVar(&cfg.Width, "width", cfg.Width, "frame width")
	fs.IntVar(&cfg.Height, "height", cfg.Height, "frame height")
	fs.IntVar(&cfg.Count, "count", cfg.Count, "number of sprites and circles")
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "backend name (default: best available)")
	fs.StringVar(&cfg.Output, "output", cfg.Output, "write the frame to this PNG file")
	fs.IntVar(&cfg.MaxCommands, "max-commands", cfg.MaxCommands, "commands per batch (0: default)")
	fs.IntVar(&cfg.MaxCircles, "max-circles", cfg.MaxCircles, "circles per circle batch (0: default)")
	fs.IntVar(&cfg.TextureUnits, "texture-units", cfg.TextureUnits, "texture units per batch (0: device limit)")
	fs.IntVar(&cfg.CacheSize, "cache-size", cfg.CacheSize, "resident sprite textures")
}

// parseArgs applies defaults, then the config file, then flags that were
// set explicitly.
func parseArgs(args []string) (cfg demoConfig, verbose bool, err error) {
	fs := flag.NewFlagSet("batchdemo", flag.ContinueOnError)
	cfg = defaultConfig()
	bindFlags(fs, &cfg)
	path := fs.String("config", "", "YAML file with frame settings")
	fs.BoolVar(&verbose, "verbose", false, "log every draw call")
	if err := fs.Parse(args); err != nil {
		return cfg, false, err
	}
	if *path == "" {
		return cfg, verbose, nil
	}

	fromFile, err := loadConfig(*path, defaultConfig())
	if err != nil {
		return cfg, verbose, err
	}
	// Re-parse onto the file values so explicit flags win.
	fs = flag.NewFlagSet("batchdemo", flag.ContinueOnError)
	bindFlags(fs, &fromFile)
	fs.String("config", "", "")
	fs.Bool("verbose", false, "")
	if err := fs.Parse(args); err != nil {
		return cfg, verbose, err
	}
	return fromFile, verbose, nil
}
