package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "frame.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseArgs(t *testing.T) {
	path := writeConfig(t, "width: 320\ncount: 10\nbackend: recording\ntexture_units: 4\n")

	tests := []struct {
		name    string
		args    []string
		want    demoConfig
		verbose bool
	}{
		{
			name: "defaults",
			want: defaultConfig(),
		},
		{
			name:    "flags only",
			args:    []string{"-width", "64", "-verbose"},
			want:    demoConfig{Width: 64, Height: 600, Count: 5000, CacheSize: 32},
			verbose: true,
		},
		{
			name: "config file",
			args: []string{"-config", path},
			want: demoConfig{Width: 320, Height: 600, Count: 10, Backend: "recording", TextureUnits: 4, CacheSize: 32},
		},
		{
			name: "flags override config file",
			args: []string{"-count", "7", "-config", path, "-height", "100"},
			want: demoConfig{Width: 320, Height: 100, Count: 7, Backend: "recording", TextureUnits: 4, CacheSize: 32},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, verbose, err := parseArgs(tt.args)
			if err != nil {
				t.Fatalf("parseArgs() error = %v", err)
			}
			if got != tt.want || verbose != tt.verbose {
				t.Errorf("parseArgs() = %+v, %v; want %+v, %v", got, verbose, tt.want, tt.verbose)
			}
		})
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), defaultConfig()); err == nil {
		t.Error("missing file loaded")
	}
	bad := writeConfig(t, "width: [1, 2\n")
	if _, err := loadConfig(bad, defaultConfig()); err == nil {
		t.Error("malformed YAML loaded")
	}
}
