package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"hlsenc/internal/config"
	"hlsenc/internal/testsupport"
)

type cliEnv struct {
	cfg        *config.Config
	configPath string
	inputDir   string
}

// setupCLITestEnv writes a config pointing at stub tools that report the
// given codecs and returns the paths a test needs.
func setupCLITestEnv(t *testing.T, videoCodec, audioCodec string, opts ...testsupport.ConfigOption) cliEnv {
	t.Helper()
	opts = append([]testsupport.ConfigOption{testsupport.WithStubbedTools(videoCodec, audioCodec)}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	return cliEnv{
		cfg:        cfg,
		configPath: writeTestConfig(t, base, cfg),
		inputDir:   filepath.Join(base, "media"),
	}
}

func writeTestConfig(t *testing.T, dir string, cfg *config.Config) string {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(dir, "hlsenc.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
