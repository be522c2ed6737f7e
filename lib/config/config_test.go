// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/molt/lib/compress"
)

const minimalConfig = `
mod:
  id: example
  version: 1.0.0
minecraft:
  coordinate: com.mojang:minecraft:1.18.2:client
mappings:
  - net.fabricmc:intermediary:1.18.2:v2
  - net.fabricmc:yarn:1.18.2+build.3:v2
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Mod.JavaVersion != 8 {
		t.Errorf("expected java_version=8, got %d", cfg.Mod.JavaVersion)
	}
	if !slices.Equal(cfg.Compiler.Command, []string{"javac"}) {
		t.Errorf("expected compiler command [javac], got %v", cfg.Compiler.Command)
	}
	if !cfg.Resolver.VerifyChecksums {
		t.Error("expected verify_checksums=true")
	}
	if cfg.Cache.SnapshotCompression != "lz4" {
		t.Errorf("expected snapshot_compression=lz4, got %s", cfg.Cache.SnapshotCompression)
	}
	if len(cfg.Repositories) == 0 {
		t.Error("expected default repositories")
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("HOME", "/home/modder")
	path := writeConfig(t, minimalConfig)
	projectDir := filepath.Dir(path)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() failed: %v", err)
	}

	if cfg.Mod.ID != "example" || cfg.Mod.Version != "1.0.0" {
		t.Errorf("mod = %+v", cfg.Mod)
	}
	if cfg.Paths.Project != projectDir {
		t.Errorf("expected project=%s, got %s", projectDir, cfg.Paths.Project)
	}
	if want := filepath.Join(projectDir, "build"); cfg.Paths.Build != want {
		t.Errorf("expected build=%s, got %s", want, cfg.Paths.Build)
	}
	if cfg.Paths.LocalRepository != "/home/modder/.cache/molt/repository" {
		t.Errorf("expected HOME-relative repository, got %s", cfg.Paths.LocalRepository)
	}
	if want := filepath.Join(projectDir, "src/main/java"); cfg.Mod.Sources["main"] != want {
		t.Errorf("expected default source root %s, got %v", want, cfg.Mod.Sources)
	}
	// Defaults the file did not mention survive.
	if cfg.Mod.JavaVersion != 8 || !cfg.Resolver.FetchSources {
		t.Errorf("defaults lost: java_version=%d fetch_sources=%v", cfg.Mod.JavaVersion, cfg.Resolver.FetchSources)
	}
	if cfg.ResolverTimeout() != 5*time.Minute {
		t.Errorf("expected timeout=5m, got %v", cfg.ResolverTimeout())
	}
	if cfg.SnapshotCodec() != compress.LZ4 {
		t.Errorf("expected lz4 codec, got %v", cfg.SnapshotCodec())
	}
}

func TestLoadFileReplacesCollections(t *testing.T) {
	path := writeConfig(t, `
minecraft:
  path: jars/client.jar
mappings:
  - net.fabricmc:intermediary:1.18.2:v2
repositories:
  - file://${PROJECT_DIR}/repo
mod:
  id: example
  version: 1.0.0
  sources:
    client: src/client/java
  resources: []
compiler:
  command: [ecj, -nowarn]
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}
	projectDir := filepath.Dir(path)

	if want := []string{"file://" + projectDir + "/repo"}; !slices.Equal(cfg.Repositories, want) {
		t.Errorf("repositories = %v, want %v", cfg.Repositories, want)
	}
	if got := cfg.SourceNames(); !slices.Equal(got, []string{"client"}) {
		t.Errorf("source names = %v, want only the file's root", got)
	}
	if len(cfg.Mod.Resources) != 0 {
		t.Errorf("resources = %v, want none", cfg.Mod.Resources)
	}
	if !slices.Equal(cfg.Compiler.Command, []string{"ecj", "-nowarn"}) {
		t.Errorf("compiler = %v", cfg.Compiler.Command)
	}
	if want := filepath.Join(projectDir, "jars", "client.jar"); cfg.Minecraft.Path != want {
		t.Errorf("minecraft.path = %s, want %s", cfg.Minecraft.Path, want)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() failed: %v", err)
	}
}

func TestLoadFileRejectsBadYAML(t *testing.T) {
	path := writeConfig(t, "mod: [unterminated")
	if _, err := LoadFile(path); err == nil {
		t.Fatal("expected parse error, got nil")
	}
}

func TestFind(t *testing.T) {
	t.Setenv(EnvironmentVariable, "")
	dir := t.TempDir()

	if _, err := Find(dir); err == nil || !strings.Contains(err.Error(), FileName) {
		t.Errorf("expected missing-file error naming %s, got %v", FileName, err)
	}

	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(minimalConfig), 0644); err != nil {
		t.Fatal(err)
	}
	found, err := Find(dir)
	if err != nil || found != path {
		t.Errorf("Find() = %q, %v; want %q", found, err, path)
	}

	t.Setenv(EnvironmentVariable, "/elsewhere/molt.yaml")
	if found, _ := Find(dir); found != "/elsewhere/molt.yaml" {
		t.Errorf("expected %s to win, got %q", EnvironmentVariable, found)
	}
}

func TestEnvVarsDoNotOverride(t *testing.T) {
	// Setting an environment variable with a field's name must not
	// change the loaded value.
	t.Setenv("MOLT_MOD_ID", "hijacked")
	cfg, err := LoadFile(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Mod.ID != "example" {
		t.Errorf("expected mod id from file, got %s", cfg.Mod.ID)
	}
}

func TestExpandVars(t *testing.T) {
	t.Setenv("MOLT_TEST_VAR", "from-env")

	tests := []struct {
		input    string
		vars     map[string]string
		expected string
	}{
		{"${HOME}/x", map[string]string{"HOME": "/home/a"}, "/home/a/x"},
		{"${PROJECT_DIR}/build", map[string]string{"PROJECT_DIR": "/work/mod"}, "/work/mod/build"},
		{"${MOLT_TEST_VAR}", nil, "from-env"},
		{"${MOLT_UNSET_VAR:-fallback}/cache", nil, "fallback/cache"},
		{"${MOLT_UNSET_VAR}", nil, ""},
		{"no variables", nil, "no variables"},
	}
	for _, test := range tests {
		if got := expandVars(test.input, test.vars); got != test.expected {
			t.Errorf("expandVars(%q) = %q, want %q", test.input, got, test.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Mod.ID = "example"
		cfg.Mod.Version = "1.0.0"
		cfg.Minecraft.Coordinate = "com.mojang:minecraft:1.18.2:client"
		cfg.Mappings = []string{"net.fabricmc:intermediary:1.18.2:v2"}
		return cfg
	}
	if err := valid().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing mod id", func(c *Config) { c.Mod.ID = "" }, "mod.id"},
		{"missing version", func(c *Config) { c.Mod.Version = "" }, "mod.version"},
		{"no platform", func(c *Config) { c.Minecraft.Coordinate = "" }, "minecraft.coordinate or minecraft.path"},
		{"both platforms", func(c *Config) { c.Minecraft.Path = "/jars/client.jar" }, "mutually exclusive"},
		{"bad coordinate", func(c *Config) { c.Dependencies = []string{"not-a-coordinate"} }, "dependencies[0]"},
		{"bad loader", func(c *Config) { c.Loader = "a:b" }, "loader"},
		{"no mappings", func(c *Config) { c.Mappings = nil }, "mappings"},
		{"unknown compression", func(c *Config) { c.Cache.SnapshotCompression = "brotli" }, "snapshot_compression"},
		{"bad timeout", func(c *Config) { c.Resolver.Timeout = "soon" }, "resolver.timeout"},
		{"negative parallelism", func(c *Config) { c.Tasks.Parallelism = -1 }, "tasks.parallelism"},
		{"decompiler without output", func(c *Config) {
			c.Decompiler = DecompilerConfig{Name: "cfr", Command: []string{"cfr", "{input}"}}
		}, "{output}"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := valid()
			test.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), test.want) {
				t.Errorf("error %q does not mention %q", err, test.want)
			}
		})
	}
}

func TestValidateReportsEverything(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected errors for an empty config")
	}
	for _, want := range []string{"mod.id", "mod.version", "minecraft", "mappings"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error does not mention %s: %v", want, err)
		}
	}
}

func TestEnsurePaths(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.Paths.LocalRepository = filepath.Join(root, "repository")
	cfg.Paths.StageCache = filepath.Join(root, "stages")
	cfg.Paths.Build = filepath.Join(root, "project", "build")

	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths() failed: %v", err)
	}
	for _, path := range []string{cfg.Paths.LocalRepository, cfg.Paths.StageCache, cfg.Paths.Build} {
		if info, err := os.Stat(path); err != nil || !info.IsDir() {
			t.Errorf("expected directory %s: %v", path, err)
		}
	}
}
