// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ide

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/bureau-foundation/molt/lib/project"
)

func testProject(t *testing.T, root string) *project.Project {
	t.Helper()
	client, err := project.NewRunConfig().
		Name("client").
		MainClass("net.fabricmc.loader.launch.knot.KnotClient").
		WorkingDir(filepath.Join(root, "run")).
		VMArgs("-Dfabric.development=true", "-Xmx2G").
		Classpath("/cache/named.jar", "/cache/loader.jar").
		ResourcePaths(filepath.Join(root, "src/main/resources")).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	server, err := project.NewRunConfig().
		Name("server").
		MainClass("net.fabricmc.loader.launch.knot.KnotServer").
		WorkingDir(filepath.Join(root, "run")).
		Args("nogui").
		Build()
	if err != nil {
		t.Fatal(err)
	}
	built, err := project.NewProject().
		Name("example-mod").
		SourcePath(filepath.Join(root, "src/main/java")).
		ResourcePaths(filepath.Join(root, "src/main/resources")).
		Dependencies(
			project.Dependency{Jar: "/cache/named.jar", Sources: "/cache/named-sources.jar"},
			project.Dependency{Jar: "/cache/loader.jar"},
		).
		RunConfigs(client, server).
		JavaVersion(17).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	return built
}

func readJSON(t *testing.T, path string, target any) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("%s is not plain JSON: %v\n%s", path, err, data)
	}
}

func TestVSCodeLaunch(t *testing.T) {
	root := t.TempDir()
	if err := (VSCode{}).Generate(root, testProject(t, root)); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var launch struct {
		Version        string                `json:"version"`
		Configurations []launchConfiguration `json:"configurations"`
	}
	readJSON(t, filepath.Join(root, ".vscode", "launch.json"), &launch)
	if launch.Version != launchVersion {
		t.Errorf("version = %q", launch.Version)
	}
	if len(launch.Configurations) != 2 {
		t.Fatalf("configurations = %+v", launch.Configurations)
	}
	client := launch.Configurations[0]
	if client.Name != "client" || client.MainClass != "net.fabricmc.loader.launch.knot.KnotClient" {
		t.Errorf("client = %+v", client)
	}
	if client.VMArgs != "-Dfabric.development=true -Xmx2G" {
		t.Errorf("vmArgs = %q", client.VMArgs)
	}
	wantClasspath := []string{filepath.Join(root, "src/main/resources"), "/cache/named.jar", "/cache/loader.jar"}
	if !slices.Equal(client.ClassPaths, wantClasspath) {
		t.Errorf("classPaths = %v, want %v", client.ClassPaths, wantClasspath)
	}
	if server := launch.Configurations[1]; server.Args != "nogui" || server.ClassPaths == nil {
		t.Errorf("server = %+v", server)
	}

	if info, err := os.Stat(filepath.Join(root, "run")); err != nil || !info.IsDir() {
		t.Errorf("run directory not created: %v", err)
	}
}

func TestVSCodeMergesExistingFiles(t *testing.T) {
	root := t.TempDir()
	directory := filepath.Join(root, ".vscode")
	if err := os.MkdirAll(directory, 0o755); err != nil {
		t.Fatal(err)
	}
	existingLaunch := `{
	// Hand-written by the user.
	"version": "0.2.0",
	"configurations": [
		{"type": "java", "name": "client", "request": "launch", "mainClass": "Stale"},
		{"type": "node", "name": "docs server", "request": "launch",},
	],
}`
	existingSettings := `{
	/* keep this */
	"editor.tabSize": 4,
	"java.project.sourcePaths": ["stale"],
}`
	if err := os.WriteFile(filepath.Join(directory, "launch.json"), []byte(existingLaunch), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(directory, "settings.json"), []byte(existingSettings), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := (VSCode{}).Generate(root, testProject(t, root)); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var launch struct {
		Configurations []map[string]any `json:"configurations"`
	}
	readJSON(t, filepath.Join(directory, "launch.json"), &launch)
	var names []string
	for _, configuration := range launch.Configurations {
		names = append(names, configuration["name"].(string))
		if configuration["name"] == "client" && configuration["mainClass"] == "Stale" {
			t.Error("stale client configuration survived")
		}
	}
	if !slices.Equal(names, []string{"client", "server", "docs server"}) {
		t.Errorf("configuration names = %v", names)
	}

	var settings map[string]any
	readJSON(t, filepath.Join(directory, "settings.json"), &settings)
	if settings["editor.tabSize"] != float64(4) {
		t.Errorf("user setting lost: %v", settings)
	}
	sourcePaths, _ := settings[settingSourcePaths].([]any)
	if len(sourcePaths) != 2 || sourcePaths[0] != filepath.Join(root, "src/main/java") {
		t.Errorf("sourcePaths = %v", sourcePaths)
	}
	libraries, _ := settings[settingReferencedLibs].(map[string]any)
	sources, _ := libraries["sources"].(map[string]any)
	if sources["/cache/named.jar"] != "/cache/named-sources.jar" {
		t.Errorf("referencedLibraries = %v", libraries)
	}
}

func TestVSCodeRejectsUnparseableLaunch(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ".vscode", "launch.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := (VSCode{}).Generate(root, testProject(t, root)); err == nil {
		t.Fatal("Generate overwrote an unparseable launch.json")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "{not json" {
		t.Error("unparseable launch.json was modified")
	}
}

func TestNetBeans(t *testing.T) {
	root := t.TempDir()
	if err := (NetBeans{}).Generate(root, testProject(t, root)); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "nbproject", "project.properties"))
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{
		"application.title=example-mod\n",
		"javac.source=17\n",
		"javac.classpath=/cache/named.jar:/cache/loader.jar\n",
		"main.class=net.fabricmc.loader.launch.knot.KnotClient\n",
		"src.src.dir=" + filepath.Join(root, "src/main/java") + "\n",
		"source.roots=${src.src.dir}:${resources.0.dir}\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("project.properties missing %q:\n%s", want, text)
		}
	}

	server, err := os.ReadFile(filepath.Join(root, "nbproject", "configs", "server.properties"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(server), "application.args=nogui\n") || !strings.Contains(string(server), "$label=server\n") {
		t.Errorf("server.properties:\n%s", server)
	}
}

func TestEscapeProperty(t *testing.T) {
	tests := []struct {
		text string
		key  bool
		want string
	}{
		{"plain", false, "plain"},
		{"a=b:c", true, `a\=b\:c`},
		{"a=b:c", false, "a=b:c"},
		{" leading", false, `\ leading`},
		{"two words", true, `two\ words`},
		{"two words", false, "two words"},
		{`C:\mods`, false, `C:\\mods`},
		{"café", false, `caf\u00E9`},
		{"\U0001F600", false, `\uD83D\uDE00`},
	}
	for _, test := range tests {
		if got := escapeProperty(test.text, test.key); got != test.want {
			t.Errorf("escapeProperty(%q, %v) = %q, want %q", test.text, test.key, got, test.want)
		}
	}
}

func TestGenerators(t *testing.T) {
	var names []string
	for _, generator := range Generators() {
		names = append(names, generator.Name())
	}
	if !slices.Equal(names, []string{"vscode", "netbeans"}) {
		t.Errorf("Generators() = %v", names)
	}
}
