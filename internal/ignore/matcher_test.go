package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMatcher_DefaultAndUserOverrides(t *testing.T) {
	m := NewMatcher([]string{
		"vendor/**",
		"!vendor/keep/file.go",
		"*.tmp",
	})

	cases := []struct {
		path    string
		isDir   bool
		ignored bool
	}{
		{path: ".git/config", isDir: false, ignored: true},
		{path: ".hg", isDir: true, ignored: true},
		{path: "www/.dxr/index.db", isDir: false, ignored: true},
		{path: "node_modules/pkg/index.js", isDir: false, ignored: true},
		{path: "lib/__pycache__/mod.pyc", isDir: false, ignored: true},
		{path: "patch.rej", isDir: false, ignored: true},
		{path: "vendor/lib/a.go", isDir: false, ignored: true},
		{path: "vendor/keep/file.go", isDir: false, ignored: false},
		{path: "nested/cache.tmp", isDir: false, ignored: true},
		{path: "src/main.go", isDir: false, ignored: false},
	}

	for _, tc := range cases {
		got := m.ShouldIgnore(tc.path, tc.isDir)
		if got != tc.ignored {
			t.Fatalf("path %s: expected ignored=%v, got %v", tc.path, tc.ignored, got)
		}
	}
}

func TestMatcher_NegatedDirectoryRule(t *testing.T) {
	m := NewMatcher([]string{
		"build/",
		"!build/include/",
	})

	if !m.ShouldIgnore("build/out/file.go", false) {
		t.Fatalf("expected build/out/file.go to be ignored")
	}
	if m.ShouldIgnore("build/include/file.go", false) {
		t.Fatalf("expected build/include/file.go to be included")
	}
}

func TestMatcher_DirectoryRuleSkipsFilesOfSameName(t *testing.T) {
	m := NewMatcher([]string{"logs/"})

	if m.ShouldIgnore("src/logs", false) {
		t.Fatalf("expected file src/logs to be included")
	}
	if !m.ShouldIgnore("src/logs", true) {
		t.Fatalf("expected directory src/logs to be ignored")
	}
	if !m.ShouldIgnore("src/logs/today.txt", false) {
		t.Fatalf("expected src/logs/today.txt to be ignored")
	}
}

func TestMatcher_AnchoredRule(t *testing.T) {
	m := NewMatcher([]string{"/generated.go"})

	if !m.ShouldIgnore("generated.go", false) {
		t.Fatalf("expected root generated.go to be ignored")
	}
	if m.ShouldIgnore("pkg/generated.go", false) {
		t.Fatalf("expected pkg/generated.go to be included")
	}
}

func TestLoad_ReadsIgnoreFile(t *testing.T) {
	root := t.TempDir()
	content := "# generated sources\n\nobj/\n!obj/keep.h\n"
	if err := os.WriteFile(filepath.Join(root, FileName), []byte(content), 0644); err != nil {
		t.Fatalf("write ignore file: %v", err)
	}

	m, err := Load(root, []string{"*.log"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !m.ShouldIgnore("obj/a.o", false) {
		t.Fatalf("expected obj/a.o to be ignored")
	}
	if m.ShouldIgnore("obj/keep.h", false) {
		t.Fatalf("expected obj/keep.h to be included")
	}
	if !m.ShouldIgnore("run.log", false) {
		t.Fatalf("expected configured pattern to apply")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	m, err := Load(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.ShouldIgnore("src/main.go", false) {
		t.Fatalf("expected src/main.go to be included")
	}
}
