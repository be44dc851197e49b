// Package config loads the dxr configuration: global template and web
// settings plus one section per source tree.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dxr-dev/dxr/internal/fileutil"
)

// DefaultPath is the configuration file used when none is given.
const DefaultPath = "dxr.yaml"

var (
	// ErrMissingOption is returned by Tree.Option for unknown keys.
	ErrMissingOption = errors.New("missing option")
	// ErrTreeNotFound is returned by Config.Tree for unknown tree names.
	ErrTreeNotFound = errors.New("tree not found")
)

// Config is the resolved configuration. Relative paths in the file are
// resolved against the directory containing it.
type Config struct {
	Path string

	Templates string
	DXRRoot   string

	WWWDir   string
	VirtRoot string
	HostURL  string

	Trees []*Tree
}

// Tree is the configuration of one source tree. It satisfies
// htmlify.TreeConfig.
type Tree struct {
	name      string
	sourceDir string
	objDir    string
	database  string
	ignore    []string
	options   map[string]string
	cfg       *Config
}

type fileDoc struct {
	DXR struct {
		Templates string `yaml:"templates"`
		DXRRoot   string `yaml:"dxrroot"`
	} `yaml:"dxr"`
	Web struct {
		WWWDir   string `yaml:"wwwdir"`
		VirtRoot string `yaml:"virtroot"`
		HostURL  string `yaml:"hosturl"`
	} `yaml:"web"`
	Trees []treeDoc `yaml:"trees"`
}

type treeDoc struct {
	Name      string         `yaml:"name"`
	SourceDir string         `yaml:"sourcedir"`
	ObjDir    string         `yaml:"objdir"`
	Database  string         `yaml:"database"`
	Ignore    []string       `yaml:"ignore"`
	Options   map[string]any `yaml:",inline"`
}

// Load reads and validates the configuration at path, then applies
// environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path %s: %w", path, err)
	}

	cfg, err := Parse(data, filepath.Dir(abs))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = abs
	ApplyEnv(cfg)
	return cfg, nil
}

// Parse decodes a configuration document. baseDir anchors relative paths.
func Parse(data []byte, baseDir string) (*Config, error) {
	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{
		Templates: resolvePath(baseDir, doc.DXR.Templates),
		DXRRoot:   resolvePath(baseDir, doc.DXR.DXRRoot),
		WWWDir:    resolvePath(baseDir, doc.Web.WWWDir),
		VirtRoot:  strings.TrimRight(doc.Web.VirtRoot, "/"),
		HostURL:   doc.Web.HostURL,
	}
	if cfg.Templates == "" && cfg.DXRRoot != "" {
		cfg.Templates = filepath.Join(cfg.DXRRoot, "templates")
	}

	for _, td := range doc.Trees {
		tree := &Tree{
			name:      strings.TrimSpace(td.Name),
			sourceDir: resolvePath(baseDir, td.SourceDir),
			objDir:    resolvePath(baseDir, td.ObjDir),
			database:  resolvePath(baseDir, td.Database),
			ignore:    td.Ignore,
			options:   make(map[string]string, len(td.Options)),
			cfg:       cfg,
		}
		for key, value := range td.Options {
			tree.options[strings.ToLower(key)] = stringify(value)
		}
		cfg.Trees = append(cfg.Trees, tree)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func resolvePath(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Tree returns the tree called name.
func (c *Config) Tree(name string) (*Tree, error) {
	for _, tree := range c.Trees {
		if tree.name == name {
			return tree, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrTreeNotFound, name)
}

// TreeNames lists the configured trees in file order.
func (c *Config) TreeNames() []string {
	names := make([]string, 0, len(c.Trees))
	for _, tree := range c.Trees {
		names = append(names, tree.name)
	}
	return names
}

func (t *Tree) TreeName() string { return t.name }

// SourceDir is the root of the tree's sources.
func (t *Tree) SourceDir() string { return t.sourceDir }

func (t *Tree) ObjDir() string { return t.objDir }

// VirtRoot is the URL prefix every page link starts with.
func (t *Tree) VirtRoot() string { return t.cfg.VirtRoot }

// IgnorePatterns are extra ignore rules for the indexer.
func (t *Tree) IgnorePatterns() []string {
	return append([]string(nil), t.ignore...)
}

// OutputDir is where the tree's pages are written.
func (t *Tree) OutputDir() string {
	return filepath.Join(t.cfg.WWWDir, t.name)
}

// DatabasePath is the analysis database of the tree, by default inside the
// output directory.
func (t *Tree) DatabasePath() string {
	if t.database != "" {
		return t.database
	}
	return filepath.Join(t.OutputDir(), ".dxr", "index.db")
}

// Option looks up a free-form tree setting. Keys are case-insensitive.
func (t *Tree) Option(key string) (string, error) {
	value, ok := t.options[strings.ToLower(key)]
	if !ok {
		return "", fmt.Errorf("%w: %s in tree %s", ErrMissingOption, key, t.name)
	}
	return value, nil
}

// Options returns the free-form settings sorted by key.
func (t *Tree) Options() []Option {
	keys := fileutil.MapKeysSorted(t.options)
	out := make([]Option, 0, len(keys))
	for _, key := range keys {
		out = append(out, Option{Key: key, Value: t.options[key]})
	}
	return out
}

// Option is one free-form tree setting.
type Option struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// TemplateFile reads a template from the templates directory and expands
// the ${virtroot}, ${tree}, ${hosturl} and ${wwwdir} placeholders. Other
// placeholders are left for the renderer.
func (t *Tree) TemplateFile(name string) (string, error) {
	if t.cfg.Templates == "" {
		return "", fmt.Errorf("template %s: no templates directory configured", name)
	}
	data, err := os.ReadFile(filepath.Join(t.cfg.Templates, name))
	if err != nil {
		return "", fmt.Errorf("template %s: %w", name, err)
	}
	return strings.NewReplacer(
		"${virtroot}", t.cfg.VirtRoot,
		"${tree}", t.name,
		"${hosturl}", t.cfg.HostURL,
		"${wwwdir}", t.cfg.WWWDir,
	).Replace(string(data)), nil
}
