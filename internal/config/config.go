// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config loads go-scoper settings from the extra.strauss object of
// composer.json, GO_SCOPER_* environment variables and command-line flags,
// and compiles every pattern before any work starts.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"

	"github.com/petar-djukic/go-scoper/internal/composer"
	"github.com/petar-djukic/go-scoper/internal/fsys"
)

// EnvPrefix is the prefix of environment variables that override settings.
const EnvPrefix = "GO_SCOPER"

const (
	defaultTargetDirectory = "vendor-prefixed"
	defaultVendorDirectory = "vendor"
)

var (
	// ErrInvalidConfig is returned when settings are missing or malformed.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrNoComposerJSON is returned when the project has no composer.json.
	ErrNoComposerJSON = errors.New("composer.json not found")
)

// Keys that flags and environment variables may override.
var overrideKeys = []string{
	"target_directory",
	"vendor_directory",
	"namespace_prefix",
	"classmap_prefix",
	"functions_prefix",
	"constants_prefix",
	"packages",
	"delete_vendor_files",
	"delete_vendor_packages",
	"include_aliases",
	"dry_run",
}

// Config is the resolved configuration of one run.
type Config struct {
	ProjectDir  string `mapstructure:"-"`
	ProjectName string `mapstructure:"-"`

	TargetDirectory string `mapstructure:"target_directory"` // relative to ProjectDir unless absolute
	VendorDirectory string `mapstructure:"vendor_directory"` // relative to ProjectDir unless absolute

	NamespacePrefix string `mapstructure:"namespace_prefix"` // stored without surrounding separators
	ClassmapPrefix  string `mapstructure:"classmap_prefix"`
	FunctionsPrefix string `mapstructure:"functions_prefix"`
	ConstantsPrefix string `mapstructure:"constants_prefix"`

	Packages []string `mapstructure:"packages"`

	ExcludeFromCopy   Exclusion `mapstructure:"exclude_from_copy"`
	ExcludeFromPrefix Exclusion `mapstructure:"exclude_from_prefix"`

	// ReplacementPatterns keep composer.json order; viper would lower-case
	// and reorder the keys, so they are read from the ordered document.
	ReplacementPatterns []composer.ReplacementPattern `mapstructure:"-"`

	DeleteVendorFiles    bool `mapstructure:"delete_vendor_files"`
	DeleteVendorPackages bool `mapstructure:"delete_vendor_packages"`
	IncludeAliases       bool `mapstructure:"include_aliases"`
	DryRun               bool `mapstructure:"dry_run"`

	rules []ReplacementRule
}

// ReplacementRule is a compiled namespace replacement pattern.
type ReplacementRule struct {
	Source   string
	Regexp   *regexp.Regexp
	Template string
}

// Load reads composer.json from projectDir and layers environment variables
// and the overrides set in flags (nil for none) on top of its extra.strauss
// settings. The result is validated and compiled.
func Load(fs *fsys.FileSystem, projectDir string, flags *viper.Viper) (*Config, error) {
	data, err := fs.Read(filepath.Join(projectDir, "composer.json"))
	if err != nil {
		return nil, fmt.Errorf("%w in %s: %v", ErrNoComposerJSON, projectDir, err)
	}
	return Parse(data, projectDir, flags)
}

// Parse builds a Config from composer.json content.
func Parse(composerJSON []byte, projectDir string, flags *viper.Viper) (*Config, error) {
	project, err := composer.ParseProject(composerJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	doc := viper.New()
	doc.SetConfigType("json")
	if err := doc.ReadConfig(bytes.NewReader(composerJSON)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	v := doc.Sub("extra.strauss")
	if v == nil {
		v = viper.New()
	}
	v.SetDefault("target_directory", defaultTargetDirectory)
	v.SetDefault("vendor_directory", defaultVendorDirectory)
	v.SetDefault("include_aliases", true)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range overrideKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	if flags != nil {
		for _, key := range overrideKeys {
			if flags.IsSet(key) {
				v.Set(key, flags.Get(key))
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg.ProjectDir = projectDir
	cfg.ProjectName = project.Name
	if cfg.ReplacementPatterns, err = project.ReplacementPatterns(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	applyDefaults(cfg, project)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills in settings the project did not configure.
func applyDefaults(cfg *Config, project *composer.Project) {
	nsPrefix, classPrefix := prefixesFromName(project.Name)
	if cfg.NamespacePrefix == "" {
		cfg.NamespacePrefix = nsPrefix
	}
	cfg.NamespacePrefix = strings.Trim(cfg.NamespacePrefix, `\`)
	if cfg.ClassmapPrefix == "" {
		cfg.ClassmapPrefix = classPrefix
	}
	if cfg.FunctionsPrefix == "" {
		cfg.FunctionsPrefix = strings.ToLower(cfg.ClassmapPrefix)
	}
	if cfg.ConstantsPrefix == "" {
		cfg.ConstantsPrefix = strings.ToUpper(cfg.ClassmapPrefix)
	}
	if len(cfg.Packages) == 0 {
		cfg.Packages = append([]string(nil), project.Require...)
	}
	if cfg.TargetDirectory == "" {
		cfg.TargetDirectory = defaultTargetDirectory
	}
	if cfg.VendorDirectory == "" {
		cfg.VendorDirectory = defaultVendorDirectory
	}
}

// prefixesFromName derives "Vendor\Package" and "Vendor_Package_" from a
// composer name such as "vendor/package".
func prefixesFromName(name string) (namespace, classmap string) {
	vendor, pkg, ok := strings.Cut(name, "/")
	if !ok || vendor == "" || pkg == "" {
		return "", ""
	}
	v, p := studly(vendor), studly(pkg)
	return v + `\` + p, v + "_" + p + "_"
}

// studly turns "my-package_name" into "MyPackageName".
func studly(s string) string {
	var b strings.Builder
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' || r == '.' }) {
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// Validate checks required settings and compiles every pattern. It is
// called by Load; callers that build a Config by hand call it themselves.
func (c *Config) Validate() error {
	var problems []string
	if c.NamespacePrefix == "" {
		problems = append(problems, "namespace_prefix is required when composer.json has no name")
	}
	if c.ClassmapPrefix == "" {
		problems = append(problems, "classmap_prefix is required when composer.json has no name")
	}
	if c.TargetDirectory == "" {
		problems = append(problems, "target_directory is required")
	}
	if c.VendorDirectory == "" {
		problems = append(problems, "vendor_directory is required")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}

	c.rules = c.rules[:0]
	for _, p := range c.ReplacementPatterns {
		re, err := CompilePattern(p.Pattern)
		if err != nil {
			return fmt.Errorf("%w: namespace_replacement_patterns: %v", ErrInvalidConfig, err)
		}
		c.rules = append(c.rules, ReplacementRule{
			Source:   p.Pattern,
			Regexp:   re,
			Template: ConvertTemplate(p.Template),
		})
	}
	if err := c.ExcludeFromCopy.compile(); err != nil {
		return fmt.Errorf("%w: exclude_from_copy: %v", ErrInvalidConfig, err)
	}
	if err := c.ExcludeFromPrefix.compile(); err != nil {
		return fmt.Errorf("%w: exclude_from_prefix: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Rules returns the compiled namespace replacement patterns in priority
// order. Validate must have succeeded.
func (c *Config) Rules() []ReplacementRule { return c.rules }

// VendorDir returns the absolute vendor directory.
func (c *Config) VendorDir() string { return c.resolve(c.VendorDirectory) }

// TargetDir returns the absolute target directory.
func (c *Config) TargetDir() string { return c.resolve(c.TargetDirectory) }

// TargetIsVendor reports whether packages are rewritten in place.
func (c *Config) TargetIsVendor() bool {
	return filepath.Clean(c.VendorDir()) == filepath.Clean(c.TargetDir())
}

func (c *Config) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(c.ProjectDir, dir)
}
