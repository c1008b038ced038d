// Package scaffold renders repository/service source files for an entity and
// registers their constructor bindings in the target project's provider
// files.
package scaffold

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"
)

// ConfigFile is the project-local configuration file name.
const ConfigFile = ".strata.yaml"

// Binding modes. Provider mode appends registration lines to provider.go
// files; attribute mode emits a directive comment on the generated types
// instead.
const (
	BindingProvider  = "provider"
	BindingAttribute = "attribute"
)

// Config controls where artifacts land and how bindings are registered.
type Config struct {
	Module          string `yaml:"module"`
	PathRepository  string `yaml:"path_repository"`
	PathService     string `yaml:"path_service"`
	PathModel       string `yaml:"path_model"`
	LimitPaginate   int    `yaml:"limit_paginate"`
	DumpAutoLoad    bool   `yaml:"dump_auto_load"`
	AskDumpAutoLoad bool   `yaml:"ask_dump_auto_load"`
	BindingMode     string `yaml:"binding_mode"`
}

// DefaultConfig returns the configuration used when .strata.yaml is absent
// or leaves keys unset.
func DefaultConfig() *Config {
	return &Config{
		PathRepository: "internal/repositories",
		PathService:    "internal/services",
		PathModel:      "internal/models",
		LimitPaginate:  20,
		BindingMode:    BindingProvider,
	}
}

// LoadConfig reads .strata.yaml from the filesystem root, fills unset keys
// with defaults, and falls back to the go.mod module path when the module
// key is absent.
func LoadConfig(fs billy.Filesystem) (*Config, error) {
	cfg := DefaultConfig()

	data, err := util.ReadFile(fs, ConfigFile)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read %s: %w", ConfigFile, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", ConfigFile, err)
		}
	}

	if cfg.PathRepository == "" {
		cfg.PathRepository = "internal/repositories"
	}
	if cfg.PathService == "" {
		cfg.PathService = "internal/services"
	}
	if cfg.PathModel == "" {
		cfg.PathModel = "internal/models"
	}
	if cfg.LimitPaginate <= 0 {
		cfg.LimitPaginate = 20
	}
	if cfg.BindingMode == "" {
		cfg.BindingMode = BindingProvider
	}
	if cfg.BindingMode != BindingProvider && cfg.BindingMode != BindingAttribute {
		return nil, fmt.Errorf("invalid binding_mode %q: must be %q or %q",
			cfg.BindingMode, BindingProvider, BindingAttribute)
	}

	if cfg.Module == "" {
		module, err := modulePath(fs)
		if err != nil {
			return nil, err
		}
		cfg.Module = module
	}

	return cfg, nil
}

// modulePath extracts the module path from go.mod at the filesystem root.
func modulePath(fs billy.Filesystem) (string, error) {
	data, err := util.ReadFile(fs, "go.mod")
	if err != nil {
		return "", fmt.Errorf("module not set in %s and go.mod unreadable: %w", ConfigFile, err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "module "); ok {
			return strings.TrimSpace(rest), nil
		}
	}
	return "", fmt.Errorf("no module directive in go.mod")
}
