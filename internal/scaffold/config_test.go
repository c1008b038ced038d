package scaffold

import (
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
)

func TestLoadConfig_Defaults(t *testing.T) {
	fs := memfs.New()
	if err := util.WriteFile(fs, "go.mod", []byte("module example.com/app\n\ngo 1.24\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(fs)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if cfg.Module != "example.com/app" {
		t.Errorf("Module = %q, want go.mod fallback", cfg.Module)
	}
	if cfg.PathRepository != "internal/repositories" {
		t.Errorf("PathRepository = %q", cfg.PathRepository)
	}
	if cfg.PathService != "internal/services" {
		t.Errorf("PathService = %q", cfg.PathService)
	}
	if cfg.PathModel != "internal/models" {
		t.Errorf("PathModel = %q", cfg.PathModel)
	}
	if cfg.LimitPaginate != 20 {
		t.Errorf("LimitPaginate = %d, want 20", cfg.LimitPaginate)
	}
	if cfg.BindingMode != BindingProvider {
		t.Errorf("BindingMode = %q, want provider", cfg.BindingMode)
	}
	if cfg.DumpAutoLoad || cfg.AskDumpAutoLoad {
		t.Error("autoload flags should default to false")
	}
}

func TestLoadConfig_File(t *testing.T) {
	fs := memfs.New()
	yaml := strings.Join([]string{
		"module: example.com/custom",
		"path_repository: pkg/repos",
		"path_service: pkg/svcs",
		"limit_paginate: 50",
		"dump_auto_load: true",
		"binding_mode: attribute",
	}, "\n")
	if err := util.WriteFile(fs, ConfigFile, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(fs)
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}

	if cfg.Module != "example.com/custom" {
		t.Errorf("Module = %q", cfg.Module)
	}
	if cfg.PathRepository != "pkg/repos" {
		t.Errorf("PathRepository = %q", cfg.PathRepository)
	}
	if cfg.PathService != "pkg/svcs" {
		t.Errorf("PathService = %q", cfg.PathService)
	}
	// Unset keys keep their defaults.
	if cfg.PathModel != "internal/models" {
		t.Errorf("PathModel = %q, want default", cfg.PathModel)
	}
	if cfg.LimitPaginate != 50 {
		t.Errorf("LimitPaginate = %d", cfg.LimitPaginate)
	}
	if !cfg.DumpAutoLoad {
		t.Error("DumpAutoLoad = false")
	}
	if cfg.BindingMode != BindingAttribute {
		t.Errorf("BindingMode = %q", cfg.BindingMode)
	}
}

func TestLoadConfig_InvalidBindingMode(t *testing.T) {
	fs := memfs.New()
	if err := util.WriteFile(fs, ConfigFile, []byte("module: x\nbinding_mode: magic\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(fs); err == nil {
		t.Error("LoadConfig() accepted invalid binding_mode")
	}
}

func TestLoadConfig_MissingModule(t *testing.T) {
	fs := memfs.New()

	// Neither .strata.yaml nor go.mod present.
	if _, err := LoadConfig(fs); err == nil {
		t.Error("LoadConfig() should fail without a module source")
	}

	// Malformed go.mod without a module directive.
	if err := util.WriteFile(fs, "go.mod", []byte("go 1.24\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(fs); err == nil {
		t.Error("LoadConfig() should fail on go.mod without module directive")
	}
}

func TestLoadConfig_MalformedYAML(t *testing.T) {
	fs := memfs.New()
	if err := util.WriteFile(fs, ConfigFile, []byte("module: [unclosed\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(fs); err == nil {
		t.Error("LoadConfig() accepted malformed yaml")
	}
}
