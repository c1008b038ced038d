package scaffold

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// Sentinel errors the CLI distinguishes from generic write failures.
var (
	ErrInvalidName    = errors.New("entity name must match ^[A-Z][A-Za-z0-9]*$")
	ErrArtifactExists = errors.New("artifact already exists")
	ErrMarkerMissing  = errors.New("provider file has no binding marker")
)

// bindMarker is the line generated bindings are inserted above.
const bindMarker = "// strata:bind"

var namePattern = regexp.MustCompile(`^[A-Z][A-Za-z0-9]*$`)

// Options are the per-invocation flags of make repository.
type Options struct {
	// Model overrides the model type name; defaults to the entity name.
	Model string
	// Force overwrites existing artifacts.
	Force bool
}

// Generator renders entity artifacts onto a filesystem. The format and
// confirm functions are swappable so tests can run against memfs without a
// toolchain or a TTY.
type Generator struct {
	fs      billy.Filesystem
	cfg     *Config
	out     io.Writer
	format  func(dirs []string) error
	confirm func(label string) bool
}

// NewGenerator creates a Generator writing to fs per cfg, reporting progress
// to out.
func NewGenerator(fs billy.Filesystem, cfg *Config, out io.Writer) *Generator {
	return &Generator{
		fs:      fs,
		cfg:     cfg,
		out:     out,
		format:  gofmtDirs,
		confirm: confirmPrompt,
	}
}

// WithFormat overrides the autoload-refresh command.
func (g *Generator) WithFormat(format func(dirs []string) error) *Generator {
	g.format = format
	return g
}

// WithConfirm overrides the interactive confirm.
func (g *Generator) WithConfirm(confirm func(label string) bool) *Generator {
	g.confirm = confirm
	return g
}

// MakeRepository renders the four entity files and, in provider binding
// mode, registers constructor bindings in both target packages. Returns the
// paths written. Already-written files are not rolled back when a later step
// fails.
func (g *Generator) MakeRepository(name string, opts Options) ([]string, error) {
	if !namePattern.MatchString(name) {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidName, name)
	}

	model := opts.Model
	if model == "" {
		model = name
	} else if !namePattern.MatchString(model) {
		return nil, fmt.Errorf("%w: got model %q", ErrInvalidName, model)
	}

	snake := snakeCase(name)
	data := entityData{
		Name:          name,
		Snake:         snake,
		Table:         pluralize(snake),
		Model:         model,
		Module:        g.cfg.Module,
		ModelImport:   path.Join(g.cfg.Module, g.cfg.PathModel),
		RepoImport:    path.Join(g.cfg.Module, g.cfg.PathRepository),
		ModelPkg:      path.Base(g.cfg.PathModel),
		RepoPkg:       path.Base(g.cfg.PathRepository),
		ServicePkg:    path.Base(g.cfg.PathService),
		LimitPaginate: g.cfg.LimitPaginate,
		Attribute:     g.cfg.BindingMode == BindingAttribute,
	}

	// Conflict check happens up front so a clash on the last artifact does
	// not leave the first three written.
	targets := make([]string, 0, len(entityTemplates))
	for _, ft := range entityTemplates {
		target := path.Join(g.targetDir(ft.dir), snake+ft.suffix)
		if !opts.Force {
			if _, err := g.fs.Stat(target); err == nil {
				return nil, fmt.Errorf("%w: %s (use --force to overwrite)", ErrArtifactExists, target)
			}
		}
		targets = append(targets, target)
	}

	var written []string
	for i, ft := range entityTemplates {
		content, err := render(ft.tmpl, data)
		if err != nil {
			return written, err
		}
		if err := g.writeFile(targets[i], content); err != nil {
			return written, err
		}
		written = append(written, targets[i])
		g.printOK(targets[i], "created")
	}

	if g.cfg.BindingMode == BindingProvider {
		repoBinding := fmt.Sprintf(
			"\tr.Bind(%q, func() any { return must(New%sRepository(db, renderer)) })",
			"repository."+snake, name)
		serviceBinding := fmt.Sprintf(
			"\tr.Bind(%q, func() any { return must(New%sServiceWith(db, renderer)) })",
			"service."+snake, name)

		providers := []struct {
			dir     string
			pkg     string
			binding string
		}{
			{g.cfg.PathRepository, data.RepoPkg, repoBinding},
			{g.cfg.PathService, data.ServicePkg, serviceBinding},
		}
		for _, p := range providers {
			providerPath, createdProvider, err := g.ensureProvider(p.dir, p.pkg)
			if err != nil {
				return written, err
			}
			if createdProvider {
				written = append(written, providerPath)
				g.printOK(providerPath, "created")
			}
			inserted, err := g.insertBinding(providerPath, p.binding)
			if err != nil {
				return written, err
			}
			if inserted {
				g.printOK(providerPath, "binding added")
			} else {
				g.printSkip(providerPath, "binding exists")
			}
		}
	}

	if err := g.refreshAutoload(); err != nil {
		return written, err
	}

	return written, nil
}

func (g *Generator) targetDir(kind string) string {
	if kind == "service" {
		return g.cfg.PathService
	}
	return g.cfg.PathRepository
}

func (g *Generator) writeFile(target string, content []byte) error {
	if err := g.fs.MkdirAll(path.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", path.Dir(target), err)
	}
	if err := util.WriteFile(g.fs, target, content, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", target, err)
	}
	return nil
}

// ensureProvider renders provider.go in dir when it does not exist yet.
func (g *Generator) ensureProvider(dir, pkg string) (string, bool, error) {
	providerPath := path.Join(dir, "provider.go")
	if _, err := g.fs.Stat(providerPath); err == nil {
		return providerPath, false, nil
	} else if !os.IsNotExist(err) {
		return "", false, fmt.Errorf("failed to stat %s: %w", providerPath, err)
	}

	var buf strings.Builder
	if err := providerTemplate.Execute(&buf, providerData{Package: pkg}); err != nil {
		return "", false, fmt.Errorf("failed to render provider template: %w", err)
	}
	if err := g.writeFile(providerPath, []byte(buf.String())); err != nil {
		return "", false, err
	}
	return providerPath, true, nil
}

// insertBinding adds one registration line above the marker, preserving
// prior entries. Returns false without modifying the file when an identical
// binding name is already registered.
func (g *Generator) insertBinding(providerPath, binding string) (bool, error) {
	data, err := util.ReadFile(g.fs, providerPath)
	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", providerPath, err)
	}
	content := string(data)

	// Dedup on the quoted binding name, not the whole line, so a manually
	// reformatted entry still counts.
	name := binding[strings.Index(binding, `"`) : strings.LastIndex(binding, `"`)+1]
	if strings.Contains(content, "r.Bind("+name) {
		return false, nil
	}

	idx := strings.Index(content, bindMarker)
	if idx < 0 {
		return false, fmt.Errorf("%w: %s", ErrMarkerMissing, providerPath)
	}
	lineStart := strings.LastIndex(content[:idx], "\n") + 1

	updated := content[:lineStart] + binding + "\n" + content[lineStart:]
	if err := util.WriteFile(g.fs, providerPath, []byte(updated), 0o644); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", providerPath, err)
	}
	return true, nil
}

// refreshAutoload reformats the touched directories per the three-way
// config: always when dump_auto_load, after a confirm when
// ask_dump_auto_load, otherwise never.
func (g *Generator) refreshAutoload() error {
	run := g.cfg.DumpAutoLoad
	if !run && g.cfg.AskDumpAutoLoad {
		run = g.confirm("Reformat generated packages")
	}
	if !run {
		return nil
	}

	dirs := []string{g.cfg.PathRepository, g.cfg.PathService}
	if err := g.format(dirs); err != nil {
		return fmt.Errorf("autoload refresh failed: %w", err)
	}
	for _, dir := range dirs {
		g.printOK(dir, "formatted")
	}
	return nil
}

func gofmtDirs(dirs []string) error {
	args := append([]string{"-w"}, dirs...)
	cmd := exec.Command("gofmt", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("gofmt: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (g *Generator) printOK(target, verb string) {
	fmt.Fprintf(g.out, "%s %s (%s)\n", color.GreenString("ok"), target, verb)
}

func (g *Generator) printSkip(target, reason string) {
	fmt.Fprintf(g.out, "%s %s (%s)\n", color.YellowString("--"), target, reason)
}

// snakeCase converts an UpperCamelCase entity name to snake_case, keeping
// acronym runs together (APIToken becomes api_token).
func snakeCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
				nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
				if prevLower || nextLower {
					b.WriteByte('_')
				}
			}
			b.WriteRune(r - 'A' + 'a')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// pluralize derives a table name from a snake_case entity name.
func pluralize(snake string) string {
	switch {
	case strings.HasSuffix(snake, "s"), strings.HasSuffix(snake, "x"),
		strings.HasSuffix(snake, "ch"), strings.HasSuffix(snake, "sh"):
		return snake + "es"
	case strings.HasSuffix(snake, "y") && len(snake) > 1 && !isVowel(snake[len(snake)-2]):
		return snake[:len(snake)-1] + "ies"
	default:
		return snake + "s"
	}
}

func isVowel(c byte) bool {
	return strings.ContainsRune("aeiou", rune(c))
}
