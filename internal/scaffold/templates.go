package scaffold

import (
	"bytes"
	"fmt"
	"text/template"
)

// entityData is the render context for every template.
type entityData struct {
	Name          string // entity name, e.g. User
	Snake         string // snake_case form, e.g. user
	Table         string // table name, e.g. users
	Model         string // model type name, usually same as Name
	Module        string // module import base
	ModelImport   string // module + path_model
	RepoImport    string // module + path_repository
	ModelPkg      string // package name of path_model
	RepoPkg       string // package name of path_repository
	ServicePkg    string // package name of path_service
	LimitPaginate int
	Attribute     bool // emit //strata:binding directives instead of provider lines
}

// fileTemplate pairs a target-path pattern with its content template.
type fileTemplate struct {
	// dir selects the destination: "repository" or "service".
	dir string
	// suffix completes the file name after the snake form.
	suffix string
	tmpl   *template.Template
}

func mustTemplate(name, content string) *template.Template {
	return template.Must(template.New(name).Parse(content))
}

// entityTemplates are rendered once per make:repository invocation, in
// order.
var entityTemplates = []fileTemplate{
	{dir: "repository", suffix: "_repository.go", tmpl: mustTemplate("repository", repositoryTemplate)},
	{dir: "repository", suffix: "_repository_sql.go", tmpl: mustTemplate("repository_sql", repositorySQLTemplate)},
	{dir: "service", suffix: "_service.go", tmpl: mustTemplate("service", serviceTemplate)},
	{dir: "service", suffix: "_service_impl.go", tmpl: mustTemplate("service_impl", serviceImplTemplate)},
}

func render(tmpl *template.Template, data entityData) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render %s template: %w", tmpl.Name(), err)
	}
	return buf.Bytes(), nil
}

const repositoryTemplate = `package {{.RepoPkg}}

import (
	"context"

	"github.com/zoobzio/strata"

	"{{.ModelImport}}"
)

// {{.Name}}Repository is the persistence surface for {{.Model}} records.
type {{.Name}}Repository interface {
	All(ctx context.Context, p *strata.Params) ([]*{{.ModelPkg}}.{{.Model}}, error)
	Count(ctx context.Context, p *strata.Params) (int64, error)
	GetList(ctx context.Context, p *strata.Params) (*strata.Page[{{.ModelPkg}}.{{.Model}}], error)
	Find(ctx context.Context, id any) (*{{.ModelPkg}}.{{.Model}}, error)
	First(ctx context.Context, p *strata.Params) (*{{.ModelPkg}}.{{.Model}}, error)
	Create(ctx context.Context, record *{{.ModelPkg}}.{{.Model}}) (*{{.ModelPkg}}.{{.Model}}, error)
	Insert(ctx context.Context, records []*{{.ModelPkg}}.{{.Model}}) (int64, error)
	Update(ctx context.Context, p *strata.Params) (int64, error)
	UpdateOrCreate(ctx context.Context, match *strata.Params, record *{{.ModelPkg}}.{{.Model}}) (*{{.ModelPkg}}.{{.Model}}, error)
	Upsert(ctx context.Context, record *{{.ModelPkg}}.{{.Model}}, conflictColumns ...string) (*{{.ModelPkg}}.{{.Model}}, error)
	Destroy(ctx context.Context, p *strata.Params) (int64, error)
}
`

const repositorySQLTemplate = `package {{.RepoPkg}}

import (
	"github.com/jmoiron/sqlx"
	"github.com/zoobzio/astql"
	"github.com/zoobzio/strata"

	"{{.ModelImport}}"
)

{{if .Attribute}}//strata:binding name=repository.{{.Snake}}
{{end}}// SQL{{.Name}}Repository implements {{.Name}}Repository over a strata
// repository bound to the {{.Table}} table.
type SQL{{.Name}}Repository struct {
	*strata.Repository[{{.ModelPkg}}.{{.Model}}]
}

// New{{.Name}}Repository creates the repository. Add WithFilter and WithMask
// options here to translate carrier fields into predicates.
func New{{.Name}}Repository(db sqlx.ExtContext, renderer astql.Renderer) (*SQL{{.Name}}Repository, error) {
	repo, err := strata.New[{{.ModelPkg}}.{{.Model}}](db, "{{.Table}}", renderer,
		strata.WithPerPage[{{.ModelPkg}}.{{.Model}}]({{.LimitPaginate}}),
	)
	if err != nil {
		return nil, err
	}
	return &SQL{{.Name}}Repository{Repository: repo}, nil
}
`

const serviceTemplate = `package {{.ServicePkg}}

import (
	"context"

	"github.com/zoobzio/strata"

	"{{.ModelImport}}"
)

// {{.Name}}Service is the domain surface for {{.Model}} records.
type {{.Name}}Service interface {
	Index(ctx context.Context, data, options any) ([]*{{.ModelPkg}}.{{.Model}}, error)
	List(ctx context.Context, data, options any) (*strata.Page[{{.ModelPkg}}.{{.Model}}], error)
	Show(ctx context.Context, id any) (*{{.ModelPkg}}.{{.Model}}, error)
	First(ctx context.Context, data, options any) (*{{.ModelPkg}}.{{.Model}}, error)
	Store(ctx context.Context, record *{{.ModelPkg}}.{{.Model}}) (*{{.ModelPkg}}.{{.Model}}, error)
	Update(ctx context.Context, data, options any) (int64, error)
	Destroy(ctx context.Context, data, options any) (int64, error)
}
`

const serviceImplTemplate = `package {{.ServicePkg}}

import (
	"github.com/jmoiron/sqlx"
	"github.com/zoobzio/astql"
	"github.com/zoobzio/strata"

	"{{.ModelImport}}"
	"{{.RepoImport}}"
)

{{if .Attribute}}//strata:binding name=service.{{.Snake}}
{{end}}// {{.Name}}ServiceImpl implements {{.Name}}Service over a strata service.
type {{.Name}}ServiceImpl struct {
	*strata.Service[{{.ModelPkg}}.{{.Model}}]
}

// New{{.Name}}Service creates the service over an existing repository.
func New{{.Name}}Service(repo strata.Repo[{{.ModelPkg}}.{{.Model}}]) *{{.Name}}ServiceImpl {
	return &{{.Name}}ServiceImpl{Service: strata.NewService(repo)}
}

// New{{.Name}}ServiceWith creates the service together with its default SQL
// repository.
func New{{.Name}}ServiceWith(db sqlx.ExtContext, renderer astql.Renderer) (*{{.Name}}ServiceImpl, error) {
	repo, err := {{.RepoPkg}}.New{{.Name}}Repository(db, renderer)
	if err != nil {
		return nil, err
	}
	return New{{.Name}}Service(repo), nil
}
`

// providerTemplate renders the provider.go shared by all entities of one
// package. Bindings are inserted above the marker line.
var providerTemplate = mustTemplate("provider", `package {{.Package}}

import (
	"github.com/jmoiron/sqlx"
	"github.com/zoobzio/astql"
	"github.com/zoobzio/strata"
)

// RegisterBindings mounts this package's constructors in the registry. The
// db handle and renderer are shared by every binding. Generated entries are
// inserted above the marker; do not remove it.
func RegisterBindings(r *strata.Registry, db sqlx.ExtContext, renderer astql.Renderer) {
	// strata:bind
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
`)

// providerData is the render context for providerTemplate.
type providerData struct {
	Package string
}
