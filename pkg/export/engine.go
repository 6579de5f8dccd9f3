package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

// engine renders report templates from an fs.FS through a pongo2 set.
// Parsed templates are cached by path.
type engine struct {
	mu        sync.RWMutex
	set       *pongo2.TemplateSet
	templates map[string]*pongo2.Template
	ext       string
}

func newEngine(files fs.FS, ext string) (*engine, error) {
	if files == nil {
		return nil, errors.New("export: template fs is required")
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	e := &engine{
		set:       pongo2.NewSet("export", pongo2.NewFSLoader(files)),
		templates: make(map[string]*pongo2.Template),
		ext:       ext,
	}
	registerReportFilters()
	return e, nil
}

// render executes the named template with data.
func (e *engine) render(name string, data any) ([]byte, error) {
	path := name
	if !strings.HasSuffix(path, e.ext) {
		path += e.ext
	}
	tmpl, err := e.template(path)
	if err != nil {
		return nil, err
	}
	ctx, err := toContext(data)
	if err != nil {
		return nil, fmt.Errorf("export: convert template data: %w", err)
	}

	var buf bytes.Buffer
	e.mu.RLock()
	err = tmpl.ExecuteWriter(ctx, &buf)
	e.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("export: execute template %q: %w", path, err)
	}
	return buf.Bytes(), nil
}

func (e *engine) template(path string) (*pongo2.Template, error) {
	e.mu.RLock()
	tmpl, ok := e.templates[path]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if tmpl, ok := e.templates[path]; ok {
		return tmpl, nil
	}
	tmpl, err := e.set.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("export: load template %q: %w", path, err)
	}
	e.templates[path] = tmpl
	return tmpl, nil
}

// toContext turns arbitrary data into a pongo2 context through a JSON round
// trip, so templates only ever see maps, slices and scalars.
func toContext(data any) (pongo2.Context, error) {
	if data == nil {
		return pongo2.Context{}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	out := pongo2.Context{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

var filtersOnce sync.Once

func registerReportFilters() {
	filtersOnce.Do(func() {
		if !pongo2.FilterExists("cell") {
			_ = pongo2.RegisterFilter("cell", filterCell)
		}
		if !pongo2.FilterExists("markup") {
			_ = pongo2.RegisterFilter("markup", filterMarkup)
		}
	})
}

// filterCell escapes a table cell.
func filterCell(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.IsNil() {
		return pongo2.AsSafeValue(""), nil
	}
	return pongo2.AsSafeValue(escapeCell(in.String())), nil
}

// filterMarkup passes intro markup through the sanitiser policy.
func filterMarkup(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	if in.IsNil() {
		return pongo2.AsSafeValue(""), nil
	}
	return pongo2.AsSafeValue(sanitizeIntro(in.String())), nil
}
