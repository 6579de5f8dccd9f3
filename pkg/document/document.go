// Package document reads and writes complete form definitions (fields and
// rules) as JSON or YAML files.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formbuilder/pkg/canvas"
	"github.com/goliatone/go-formbuilder/pkg/rules"
)

// Encoding names a document serialization.
type Encoding string

const (
	EncodingJSON Encoding = "json"
	EncodingYAML Encoding = "yaml"
)

// Document is a saved form: its field list in canvas order plus its rules.
type Document struct {
	Title       string         `json:"title" yaml:"title"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []canvas.Field `json:"fields" yaml:"fields"`
	Rules       []rules.Rule   `json:"rules" yaml:"rules"`
	// Source records where the document was read from.
	Source string `json:"-" yaml:"-"`
}

// Parse decodes data as JSON, falling back to YAML.
func Parse(data []byte, source string) (Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Document{}, fmt.Errorf("document: file %s is empty", source)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		doc = Document{}
		if yerr := yaml.Unmarshal(data, &doc); yerr != nil {
			return Document{}, fmt.Errorf("document: parse %s: invalid JSON or YAML", source)
		}
	}
	doc.Source = source
	if err := check(doc); err != nil {
		return Document{}, fmt.Errorf("document: %s: %w", source, err)
	}
	return doc, nil
}

// Load reads and parses name from fsys.
func Load(fsys fs.FS, name string) (Document, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Document{}, fmt.Errorf("document: read %s: %w", name, err)
	}
	return Parse(data, name)
}

// LoadAll parses every .json, .yaml and .yml file in fsys, keyed by path.
func LoadAll(fsys fs.FS) (map[string]Document, error) {
	out := make(map[string]Document)
	if fsys == nil {
		return out, nil
	}
	err := fs.WalkDir(fsys, ".", func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDocumentFile(p) {
			return nil
		}
		doc, err := Load(fsys, p)
		if err != nil {
			return err
		}
		out[p] = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Names returns the sorted keys of a LoadAll result.
func Names(docs map[string]Document) []string {
	names := make([]string, 0, len(docs))
	for name := range docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Marshal encodes doc. JSON output is indented with two spaces.
func Marshal(doc Document, enc Encoding) ([]byte, error) {
	doc = normalise(doc)
	switch enc {
	case EncodingJSON, "":
		var buf bytes.Buffer
		e := json.NewEncoder(&buf)
		e.SetEscapeHTML(false)
		e.SetIndent("", "  ")
		if err := e.Encode(doc); err != nil {
			return nil, fmt.Errorf("document: encode json: %w", err)
		}
		return buf.Bytes(), nil
	case EncodingYAML:
		var buf bytes.Buffer
		e := yaml.NewEncoder(&buf)
		e.SetIndent(2)
		if err := e.Encode(doc); err != nil {
			return nil, fmt.Errorf("document: encode yaml: %w", err)
		}
		if err := e.Close(); err != nil {
			return nil, fmt.Errorf("document: encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("document: unsupported encoding %q", enc)
	}
}

// EncodingFor picks an encoding from a file name.
func EncodingFor(name string) Encoding {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		return EncodingYAML
	default:
		return EncodingJSON
	}
}

// Capture snapshots a canvas and rule collection into a document.
func Capture(title string, c *canvas.Canvas, coll *rules.Collection) Document {
	doc := Document{Title: title}
	if c != nil {
		doc.Fields = c.Fields()
	}
	if coll != nil {
		doc.Rules = coll.Rules()
	}
	return normalise(doc)
}

// Restore loads doc into the canvas and the rule collection. Field and rule
// ids are preserved.
func Restore(doc Document, c *canvas.Canvas, coll *rules.Collection) error {
	if c != nil {
		if err := c.Load(doc.Fields); err != nil {
			return fmt.Errorf("document: restore fields: %w", err)
		}
	}
	if coll != nil {
		coll.Load(doc.Rules)
	}
	return nil
}

var errDuplicateRule = errors.New("duplicate rule id")

func check(doc Document) error {
	seen := make(map[string]struct{}, len(doc.Rules))
	for _, rule := range doc.Rules {
		if strings.TrimSpace(rule.ID) == "" {
			return errors.New("rule without id")
		}
		if _, ok := seen[rule.ID]; ok {
			return fmt.Errorf("%w %q", errDuplicateRule, rule.ID)
		}
		seen[rule.ID] = struct{}{}
	}
	// Field ids and option invariants are enforced by the canvas on Restore;
	// run the same checks here so bad files fail at parse time.
	return canvas.New().Load(doc.Fields)
}

func normalise(doc Document) Document {
	if doc.Fields == nil {
		doc.Fields = []canvas.Field{}
	}
	if doc.Rules == nil {
		doc.Rules = []rules.Rule{}
	}
	return doc
}

func isDocumentFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}
