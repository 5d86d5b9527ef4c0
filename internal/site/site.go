package site

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/quill/internal/ctxlog"
	"github.com/vk/quill/internal/expr"
	"github.com/vk/quill/internal/fsutil"
)

// Site is a loaded site configuration.
type Site struct {
	// Root is the directory holding the documents.
	Root string
	// Runtime is the URL of the page runtime script.
	Runtime string
	// Foreign maps a module to the values of its foreign variables.
	Foreign map[string]map[string]cty.Value
	// Processors maps a processor name used in documents to its handler.
	Processors map[string]*Processor
}

// Processor renames a processor and pre-fills its arguments. Arguments given
// in the document win.
type Processor struct {
	Name    string
	Handler string
	Args    map[string]string
}

// hclSite represents the structure of a site file for decoding.
type hclSite struct {
	Root       string          `hcl:"root,optional"`
	Runtime    string          `hcl:"runtime,optional"`
	Foreign    []*hclForeign   `hcl:"foreign,block"`
	Processors []*hclProcessor `hcl:"processor,block"`
}

type hclForeign struct {
	Module string    `hcl:"module,label"`
	Values cty.Value `hcl:"values"`
}

type hclProcessor struct {
	Name    string            `hcl:"name,label"`
	Handler string            `hcl:"handler"`
	Args    map[string]string `hcl:"args,optional"`
}

// Load parses and decodes the site file at path. A relative root is taken
// from the directory of the site file.
func Load(ctx context.Context, path string) (*Site, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading site configuration.", "path", path)

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse site file %s: %w", path, diags)
	}

	var parsed hclSite
	evalCtx := &hcl.EvalContext{Functions: expr.Builtins()}
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &parsed)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode site file %s: %w", path, diags)
	}

	s, err := newSite(&parsed, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("site file %s: %w", path, err)
	}
	logger.Info("Site loaded.", "root", s.Root, "foreign_modules", len(s.Foreign), "processors", len(s.Processors))
	return s, nil
}

func newSite(parsed *hclSite, dir string) (*Site, error) {
	s := &Site{
		Root:       parsed.Root,
		Runtime:    parsed.Runtime,
		Foreign:    map[string]map[string]cty.Value{},
		Processors: map[string]*Processor{},
	}
	if s.Root == "" {
		s.Root = "."
	}
	if !filepath.IsAbs(s.Root) {
		s.Root = filepath.Join(dir, s.Root)
	}

	for _, f := range parsed.Foreign {
		if _, dup := s.Foreign[f.Module]; dup {
			return nil, fmt.Errorf("foreign %q is declared twice", f.Module)
		}
		t := f.Values.Type()
		if f.Values.IsNull() || !(t.IsObjectType() || t.IsMapType()) {
			return nil, fmt.Errorf("foreign %q: values must be an object, got %s", f.Module, t.FriendlyName())
		}
		if !f.Values.IsWhollyKnown() {
			return nil, fmt.Errorf("foreign %q: values must be known", f.Module)
		}
		s.Foreign[f.Module] = f.Values.AsValueMap()
		if s.Foreign[f.Module] == nil {
			s.Foreign[f.Module] = map[string]cty.Value{}
		}
	}

	for _, p := range parsed.Processors {
		if _, dup := s.Processors[p.Name]; dup {
			return nil, fmt.Errorf("processor %q is declared twice", p.Name)
		}
		s.Processors[p.Name] = &Processor{Name: p.Name, Handler: p.Handler, Args: p.Args}
	}
	return s, nil
}

// Documents lists the names of all documents under the root.
func (s *Site) Documents() ([]string, error) {
	return fsutil.DocumentNames(s.Root)
}

// ReadDocument returns the source of the document name.
func (s *Site) ReadDocument(name string) (string, error) {
	b, err := os.ReadFile(fsutil.DocumentPath(s.Root, name))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// foreignNames lists the foreign variables of module, sorted.
func (s *Site) foreignNames(module string) []string {
	names := make([]string, 0, len(s.Foreign[module]))
	for n := range s.Foreign[module] {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
