package site

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/quill/internal/app"
	"github.com/vk/quill/internal/ctxlog"
	"github.com/vk/quill/internal/registry"
)

// resolver answers the interpreter's questions from the site.
type resolver struct {
	site     *Site
	registry *registry.Registry
}

// Resolvers checks that every processor block names a registered handler and
// returns resolvers backed by the site and reg.
func (s *Site) Resolvers(reg *registry.Registry) (app.Resolvers, error) {
	var missing []string
	for name, p := range s.Processors {
		if _, ok := reg.HandlerRegistry[p.Handler]; !ok {
			missing = append(missing, fmt.Sprintf("processor %q uses unknown handler %q", name, p.Handler))
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return app.Resolvers{}, errors.New(strings.Join(missing, "; "))
	}
	r := &resolver{site: s, registry: reg}
	return app.Resolvers{Imports: r, Processors: r, Foreign: r}, nil
}

// ResolveImport reads the module from the site root. A module without a file
// is absent, unless it only provides foreign variables.
func (r *resolver) ResolveImport(ctx context.Context, module string) (*string, []string, error) {
	logger := ctxlog.FromContext(ctx)
	foreign := r.site.foreignNames(module)

	src, err := r.site.ReadDocument(module)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Debug("Module has no file.", "module", module, "foreign", len(foreign))
		return nil, foreign, nil
	case err != nil:
		return nil, nil, err
	}
	return &src, foreign, nil
}

func (r *resolver) ResolveVariable(_ context.Context, module, variable string) (cty.Value, error) {
	v, ok := r.site.Foreign[module][variable]
	if !ok {
		return cty.NilVal, fmt.Errorf("site declares no foreign value %s#%s", module, variable)
	}
	return v, nil
}

func (r *resolver) RunProcessor(ctx context.Context, req *app.ProcessorRequest) (cty.Value, error) {
	handler := req.Processor
	args := map[string]string{}
	if p, ok := r.site.Processors[req.Processor]; ok {
		handler = p.Handler
		maps.Copy(args, p.Args)
	}
	maps.Copy(args, req.Args)
	ctxlog.FromContext(ctx).Debug("Dispatching processor.", "processor", req.Processor, "handler", handler)
	return r.registry.Run(ctx, handler, args)
}
