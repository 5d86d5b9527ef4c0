package app

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/quill/internal/ctxlog"
	"github.com/vk/quill/internal/executor"
	"github.com/vk/quill/internal/htmlgen"
	"github.com/vk/quill/internal/interpreter"
	"github.com/vk/quill/internal/jsgen"
)

// HTMLOutput is the result of the HTML path.
type HTMLOutput = htmlgen.Output

// Render compiles the document name to static HTML with its companion JS.
func (a *App) Render(ctx context.Context, name, source string, r Resolvers) (*HTMLOutput, error) {
	ctx = a.context(ctx, name)
	logger := ctxlog.FromContext(ctx)
	start := time.Now()

	doc, err := a.interpret(ctx, name, source, r)
	if err != nil {
		return nil, err
	}

	logger.Debug("Executing document.", "invocations", len(doc.Tree))
	tree, err := executor.Execute(doc)
	if err != nil {
		return nil, err
	}

	logger.Debug("Generating HTML.", "nodes", len(tree.Nodes))
	out, err := htmlgen.Generate(name, tree, doc.Bag)
	if err != nil {
		return nil, err
	}

	logger.Info("Document rendered.", "output", OutputHTML, "duration", time.Since(start))
	return out, nil
}

// RenderJS compiles the document name to a reactive program.
func (a *App) RenderJS(ctx context.Context, name, source string, r Resolvers) (*jsgen.Program, error) {
	ctx = a.context(ctx, name)
	logger := ctxlog.FromContext(ctx)
	start := time.Now()

	doc, err := a.interpret(ctx, name, source, r)
	if err != nil {
		return nil, err
	}

	logger.Debug("Generating program.", "things", len(doc.Bag.Names()))
	p, err := jsgen.Generate(doc)
	if err != nil {
		return nil, err
	}

	logger.Info("Document rendered.", "output", OutputJS, "instructions", len(p.Instructions), "duration", time.Since(start))
	return p, nil
}

func (a *App) context(ctx context.Context, name string) context.Context {
	return ctxlog.With(ctxlog.WithLogger(ctx, a.logger), "document", name)
}

// interpret drives the interpreter until it is done, answering every
// suspension through r. ctx is checked between resumptions.
func (a *App) interpret(ctx context.Context, name, source string, r Resolvers) (*interpreter.Document, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Interpreting document.")

	st, err := interpreter.Interpret(name, source)
	for steps := 0; ; steps++ {
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("rendering %q: %w", name, err)
		}
		if steps > a.config.MaxResumptions {
			return nil, fmt.Errorf("rendering %q: interpreter did not finish after %d resumptions", name, a.config.MaxResumptions)
		}

		switch s := st.(type) {
		case *interpreter.Done:
			logger.Debug("Interpretation finished.", "resumptions", steps)
			return s.Document, nil

		case *interpreter.StuckOnImport:
			logger.Debug("Resolving import.", "module", s.Module)
			src, foreign, rerr := r.resolveImport(ctx, s.Module)
			if rerr != nil {
				return nil, fmt.Errorf("resolving import %q: %w", s.Module, rerr)
			}
			if src == nil {
				logger.Warn("Imported module is absent, treating it as empty.", "module", s.Module)
			}
			st, err = s.Continuation.ContinueAfterImport(s.Module, src, foreign)

		case *interpreter.StuckOnProcessor:
			req := processorRequest(s)
			logger.Debug("Running processor.", "processor", req.Processor, "variable", req.Variable, "module", req.Module)
			v, rerr := r.runProcessor(ctx, req)
			if rerr != nil {
				return nil, fmt.Errorf("processor %q for %s#%s: %w", req.Processor, req.Module, req.Variable, rerr)
			}
			st, err = s.Continuation.ContinueAfterProcessor(v)

		case *interpreter.StuckOnForeignVariable:
			logger.Debug("Resolving foreign variable.", "module", s.Module, "variable", s.Variable)
			v, rerr := r.resolveVariable(ctx, s.Module, s.Variable)
			if rerr != nil {
				return nil, fmt.Errorf("foreign variable %s#%s: %w", s.Module, s.Variable, rerr)
			}
			st, err = s.Continuation.ContinueAfterVariable(s.Module, s.Variable, v)

		default:
			return nil, fmt.Errorf("unhandled interpreter state %T", st)
		}
	}
}

func processorRequest(s *interpreter.StuckOnProcessor) *ProcessorRequest {
	req := &ProcessorRequest{
		Module:    s.Module,
		Processor: s.Processor,
		Variable:  s.Variable.Name,
		Args:      map[string]string{},
		Line:      s.Variable.Line,
	}
	for _, p := range s.Variable.Properties {
		req.Args[p.Key] = p.ValueString()
	}
	return req
}
