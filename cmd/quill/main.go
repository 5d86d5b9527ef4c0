package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/vk/quill/internal/app"
	"github.com/vk/quill/internal/cli"
	"github.com/vk/quill/internal/ctxlog"
	"github.com/vk/quill/internal/htmlgen"
	"github.com/vk/quill/internal/jsgen"
	"github.com/vk/quill/internal/registry"
	"github.com/vk/quill/internal/site"
)

// main is the entrypoint for the quill application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := run(ctx, os.Stdout, os.Args[1:])
	stop()

	if err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(ctx context.Context, outW io.Writer, args []string) (err error) {
	cfg, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	// Module registration panics on programmer errors; report them as a
	// clean startup failure.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application startup panicked: %v", r)
		}
	}()

	logger := app.NewLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx = ctxlog.WithLogger(ctx, logger)

	s, err := site.Load(ctx, cfg.SitePath)
	if err != nil {
		return err
	}

	reg := registry.New()
	for _, mod := range coreModules {
		mod.Register(reg)
	}
	if err := reg.ValidateRegistry(ctx); err != nil {
		return err
	}
	logger.Debug("All processor modules registered.", "count", len(coreModules))

	resolvers, err := s.Resolvers(reg)
	if err != nil {
		return err
	}

	names := cfg.Documents
	if len(names) == 0 {
		if names, err = s.Documents(); err != nil {
			return fmt.Errorf("listing documents: %w", err)
		}
	}
	if len(names) == 0 {
		logger.Warn("No documents found, nothing to render.", "root", s.Root)
		return nil
	}

	a := app.New(*cfg, logger)
	for _, name := range names {
		if err := render(ctx, a, s, resolvers, name); err != nil {
			return fmt.Errorf("rendering %s: %w", name, err)
		}
	}
	logger.Info("🏁 Rendering finished.", "documents", len(names), "out", cfg.OutDir)
	return nil
}

// render compiles one document and writes it below the output directory.
func render(ctx context.Context, a *app.App, s *site.Site, r app.Resolvers, name string) error {
	cfg := a.Config()
	src, err := s.ReadDocument(name)
	if err != nil {
		return err
	}

	var (
		content string
		ext     string
	)
	switch cfg.Output {
	case app.OutputJS:
		p, err := a.RenderJS(ctx, name, src, r)
		if err != nil {
			return err
		}
		content, ext = jsgen.Render(p), ".js"
	default:
		out, err := a.Render(ctx, name, src, r)
		if err != nil {
			return err
		}
		if content, err = htmlgen.Page(out, s.Runtime); err != nil {
			return err
		}
		ext = ".html"
	}

	path := filepath.Join(cfg.OutDir, filepath.FromSlash(name)+ext)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Wrote output.", "path", path, "bytes", len(content))
	return nil
}
