// Package convert compiles Qt style sheets written with SCSS conventions and
// implements the command line action.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/maruel/natural"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"qtsass/conform"
	"qtsass/functions"
	"qtsass/importer"
	"qtsass/sass"
	"qtsass/sass/plaincss"
	"qtsass/watch"
)

var ErrNoOutput = errors.New("output directory is required")

// Option tunes Compiler.
type Option func(*Compiler)

// WithIncludePaths adds directories searched for imports after directory of
// the compiled file.
func WithIncludePaths(paths ...string) Option {
	return func(c *Compiler) {
		c.includePaths = append(c.includePaths, paths...)
	}
}

// WithExtensions replaces extensions of files compiled by CompileDir.
func WithExtensions(exts ...string) Option {
	return func(c *Compiler) {
		c.extensions = slices.Clone(exts)
	}
}

// WithPipeline replaces default conformer pipeline.
func WithPipeline(p *conform.Pipeline) Option {
	return func(c *Compiler) {
		c.pipeline = p
	}
}

// Compiler runs conformed sources through engine with gradient functions and
// conforming importer.
type Compiler struct {
	engine       sass.Engine
	pipeline     *conform.Pipeline
	includePaths []string
	extensions   []string
	log          *zap.Logger
}

// New creates compiler. When engine is nil bundled plain CSS engine is used.
func New(engine sass.Engine, log *zap.Logger, options ...Option) *Compiler {
	if log == nil {
		log = zap.NewNop()
	}
	if engine == nil {
		engine = plaincss.New(log)
	}
	c := &Compiler{
		engine:     engine,
		pipeline:   conform.Default(),
		extensions: []string{".scss", ".qss"},
		log:        log.Named("compiler"),
	}
	for _, o := range options {
		o(c)
	}
	return c
}

// CompileString compiles source returning QSS. Imports are searched in
// includePaths first and then in include paths of compiler.
func (c *Compiler) CompileString(ctx context.Context, source string, includePaths ...string) (string, error) {
	paths := slices.Concat(includePaths, c.includePaths)
	resolver := importer.New(c.pipeline, c.log, paths...)

	out, err := c.engine.Compile(ctx, c.pipeline.ToStandard(source), sass.Options{
		Functions:    functions.Table(),
		Importer:     resolver.Import,
		IncludePaths: paths,
	})
	if err != nil {
		return "", err
	}
	return c.pipeline.ToDialect(out), nil
}

// CompileFile compiles input file and writes result to output unless output
// is empty. Result is returned in either case.
func (c *Compiler) CompileFile(ctx context.Context, input, output string) (string, error) {
	return c.compileFile(ctx, input, output)
}

func (c *Compiler) compileFile(ctx context.Context, input, output string, includePaths ...string) (string, error) {
	abs, err := filepath.Abs(input)
	if err != nil {
		return "", err
	}
	source, err := importer.ReadSource(abs)
	if err != nil {
		return "", err
	}

	c.log.Debug("Compiling", zap.String("file", abs))
	css, err := c.CompileString(ctx, source, append([]string{filepath.Dir(abs)}, includePaths...)...)
	if err != nil {
		return "", fmt.Errorf("unable to compile %q: %w", input, err)
	}
	if len(output) == 0 {
		return css, nil
	}

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return "", fmt.Errorf("unable to create output directory: %w", err)
	}
	if err := os.WriteFile(output, []byte(css), 0644); err != nil {
		return "", fmt.Errorf("unable to write %q: %w", output, err)
	}
	c.log.Info("Created CSS file", zap.String("file", output))
	return css, nil
}

// CompileDir compiles every source file under input into the same relative
// location under output with ".css" extension. Partials (names starting with
// "_") are only compiled when imported. Failures do not stop processing and
// are returned together.
func (c *Compiler) CompileDir(ctx context.Context, input, output string) error {
	if len(output) == 0 {
		return ErrNoOutput
	}
	root, err := filepath.Abs(input)
	if err != nil {
		return err
	}
	sources, err := c.Sources(root)
	if err != nil {
		return err
	}

	var errs error
	for _, rel := range sources {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		dst := filepath.Join(output, strings.TrimSuffix(rel, filepath.Ext(rel))+".css")
		if _, err := c.compileFile(ctx, filepath.Join(root, rel), dst, root); err != nil {
			c.log.Error("Unable to compile", zap.String("file", rel), zap.Error(err))
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// Sources lists paths relative to root of files CompileDir compiles in
// natural order.
func (c *Compiler) Sources(root string) ([]string, error) {
	var list []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() || strings.HasPrefix(d.Name(), "_") {
			return nil
		}
		if !slices.ContainsFunc(c.extensions, func(ext string) bool {
			return strings.EqualFold(ext, filepath.Ext(path))
		}) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		list = append(list, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to list sources in %q: %w", root, err)
	}
	slices.SortFunc(list, func(a, b string) int {
		switch {
		case natural.Less(a, b):
			return -1
		case natural.Less(b, a):
			return 1
		}
		return 0
	})
	return list, nil
}

// Watch creates idle watcher recompiling source on changes. File source is
// watched through its directory and compiled into output when it is not
// empty, connected callbacks receive QSS. Directory source is compiled with
// CompileDir into output, callbacks receive empty string. Output is excluded
// from change detection so writing results does not trigger recompilation.
func (c *Compiler) Watch(ctx context.Context, source, output string, opts watch.Options) (*watch.Watcher, error) {
	fi, err := os.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("unable to watch %q: %w", source, err)
	}

	var (
		root    string
		compile watch.CompileFunc
	)
	switch {
	case fi.Mode().IsRegular():
		if root, err = filepath.Abs(filepath.Dir(source)); err != nil {
			return nil, err
		}
		compile = func() (string, error) {
			return c.CompileFile(ctx, source, output)
		}
	case fi.IsDir():
		if len(output) == 0 {
			return nil, ErrNoOutput
		}
		if root, err = filepath.Abs(source); err != nil {
			return nil, err
		}
		compile = func() (string, error) {
			return "", c.CompileDir(ctx, source, output)
		}
	default:
		return nil, fmt.Errorf("unable to watch %q: not a file or directory", source)
	}

	if len(output) > 0 {
		out, err := filepath.Abs(output)
		if err != nil {
			return nil, err
		}
		if isInside(root, out) {
			c.log.Debug("Output is inside watched directory, ignoring its changes", zap.String("output", out))
		}
		opts.Ignore = outputFilter(root, out, fi.IsDir(), opts.Ignore)
	}
	if opts.Log == nil {
		opts.Log = c.log
	}
	return watch.New(root, compile, opts)
}

// outputFilter extends ignore with compilation results: output file for file
// source, whole output tree for directory source. When output tree contains
// watched root only CSS files in it are results.
func outputFilter(root, out string, dir bool, ignore func(string) bool) func(string) bool {
	generated := func(path string) bool { return path == out }
	switch {
	case dir && isInside(out, root):
		generated = func(path string) bool {
			return isInside(out, path) && strings.EqualFold(filepath.Ext(path), ".css")
		}
	case dir:
		generated = func(path string) bool { return isInside(out, path) }
	}
	return func(path string) bool {
		return generated(path) || ignore != nil && ignore(path)
	}
}

func isInside(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && filepath.IsLocal(rel)
}
