package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"qtsass/config"
	"qtsass/sass/plaincss"
	"qtsass/state"
	"qtsass/watch"
)

// Run compiles SOURCE and optionally keeps watching it.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	if cmd.Args().Len() > 1 {
		log.Warn("Malformed command line, too many sources", zap.Strings("ignoring", cmd.Args().Slice()[1:]))
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}
	dst := cmd.String("output")
	if len(dst) > 0 {
		if dst, err = filepath.Abs(dst); err != nil {
			return err
		}
	}

	fi, err := os.Stat(src)
	switch {
	case err != nil:
		return fmt.Errorf("input must be a file or a directory: %w", err)
	case fi.IsDir() && len(dst) == 0:
		return errors.New("missing required option: -o/--output")
	case !fi.IsDir() && !fi.Mode().IsRegular():
		return fmt.Errorf("input must be a file or a directory: %s", src)
	}

	compiler := New(plaincss.New(env.Log), env.Log,
		WithIncludePaths(cmd.StringSlice("include")...),
		WithIncludePaths(env.Cfg.Compiler.IncludePaths...),
		WithExtensions(env.Cfg.Compiler.SourceExtensions...),
	)

	if err := env.Rpt.StoreCopy("source", src); err != nil {
		log.Warn("Unable to store source in debug report", zap.Error(err))
	}

	out := cmd.Root().Writer
	if out == nil {
		out = os.Stdout
	}

	log.Debug("Processing starting", zap.String("source", src), zap.String("destination", dst))
	start := time.Now()
	if fi.IsDir() {
		err = compiler.CompileDir(ctx, src, dst)
	} else {
		err = compileFile(ctx, env, compiler, src, dst, out)
	}
	log.Debug("Processing completed", zap.Duration("elapsed", time.Since(start)), zap.Error(err))

	if !cmd.Bool("watch") {
		return err
	}
	if err != nil {
		// broken source may be fixed while we are watching
		log.Error("Initial compilation failed", zap.Error(err))
	}
	return watchSource(ctx, env, compiler, src, dst, out, log)
}

func compileFile(ctx context.Context, env *state.LocalEnv, compiler *Compiler, src, dst string, out io.Writer) error {
	css, err := compiler.CompileFile(ctx, src, dst)
	if err != nil {
		return err
	}
	env.Rpt.StoreData("result.css", []byte(css))
	if len(dst) == 0 {
		_, err = fmt.Fprintln(out, css)
	}
	return err
}

// watchSource runs executor loop on calling goroutine until context is
// canceled, then stops watcher and waits for it.
func watchSource(ctx context.Context, env *state.LocalEnv, compiler *Compiler, src, dst string, out io.Writer, log *zap.Logger) error {
	opts, err := watchOptions(&env.Cfg.Watch, env.Loop, env.Log)
	if err != nil {
		return err
	}
	w, err := compiler.Watch(ctx, src, dst, opts)
	if err != nil {
		return err
	}
	w.Connect(watch.NewCallback(func(css string) {
		if len(dst) == 0 {
			fmt.Fprintln(out, css)
		}
		if len(css) > 0 {
			env.Rpt.StoreData("result.css", []byte(css))
		}
	}))
	if err := w.Start(); err != nil {
		return err
	}
	log.Info("Watching, interrupt to stop", zap.String("source", src), zap.Stringer("backend", w.Kind()))

	err = env.Loop.Run(ctx)
	err = multierr.Append(err, w.Stop())
	w.Join()
	log.Info("Watching stopped", zap.String("source", src))
	return err
}

func watchOptions(cfg *config.WatchConfig, exec watch.Executor, log *zap.Logger) (watch.Options, error) {
	kind, err := watch.ParseKind(cfg.Backend)
	if err != nil {
		return watch.Options{}, err
	}
	return watch.Options{
		Backend:  kind,
		Executor: exec,
		Interval: cfg.Interval,
		Depth:    cfg.Depth,
		Debounce: cfg.Debounce,
		Attempts: cfg.Retry.Attempts,
		Delay:    cfg.Retry.Delay,
		Log:      log,
	}, nil
}
