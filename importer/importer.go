// Package importer resolves @import names to files and conforms their
// content before it is handed to the compiler.
package importer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"qtsass/conform"
	"qtsass/sass"
)

// ErrNotFound is matched by every NotFoundError.
var ErrNotFound = errors.New("import not found")

// Extensions are tried in this order, empty one means name as given.
var Extensions = []string{"", ".scss", ".css", ".sass"}

// NotFoundError lists candidates checked for failed import.
type NotFoundError struct {
	Name  string
	Tried []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unable to find %q (tried %s)", e.Name, strings.Join(e.Tried, ", "))
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Resolver finds imported files relative to current directory and include
// paths and conforms them to standard syntax.
type Resolver struct {
	pipeline     *conform.Pipeline
	includePaths []string
	log          *zap.Logger
}

// New creates resolver. Pipeline defaults to conform.Default().
func New(pipeline *conform.Pipeline, log *zap.Logger, includePaths ...string) *Resolver {
	if pipeline == nil {
		pipeline = conform.Default()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{
		pipeline:     pipeline,
		includePaths: includePaths,
		log:          log.Named("importer"),
	}
}

// Candidates returns paths checked for name in order.
func (r *Resolver) Candidates(name string) []string {
	dir, base := filepath.Split(filepath.FromSlash(name))
	partial := filepath.Join(dir, "_"+base)
	name = filepath.FromSlash(name)

	var list []string
	for _, ext := range Extensions {
		list = append(list, name+ext, partial+ext)
		for _, inc := range r.includePaths {
			list = append(list, filepath.Join(inc, name+ext), filepath.Join(inc, partial+ext))
		}
	}
	return list
}

// Find returns first existing regular file for name.
func (r *Resolver) Find(name string) (string, error) {
	tried := r.Candidates(name)
	for _, path := range tried {
		fi, err := os.Stat(path)
		if err == nil && fi.Mode().IsRegular() {
			return path, nil
		}
	}
	return "", &NotFoundError{Name: name, Tried: tried}
}

// Import implements sass.Importer.
func (r *Resolver) Import(name string) ([]sass.Import, error) {
	path, err := r.Find(name)
	if err != nil {
		return nil, err
	}
	content, err := ReadSource(path)
	if err != nil {
		return nil, err
	}
	r.log.Debug("Resolved import", zap.String("name", name), zap.String("path", path))
	return []sass.Import{{Name: name, Source: r.pipeline.ToStandard(content)}}, nil
}

// ReadSource reads text file removing byte order mark if present. UTF-16
// files with BOM are decoded as well.
func ReadSource(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("unable to open source: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(transform.NewReader(f, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	if err != nil {
		return "", fmt.Errorf("unable to read source %q: %w", path, err)
	}
	return string(data), nil
}
