// Package plaincss is a small style sheet engine. It copies CSS through
// unchanged, evaluates registered custom functions and inlines imports. It
// has no support for variables, nesting or mixins.
package plaincss

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"

	"qtsass/sass"
)

// MaxImportDepth limits nesting of inlined imports, import cycles are
// reported when it is reached.
const MaxImportDepth = 64

var ErrImportDepth = errors.New("imports nested too deep, possible import cycle")

// Engine implements sass.Engine.
type Engine struct {
	log *zap.Logger
}

// New creates engine.
func New(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{log: log.Named("plaincss")}
}

// Compile evaluates source.
func (e *Engine) Compile(ctx context.Context, source string, opts sass.Options) (string, error) {
	c := &compilation{ctx: ctx, opts: opts, log: e.log}
	return c.compile(source, 0)
}

type compilation struct {
	ctx  context.Context
	opts sass.Options
	log  *zap.Logger
}

func (c *compilation) compile(source string, depth int) (string, error) {
	if err := c.ctx.Err(); err != nil {
		return "", err
	}

	toks, err := tokenize(source)
	if err != nil {
		return "", err
	}
	if err := checkBalance(toks); err != nil {
		return "", err
	}

	var b strings.Builder
	for i := 0; i < len(toks); {
		t := toks[i]
		switch {
		case t.typ == css.AtKeywordToken && strings.EqualFold(t.text, "@import"):
			end := i + 1
			for end < len(toks) && toks[end].typ != css.SemicolonToken && toks[end].typ != css.LeftBraceToken {
				end++
			}
			if err := c.importRule(&b, t.line, toks[i+1:end], depth); err != nil {
				return "", err
			}
			i = end
			if i < len(toks) && toks[i].typ == css.SemicolonToken {
				i++
			}
		case t.typ == css.FunctionToken && c.opts.Functions[funcName(t.text)] != nil:
			end := closing(toks, i)
			v, err := c.call(toks[i : end+1])
			if err != nil {
				return "", err
			}
			b.WriteString(v.String())
			i = end + 1
		default:
			b.WriteString(t.text)
			i++
		}
	}
	return b.String(), nil
}

func (c *compilation) importRule(b *strings.Builder, line int, args []token, depth int) error {
	parts := splitTop(args, css.CommaToken)
	names := make([]token, 0, len(parts))
	for _, part := range parts {
		part = trim(part)
		if len(part) != 1 || part[0].typ != css.StringToken {
			// url(...), media queries and such belong to the output
			b.WriteString("@import")
			b.WriteString(render(args))
			b.WriteString(";")
			return nil
		}
		names = append(names, part[0])
	}

	for _, t := range names {
		if err := c.importOne(b, t, depth); err != nil {
			return err
		}
	}
	return nil
}

func (c *compilation) importOne(b *strings.Builder, t token, depth int) error {
	name := unquote(t.text)
	if depth >= MaxImportDepth {
		return &sass.CompileError{Message: fmt.Sprintf("unable to import %q", name), Line: t.line, Err: ErrImportDepth}
	}
	// plain css and remote imports are never resolved, they belong to the output
	if isCSSImport(name) {
		b.WriteString("@import " + t.text + ";")
		return nil
	}

	if c.opts.Importer != nil {
		imports, err := c.opts.Importer(name)
		if err != nil {
			return &sass.CompileError{Message: fmt.Sprintf("unable to import %q", name), Line: t.line, Err: err}
		}
		if len(imports) > 0 {
			for _, imp := range imports {
				c.log.Debug("Inlining import", zap.String("name", imp.Name), zap.Int("depth", depth+1))
				if err := c.inline(b, imp, t.line, depth); err != nil {
					return err
				}
			}
			return nil
		}
	}

	for _, dir := range c.opts.IncludePaths {
		for _, candidate := range []string{name + ".scss", "_" + name + ".scss", name + ".css", name} {
			path := filepath.Join(dir, filepath.FromSlash(candidate))
			if fi, err := os.Stat(path); err != nil || !fi.Mode().IsRegular() {
				continue
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return &sass.CompileError{Message: fmt.Sprintf("unable to import %q", name), Line: t.line, Err: err}
			}
			return c.inline(b, sass.Import{Name: path, Source: string(data)}, t.line, depth)
		}
	}
	return &sass.CompileError{Message: fmt.Sprintf("file to import not found or unreadable: %s", name), Line: t.line}
}

func (c *compilation) inline(b *strings.Builder, imp sass.Import, line, depth int) error {
	out, err := c.compile(imp.Source, depth+1)
	if err != nil {
		if errors.Is(err, ErrImportDepth) {
			return err
		}
		return &sass.CompileError{Message: fmt.Sprintf("in %q", imp.Name), Line: line, Err: err}
	}
	b.WriteString(out)
	return nil
}

func isCSSImport(name string) bool {
	return strings.HasSuffix(name, ".css") ||
		strings.HasPrefix(name, "http://") ||
		strings.HasPrefix(name, "https://") ||
		strings.HasPrefix(name, "//")
}

// call evaluates function call, toks start with function token and end
// with matching right parenthesis.
func (c *compilation) call(toks []token) (sass.Value, error) {
	name := funcName(toks[0].text)
	args, err := c.arguments(toks[1 : len(toks)-1])
	if err != nil {
		return nil, err
	}

	if fn := c.opts.Functions[name]; fn != nil {
		v, err := fn(args)
		if err != nil {
			return nil, &sass.CompileError{Message: fmt.Sprintf("error in function %s", name), Line: toks[0].line, Err: err}
		}
		if v == nil {
			return sass.String{}, nil
		}
		return v, nil
	}

	if name == "rgb" || name == "rgba" {
		if col, ok := colorFromChannels(args); ok {
			return col, nil
		}
	}
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, a.String())
	}
	return sass.String{Text: name + "(" + strings.Join(parts, ", ") + ")"}, nil
}

func (c *compilation) arguments(toks []token) ([]sass.Value, error) {
	var args []sass.Value
	for _, part := range splitTop(toks, css.CommaToken) {
		if part = trim(part); len(part) == 0 {
			continue
		}
		v, err := c.expr(part)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

// expr evaluates whitespace separated terms.
func (c *compilation) expr(toks []token) (sass.Value, error) {
	var items []sass.Value
	for _, term := range splitTop(toks, css.WhitespaceToken) {
		if len(term) == 0 {
			continue
		}
		v, err := c.term(term)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	switch len(items) {
	case 0:
		return sass.String{}, nil
	case 1:
		return items[0], nil
	}
	return sass.List{Items: items, Separator: sass.SpaceSeparator}, nil
}

// term evaluates tokens with no whitespace between them. Several adjacent
// atoms ("$x1") are glued back into single string.
func (c *compilation) term(toks []token) (sass.Value, error) {
	var values []sass.Value
	for i := 0; i < len(toks); {
		end := i
		if t := toks[i].typ; t == css.FunctionToken || t == css.LeftParenthesisToken {
			end = closing(toks, i)
		}
		v, err := c.atom(toks[i : end+1])
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		i = end + 1
	}
	if len(values) == 1 {
		return values[0], nil
	}
	var b strings.Builder
	for _, v := range values {
		b.WriteString(v.String())
	}
	return sass.String{Text: b.String()}, nil
}

func (c *compilation) atom(toks []token) (sass.Value, error) {
	if len(toks) == 1 {
		return literal(toks[0]), nil
	}
	if toks[0].typ == css.FunctionToken {
		return c.call(toks)
	}
	return c.group(toks[1 : len(toks)-1])
}

// group evaluates parenthesized expression.
func (c *compilation) group(inner []token) (sass.Value, error) {
	parts := splitTop(inner, css.CommaToken)
	if len(parts) > 1 {
		list := sass.List{Separator: sass.CommaSeparator, Parens: true}
		for _, part := range parts {
			if part = trim(part); len(part) == 0 {
				continue
			}
			v, err := c.expr(part)
			if err != nil {
				return nil, err
			}
			list.Items = append(list.Items, v)
		}
		return list, nil
	}
	inner = trim(inner)
	if len(inner) == 0 {
		return sass.List{Parens: true}, nil
	}
	v, err := c.expr(inner)
	if err != nil {
		return nil, err
	}
	if list, ok := v.(sass.List); ok {
		list.Parens = true
		return list, nil
	}
	return v, nil
}

type token struct {
	typ  css.TokenType
	text string
	line int
}

func tokenize(source string) ([]token, error) {
	lexer := css.NewLexer(parse.NewInput(bytes.NewBufferString(source)))
	var (
		toks []token
		line = 1
	)
	for {
		tt, data := lexer.Next()
		if tt == css.ErrorToken {
			if err := lexer.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, &sass.CompileError{Message: "unable to tokenize source", Line: line, Err: err}
			}
			return toks, nil
		}
		text := string(data)
		toks = append(toks, token{typ: tt, text: text, line: line})
		line += strings.Count(text, "\n")
	}
}

func checkBalance(toks []token) error {
	var parens, braces []int
	for _, t := range toks {
		switch t.typ {
		case css.FunctionToken, css.LeftParenthesisToken:
			parens = append(parens, t.line)
		case css.RightParenthesisToken:
			if len(parens) == 0 {
				return &sass.CompileError{Message: "unexpected \")\"", Line: t.line}
			}
			parens = parens[:len(parens)-1]
		case css.LeftBraceToken:
			braces = append(braces, t.line)
		case css.RightBraceToken:
			if len(braces) == 0 {
				return &sass.CompileError{Message: "unexpected \"}\"", Line: t.line}
			}
			braces = braces[:len(braces)-1]
		}
	}
	if len(parens) > 0 {
		return &sass.CompileError{Message: "unclosed parenthesis", Line: parens[len(parens)-1]}
	}
	if len(braces) > 0 {
		return &sass.CompileError{Message: "unclosed block", Line: braces[len(braces)-1]}
	}
	return nil
}

// closing returns index of parenthesis matching opening token at i. Tokens
// must be balanced.
func closing(toks []token, i int) int {
	depth := 0
	for j := i; j < len(toks); j++ {
		switch toks[j].typ {
		case css.FunctionToken, css.LeftParenthesisToken:
			depth++
		case css.RightParenthesisToken:
			depth--
			if depth == 0 {
				return j
			}
		}
	}
	return len(toks) - 1
}

// splitTop splits tokens on separator outside of parenthesis. Comments
// count as whitespace.
func splitTop(toks []token, sep css.TokenType) [][]token {
	var (
		parts [][]token
		depth int
		start int
	)
	for i, t := range toks {
		typ := t.typ
		if typ == css.CommentToken {
			typ = css.WhitespaceToken
		}
		switch typ {
		case css.FunctionToken, css.LeftParenthesisToken:
			depth++
		case css.RightParenthesisToken:
			depth--
		case sep:
			if depth == 0 {
				parts = append(parts, toks[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, toks[start:])
}

func trim(toks []token) []token {
	skip := func(t token) bool { return t.typ == css.WhitespaceToken || t.typ == css.CommentToken }
	for len(toks) > 0 && skip(toks[0]) {
		toks = toks[1:]
	}
	for len(toks) > 0 && skip(toks[len(toks)-1]) {
		toks = toks[:len(toks)-1]
	}
	return toks
}

func render(toks []token) string {
	var b strings.Builder
	for _, t := range toks {
		b.WriteString(t.text)
	}
	return b.String()
}

func funcName(text string) string {
	return strings.TrimSuffix(text, "(")
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
