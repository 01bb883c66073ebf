package plaincss

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"qtsass/functions"
	"qtsass/sass"
)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	return New(zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1))))
}

// compileValue wraps value into a rule and returns compiled value back.
func compileValue(t *testing.T, value string) string {
	t.Helper()
	out, err := newEngine(t).Compile(context.Background(), "*{t: "+value+";}", sass.Options{Functions: functions.Table()})
	if err != nil {
		t.Fatalf("Compile(%q) failed: %v", value, err)
	}
	return strings.TrimSuffix(strings.TrimPrefix(out, "*{t: "), ";}")
}

func TestCompile_Functions(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"rgba", "rgba(0, 1, 2, 0.3)", "rgba(0, 1, 2, 30%)"},
		{"rgba percentage alpha", "rgba(255, 0, 125, 75%)", "rgba(255, 0, 125, 75%)"},
		{"rgba 8bit alpha 0", "rgba(255, 0, 125, 0)", "rgba(255, 0, 125, 0%)"},
		{"rgba 8bit alpha 128", "rgba(255, 0, 125, 128)", "rgba(255, 0, 125, 50%)"},
		{"rgba 8bit alpha 255", "rgba(255, 0, 125, 255)", "rgba(255, 0, 125, 100%)"},
		{"rgba named color", "rgba(red, 0.5)", "rgba(255, 0, 0, 50%)"},
		{"rgba hex color", "rgba(#00ff00, 1)", "rgba(0, 255, 0, 100%)"},
		{
			"linear color",
			"qlineargradient(1, 2, 3, 4, (0 red, 1 blue))",
			"qlineargradient(x1: 1, y1: 2, x2: 3, y2: 4, stop: 0 rgba(255, 0, 0, 100%), stop: 1 rgba(0, 0, 255, 100%))",
		},
		{
			"linear rgba",
			"qlineargradient(1, 2, 3, 4, (0 red, 0.2 rgba(5, 6, 7, 0.8)))",
			"qlineargradient(x1: 1, y1: 2, x2: 3, y2: 4, stop: 0 rgba(255, 0, 0, 100%), stop: 0.2 rgba(5, 6, 7, 80%))",
		},
		{
			"linear hex stops",
			"qlineargradient(0, 0, 0, 1, (0 #fff, 1 #00000080))",
			"qlineargradient(x1: 0, y1: 0, x2: 0, y2: 1, stop: 0 rgba(255, 255, 255, 100%), stop: 1 rgba(0, 0, 0, 50%))",
		},
		{
			"radial color",
			"qradialgradient('pad', 1, 2, 1, 3, 4, (0 red, 1 blue))",
			"qradialgradient(spread: pad, cx: 1, cy: 2, radius: 1, fx: 3, fy: 4, stop: 0 rgba(255, 0, 0, 100%), stop: 1 rgba(0, 0, 255, 100%))",
		},
		{
			"radial rgba",
			"qradialgradient(pad, 1, 2, 1, 3, 4, (0 red, 0.2 rgba(5, 6, 7, 0.8)))",
			"qradialgradient(spread: pad, cx: 1, cy: 2, radius: 1, fx: 3, fy: 4, stop: 0 rgba(255, 0, 0, 100%), stop: 0.2 rgba(5, 6, 7, 80%))",
		},
		{"untouched function", "url(image.png)", "url(image.png)"},
		{"untouched value", "1px solid palette(dark)", "1px solid palette(dark)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := compileValue(t, tt.value); got != tt.want {
				t.Errorf("compiled\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestCompile_Passthrough(t *testing.T) {
	const src = `/* header */
QPushButton:_qnot_enabled, QLineEdit {
    border: 1px solid #333;
    margin: -2px 0 0 1em;
}
`
	out, err := newEngine(t).Compile(context.Background(), src, sass.Options{})
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	if out != src {
		t.Errorf("Compile() =\n%s\nwant\n%s", out, src)
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
	}{
		{"unclosed parenthesis", "a {\n  b: qlineargradient(1, 2;\n}", 2},
		{"unexpected parenthesis", "a {\n\n  b: c);\n}", 3},
		{"unclosed block", "a {\n  b: c;\n", 1},
		{"unexpected brace", "a { b: c; }\n}", 2},
		{"function failure", "a {\n  b: c;\n  d: rgba(1, 2);\n}", 3},
		{"import not found", "\n@import \"missing\";", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newEngine(t).Compile(context.Background(), tt.src, sass.Options{Functions: functions.Table()})
			var ce *sass.CompileError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *sass.CompileError, got %v", err)
			}
			if ce.Line != tt.line {
				t.Errorf("error %q reported at line %d, want %d", ce.Error(), ce.Line, tt.line)
			}
		})
	}
}

func TestCompile_FunctionErrorUnwraps(t *testing.T) {
	_, err := newEngine(t).Compile(context.Background(), "a{b: rgba(1)}", sass.Options{Functions: functions.Table()})
	if !errors.Is(err, functions.ErrArguments) {
		t.Errorf("expected function error to be wrapped, got %v", err)
	}
}

func TestCompile_Importer(t *testing.T) {
	var asked []string
	opts := sass.Options{
		Functions: functions.Table(),
		Importer: func(name string) ([]sass.Import, error) {
			asked = append(asked, name)
			switch name {
			case "colors":
				return []sass.Import{{Name: "colors.scss", Source: "Q{c: rgba(0, 0, 0, 0.5)}\n"}}, nil
			case "base":
				return []sass.Import{{Name: "base.scss", Source: "@import 'colors';\nW{}\n"}}, nil
			}
			return nil, nil
		},
	}

	out, err := newEngine(t).Compile(context.Background(), "@import \"base\", \"theme.css\";\nX{}", opts)
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	want := "Q{c: rgba(0, 0, 0, 50%)}\n\nW{}\n@import \"theme.css\";\nX{}"
	if out != want {
		t.Errorf("Compile() =\n%q\nwant\n%q", out, want)
	}
	if strings.Join(asked, ",") != "base,colors" {
		t.Errorf("importer asked for %v", asked)
	}
}

func TestCompile_ImporterError(t *testing.T) {
	boom := errors.New("boom")
	opts := sass.Options{Importer: func(string) ([]sass.Import, error) { return nil, boom }}

	_, err := newEngine(t).Compile(context.Background(), "@import 'x';", opts)
	if !errors.Is(err, boom) {
		t.Errorf("expected importer error, got %v", err)
	}
}

func TestCompile_ImportCycle(t *testing.T) {
	opts := sass.Options{Importer: func(name string) ([]sass.Import, error) {
		return []sass.Import{{Name: name, Source: "@import 'self';"}}, nil
	}}

	_, err := newEngine(t).Compile(context.Background(), "@import 'self';", opts)
	if !errors.Is(err, ErrImportDepth) {
		t.Errorf("expected %v, got %v", ErrImportDepth, err)
	}
}

func TestCompile_URLImportKept(t *testing.T) {
	out, err := newEngine(t).Compile(context.Background(), "@import url(theme.css);\nA{}", sass.Options{})
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	if out != "@import url(theme.css);\nA{}" {
		t.Errorf("Compile() = %q", out)
	}
}

func TestCompile_CSSImportNotResolved(t *testing.T) {
	opts := sass.Options{Importer: func(name string) ([]sass.Import, error) {
		t.Errorf("importer asked for %q", name)
		return nil, errors.New("not found")
	}}

	const src = "@import \"https://example.com/base.css\";\n@import '//cdn.example.com/x';\n@import \"theme.css\";\nA{}"
	out, err := newEngine(t).Compile(context.Background(), src, opts)
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	if out != src {
		t.Errorf("Compile() =\n%q\nwant\n%q", out, src)
	}
}

func TestCompile_IncludePaths(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "_base.scss"), []byte("B{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := newEngine(t).Compile(context.Background(), "@import 'base';\nA{}", sass.Options{IncludePaths: []string{dir}})
	if err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	if out != "B{}\nA{}" {
		t.Errorf("Compile() = %q", out)
	}
}

func TestCompile_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := newEngine(t).Compile(ctx, "A{}", sass.Options{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLiteral(t *testing.T) {
	tests := []struct {
		text string
		want sass.Value
	}{
		{"12.5px", sass.Number{Value: 12.5, Unit: "px"}},
		{"2em", sass.Number{Value: 2, Unit: "em"}},
		{"1e2px", sass.Number{Value: 100, Unit: "px"}},
		{"-3deg", sass.Number{Value: -3, Unit: "deg"}},
	}
	for _, tt := range tests {
		got, ok := dimension(tt.text)
		if !ok || got != tt.want {
			t.Errorf("dimension(%q) = %v, %v; want %v", tt.text, got, ok, tt.want)
		}
	}

	if c, ok := hexColor("#f00a"); !ok || c.R != 255 || c.G != 0 || c.A != float64(0xaa)/255 {
		t.Errorf("hexColor(#f00a) = %+v, %v", c, ok)
	}
	if _, ok := hexColor("#abcde"); ok {
		t.Error("hexColor accepted 5 digits")
	}
	if c, ok := namedColor("Transparent"); !ok || c.A != 0 {
		t.Errorf("namedColor(Transparent) = %+v, %v", c, ok)
	}
	if _, ok := namedColor("pad"); ok {
		t.Error("namedColor accepted pad")
	}
}
