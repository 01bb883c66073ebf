package conform

import (
	"strings"
	"testing"
)

func TestNotConformer(t *testing.T) {
	const (
		qss  = "QAbstractItemView::item:!active"
		scss = "QAbstractItemView::item:_qnot_active"
	)
	c := NotConformer{}

	if got := c.ToStandard(qss); got != scss {
		t.Errorf("ToStandard() = %q, want %q", got, scss)
	}
	if got := c.ToDialect(scss); got != qss {
		t.Errorf("ToDialect() = %q, want %q", got, qss)
	}
}

func TestNotConformer_RoundTrip(t *testing.T) {
	inputs := []string{
		"QLineEdit:!editable",
		"QCheckBox:!checked:!hover, QPushButton:!enabled",
		"QWidget { color: red; }",
		"",
	}
	c := NotConformer{}
	for _, in := range inputs {
		if got := c.ToDialect(c.ToStandard(in)); got != in {
			t.Errorf("round trip of %q = %q", in, got)
		}
	}
}

func TestLinearGradientConformer(t *testing.T) {
	tests := []struct {
		name string
		qss  string
		want string
	}{
		{
			name: "single line",
			qss:  "qlineargradient(x1: 0, y1: 0, x2: 0, y2: 0, stop: 0 red, stop: 1 blue)",
			want: "qlineargradient(0, 0, 0, 0, (0 red, 1 blue))",
		},
		{
			name: "multi line",
			qss: `qlineargradient(
    x1: 0,
    y1: 0,
    x2: 0,
    y2: 0,
    stop: 0 red,
    stop: 1 blue
)`,
			want: "qlineargradient(0, 0, 0, 0, (0 red, 1 blue))",
		},
		{
			name: "weird whitespace",
			qss:  "qlineargradient( x1: 0, y1:0, x2: 0, y2:0,    stop:0 red, stop: 1 blue )",
			want: "qlineargradient(0, 0, 0, 0, (0 red, 1 blue))",
		},
		{
			name: "no stops",
			qss:  "qlineargradient(x1: 0, y1: 0, x2: 0, y2: 0)",
			want: "qlineargradient(0, 0, 0, 0)",
		},
		{
			name: "variables",
			qss:  "qlineargradient(x1:$x1, x2:$x2, y1:$y1, y2:$y2stop: 0 $red, stop: 1 $blue)",
			want: "qlineargradient($x1, $y1, $x2, $y2, (0 $red, 1 $blue))",
		},
		{
			name: "rgba stops",
			qss:  "qlineargradient(x1: 0, y1: 0, x2: 0, y2: 0, stop: 0 rgba(0, 1, 2, 30%), stop: 0.99 rgba(7, 8, 9, 100%))",
			want: "qlineargradient(0, 0, 0, 0, (0 rgba(0, 1, 2, 30%), 0.99 rgba(7, 8, 9, 100%)))",
		},
		{
			name: "incomplete coordinates",
			qss:  "qlineargradient(y1:1, stop:0 red, stop: 1 blue)",
			want: "qlineargradient(0, 1, 0, 0, (0 red, 1 blue))",
		},
		{
			name: "float coordinates",
			qss:  "qlineargradient(y1:0.75, stop:0 green, stop: 1 pink)",
			want: "qlineargradient(0, 0.75, 0, 0, (0 green, 1 pink))",
		},
		{
			name: "repeated key overwrites",
			qss:  "qlineargradient(x2: 1, x2: 3)",
			want: "qlineargradient(0, 0, 3, 0)",
		},
		{
			name: "embedded in declaration",
			qss:  "QFrame { background: qlineargradient(x1:0,y1:0,x2:0,y2:1,stop:0.1 blue,stop:0.8 green); color: red; }",
			want: "QFrame { background: qlineargradient(0, 0, 0, 1, (0.1 blue, 0.8 green)); color: red; }",
		},
		{
			name: "unknown key ignored",
			qss:  "qlineargradient(x1:0, y1:0, foo: 3, x2:0, y2:1, stop: 0 red, stop: 1 blue)",
			want: "qlineargradient(0, 0, 0, 1, (0 red, 1 blue))",
		},
		{
			name: "spread is not linear key",
			qss:  "qlineargradient(spread:pad, x1:0, y1:0, x2:1, y2:0, stop:0 red, stop:1 blue)",
			want: "qlineargradient(0, 0, 1, 0, (0 red, 1 blue))",
		},
		{
			name: "nested stop color",
			qss:  "qlineargradient(x1:0, y2:1, stop: 0 rgba(mix(red, blue, 50%), 0.5), stop: 1 blue)",
			want: "qlineargradient(0, 0, 0, 1, (0 rgba(mix(red, blue, 50%), 0.5), 1 blue))",
		},
		{
			name: "stops only",
			qss:  "qlineargradient(stop: 0 red, stop: 1 blue)",
			want: "qlineargradient(0, 0, 0, 0, (0 red, 1 blue))",
		},
		{
			name: "stop value whitespace",
			qss:  "qlineargradient(y2: 1, stop: 0\n    red, stop: 1   blue)",
			want: "qlineargradient(0, 0, 0, 1, (0 red, 1 blue))",
		},
		{
			name: "several calls",
			qss:  "a { b: qlineargradient(x1: 1); c: qlineargradient(y1: 1); }",
			want: "a { b: qlineargradient(1, 0, 0, 0); c: qlineargradient(0, 1, 0, 0); }",
		},
		{
			name: "longer identifier untouched",
			qss:  "myqlineargradient(x1:0, y1:1) qlineargradient(x1:1)",
			want: "myqlineargradient(x1:0, y1:1) qlineargradient(1, 0, 0, 0)",
		},
		{
			name: "unbalanced call untouched",
			qss:  "qlineargradient(x1: 0, stop: 0 rgba(1, 2, 3, 4)",
			want: "qlineargradient(x1: 0, stop: 0 rgba(1, 2, 3, 4)",
		},
	}

	c := NewLinearGradientConformer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.ToStandard(tt.qss); got != tt.want {
				t.Errorf("ToStandard() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestLinearGradientConformer_StandardFormUntouched(t *testing.T) {
	const scss = "qlineargradient(0, 0, 0, 0, (0 red, 1 blue))"
	c := NewLinearGradientConformer()

	if got := c.ToStandard(scss); got != scss {
		t.Errorf("ToStandard() = %q, want unchanged", got)
	}
	if got := c.ToDialect(scss); got != scss {
		t.Errorf("ToDialect() = %q, want unchanged", got)
	}
}

func TestLinearGradientConformer_Idempotent(t *testing.T) {
	c := NewLinearGradientConformer()
	once := c.ToStandard("qlineargradient(x1: 0, y2: 1, stop: 0 red, stop: 1 blue)")
	if twice := c.ToStandard(once); twice != once {
		t.Errorf("second pass changed text: %q -> %q", once, twice)
	}
}

func TestRadialGradientConformer(t *testing.T) {
	tests := []struct {
		name string
		qss  string
		want string
	}{
		{
			name: "single line",
			qss:  "qradialgradient(spread: pad, cx: 0, cy: 0, fx: 0, fy: 0, stop: 0 red, stop: 1 blue)",
			want: "qradialgradient('pad', 0, 0, 0, 0, 0, (0 red, 1 blue))",
		},
		{
			name: "multi line",
			qss: `qradialgradient(
    spread: pad,
    cx: 0,
    cy: 0,
    fx: 0,
    fy: 0,
    stop: 0 red,
    stop: 1 blue
)`,
			want: "qradialgradient('pad', 0, 0, 0, 0, 0, (0 red, 1 blue))",
		},
		{
			name: "no stops",
			qss:  "qradialgradient(spread: pad, cx: 0, cy: 0, fx: 0, fy: 0)",
			want: "qradialgradient('pad', 0, 0, 0, 0, 0)",
		},
		{
			name: "variables",
			qss:  "qradialgradient(spread:$spread, cx:$cx, cy:$cy, radius:$radius, fx:$fx, fy:$fy,stop: 0 $red, stop: 1 $blue)",
			want: "qradialgradient('$spread', $cx, $cy, $radius, $fx, $fy, (0 $red, 1 $blue))",
		},
		{
			name: "default spread",
			qss:  "qradialgradient(cx: 0.5, cy: 0.5, radius: 1, stop: 0 white, stop: 1 black)",
			want: "qradialgradient('pad', 0.5, 0.5, 1, 0, 0, (0 white, 1 black))",
		},
		{
			name: "reflect spread",
			qss:  "qradialgradient(spread: reflect, radius: 0.5)",
			want: "qradialgradient('reflect', 0, 0, 0.5, 0, 0)",
		},
		{
			name: "incomplete coordinates",
			qss:  "qradialgradient(spread:pad, cy:1, stop:0 red, stop: 1 blue)",
			want: "qradialgradient('pad', 0, 1, 0, 0, 0, (0 red, 1 blue))",
		},
		{
			name: "rgba stops",
			qss:  "qradialgradient(spread: pad, cx: 0, cy: 0, fx: 0, fy: 0, stop: 0 rgba(0, 1, 2, 30%), stop: 0.99 rgba(7, 8, 9, 100%))",
			want: "qradialgradient('pad', 0, 0, 0, 0, 0, (0 rgba(0, 1, 2, 30%), 0.99 rgba(7, 8, 9, 100%)))",
		},
		{
			name: "unknown key ignored",
			qss:  "qradialgradient(spread: repeat, cx: 0.5, angle: 45, cy: 0.5, radius: 1, stop: 0 red)",
			want: "qradialgradient('repeat', 0.5, 0.5, 1, 0, 0, (0 red))",
		},
		{
			name: "spread after coordinates",
			qss:  "qradialgradient(cx: 1, spread: reflect)",
			want: "qradialgradient('reflect', 1, 0, 0, 0, 0)",
		},
		{
			name: "nested stop color",
			qss:  "qradialgradient(radius: 1, stop: 0 rgba(mix(red, blue, 50%), 0.5), stop: 1 rgba(lighten(#000, 10%), 1))",
			want: "qradialgradient('pad', 0, 0, 1, 0, 0, (0 rgba(mix(red, blue, 50%), 0.5), 1 rgba(lighten(#000, 10%), 1)))",
		},
		{
			name: "longer identifier untouched",
			qss:  "x-qradialgradient(cx: 1)",
			want: "x-qradialgradient(cx: 1)",
		},
	}

	c := NewRadialGradientConformer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.ToStandard(tt.qss); got != tt.want {
				t.Errorf("ToStandard() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestRadialGradientConformer_StandardFormUntouched(t *testing.T) {
	const scss = "qradialgradient('pad', 0, 0, 0, 0, 0, (0 red, 1 blue))"
	c := NewRadialGradientConformer()

	if got := c.ToStandard(scss); got != scss {
		t.Errorf("ToStandard() = %q, want unchanged", got)
	}
}

func TestParse_Defaults(t *testing.T) {
	spec := NewLinearGradientConformer().Parse("y2: 1")
	want := []string{"0", "0", "0", "1"}
	if strings.Join(spec.Coords, ",") != strings.Join(want, ",") {
		t.Errorf("Coords = %v, want %v", spec.Coords, want)
	}
	if len(spec.Stops) != 0 {
		t.Errorf("Stops = %v, want none", spec.Stops)
	}
	if spec.Spread != "" {
		t.Errorf("Spread = %q, want empty for linear gradient", spec.Spread)
	}
}

func TestParse_Stops(t *testing.T) {
	tests := []struct {
		name  string
		group string
		want  []string
	}{
		{"simple", "stop: 0 red, stop: 1 blue", []string{"0 red", "1 blue"}},
		{"nested commas", "stop: 0 rgba(1, 2, 3, 40%), stop:1 rgb(4,5,6)", []string{"0 rgba(1, 2, 3, 40%)", "1 rgb(4,5,6)"}},
		{"malformed fragment skipped", "stop: 0 red, garbage, stop: 1 blue", []string{"0 red", "1 blue"}},
		{"trailing comma", "stop: 0 red,", []string{"0 red"}},
		{"empty", "", nil},
		{"glued to coordinate", "y2:$y2stop: 0 $red, stop: 1 $blue", []string{"0 $red", "1 $blue"}},
	}
	c := NewLinearGradientConformer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Parse(tt.group).Stops
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Errorf("Parse(%q).Stops = %q, want %q", tt.group, got, tt.want)
			}
		})
	}
}

// marker appends its tag going forward and strips it going back; two of them
// do not commute, which exposes ordering.
type marker struct{ tag string }

func (m marker) Name() string { return m.tag }

func (m marker) ToStandard(s string) string { return s + m.tag }

func (m marker) ToDialect(s string) string {
	if !strings.HasSuffix(s, m.tag) {
		return s + "!" + m.tag
	}
	return strings.TrimSuffix(s, m.tag)
}

func TestPipeline_Ordering(t *testing.T) {
	p := NewPipeline(marker{"A"}, marker{"B"})

	if got := p.ToStandard("x"); got != "xAB" {
		t.Errorf("ToStandard() = %q, want %q", got, "xAB")
	}
	// reverse order strips B first, then A
	if got := p.ToDialect("xAB"); got != "x" {
		t.Errorf("ToDialect() = %q, want %q", got, "x")
	}
	// declaration order going back would fail to strip
	if got := NewPipeline(marker{"B"}, marker{"A"}).ToDialect("xAB"); got == "x" {
		t.Errorf("expected reversed pipeline to not undo forward pass, got %q", got)
	}
}

func TestPipeline_ConformersIsCopy(t *testing.T) {
	p := Default()
	list := p.Conformers()
	if len(list) != 3 {
		t.Fatalf("Default() has %d conformers, want 3", len(list))
	}
	names := []string{"not", "qlineargradient", "qradialgradient"}
	for i, c := range list {
		if c.Name() != names[i] {
			t.Errorf("conformer %d = %q, want %q", i, c.Name(), names[i])
		}
	}
	list[0] = marker{"X"}
	if p.Conformers()[0].Name() != "not" {
		t.Error("pipeline was modified through returned slice")
	}
}

func TestPipeline_Default(t *testing.T) {
	const qss = "QLineEdit:!editable{background: qlineargradient(x1:0,y1:0,x2:0,y2:1,stop:0.1 blue,stop:0.8 green);}"
	const scss = "QLineEdit:_qnot_editable{background: qlineargradient(0, 0, 0, 1, (0.1 blue, 0.8 green));}"

	p := Default()
	got := p.ToStandard(qss)
	if got != scss {
		t.Fatalf("ToStandard() =\n%q\nwant\n%q", got, scss)
	}
	if back := p.ToDialect(got); !strings.HasPrefix(back, "QLineEdit:!editable{") {
		t.Errorf("ToDialect() did not restore negation: %q", back)
	}
}
