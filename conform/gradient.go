package conform

import (
	"regexp"
	"slices"
	"strings"
)

const (
	linearGradientFunc = "qlineargradient"
	radialGradientFunc = "qradialgradient"

	// DefaultSpread is used when radial gradient does not specify one.
	DefaultSpread = "pad"

	stopKey   = "stop"
	spreadKey = "spread"
)

var (
	linearKeys = []string{"x1", "y1", "x2", "y2"}
	radialKeys = []string{"cx", "cy", "radius", "fx", "fy"}

	keywordArg = regexp.MustCompile(`(?s)^\s*([A-Za-z_][\w-]*)\s*:(.*)$`)
	// coordinate immediately followed by stop with comma missing: "y2:$y2stop: 0 red"
	gluedStop = regexp.MustCompile(`(?s)^([0-9A-Za-z$_.\-]+?)\s*(stop\s*:.*)$`)
)

// GradientSpec is parsed keyword form of a single QSS gradient call.
type GradientSpec struct {
	Spread string   // radial only, empty otherwise
	Coords []string // positional, "0" when absent
	Stops  []string // "<position> <color>" in source order
}

// standard renders spec as positional SCSS call.
func (g GradientSpec) standard(function string) string {
	var b strings.Builder
	b.WriteString(function)
	b.WriteByte('(')
	args := make([]string, 0, len(g.Coords)+2)
	if g.Spread != "" {
		args = append(args, "'"+g.Spread+"'")
	}
	args = append(args, g.Coords...)
	if len(g.Stops) > 0 {
		args = append(args, "("+strings.Join(g.Stops, ", ")+")")
	}
	b.WriteString(strings.Join(args, ", "))
	b.WriteByte(')')
	return b.String()
}

// GradientConformer turns keyword argument form of QSS gradient functions
//
//	qlineargradient(x1: 0, y1: 0, x2: 0, y2: 0, stop: 0 red, stop: 1 blue)
//
// into positional SCSS form
//
//	qlineargradient(0, 0, 0, 0, (0 red, 1 blue))
//
// All whitespace inside the call is normalized, including newlines. The
// reverse direction is done by custom gradient functions during
// compilation, so ToDialect returns its input.
type GradientConformer struct {
	name     string
	function string
	keys     []string
	spread   bool
}

// NewLinearGradientConformer handles qlineargradient.
func NewLinearGradientConformer() *GradientConformer {
	return &GradientConformer{name: "qlineargradient", function: linearGradientFunc, keys: linearKeys}
}

// NewRadialGradientConformer handles qradialgradient.
func NewRadialGradientConformer() *GradientConformer {
	return &GradientConformer{name: "qradialgradient", function: radialGradientFunc, keys: radialKeys, spread: true}
}

func (c *GradientConformer) Name() string { return c.name }

// ToStandard conforms every keyword form gradient call to positional form.
// Calls already in positional form and calls without closing parenthesis
// are left alone.
func (c *GradientConformer) ToStandard(qss string) string {
	var (
		b    strings.Builder
		rest = qss
	)
	for {
		start := c.locate(rest)
		if start < 0 {
			break
		}
		open := start + len(c.function)
		end := closingParen(rest, open)
		if end < 0 {
			break
		}
		b.WriteString(rest[:start])
		if args := rest[open+1 : end]; isKeywordForm(args) {
			b.WriteString(c.Parse(args).standard(c.function))
		} else {
			b.WriteString(rest[start : end+1])
		}
		rest = rest[end+1:]
	}
	b.WriteString(rest)
	return b.String()
}

// ToDialect returns css unchanged.
func (c *GradientConformer) ToDialect(css string) string {
	return css
}

// locate returns offset of the first call of conformer function which is not
// a tail of longer identifier, -1 if there is none.
func (c *GradientConformer) locate(s string) int {
	call := c.function + "("
	for from := 0; ; {
		i := strings.Index(s[from:], call)
		if i < 0 {
			return -1
		}
		i += from
		if i == 0 || !isIdentByte(s[i-1]) {
			return i
		}
		from = i + len(call)
	}
}

// Parse builds GradientSpec from arguments of keyword form call (text between
// parenthesis). Arguments are split on top level commas, fragments without
// "key:" are skipped, unknown keys are ignored and repeated keys overwrite
// earlier values. Stops keep the text after their first colon.
func (c *GradientConformer) Parse(args string) GradientSpec {
	spec := GradientSpec{Coords: make([]string, len(c.keys))}
	for i := range spec.Coords {
		spec.Coords[i] = "0"
	}
	if c.spread {
		spec.Spread = DefaultSpread
	}

	fragments := splitTopLevel(args, ',')
	for len(fragments) > 0 {
		fragment := fragments[0]
		fragments = fragments[1:]

		m := keywordArg.FindStringSubmatch(fragment)
		if m == nil {
			continue
		}
		key, value := m[1], normalize(m[2])
		if key != stopKey {
			if g := gluedStop.FindStringSubmatch(value); g != nil {
				value = g[1]
				fragments = append([]string{g[2]}, fragments...)
			}
		}
		if value == "" {
			continue
		}
		switch {
		case key == stopKey:
			spec.Stops = append(spec.Stops, value)
		case key == spreadKey:
			if c.spread {
				spec.Spread = value
			}
		default:
			if i := slices.Index(c.keys, key); i >= 0 {
				spec.Coords[i] = value
			}
		}
	}
	return spec
}

// isKeywordForm reports whether any top level argument looks like "key: value".
func isKeywordForm(args string) bool {
	for _, fragment := range splitTopLevel(args, ',') {
		if keywordArg.MatchString(fragment) {
			return true
		}
	}
	return false
}

// normalize collapses whitespace runs into single space.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '-' || b == '$' ||
		'0' <= b && b <= '9' || 'a' <= b && b <= 'z' || 'A' <= b && b <= 'Z'
}

// closingParen returns offset of parenthesis matching the one at open, -1 when
// it is unbalanced.
func closingParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits s on sep ignoring separators nested in parenthesis.
func splitTopLevel(s string, sep byte) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case sep:
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
