package sass

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is typed argument or result of a custom function.
type Value interface {
	// String renders value the way it appears in CSS output.
	String() string
}

// Number is numeric value with optional unit ("%", "px", ...).
type Number struct {
	Value float64
	Unit  string
}

func (n Number) String() string {
	return FormatNumber(n.Value) + n.Unit
}

// IsPercent reports whether number carries percent unit.
func (n Number) IsPercent() bool {
	return n.Unit == "%"
}

// FormatNumber renders float using shortest representation, "1" rather than "1.0".
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Color is RGBA color, channels are in 0-255 range, alpha is 0-1.
type Color struct {
	R, G, B float64
	A       float64
	// Name keeps original keyword ("red") or hex notation for output.
	Name string
}

func (c Color) String() string {
	if c.Name != "" {
		return c.Name
	}
	if c.A >= 1 {
		return fmt.Sprintf("#%02x%02x%02x", int(c.R), int(c.G), int(c.B))
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", int(c.R), int(c.G), int(c.B), FormatNumber(c.A))
}

// String is quoted or unquoted string. Quote is 0 for unquoted strings.
type String struct {
	Text  string
	Quote byte
}

func (s String) String() string {
	if s.Quote == 0 {
		return s.Text
	}
	q := string(s.Quote)
	return q + s.Text + q
}

// Separator of list items.
type Separator int

const (
	SpaceSeparator Separator = iota
	CommaSeparator
)

func (s Separator) join() string {
	if s == CommaSeparator {
		return ", "
	}
	return " "
}

// List is ordered list of values.
type List struct {
	Items     []Value
	Separator Separator
	// Parens is set for lists written inside parenthesis.
	Parens bool
}

func (l List) String() string {
	parts := make([]string, 0, len(l.Items))
	for _, item := range l.Items {
		parts = append(parts, item.String())
	}
	s := strings.Join(parts, l.Separator.join())
	if l.Parens {
		return "(" + s + ")"
	}
	return s
}
