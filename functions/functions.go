// Package functions implements custom functions handed to the style sheet
// compiler. They turn typed values back into QSS notation.
package functions

import (
	"errors"
	"fmt"
	"strings"

	"qtsass/sass"
)

var (
	ErrArguments = errors.New("unexpected number of arguments")
	ErrType      = errors.New("unexpected argument type")
)

var (
	linearKeys = []string{"x1", "y1", "x2", "y2"}
	radialKeys = []string{"cx", "cy", "radius", "fx", "fy"}
)

// Table returns name to function mapping for the compiler.
func Table() map[string]sass.Function {
	return map[string]sass.Function{
		"rgba":            Rgba,
		"qlineargradient": QLinearGradient,
		"qradialgradient": QRadialGradient,
	}
}

// Rgba accepts either (red, green, blue, alpha) or (color, alpha) and
// renders "rgba(r, g, b, a%)".
func Rgba(args []sass.Value) (sass.Value, error) {
	switch len(args) {
	case 4:
		var ch [3]float64
		for i := range ch {
			n, ok := args[i].(sass.Number)
			if !ok {
				return nil, fmt.Errorf("rgba: channel %d is %T: %w", i+1, args[i], ErrType)
			}
			ch[i] = n.Value
		}
		a, ok := args[3].(sass.Number)
		if !ok {
			return nil, fmt.Errorf("rgba: alpha is %T: %w", args[3], ErrType)
		}
		return sass.String{Text: format(ch[0], ch[1], ch[2], AlphaPercent(a))}, nil
	case 2:
		c, ok := args[0].(sass.Color)
		if !ok {
			return nil, fmt.Errorf("rgba: color is %T: %w", args[0], ErrType)
		}
		a, ok := args[1].(sass.Number)
		if !ok {
			return nil, fmt.Errorf("rgba: alpha is %T: %w", args[1], ErrType)
		}
		return sass.String{Text: format(c.R, c.G, c.B, AlphaPercent(a))}, nil
	}
	return nil, fmt.Errorf("rgba: got %d arguments: %w", len(args), ErrArguments)
}

// RgbaFromColor renders color value in rgba notation, anything else is
// rendered as is.
func RgbaFromColor(v sass.Value) string {
	c, ok := v.(sass.Color)
	if !ok {
		return v.String()
	}
	return format(c.R, c.G, c.B, AlphaPercent(sass.Number{Value: c.A}))
}

// AlphaPercent normalizes alpha to whole percents. Percentages are used
// directly, values above 1 are on 0-255 scale, the rest are fractions.
func AlphaPercent(a sass.Number) int {
	switch {
	case a.IsPercent():
		return int(a.Value)
	case a.Value > 1:
		return int(a.Value / 2.55)
	default:
		return int(a.Value * 100)
	}
}

func format(r, g, b float64, alpha int) string {
	return fmt.Sprintf("rgba(%d, %d, %d, %d%%)", int(r), int(g), int(b), alpha)
}

// QLinearGradient renders
//
//	qlineargradient(x1: …, y1: …, x2: …, y2: …, stop: p0 c0, …)
func QLinearGradient(args []sass.Value) (sass.Value, error) {
	if len(args) != len(linearKeys) && len(args) != len(linearKeys)+1 {
		return nil, fmt.Errorf("qlineargradient: got %d arguments: %w", len(args), ErrArguments)
	}
	return gradient("qlineargradient", nil, linearKeys, args)
}

// QRadialGradient renders
//
//	qradialgradient(spread: …, cx: …, cy: …, radius: …, fx: …, fy: …, stop: p0 c0, …)
func QRadialGradient(args []sass.Value) (sass.Value, error) {
	if len(args) != len(radialKeys)+1 && len(args) != len(radialKeys)+2 {
		return nil, fmt.Errorf("qradialgradient: got %d arguments: %w", len(args), ErrArguments)
	}
	return gradient("qradialgradient", args[0], radialKeys, args[1:])
}

func gradient(name string, spread sass.Value, keys []string, args []sass.Value) (sass.Value, error) {
	parts := make([]string, 0, len(keys)+4)
	if spread != nil {
		parts = append(parts, "spread: "+plain(spread))
	}
	for i, key := range keys {
		parts = append(parts, key+": "+plain(args[i]))
	}
	if len(args) > len(keys) {
		stops, err := Stops(args[len(keys)])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		parts = append(parts, stops...)
	}
	return sass.String{Text: name + "(" + strings.Join(parts, ", ") + ")"}, nil
}

// Stops renders stop list, either comma separated list of "position color"
// pairs or a single pair, as "stop: position color" entries.
func Stops(v sass.Value) ([]string, error) {
	list, ok := v.(sass.List)
	if !ok {
		return nil, fmt.Errorf("stops are %T: %w", v, ErrType)
	}
	items := list.Items
	if list.Separator == sass.SpaceSeparator {
		items = []sass.Value{list}
	}

	stops := make([]string, 0, len(items))
	for i, item := range items {
		pair, ok := item.(sass.List)
		if !ok || pair.Separator != sass.SpaceSeparator || len(pair.Items) < 2 {
			return nil, fmt.Errorf("stop %d %q is not position and color: %w", i, item.String(), ErrType)
		}
		color := pair.Items[1]
		if len(pair.Items) > 2 {
			color = sass.List{Items: pair.Items[1:]}
		}
		stops = append(stops, fmt.Sprintf("stop: %s %s", plain(pair.Items[0]), RgbaFromColor(color)))
	}
	return stops, nil
}

// plain renders value without quotes.
func plain(v sass.Value) string {
	if s, ok := v.(sass.String); ok {
		return s.Text
	}
	return v.String()
}
