package plaincss

import (
	"strconv"
	"strings"

	"github.com/tdewolff/parse/v2/css"
	"golang.org/x/image/colornames"

	"qtsass/sass"
)

// literal converts single token to value.
func literal(t token) sass.Value {
	switch t.typ {
	case css.NumberToken:
		if v, err := strconv.ParseFloat(t.text, 64); err == nil {
			return sass.Number{Value: v}
		}
	case css.PercentageToken:
		if v, err := strconv.ParseFloat(strings.TrimSuffix(t.text, "%"), 64); err == nil {
			return sass.Number{Value: v, Unit: "%"}
		}
	case css.DimensionToken:
		if n, ok := dimension(t.text); ok {
			return n
		}
	case css.HashToken:
		if c, ok := hexColor(t.text); ok {
			return c
		}
	case css.IdentToken:
		if c, ok := namedColor(t.text); ok {
			return c
		}
	case css.StringToken:
		return sass.String{Text: unquote(t.text), Quote: t.text[0]}
	}
	return sass.String{Text: t.text}
}

// dimension splits "12.5px" into number and unit.
func dimension(text string) (sass.Number, bool) {
	i := 0
	if i < len(text) && (text[i] == '+' || text[i] == '-') {
		i++
	}
	for i < len(text) && (text[i] >= '0' && text[i] <= '9' || text[i] == '.') {
		i++
	}
	// exponent, but not unit starting with "e" such as "em"
	if i+1 < len(text) && (text[i] == 'e' || text[i] == 'E') {
		j := i + 1
		if text[j] == '+' || text[j] == '-' {
			j++
		}
		if j < len(text) && text[j] >= '0' && text[j] <= '9' {
			for j < len(text) && text[j] >= '0' && text[j] <= '9' {
				j++
			}
			i = j
		}
	}
	v, err := strconv.ParseFloat(text[:i], 64)
	if err != nil || i == len(text) {
		return sass.Number{}, false
	}
	return sass.Number{Value: v, Unit: text[i:]}, true
}

// hexColor parses #rgb, #rgba, #rrggbb and #rrggbbaa.
func hexColor(text string) (sass.Color, bool) {
	hex := strings.TrimPrefix(text, "#")
	var digits []string
	switch len(hex) {
	case 3, 4:
		for _, r := range hex {
			digits = append(digits, string(r)+string(r))
		}
	case 6, 8:
		for i := 0; i < len(hex); i += 2 {
			digits = append(digits, hex[i:i+2])
		}
	default:
		return sass.Color{}, false
	}

	ch := [4]float64{0, 0, 0, 255}
	for i, d := range digits {
		v, err := strconv.ParseUint(d, 16, 8)
		if err != nil {
			return sass.Color{}, false
		}
		ch[i] = float64(v)
	}
	return sass.Color{R: ch[0], G: ch[1], B: ch[2], A: ch[3] / 255, Name: text}, true
}

func namedColor(name string) (sass.Color, bool) {
	lower := strings.ToLower(name)
	if lower == "transparent" {
		return sass.Color{Name: name}, true
	}
	c, ok := colornames.Map[lower]
	if !ok {
		return sass.Color{}, false
	}
	return sass.Color{R: float64(c.R), G: float64(c.G), B: float64(c.B), A: float64(c.A) / 255, Name: name}, true
}

// colorFromChannels builds color from rgb()/rgba() arguments when all of
// them are numbers.
func colorFromChannels(args []sass.Value) (sass.Color, bool) {
	if len(args) != 3 && len(args) != 4 {
		return sass.Color{}, false
	}
	ch := [4]float64{0, 0, 0, 1}
	for i, a := range args {
		n, ok := a.(sass.Number)
		if !ok {
			return sass.Color{}, false
		}
		switch {
		case i == 3 && n.IsPercent():
			ch[i] = n.Value / 100
		case n.IsPercent():
			ch[i] = n.Value * 2.55
		default:
			ch[i] = n.Value
		}
	}
	return sass.Color{R: ch[0], G: ch[1], B: ch[2], A: ch[3]}, true
}
