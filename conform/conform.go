// Package conform rewrites Qt stylesheet (QSS) constructs which standard SCSS
// compilers reject into equivalent SCSS, and back.
package conform

import "strings"

// Conformer converts one QSS-only construct to SCSS and back. Both directions
// return input unchanged when the construct is absent. A conformer must only
// touch the textual marker it owns.
type Conformer interface {
	Name() string
	// ToStandard transforms QSS to valid SCSS.
	ToStandard(qss string) string
	// ToDialect transforms compiled CSS back to valid QSS.
	ToDialect(css string) string
}

// Pipeline is a fixed ordered list of conformers.
type Pipeline struct {
	conformers []Conformer
}

// NewPipeline creates pipeline running conformers in the given order.
func NewPipeline(conformers ...Conformer) *Pipeline {
	return &Pipeline{conformers: append([]Conformer(nil), conformers...)}
}

// Default returns pipeline with all known conformers.
func Default() *Pipeline {
	return NewPipeline(
		NotConformer{},
		NewLinearGradientConformer(),
		NewRadialGradientConformer(),
	)
}

// Conformers returns copy of the pipeline content in declaration order.
func (p *Pipeline) Conformers() []Conformer {
	return append([]Conformer(nil), p.conformers...)
}

// ToStandard runs ToStandard of every conformer in declaration order.
func (p *Pipeline) ToStandard(qss string) string {
	conformed := qss
	for _, c := range p.conformers {
		conformed = c.ToStandard(conformed)
	}
	return conformed
}

// ToDialect runs ToDialect of every conformer in reverse order, so
// transformations applied first going forward are undone last.
func (p *Pipeline) ToDialect(css string) string {
	conformed := css
	for i := len(p.conformers) - 1; i >= 0; i-- {
		conformed = p.conformers[i].ToDialect(conformed)
	}
	return conformed
}

const (
	qssNot  = ":!"
	scssNot = ":_qnot_"
)

// NotConformer handles "!" negation of pseudo states in selectors.
type NotConformer struct{}

func (NotConformer) Name() string { return "not" }

// ToStandard replaces ":!" with ":_qnot_".
func (NotConformer) ToStandard(qss string) string {
	return strings.ReplaceAll(qss, qssNot, scssNot)
}

// ToDialect replaces ":_qnot_" with ":!".
func (NotConformer) ToDialect(css string) string {
	return strings.ReplaceAll(css, scssNot, qssNot)
}
