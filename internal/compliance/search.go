package compliance

import (
	"strings"

	"github.com/arturoeanton/finsentsis/internal/domain"
	"golang.org/x/text/cases"
)

// Search narrows regulations to those whose title or region contains term,
// ignoring case. A blank term returns the input unchanged.
func Search(regs []domain.Regulation, term string) []domain.Regulation {
	term = strings.TrimSpace(term)
	if term == "" {
		return regs
	}
	fold := cases.Fold() // a Caser is stateful; never share one across goroutines
	needle := fold.String(term)

	out := make([]domain.Regulation, 0, len(regs))
	for _, r := range regs {
		if strings.Contains(fold.String(r.Title), needle) || strings.Contains(fold.String(r.Region), needle) {
			out = append(out, r)
		}
	}
	return out
}
