package diffexpr

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Row is one line of a top table.
type Row struct {
	Index        int // Position of the feature in the fit
	Feature      string
	Symbol       string
	Coefficients []float64
	AveExpr      float64

	// Either the moderated F (when ranking on all coefficients) or the
	// moderated t of the chosen coefficient.
	Statistic float64
	PValue    float64
	AdjPValue float64
}

// TopTable ranks features by significance. With coef empty, features are
// ranked by the moderated F p-value; otherwise by the moderated t p-value of
// the named coefficient. n <= 0 returns every feature. NaN p-values sort
// last.
func TopTable(eb *EBayesFit, n int, coef string) ([]Row, error) {
	nf, _ := eb.Coefficients.Dims()

	stat, pvals, adj := eb.F, eb.PF, eb.AdjF
	if coef != "" {
		j := -1
		for i, name := range eb.Design.Coefficients {
			if name == coef {
				j = i
			}
		}
		if j < 0 {
			return nil, fmt.Errorf("diffexpr: no coefficient %q (have %s)", coef, strings.Join(eb.Design.Coefficients, ", "))
		}

		stat = make([]float64, nf)
		pvals = make([]float64, nf)
		for f := 0; f < nf; f++ {
			stat[f] = eb.T.At(f, j)
			pvals[f] = eb.PT.At(f, j)
		}
		adj = AdjustBH(pvals)
	}

	order := make([]int, nf)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		pa, pb := pvals[order[a]], pvals[order[b]]
		if math.IsNaN(pb) {
			return !math.IsNaN(pa)
		}
		if math.IsNaN(pa) {
			return false
		}
		return pa < pb
	})

	if n <= 0 || n > nf {
		n = nf
	}

	out := make([]Row, n)
	for i, f := range order[:n] {
		row := Row{
			Index:        f,
			Feature:      eb.Features[f],
			Coefficients: append([]float64(nil), eb.Coefficients.RawRowView(f)...),
			AveExpr:      eb.AveExpr[f],
			Statistic:    stat[f],
			PValue:       pvals[f],
			AdjPValue:    adj[f],
		}
		if len(eb.Symbols) == len(eb.Features) {
			row.Symbol = eb.Symbols[f]
		}
		out[i] = row
	}

	return out, nil
}

// Indices returns the fit positions of rows, e.g. to subset an expression
// set to its top features.
func Indices(rows []Row) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.Index
	}

	return out
}

// WriteTopTable writes rows as a tab-delimited table.
func WriteTopTable(w io.Writer, rows []Row, coefficients []string) error {
	header := []string{"feature", "symbol"}
	header = append(header, coefficients...)
	header = append(header, "AveExpr", "statistic", "P.Value", "adj.P.Val")
	if _, err := fmt.Fprintln(w, strings.Join(header, "\t")); err != nil {
		return err
	}

	for _, r := range rows {
		fields := []string{r.Feature, r.Symbol}
		for _, c := range r.Coefficients {
			fields = append(fields, formatFloat(c))
		}
		fields = append(fields, formatFloat(r.AveExpr), formatFloat(r.Statistic), formatFloat(r.PValue), formatFloat(r.AdjPValue))

		if _, err := fmt.Fprintln(w, strings.Join(fields, "\t")); err != nil {
			return err
		}
	}

	return nil
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "NA"
	}

	return strconv.FormatFloat(v, 'g', 6, 64)
}
