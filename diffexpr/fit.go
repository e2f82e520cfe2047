package diffexpr

import (
	"fmt"
	"math"

	"github.com/carbocation/esetclust/eset"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// LinearFit holds per-feature ordinary least squares results.
type LinearFit struct {
	Features []string
	Symbols  []string // Optional; same order as Features
	Design   *Design

	Coefficients *mat.Dense // features x coefficients
	Sigma2       []float64  // residual variance
	DF           []float64  // residual degrees of freedom
	AveExpr      []float64

	// (X'X)^-1 for each feature. Features without missing values share one
	// matrix.
	unscaled []*mat.Dense
}

// Fit regresses every feature of es on the design. Missing values are
// dropped feature by feature, which lowers that feature's residual degrees
// of freedom. Features that cannot be estimated get NaN statistics.
func Fit(es *eset.ExpressionSet, d *Design) (*LinearFit, error) {
	nf, ns := es.Dims()
	n, p := d.X.Dims()
	if n != ns {
		return nil, fmt.Errorf("%w: design has %d rows, expression set has %d samples", ErrShapeMismatch, n, ns)
	}

	full, fullCov, err := leastSquares(d.X)
	if err != nil {
		return nil, err
	}

	out := &LinearFit{
		Features:     es.Features(),
		Design:       d,
		Coefficients: mat.NewDense(nf, p, nil),
		Sigma2:       make([]float64, nf),
		DF:           make([]float64, nf),
		AveExpr:      make([]float64, nf),
		unscaled:     make([]*mat.Dense, nf),
	}

	for f := 0; f < nf; f++ {
		y := es.Row(f)
		obs := observed(y)

		if len(obs) > 0 {
			vals := make([]float64, len(obs))
			for i, j := range obs {
				vals[i] = y[j]
			}
			out.AveExpr[f] = stat.Mean(vals, nil)
		} else {
			out.AveExpr[f] = math.NaN()
		}

		qr, cov := full, fullCov
		X := mat.Matrix(d.X)
		yObs := mat.NewVecDense(n, y)

		if len(obs) < n {
			if len(obs) == 0 {
				out.setMissing(f)
				continue
			}

			Xs := mat.NewDense(len(obs), p, nil)
			ys := make([]float64, len(obs))
			for i, j := range obs {
				Xs.SetRow(i, mat.Row(nil, j, d.X))
				ys[i] = y[j]
			}

			if qr, cov, err = leastSquares(Xs); err != nil {
				out.setMissing(f)
				continue
			}
			X = Xs
			yObs = mat.NewVecDense(len(ys), ys)
		}

		beta := mat.NewVecDense(p, nil)
		if err := qr.SolveVecTo(beta, false, yObs); err != nil {
			out.setMissing(f)
			continue
		}
		out.unscaled[f] = cov

		var fitted mat.VecDense
		fitted.MulVec(X, beta)
		var resid mat.VecDense
		resid.SubVec(yObs, &fitted)

		out.Coefficients.SetRow(f, beta.RawVector().Data)
		out.DF[f] = float64(yObs.Len() - p)
		if out.DF[f] > 0 {
			out.Sigma2[f] = mat.Dot(&resid, &resid) / out.DF[f]
		} else {
			out.Sigma2[f] = math.NaN()
		}
	}

	return out, nil
}

func (l *LinearFit) setMissing(f int) {
	_, p := l.Coefficients.Dims()
	for j := 0; j < p; j++ {
		l.Coefficients.Set(f, j, math.NaN())
	}
	l.Sigma2[f] = math.NaN()
	l.DF[f] = 0
}

// StdevUnscaled returns sqrt(diag((X'X)^-1)) for feature f.
func (l *LinearFit) StdevUnscaled(f int) []float64 {
	_, p := l.Coefficients.Dims()
	out := make([]float64, p)
	for j := range out {
		if l.unscaled[f] == nil {
			out[j] = math.NaN()
			continue
		}
		out[j] = math.Sqrt(l.unscaled[f].At(j, j))
	}

	return out
}

// rankTolerance bounds the reciprocal condition number of a design that is
// still treated as full rank.
const rankTolerance = 1e-7

// leastSquares factorizes X for the coefficient solves and returns the
// unscaled covariance (X'X)^-1 = R^-1 R^-T alongside it.
func leastSquares(X mat.Matrix) (*mat.QR, *mat.Dense, error) {
	n, p := X.Dims()
	if n < p {
		return nil, nil, fmt.Errorf("%w: %d observations for %d coefficients", ErrSingular, n, p)
	}

	qr := &mat.QR{}
	qr.Factorize(X)
	if qr.Cond() > 1/rankTolerance {
		return nil, nil, fmt.Errorf("%w: condition number %g", ErrSingular, qr.Cond())
	}

	// The minimum norm solution of X'Z = I is Q R^-T, so Z'Z = R^-1 R^-T.
	ones := make([]float64, p)
	for i := range ones {
		ones[i] = 1
	}
	var z mat.Dense
	if err := qr.SolveTo(&z, true, mat.NewDiagDense(p, ones)); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	var cov mat.Dense
	cov.Mul(z.T(), &z)

	return qr, &cov, nil
}

func observed(y []float64) []int {
	out := make([]int, 0, len(y))
	for i, v := range y {
		if !math.IsNaN(v) {
			out = append(out, i)
		}
	}

	return out
}
