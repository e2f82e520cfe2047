package diffexpr

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distuv"
)

// EBayesFit adds moderated statistics to a LinearFit. Residual variances are
// shrunk towards a common prior estimated from all features, which
// stabilizes tests when there are few samples.
type EBayesFit struct {
	*LinearFit

	PriorDF  float64 // d0; +Inf when the variances show no extra spread
	PriorVar float64 // s0^2

	S2Post  []float64 // moderated variances
	DFTotal []float64

	T  *mat.Dense // moderated t, features x coefficients
	PT *mat.Dense // two-sided p-values of T

	// Moderated F over every coefficient except the intercept.
	F    []float64
	PF   []float64
	AdjF []float64 // Benjamini-Hochberg adjusted PF
	DF1  int
}

// EBayes computes moderated t and F statistics for fit.
func EBayes(fit *LinearFit) *EBayesFit {
	nf, p := fit.Coefficients.Dims()

	d0, s02 := fitFDist(fit.Sigma2, fit.DF)

	dfPooled := 0.0
	for _, df := range fit.DF {
		if df > 0 {
			dfPooled += df
		}
	}

	out := &EBayesFit{
		LinearFit: fit,
		PriorDF:   d0,
		PriorVar:  s02,
		S2Post:    make([]float64, nf),
		DFTotal:   make([]float64, nf),
		T:         mat.NewDense(nf, p, nil),
		PT:        mat.NewDense(nf, p, nil),
		F:         make([]float64, nf),
		PF:        make([]float64, nf),
		DF1:       p - 1,
	}

	for f := 0; f < nf; f++ {
		df, s2 := fit.DF[f], fit.Sigma2[f]

		switch {
		case df <= 0 || math.IsNaN(s2):
			out.S2Post[f] = math.NaN()
			out.DFTotal[f] = 0
		case math.IsInf(d0, 1):
			out.S2Post[f] = s02
			out.DFTotal[f] = dfPooled
		default:
			out.S2Post[f] = (d0*s02 + df*s2) / (d0 + df)
			out.DFTotal[f] = math.Min(d0+df, dfPooled)
		}

		sd := fit.StdevUnscaled(f)
		t := make([]float64, p)
		for j := 0; j < p; j++ {
			t[j] = fit.Coefficients.At(f, j) / (sd[j] * math.Sqrt(out.S2Post[f]))
			out.T.Set(f, j, t[j])
			out.PT.Set(f, j, tPValue(t[j], out.DFTotal[f]))
		}

		out.F[f] = moderatedF(t[1:], fit.unscaled[f])
		out.PF[f] = fPValue(out.F[f], float64(p-1), out.DFTotal[f])
	}

	out.AdjF = AdjustBH(out.PF)

	return out
}

func tPValue(t, df float64) float64 {
	if math.IsNaN(t) || df <= 0 {
		return math.NaN()
	}

	return 2 * distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Survival(math.Abs(t))
}

func fPValue(f, df1, df2 float64) float64 {
	if math.IsNaN(f) || df1 <= 0 || df2 <= 0 {
		return math.NaN()
	}

	return distuv.F{D1: df1, D2: df2}.Survival(f)
}

// moderatedF combines the t statistics of the non-intercept coefficients
// using their correlation: F = t' R^-1 t / q.
func moderatedF(t []float64, unscaled *mat.Dense) float64 {
	q := len(t)
	if q == 0 || unscaled == nil {
		return math.NaN()
	}
	for _, v := range t {
		if math.IsNaN(v) {
			return math.NaN()
		}
	}
	if q == 1 {
		return t[0] * t[0]
	}

	cor := mat.NewSymDense(q, nil)
	for i := 0; i < q; i++ {
		for j := i; j < q; j++ {
			c := unscaled.At(i+1, j+1) / math.Sqrt(unscaled.At(i+1, i+1)*unscaled.At(j+1, j+1))
			cor.SetSym(i, j, c)
		}
	}

	tv := mat.NewVecDense(q, t)
	var x mat.VecDense
	if err := x.SolveVec(cor, tv); err != nil {
		return math.NaN()
	}

	return mat.Dot(tv, &x) / float64(q)
}

// fitFDist estimates the prior degrees of freedom and prior variance from
// the sample variances by matching the moments of their logs to a scaled F
// distribution.
func fitFDist(s2, df []float64) (d0, s02 float64) {
	e := make([]float64, 0, len(s2))
	tri := 0.0

	for i := range s2 {
		if df[i] <= 0 || math.IsNaN(s2[i]) || s2[i] <= 0 || math.IsInf(s2[i], 0) {
			continue
		}
		half := df[i] / 2
		e = append(e, math.Log(s2[i])-mathext.Digamma(half)+math.Log(half))
		tri += trigamma(half)
	}

	n := float64(len(e))
	if n == 0 {
		return math.NaN(), math.NaN()
	}

	emean := 0.0
	for _, v := range e {
		emean += v
	}
	emean /= n

	if n < 2 {
		return math.Inf(1), math.Exp(emean)
	}

	evar := 0.0
	for _, v := range e {
		evar += (v - emean) * (v - emean)
	}
	evar = evar/(n-1) - tri/n

	if evar <= 0 {
		return math.Inf(1), math.Exp(emean)
	}

	d0 = 2 * trigammaInverse(evar)
	s02 = math.Exp(emean + mathext.Digamma(d0/2) - math.Log(d0/2))

	return d0, s02
}

// trigamma is the derivative of the digamma function.
func trigamma(x float64) float64 {
	acc := 0.0
	for x < 6 {
		acc += 1 / (x * x)
		x++
	}

	x2 := 1 / (x * x)
	return acc + 1/x + x2/2 + x2/x*(1.0/6-x2*(1.0/30-x2*(1.0/42-x2/30)))
}

// tetragamma is the second derivative of the digamma function.
func tetragamma(x float64) float64 {
	acc := 0.0
	for x < 6 {
		acc -= 2 / (x * x * x)
		x++
	}

	x2 := 1 / (x * x)
	return acc - x2 - x2/x - x2*x2/2 + x2*x2*x2/6 - x2*x2*x2*x2/6 + 3*x2*x2*x2*x2*x2/10
}

// trigammaInverse solves trigamma(y) = x for y by Newton's method.
func trigammaInverse(x float64) float64 {
	if x > 1e7 {
		return 1 / math.Sqrt(x)
	}
	if x < 1e-6 {
		return 1 / x
	}

	y := 0.5 + 1/x
	for i := 0; i < 50; i++ {
		tri := trigamma(y)
		dif := tri * (1 - tri/x) / tetragamma(y)
		y += dif
		if -dif/y < 1e-8 {
			break
		}
	}

	return y
}
