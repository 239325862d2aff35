package kinematics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// savgolFit holds the least-squares projection for one window: row k of
// proj maps a window of samples onto the k-th polynomial coefficient in
// local coordinates s = -half..half.
type savgolFit struct {
	window int
	order  int
	half   int
	proj   *mat.Dense // (order+1) x window
}

// newSavgolFit solves the local-polynomial projection matrix
// (AᵀA)⁻¹Aᵀ for the given window and order.
func newSavgolFit(window, order int) (*savgolFit, error) {
	if window%2 == 0 || window < 3 {
		return nil, fmt.Errorf("window must be odd and >= 3, got %d", window)
	}
	if order < 1 || order >= window {
		return nil, fmt.Errorf("order %d invalid for window %d", order, window)
	}
	half := window / 2

	a := mat.NewDense(window, order+1, nil)
	for i := 0; i < window; i++ {
		s := float64(i - half)
		p := 1.0
		for j := 0; j <= order; j++ {
			a.Set(i, j, p)
			p *= s
		}
	}

	var ata mat.Dense
	ata.Mul(a.T(), a)
	var inv mat.Dense
	if err := inv.Inverse(&ata); err != nil {
		return nil, fmt.Errorf("savgol normal equations singular: %w", err)
	}
	var proj mat.Dense
	proj.Mul(&inv, a.T())

	return &savgolFit{window: window, order: order, half: half, proj: &proj}, nil
}

// coeffs fits the local polynomial to one window of samples. Any NaN in
// the window poisons the fit; the caller receives all-NaN coefficients
// and must propagate the gap rather than invent data.
func (f *savgolFit) coeffs(win []float64) []float64 {
	for _, v := range win {
		if math.IsNaN(v) {
			nan := make([]float64, f.order+1)
			for i := range nan {
				nan[i] = math.NaN()
			}
			return nan
		}
	}
	out := make([]float64, f.order+1)
	for k := 0; k <= f.order; k++ {
		var sum float64
		for i := 0; i < f.window; i++ {
			sum += f.proj.At(k, i) * win[i]
		}
		out[k] = sum
	}
	return out
}

// evalDeriv evaluates the fitted polynomial's derivative of the given
// order at local coordinate s.
func evalDeriv(coeffs []float64, s float64, deriv int) float64 {
	var sum float64
	for k := deriv; k < len(coeffs); k++ {
		factor := 1.0
		for m := 0; m < deriv; m++ {
			factor *= float64(k - m)
		}
		sum += coeffs[k] * factor * math.Pow(s, float64(k-deriv))
	}
	return sum
}

// SavitzkyGolay computes the deriv-th derivative of x by least-squares
// local-polynomial fitting: each interior sample is the derivative of a
// polynomial of the given order fitted over the centred window, and the
// first and last half-windows evaluate the edge fits at their
// asymmetric offsets. dt is the sample interval in seconds.
//
// This is not a finite difference: the polynomial fit rejects noise at
// a bounded effective cutoff set by window and order.
func SavitzkyGolay(x []float64, window, order, deriv int, dt float64) ([]float64, error) {
	if deriv < 0 || deriv > order {
		return nil, fmt.Errorf("derivative order %d exceeds polynomial order %d", deriv, order)
	}
	if dt <= 0 {
		return nil, fmt.Errorf("sample interval must be positive, got %g", dt)
	}
	if len(x) < window {
		return nil, fmt.Errorf("series of %d samples shorter than window %d", len(x), window)
	}
	fit, err := newSavgolFit(window, order)
	if err != nil {
		return nil, err
	}

	n := len(x)
	half := fit.half
	scale := math.Pow(dt, -float64(deriv))
	out := make([]float64, n)

	// Leading edge: fit the first window once, evaluate at each offset.
	head := fit.coeffs(x[:window])
	for i := 0; i < half; i++ {
		out[i] = evalDeriv(head, float64(i-half), deriv) * scale
	}

	for i := half; i < n-half; i++ {
		c := fit.coeffs(x[i-half : i+half+1])
		out[i] = evalDeriv(c, 0, deriv) * scale
	}

	tail := fit.coeffs(x[n-window:])
	for i := n - half; i < n; i++ {
		out[i] = evalDeriv(tail, float64(i-(n-1-half)), deriv) * scale
	}

	return out, nil
}

// WindowForRate converts a window duration in seconds to an odd frame
// count at the given sample rate (e.g. 0.175 s at 120 Hz → 21 frames).
func WindowForRate(seconds, fs float64) int {
	w := int(math.Round(seconds * fs))
	if w%2 == 0 {
		w++
	}
	if w < 5 {
		w = 5
	}
	return w
}
