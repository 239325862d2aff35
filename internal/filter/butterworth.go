package filter

import (
	"fmt"
	"math"
)

// biquad holds the coefficients of a 2nd-order IIR section with a0
// normalised to 1.
type biquad struct {
	b0, b1, b2 float64
	a1, a2     float64
}

// designButterworth2 designs a 2nd-order Butterworth low-pass section
// at cutoffHz for a signal sampled at fs, via the bilinear transform
// with frequency pre-warping.
func designButterworth2(cutoffHz, fs float64) (biquad, error) {
	if fs <= 0 {
		return biquad{}, fmt.Errorf("sample rate must be positive, got %g", fs)
	}
	if cutoffHz <= 0 || cutoffHz >= fs/2 {
		return biquad{}, fmt.Errorf("cutoff %.3g Hz outside (0, %.3g) Hz", cutoffHz, fs/2)
	}

	wc := math.Tan(math.Pi * cutoffHz / fs)
	k1 := math.Sqrt2 * wc
	k2 := wc * wc
	norm := 1 + k1 + k2

	return biquad{
		b0: k2 / norm,
		b1: 2 * k2 / norm,
		b2: k2 / norm,
		a1: 2 * (k2 - 1) / norm,
		a2: (1 - k1 + k2) / norm,
	}, nil
}

// apply runs the section over x in the forward direction
// (direct form II transposed).
func (f biquad) apply(x []float64) []float64 {
	y := make([]float64, len(x))
	var z1, z2 float64
	for i, v := range x {
		out := f.b0*v + z1
		z1 = f.b1*v - f.a1*out + z2
		z2 = f.b2*v - f.a2*out
		y[i] = out
	}
	return y
}

// filtFiltPadFactor sizes the odd-reflection padding used to suppress
// edge transients in the bidirectional pass, in multiples of the
// section length.
const filtFiltPadFactor = 3

// FiltFilt applies a 2nd-order Butterworth low-pass at cutoffHz in both
// directions, cancelling phase shift. The effective response is 4th
// order with zero lag, which keeps peak timing intact for the
// derivative stages.
func FiltFilt(x []float64, cutoffHz, fs float64) ([]float64, error) {
	f, err := designButterworth2(cutoffHz, fs)
	if err != nil {
		return nil, err
	}
	n := len(x)
	if n < 3 {
		out := make([]float64, n)
		copy(out, x)
		return out, nil
	}

	padlen := filtFiltPadFactor * 3
	if padlen > n-1 {
		padlen = n - 1
	}

	// Odd extension about the end points: mirrors the signal so the
	// filter state settles before the real samples begin.
	ext := make([]float64, 0, n+2*padlen)
	for i := padlen; i >= 1; i-- {
		ext = append(ext, 2*x[0]-x[i])
	}
	ext = append(ext, x...)
	for i := n - 2; i >= n-1-padlen; i-- {
		ext = append(ext, 2*x[n-1]-x[i])
	}

	y := f.apply(ext)
	reverse(y)
	y = f.apply(y)
	reverse(y)

	out := make([]float64, n)
	copy(out, y[padlen:padlen+n])
	return out, nil
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
