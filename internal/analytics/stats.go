package analytics

import (
	"math"

	"MoodPulse/internal/domain/models"
)

// SimpleReturns computes r_t = p_t/p_{t-1} - 1 over consecutive samples.
// It returns a slice of length len(samples)-1, or nil if insufficient data.
func SimpleReturns(samples []models.Sample) []float64 {
	if len(samples) < 2 {
		return nil
	}
	out := make([]float64, 0, len(samples)-1)
	for i := 1; i < len(samples); i++ {
		prev := samples[i-1].Price
		cur := samples[i].Price
		if prev <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, cur/prev-1)
	}
	return out
}

// CumulativeReturn is the whole-window simple return, first to last sample.
func CumulativeReturn(samples []models.Sample) float64 {
	if len(samples) < 2 {
		return 0
	}
	first := samples[0].Price
	last := samples[len(samples)-1].Price
	if first <= 0 {
		return 0
	}
	return last/first - 1
}

// StdDev is the sample standard deviation; zero for fewer than 2 values.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	n := float64(len(xs))
	mean := sum / n
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	v := ss / (n - 1)
	if v < 0 {
		v = 0
	}
	return math.Sqrt(v)
}

// Pearson computes the Pearson correlation coefficient of two equal-length
// series. The second return is false when the coefficient is undefined:
// mismatched/short input or zero variance in either series. A defined
// result is clamped to [-1, 1].
func Pearson(xs, ys []float64) (float64, bool) {
	n := len(xs)
	if n != len(ys) || n < 2 {
		return 0, false
	}
	var sx, sy float64
	for i := 0; i < n; i++ {
		sx += xs[i]
		sy += ys[i]
	}
	mx := sx / float64(n)
	my := sy / float64(n)
	var cov, vx, vy float64
	for i := 0; i < n; i++ {
		dx := xs[i] - mx
		dy := ys[i] - my
		cov += dx * dy
		vx += dx * dx
		vy += dy * dy
	}
	if vx == 0 || vy == 0 {
		return 0, false
	}
	r := cov / math.Sqrt(vx*vy)
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r, true
}

// AlignByTimestamp pairs samples from two ordered series whose timestamps
// match within tolerance, using a two-pointer walk. The returned slices
// have equal length.
func AlignByTimestamp(a, b []models.Sample, tolerance int64) (pa, pb []models.Sample) {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ta := a[i].Timestamp.Unix()
		tb := b[j].Timestamp.Unix()
		diff := ta - tb
		switch {
		case diff < -tolerance:
			i++
		case diff > tolerance:
			j++
		default:
			pa = append(pa, a[i])
			pb = append(pb, b[j])
			i++
			j++
		}
	}
	return pa, pb
}
