package analytics

import (
	"math"
	"testing"
	"time"

	"MoodPulse/internal/domain/models"
)

func samplesAt(asset string, start time.Time, step time.Duration, prices ...float64) []models.Sample {
	out := make([]models.Sample, len(prices))
	for i, p := range prices {
		out[i] = models.Sample{
			Asset:     asset,
			Timestamp: start.Add(time.Duration(i) * step),
			Price:     p,
			Volume:    1000,
		}
	}
	return out
}

func TestSimpleReturns(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rets := SimpleReturns(samplesAt("BTC", base, time.Minute, 100, 102, 101, 105))
	if len(rets) != 3 {
		t.Fatalf("expected 3 returns, got %d", len(rets))
	}
	want := []float64{0.02, 101.0/102.0 - 1, 105.0/101.0 - 1}
	for i, w := range want {
		if math.Abs(rets[i]-w) > 1e-12 {
			t.Fatalf("return %d: got %v, want %v", i, rets[i], w)
		}
	}
}

func TestSimpleReturnsInsufficient(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if got := SimpleReturns(samplesAt("BTC", base, time.Minute, 100)); got != nil {
		t.Fatalf("single sample should yield nil, got %v", got)
	}
	if got := SimpleReturns(nil); got != nil {
		t.Fatalf("empty input should yield nil, got %v", got)
	}
}

func TestStdDev(t *testing.T) {
	if got := StdDev([]float64{5}); got != 0 {
		t.Fatalf("single value stddev should be 0, got %v", got)
	}
	if got := StdDev([]float64{3, 3, 3}); got != 0 {
		t.Fatalf("constant series stddev should be 0, got %v", got)
	}
	got := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	want := math.Sqrt(32.0 / 7.0)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("stddev: got %v, want %v", got, want)
	}
}

func TestPearsonPerfectPositive(t *testing.T) {
	r, ok := Pearson([]float64{1, 2, 3, 4}, []float64{2, 4, 6, 8})
	if !ok {
		t.Fatalf("expected defined correlation")
	}
	if math.Abs(r-1) > 1e-12 {
		t.Fatalf("expected +1, got %v", r)
	}
}

func TestPearsonPerfectNegative(t *testing.T) {
	r, ok := Pearson([]float64{1, 2, 3}, []float64{3, 2, 1})
	if !ok {
		t.Fatalf("expected defined correlation")
	}
	if math.Abs(r+1) > 1e-12 {
		t.Fatalf("expected -1, got %v", r)
	}
}

func TestPearsonUndefined(t *testing.T) {
	cases := []struct {
		name   string
		xs, ys []float64
	}{
		{"short", []float64{1}, []float64{2}},
		{"mismatched", []float64{1, 2}, []float64{1, 2, 3}},
		{"zero variance x", []float64{1, 1, 1}, []float64{1, 2, 3}},
		{"zero variance y", []float64{1, 2, 3}, []float64{5, 5, 5}},
	}
	for _, tc := range cases {
		if _, ok := Pearson(tc.xs, tc.ys); ok {
			t.Fatalf("%s: expected undefined correlation", tc.name)
		}
	}
}

func TestAlignByTimestamp(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a := []models.Sample{
		{Asset: "BTC", Timestamp: base, Price: 1},
		{Asset: "BTC", Timestamp: base.Add(60 * time.Second), Price: 2},
		{Asset: "BTC", Timestamp: base.Add(120 * time.Second), Price: 3},
	}
	b := []models.Sample{
		{Asset: "ETH", Timestamp: base.Add(5 * time.Second), Price: 10},
		{Asset: "ETH", Timestamp: base.Add(200 * time.Second), Price: 11},
	}

	pa, pb := AlignByTimestamp(a, b, 10)
	if len(pa) != 1 || len(pb) != 1 {
		t.Fatalf("expected 1 aligned pair, got %d/%d", len(pa), len(pb))
	}
	if pa[0].Price != 1 || pb[0].Price != 10 {
		t.Fatalf("wrong pair aligned: %v / %v", pa[0], pb[0])
	}
}

func TestAlignByTimestampAllWithinTolerance(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a := samplesAt("BTC", base, time.Minute, 100, 102, 101, 105)
	b := samplesAt("ETH", base.Add(20*time.Second), time.Minute, 50, 51, 50, 52)

	pa, pb := AlignByTimestamp(a, b, 30)
	if len(pa) != 4 || len(pb) != 4 {
		t.Fatalf("expected 4 aligned pairs, got %d/%d", len(pa), len(pb))
	}
}

func TestCumulativeReturn(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	got := CumulativeReturn(samplesAt("BTC", base, time.Minute, 100, 102, 101, 105))
	if math.Abs(got-0.05) > 1e-12 {
		t.Fatalf("cumulative return: got %v, want 0.05", got)
	}
	if got := CumulativeReturn(samplesAt("BTC", base, time.Minute, 100)); got != 0 {
		t.Fatalf("single sample cumulative return should be 0, got %v", got)
	}
}

func TestBucketTrend(t *testing.T) {
	cases := []struct {
		cum  float64
		want models.TrendBucket
	}{
		{0.03, models.TrendStrongUp},
		{0.01, models.TrendUp},
		{0.001, models.TrendFlat},
		{-0.001, models.TrendFlat},
		{-0.01, models.TrendDown},
		{-0.03, models.TrendStrongDown},
	}
	for _, tc := range cases {
		if got := BucketTrend(tc.cum, 0.5, 2.0); got != tc.want {
			t.Fatalf("BucketTrend(%v): got %s, want %s", tc.cum, got, tc.want)
		}
	}
}

func TestBucketVolumeTrend(t *testing.T) {
	cases := []struct {
		change float64
		want   models.VolumeTrend
	}{
		{30, models.VolumeSignificantIncrease},
		{15, models.VolumeModerateIncrease},
		{2, models.VolumeStable},
		{-15, models.VolumeModerateDecrease},
		{-40, models.VolumeSignificantDecrease},
	}
	for _, tc := range cases {
		if got := BucketVolumeTrend(tc.change, 10, 25); got != tc.want {
			t.Fatalf("BucketVolumeTrend(%v): got %s, want %s", tc.change, got, tc.want)
		}
	}
}

func TestVolumeChangePct(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	samples := samplesAt("BTC", base, time.Minute, 100, 100, 100)
	samples[0].Volume = 1000
	samples[1].Volume = 1000
	samples[2].Volume = 1500
	got := VolumeChangePct(samples)
	if math.Abs(got-50) > 1e-9 {
		t.Fatalf("volume change: got %v, want 50", got)
	}
}
