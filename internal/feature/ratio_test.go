package feature

import (
	"math"
	"testing"
)

func TestRatioZeroDenominatorDefaults(t *testing.T) {
	cases := []struct {
		name string
		num  []float64
		den  []float64
		def  float64
		want []float64
	}{
		{"zero denominator yields default", []float64{5, 3}, []float64{0, 0}, 0.0, []float64{0, 0}},
		{"alt-text default is one", []float64{0}, []float64{0}, 1.0, []float64{1}},
		{"plain division", []float64{6, 9}, []float64{2, 3}, 0.0, []float64{3, 3}},
		{"mixed rows", []float64{4, 4}, []float64{2, 0}, 0.5, []float64{2, 0.5}},
	}
	for _, tc := range cases {
		got := ratio(tc.num, tc.den, tc.def)
		for i := range tc.want {
			if got[i] != tc.want[i] {
				t.Errorf("%s: row %d = %g, want %g", tc.name, i, got[i], tc.want[i])
			}
			if math.IsNaN(got[i]) || math.IsInf(got[i], 0) {
				t.Errorf("%s: row %d leaked %g", tc.name, i, got[i])
			}
		}
	}
}

func TestRatioPropagatesNaN(t *testing.T) {
	got := ratio([]float64{math.NaN(), 1}, []float64{2, math.NaN()}, 0)
	if !math.IsNaN(got[0]) || !math.IsNaN(got[1]) {
		t.Errorf("NaN operands must propagate, got %v", got)
	}
}

func TestRatioFeaturesGuardedDivision(t *testing.T) {
	f := NewFrame(2)
	f.SetNumeric("images_with_alt_text", []float64{3, 0})
	f.SetNumeric("image_count", []float64{4, 0})
	f.SetNumeric("dofollow_links", []float64{8, 2})
	f.SetNumeric("total_backlinks", []float64{10, 0})
	f.SetNumeric("content_length", []float64{5000, 5000})
	f.SetNumeric("javascript_size", []float64{100, 0})
	f.SetNumeric("css_size", []float64{150, 0})

	ratioFeatures(f)

	altRatio, _ := f.Numeric("image_alt_ratio")
	if altRatio[0] != 0.75 {
		t.Errorf("image_alt_ratio[0] = %g, want 0.75", altRatio[0])
	}
	// No images: nothing is missing alt text.
	if altRatio[1] != 1.0 {
		t.Errorf("image_alt_ratio with zero images = %g, want 1.0", altRatio[1])
	}

	dofollow, _ := f.Numeric("dofollow_ratio")
	if dofollow[0] != 0.8 {
		t.Errorf("dofollow_ratio[0] = %g, want 0.8", dofollow[0])
	}
	if dofollow[1] != 0.0 {
		t.Errorf("dofollow_ratio with zero backlinks = %g, want exactly 0.0", dofollow[1])
	}

	c2c, _ := f.Numeric("content_to_code_ratio")
	if c2c[0] != 20 {
		t.Errorf("content_to_code_ratio[0] = %g, want 20", c2c[0])
	}
	// Pure-content page caps at the ceiling instead of dividing by zero.
	if c2c[1] != contentToCodeCeiling {
		t.Errorf("content_to_code_ratio with zero code = %g, want %d", c2c[1], contentToCodeCeiling)
	}

	for _, name := range []string{"image_alt_ratio", "dofollow_ratio", "content_to_code_ratio"} {
		col, _ := f.Numeric(name)
		for i, v := range col {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("%s[%d] leaked %g", name, i, v)
			}
		}
	}
}
