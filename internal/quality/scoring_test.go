package quality

import (
	"math"
	"path/filepath"
	"testing"
)

func testTable() Table {
	return Table{
		"word_count": {
			Category: CategoryContent, MinGood: 1000, MaxGood: 5000, MinExcellent: 1500, MaxExcellent: 3000,
			Weight: 1.0,
		},
		"bounce_rate": {
			Category: CategoryEngagement, MinGood: 0.6, MaxGood: 0.8, MinExcellent: 0.2, MaxExcellent: 0.4,
			Weight: 1.0, Inverse: true,
		},
		"zero_floor": {
			Category: CategoryTechnical, MinGood: 0, MaxGood: 0, MinExcellent: 0, MaxExcellent: 0,
			Weight: 1.0,
		},
	}
}

func approx(t *testing.T, got, want float64, msg string) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("%s: got %g, want %g", msg, got, want)
	}
}

func TestEvaluateNormalBands(t *testing.T) {
	table := testTable()

	tier, score := Evaluate("word_count", 2000, table)
	if tier != TierExcellent || score != 1.0 {
		t.Errorf("excellent band: %s %g", tier, score)
	}

	// Both edges of the excellent band are inclusive.
	for _, v := range []float64{1500, 3000} {
		tier, score = Evaluate("word_count", v, table)
		if tier != TierExcellent || score != 1.0 {
			t.Errorf("excellent boundary %g: %s %g", v, tier, score)
		}
	}

	// Good, below the excellent band: rises from 0.70 toward 0.85.
	tier, score = Evaluate("word_count", 1250, table)
	if tier != TierGood {
		t.Fatalf("tier = %s", tier)
	}
	approx(t, score, 0.70+0.15*(1250.0-1000.0)/(1500.0-1000.0), "good lower band")

	// Good, above the excellent band: falls from 1.0 toward 0.85.
	tier, score = Evaluate("word_count", 4000, table)
	if tier != TierGood {
		t.Fatalf("tier = %s", tier)
	}
	approx(t, score, 0.85+0.15*(1-(4000.0-3000.0)/(5000.0-3000.0)), "good upper band")

	// Fair: between half of min_good and min_good.
	tier, score = Evaluate("word_count", 750, table)
	if tier != TierFair {
		t.Fatalf("tier = %s", tier)
	}
	approx(t, score, 0.50+0.20*(750.0-500.0)/500.0, "fair band")

	// Poor: proportional with a hard floor.
	tier, score = Evaluate("word_count", 100, table)
	if tier != TierPoor {
		t.Fatalf("tier = %s", tier)
	}
	approx(t, score, 0.5*100.0/500.0, "poor band")

	tier, score = Evaluate("word_count", 0, table)
	if tier != TierPoor || score != poorFloor {
		t.Errorf("poor floor: %s %g", tier, score)
	}
}

func TestEvaluateInverseBands(t *testing.T) {
	table := testTable()

	tier, score := Evaluate("bounce_rate", 0.1, table)
	if tier != TierExcellent || score != 1.0 {
		t.Errorf("best inverse value: %s %g", tier, score)
	}

	// Exactly at min_excellent is still the perfect score.
	tier, score = Evaluate("bounce_rate", 0.2, table)
	if tier != TierExcellent || score != 1.0 {
		t.Errorf("inverse excellent boundary: %s %g", tier, score)
	}

	tier, score = Evaluate("bounce_rate", 0.3, table)
	if tier != TierExcellent {
		t.Fatalf("tier = %s", tier)
	}
	approx(t, score, 0.85+0.15*(1-(0.3-0.2)/(0.4-0.2)), "inverse excellent band")

	tier, score = Evaluate("bounce_rate", 0.5, table)
	if tier != TierGood {
		t.Fatalf("tier = %s", tier)
	}
	approx(t, score, 0.70+0.15*(1-(0.5-0.4)/(0.6-0.4)), "inverse good band")

	tier, score = Evaluate("bounce_rate", 0.7, table)
	if tier != TierFair {
		t.Fatalf("tier = %s", tier)
	}
	approx(t, score, 0.50+0.20*(1-(0.7-0.6)/(0.8-0.6)), "inverse fair band")

	tier, score = Evaluate("bounce_rate", 0.95, table)
	if tier != TierPoor {
		t.Fatalf("tier = %s", tier)
	}
	approx(t, score, 0.5-0.4*(0.95-0.8)/0.8, "inverse poor band")
}

func TestEvaluateDegenerateThresholds(t *testing.T) {
	// min_good <= 0: below-band values clamp to the poor floor instead of
	// dividing by zero.
	tier, score := Evaluate("zero_floor", -1, testTable())
	if tier != TierPoor || score != poorFloor {
		t.Errorf("degenerate spec: %s %g", tier, score)
	}
}

func TestEvaluateUnknownFeature(t *testing.T) {
	tier, score := Evaluate("made_up_signal", 42, testTable())
	if tier != TierFair || score != 0.5 {
		t.Errorf("unknown feature must be neutral, got %s %g", tier, score)
	}
}

func TestOverallQuality(t *testing.T) {
	table := testTable()
	report := OverallQuality(map[string]float64{
		"word_count":     2000, // excellent, 1.0
		"bounce_rate":    0.1,  // excellent, 1.0
		"unknown_signal": 7,    // not in table, skipped
	}, table)

	if report.TotalFeatures != 2 {
		t.Errorf("total features = %d, want 2", report.TotalFeatures)
	}
	approx(t, report.OverallScore, 100, "overall score")
	if report.OverallTier != TierExcellent {
		t.Errorf("overall tier = %s", report.OverallTier)
	}
	if report.GoodFeatures != 2 || report.PoorFeatures != 0 {
		t.Errorf("counts: good=%d poor=%d", report.GoodFeatures, report.PoorFeatures)
	}
	approx(t, report.CategoryScores[CategoryContent], 100, "content category")
	approx(t, report.CategoryScores[CategoryEngagement], 100, "engagement category")
}

func TestBucketOverall(t *testing.T) {
	cases := []struct {
		score float64
		tier  Tier
	}{
		{85, TierExcellent}, {80, TierExcellent},
		{75, TierGood}, {70, TierGood},
		{60, TierFair}, {50, TierFair},
		{49.9, TierPoor}, {0, TierPoor},
	}
	for _, tc := range cases {
		if got := bucketOverall(tc.score); got != tc.tier {
			t.Errorf("bucketOverall(%g) = %s, want %s", tc.score, got, tc.tier)
		}
	}
}

func TestDefaultTableValid(t *testing.T) {
	table := DefaultTable()
	if len(table) < 30 {
		t.Errorf("default table has only %d entries", len(table))
	}
	if err := table.Validate(); err != nil {
		t.Errorf("default table invalid: %v", err)
	}
}

func TestExportAndLoadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.json")
	original := testTable()
	if err := original.ExportJSON(path); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}

	// JSON is a subset of YAML; LoadTable accepts both.
	loaded, err := LoadTable(path)
	if err != nil {
		t.Fatalf("LoadTable: %v", err)
	}
	if len(loaded) != len(original) {
		t.Fatalf("loaded %d entries, want %d", len(loaded), len(original))
	}
	spec := loaded["bounce_rate"]
	if !spec.Inverse || spec.Category != CategoryEngagement {
		t.Errorf("spec lost in round trip: %+v", spec)
	}
}

func TestTableValidateRejectsBadSpecs(t *testing.T) {
	bad := Table{"x": {Weight: 3}}
	if err := bad.Validate(); err == nil {
		t.Error("weight above 2 must fail")
	}
	bad = Table{"x": {Weight: 1, MinGood: 10, MaxGood: 5}}
	if err := bad.Validate(); err == nil {
		t.Error("min_good above max_good must fail")
	}
	bad = Table{"x": {Weight: 1, MinExcellent: 10, MaxExcellent: 5}}
	if err := bad.Validate(); err == nil {
		t.Error("min_excellent above max_excellent must fail")
	}
}
