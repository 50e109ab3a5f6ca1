package feature

import (
	"math"
	"testing"

	"github.com/rankforge/rankforge/internal/pkg/logger"
)

func pipelineRecords() []Record {
	return []Record{
		{QueryID: "q1", Label: 3, Labeled: true, Values: map[string]Value{
			"url":             Text("https://example.com/blog/guide"),
			"crawl_timestamp": Text("2026-03-14T10:30:00Z"),
			"title_tag":       Text("The Complete Guide to Technical SEO"),
			"word_count":      Number(2400),
			"backlink_count":  Number(120),
			"organic_clicks":  Number(900),
			"impressions":     Number(12000),
			"bounce_rate":     Number(0.35),
			"position":        Number(4),
		}},
		{QueryID: "q1", Label: 1, Labeled: true, Values: map[string]Value{
			"url":             Text("https://blog.example.com/a/b/c/post?id=7"),
			"crawl_timestamp": Text("2026-03-15T22:00:00Z"),
			"title_tag":       Text("quick seo tips"),
			"word_count":      Number(400),
			"backlink_count":  Number(3),
			"organic_clicks":  Number(20),
			"impressions":     Number(4000),
			"bounce_rate":     Number(0.8),
			"position":        Number(35),
		}},
		{QueryID: "q2", Label: 2, Labeled: true, Values: map[string]Value{
			"url":             Text("https://example.com/docs"),
			"crawl_timestamp": Text("2026-03-15T08:15:00Z"),
			"title_tag":       Text("Documentation Overview"),
			"word_count":      Number(1500),
			"backlink_count":  Number(40),
			"organic_clicks":  Number(300),
			"impressions":     Number(6000),
			"bounce_rate":     Number(0.5),
			"position":        Number(9),
		}},
	}
}

func TestPipelineFitTransformSymmetry(t *testing.T) {
	p := New(DefaultOptions(), logger.Default())
	records := pipelineRecords()

	fitX, fitNames, err := p.Engineer(records, true)
	if err != nil {
		t.Fatalf("fit Engineer: %v", err)
	}
	if len(fitX) != len(records) {
		t.Fatalf("rows = %d, want %d", len(fitX), len(records))
	}
	if len(fitNames) == 0 {
		t.Fatal("no feature columns produced")
	}

	// Transform mode on the same rows must yield the same column set in the
	// same order, with identical values.
	trX, trNames, err := p.Engineer(records, false)
	if err != nil {
		t.Fatalf("transform Engineer: %v", err)
	}
	if len(trNames) != len(fitNames) {
		t.Fatalf("column count changed: %d -> %d", len(fitNames), len(trNames))
	}
	for i := range fitNames {
		if trNames[i] != fitNames[i] {
			t.Fatalf("column %d changed: %q -> %q", i, fitNames[i], trNames[i])
		}
	}
	for i := range fitX {
		for j := range fitX[i] {
			if math.Abs(fitX[i][j]-trX[i][j]) > 1e-9 {
				t.Fatalf("value [%d][%d] changed: %g -> %g (%s)", i, j, fitX[i][j], trX[i][j], fitNames[j])
			}
		}
	}
}

func TestPipelineTransformHandlesMissingColumns(t *testing.T) {
	p := New(DefaultOptions(), logger.Default())
	if _, _, err := p.Engineer(pipelineRecords(), true); err != nil {
		t.Fatalf("fit Engineer: %v", err)
	}
	nCols := len(p.FeatureNames())

	// A sparse record missing most inputs still engineers into the fitted
	// column set; absent columns become zeros.
	sparse := []Record{{QueryID: "q9", Values: map[string]Value{
		"word_count": Number(800),
	}}}
	x, names, err := p.Engineer(sparse, false)
	if err != nil {
		t.Fatalf("transform Engineer: %v", err)
	}
	if len(names) != nCols {
		t.Fatalf("sparse transform produced %d columns, want %d", len(names), nCols)
	}
	for j, v := range x[0] {
		if math.IsNaN(v) {
			t.Fatalf("NaN leaked into output column %s", names[j])
		}
	}
}

func TestPipelineTransformBeforeFit(t *testing.T) {
	p := New(DefaultOptions(), logger.Default())
	if _, _, err := p.Engineer(pipelineRecords(), false); err == nil {
		t.Fatal("transform before fit must fail")
	}
}

func TestPipelineRejectsMalformedTimestamp(t *testing.T) {
	p := New(DefaultOptions(), logger.Default())
	bad := []Record{{QueryID: "q", Values: map[string]Value{
		"crawl_timestamp": Text("not-a-date"),
		"word_count":      Number(100),
	}}}
	if _, _, err := p.Engineer(bad, true); err == nil {
		t.Fatal("malformed timestamp must be a fatal pipeline error")
	}
}

func TestPipelineRestoreRoundTrip(t *testing.T) {
	opts := DefaultOptions()
	p := New(opts, logger.Default())
	records := pipelineRecords()
	want, _, err := p.Engineer(records, true)
	if err != nil {
		t.Fatalf("fit Engineer: %v", err)
	}

	restored := Restore(opts, p.State(), logger.Default())
	if !restored.Fitted() {
		t.Fatal("restored pipeline should report fitted")
	}
	got, _, err := restored.Engineer(records, false)
	if err != nil {
		t.Fatalf("restored Engineer: %v", err)
	}
	for i := range want {
		for j := range want[i] {
			if math.Abs(want[i][j]-got[i][j]) > 1e-9 {
				t.Fatalf("restored value [%d][%d] differs: %g vs %g", i, j, want[i][j], got[i][j])
			}
		}
	}
}

func TestPipelineSkewColumnsSurviveTransform(t *testing.T) {
	opts := DefaultOptions()
	opts.Scaler = ScalerNone

	backlinkRecords := func(values ...float64) []Record {
		out := make([]Record, len(values))
		for i, v := range values {
			out[i] = Record{QueryID: "q1", Labeled: true, Values: map[string]Value{
				"total_backlinks": Number(v),
			}}
		}
		return out
	}

	p := New(opts, logger.Default())
	_, fitNames, err := p.Engineer(backlinkRecords(0, 0, 0, 1, 500), true)
	if err != nil {
		t.Fatalf("fit Engineer: %v", err)
	}
	logCol := -1
	for j, n := range fitNames {
		if n == "total_backlinks_log" {
			logCol = j
		}
	}
	if logCol < 0 {
		t.Fatal("heavy-tailed fit should create total_backlinks_log")
	}

	// A well-behaved transform batch must still get the log column applied,
	// not a silent zero fill.
	x, _, err := p.Engineer(backlinkRecords(1, 2, 3), false)
	if err != nil {
		t.Fatalf("transform Engineer: %v", err)
	}
	for i, v := range []float64{1, 2, 3} {
		if want := math.Log1p(v); math.Abs(x[i][logCol]-want) > 1e-12 {
			t.Errorf("row %d total_backlinks_log = %g, want %g", i, x[i][logCol], want)
		}
	}

	// The selection rides along in the fitted state.
	restored := Restore(opts, p.State(), logger.Default())
	rx, _, err := restored.Engineer(backlinkRecords(1, 2, 3), false)
	if err != nil {
		t.Fatalf("restored Engineer: %v", err)
	}
	if math.Abs(rx[0][logCol]-math.Log1p(1)) > 1e-12 {
		t.Errorf("restored pipeline lost skew selection: got %g", rx[0][logCol])
	}
}

func TestPipelineDerivesExpectedColumns(t *testing.T) {
	p := New(DefaultOptions(), logger.Default())
	_, names, err := p.Engineer(pipelineRecords(), true)
	if err != nil {
		t.Fatalf("Engineer: %v", err)
	}
	have := make(map[string]bool, len(names))
	for _, n := range names {
		have[n] = true
	}
	for _, want := range []string{
		"crawl_hour", "crawl_dayofweek", "is_weekend", // timestamp decomposition
		"url_length", "url_depth", "url_has_params", "is_subdomain", // url decomposition
		"title_word_count", "title_char_count", // title stats
	} {
		if !have[want] {
			t.Errorf("missing engineered column %q", want)
		}
	}
}
