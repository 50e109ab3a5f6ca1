package feature

import (
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/rankforge/rankforge/internal/pkg/errors"
)

// timestampLayouts are accepted formats for temporal source fields.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Newf(errors.CodePipeline, "malformed timestamp %q", s)
}

// basicFeatures derives calendar fields from crawl timestamps, structural
// features from URLs, and one-hot bands for readability and Core Web Vitals.
// A malformed timestamp is fatal: silently wrong temporal features would
// poison every downstream trend column.
func basicFeatures(f *Frame) error {
	if col, ok := f.Text("crawl_timestamp"); ok {
		n := f.Len()
		hour := make([]float64, n)
		dow := make([]float64, n)
		day := make([]float64, n)
		month := make([]float64, n)
		weekend := make([]float64, n)
		holiday := make([]float64, n)
		for i, raw := range col {
			if raw == "" {
				hour[i], dow[i], day[i], month[i] = math.NaN(), math.NaN(), math.NaN(), math.NaN()
				continue
			}
			t, err := parseTimestamp(raw)
			if err != nil {
				return err
			}
			hour[i] = float64(t.Hour())
			dow[i] = float64(t.Weekday())
			day[i] = float64(t.Day())
			month[i] = float64(t.Month())
			if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
				weekend[i] = 1
			}
			if t.Month() == time.November || t.Month() == time.December {
				holiday[i] = 1
			}
		}
		f.SetNumeric("crawl_hour", hour)
		f.SetNumeric("crawl_dayofweek", dow)
		f.SetNumeric("crawl_day", day)
		f.SetNumeric("crawl_month", month)
		f.SetNumeric("is_weekend", weekend)
		f.SetNumeric("is_holiday_season", holiday)
	}

	if col, ok := f.Text("url"); ok {
		n := f.Len()
		length := make([]float64, n)
		depth := make([]float64, n)
		hasParams := make([]float64, n)
		paramCount := make([]float64, n)
		subdomain := make([]float64, n)
		for i, raw := range col {
			length[i] = float64(len(raw))
			depth[i] = float64(strings.Count(raw, "/"))
			if strings.Contains(raw, "?") {
				hasParams[i] = 1
				paramCount[i] = float64(strings.Count(raw, "&") + 1)
			}
			if u, err := url.Parse(raw); err == nil && u.Host != "" {
				host := strings.TrimPrefix(u.Host, "www.")
				if strings.Count(host, ".") > 1 {
					subdomain[i] = 1
				}
			}
		}
		f.SetNumeric("url_length", length)
		f.SetNumeric("url_depth", depth)
		f.SetNumeric("url_has_params", hasParams)
		f.SetNumeric("url_param_count", paramCount)
		f.SetNumeric("is_subdomain", subdomain)
	}

	oneHotBands(f, "content_readability_score", "readability",
		[]float64{0, 30, 60, 90, 100}, []string{"very_hard", "hard", "moderate", "easy"})
	oneHotBands(f, "largest_contentful_paint", "lcp",
		[]float64{0, 2500, 4000, math.Inf(1)}, []string{"good", "needs_improvement", "poor"})
	oneHotBands(f, "interaction_to_next_paint", "inp",
		[]float64{0, 200, 500, math.Inf(1)}, []string{"good", "needs_improvement", "poor"})
	oneHotBands(f, "cumulative_layout_shift", "cls",
		[]float64{0, 0.1, 0.25, math.Inf(1)}, []string{"good", "needs_improvement", "poor"})

	return nil
}

// oneHotBands buckets a numeric column into named bands and emits one column
// per band. Values at a boundary fall into the lower band, matching interval
// bucketing that is open on the left and closed on the right.
func oneHotBands(f *Frame, source, prefix string, edges []float64, labels []string) {
	col, ok := f.Numeric(source)
	if !ok {
		return
	}
	bands := make([][]float64, len(labels))
	for b := range bands {
		bands[b] = make([]float64, f.Len())
	}
	for i, v := range col {
		if math.IsNaN(v) {
			continue
		}
		for b := 0; b < len(labels); b++ {
			if v > edges[b] && v <= edges[b+1] {
				bands[b][i] = 1
				break
			}
			if b == 0 && v == edges[0] {
				bands[0][i] = 1
				break
			}
		}
	}
	for b, label := range labels {
		f.SetNumeric(prefix+"_"+label, bands[b])
	}
}
