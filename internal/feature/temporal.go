package feature

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// trendMetrics are the longitudinal metrics that get rolling aggregates when
// url+date history is present.
var trendMetrics = []string{
	"traffic", "clicks", "impressions", "engagement_rate", "average_position", "bounce_rate",
}

// temporalFeatures derives content age, freshness bands, and per-URL rolling
// aggregates over date-ordered history.
func temporalFeatures(f *Frame) error {
	if err := contentAge(f); err != nil {
		return err
	}
	return rollingHistory(f)
}

func contentAge(f *Frame) error {
	published, okPub := f.Text("publish_date")
	crawled, okCrawl := f.Text("crawl_timestamp")
	if !okPub || !okCrawl {
		return nil
	}

	n := f.Len()
	ageDays := make([]float64, n)
	for i := 0; i < n; i++ {
		if published[i] == "" || crawled[i] == "" {
			ageDays[i] = math.NaN()
			continue
		}
		pub, err := parseTimestamp(published[i])
		if err != nil {
			return err
		}
		crawl, err := parseTimestamp(crawled[i])
		if err != nil {
			return err
		}
		ageDays[i] = math.Max(crawl.Sub(pub).Hours()/24, 0)
	}
	f.SetNumeric("content_age_days", ageDays)
	f.SetNumeric("content_age_log", log1pCol(ageDays))

	oneHotBands(f, "content_age_days", "freshness",
		[]float64{0, 7, 30, 90, 365, math.Inf(1)},
		[]string{"very_fresh", "fresh", "recent", "established", "aged"})
	return nil
}

// rollingHistory computes, per URL and in date order: 7- and 30-row rolling
// means, week-over-week and month-over-month percentage change, rolling
// volatility, and a least-squares trend slope per metric.
func rollingHistory(f *Frame) error {
	urls, okURL := f.Text("url")
	dates, okDate := f.Text("date")
	if !okURL || !okDate {
		return nil
	}

	// Row indices per URL, ordered by date.
	type datedRow struct {
		idx  int
		unix int64
	}
	groups := make(map[string][]datedRow)
	for i := range urls {
		if dates[i] == "" {
			continue
		}
		t, err := parseTimestamp(dates[i])
		if err != nil {
			return err
		}
		groups[urls[i]] = append(groups[urls[i]], datedRow{idx: i, unix: t.Unix()})
	}
	for _, rows := range groups {
		sort.Slice(rows, func(a, b int) bool { return rows[a].unix < rows[b].unix })
	}

	for _, metric := range trendMetrics {
		col, ok := f.Numeric(metric)
		if !ok {
			continue
		}
		n := f.Len()
		ma7 := nanColumn(n)
		ma30 := nanColumn(n)
		wow := nanColumn(n)
		mom := nanColumn(n)
		volatility := nanColumn(n)
		trend := nanColumn(n)

		for _, rows := range groups {
			series := make([]float64, len(rows))
			for j, r := range rows {
				series[j] = col[r.idx]
			}
			for j, r := range rows {
				ma7[r.idx] = rollingMean(series, j, 7, 1)
				ma30[r.idx] = rollingMean(series, j, 30, 1)
				wow[r.idx] = pctChange(series, j, 7)
				mom[r.idx] = pctChange(series, j, 30)
				volatility[r.idx] = rollingStd(series, j, 30, 7)
				trend[r.idx] = rollingSlope(series, j, 30)
			}
		}

		f.SetNumeric(metric+"_7d_ma", ma7)
		f.SetNumeric(metric+"_30d_ma", ma30)
		f.SetNumeric(metric+"_wow_change", wow)
		f.SetNumeric(metric+"_mom_change", mom)
		f.SetNumeric(metric+"_volatility", volatility)
		f.SetNumeric(metric+"_trend", trend)
	}
	return nil
}

func nanColumn(n int) []float64 {
	col := make([]float64, n)
	for i := range col {
		col[i] = math.NaN()
	}
	return col
}

func window(series []float64, end, size int) []float64 {
	start := end - size + 1
	if start < 0 {
		start = 0
	}
	return series[start : end+1]
}

func rollingMean(series []float64, end, size, minPeriods int) float64 {
	w := valid(window(series, end, size))
	if len(w) < minPeriods {
		return math.NaN()
	}
	return stat.Mean(w, nil)
}

func rollingStd(series []float64, end, size, minPeriods int) float64 {
	w := valid(window(series, end, size))
	if len(w) < minPeriods {
		return math.NaN()
	}
	return math.Sqrt(stat.Variance(w, nil))
}

// pctChange returns the relative change versus the value lag rows earlier.
func pctChange(series []float64, end, lag int) float64 {
	prev := end - lag
	if prev < 0 {
		return math.NaN()
	}
	if math.IsNaN(series[prev]) || math.IsNaN(series[end]) || series[prev] == 0 {
		return math.NaN()
	}
	return (series[end] - series[prev]) / series[prev]
}

// rollingSlope fits a least-squares line over the trailing window and returns
// its slope, or 0 with fewer than 2 non-null points.
func rollingSlope(series []float64, end, size int) float64 {
	w := window(series, end, size)
	xs := make([]float64, 0, len(w))
	ys := make([]float64, 0, len(w))
	for i, v := range w {
		if !math.IsNaN(v) {
			xs = append(xs, float64(i))
			ys = append(ys, v)
		}
	}
	if len(ys) < 2 {
		return 0
	}
	_, slope := stat.LinearRegression(xs, ys, nil, false)
	return slope
}
