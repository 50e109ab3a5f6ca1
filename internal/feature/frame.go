package feature

import (
	"math"
	"sort"
)

// Frame is a small columnar table with ordered columns. Numeric columns use
// NaN for missing values; text columns use the empty string.
type Frame struct {
	n     int
	order []string
	nums  map[string][]float64
	texts map[string][]string
}

// NewFrame creates an empty frame with n rows.
func NewFrame(n int) *Frame {
	return &Frame{
		n:     n,
		nums:  make(map[string][]float64),
		texts: make(map[string][]string),
	}
}

// FrameFromRecords builds a frame from records. Column order is the sorted
// union of feature names so it never depends on map iteration. Bool values
// are encoded as 0/1 numeric columns.
func FrameFromRecords(rows []Record) *Frame {
	names := map[string]Kind{}
	for _, r := range rows {
		for name, v := range r.Values {
			if _, seen := names[name]; !seen || v.Kind == KindString {
				names[name] = v.Kind
			}
		}
	}
	ordered := make([]string, 0, len(names))
	for name := range names {
		ordered = append(ordered, name)
	}
	sort.Strings(ordered)

	f := NewFrame(len(rows))
	for _, name := range ordered {
		if names[name] == KindString {
			col := make([]string, len(rows))
			for i, r := range rows {
				col[i], _ = r.Str(name)
			}
			f.SetText(name, col)
			continue
		}
		col := make([]float64, len(rows))
		for i, r := range rows {
			if v, ok := r.Num(name); ok {
				col[i] = v
			} else {
				col[i] = math.NaN()
			}
		}
		f.SetNumeric(name, col)
	}
	return f
}

// Len returns the row count.
func (f *Frame) Len() int { return f.n }

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// SetNumeric adds or replaces a numeric column.
func (f *Frame) SetNumeric(name string, col []float64) {
	if _, num := f.nums[name]; !num {
		if _, txt := f.texts[name]; !txt {
			f.order = append(f.order, name)
		}
	}
	delete(f.texts, name)
	f.nums[name] = col
}

// SetText adds or replaces a text column.
func (f *Frame) SetText(name string, col []string) {
	if _, num := f.nums[name]; !num {
		if _, txt := f.texts[name]; !txt {
			f.order = append(f.order, name)
		}
	}
	delete(f.nums, name)
	f.texts[name] = col
}

// Numeric returns a numeric column.
func (f *Frame) Numeric(name string) ([]float64, bool) {
	col, ok := f.nums[name]
	return col, ok
}

// Text returns a text column.
func (f *Frame) Text(name string) ([]string, bool) {
	col, ok := f.texts[name]
	return col, ok
}

// HasNumeric reports whether all named numeric columns exist.
func (f *Frame) HasNumeric(names ...string) bool {
	for _, name := range names {
		if _, ok := f.nums[name]; !ok {
			return false
		}
	}
	return true
}

// HasText reports whether the named text column exists.
func (f *Frame) HasText(name string) bool {
	_, ok := f.texts[name]
	return ok
}

// NumericColumns returns numeric column names in frame order.
func (f *Frame) NumericColumns() []string {
	out := make([]string, 0, len(f.nums))
	for _, name := range f.order {
		if _, ok := f.nums[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// Drop removes a column if present.
func (f *Frame) Drop(name string) {
	if _, num := f.nums[name]; !num {
		if _, txt := f.texts[name]; !txt {
			return
		}
	}
	delete(f.nums, name)
	delete(f.texts, name)
	for i, n := range f.order {
		if n == name {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
}

// Matrix returns the numeric columns as a row-major matrix plus the ordered
// column names. Only columns in want (and in want's order) are emitted;
// missing ones are filled with the neutral default 0.
func (f *Frame) Matrix(want []string) ([][]float64, []string) {
	names := want
	if names == nil {
		names = f.NumericColumns()
	}
	matrix := make([][]float64, f.n)
	for i := range matrix {
		matrix[i] = make([]float64, len(names))
	}
	for j, name := range names {
		col, ok := f.nums[name]
		if !ok {
			continue
		}
		for i := 0; i < f.n; i++ {
			matrix[i][j] = col[i]
		}
	}
	out := make([]string, len(names))
	copy(out, names)
	return matrix, out
}
