// Package feature turns raw per-URL SEO observations into a numeric training
// matrix. A Pipeline instance owns its fitted state (scaler statistics and
// text vocabulary) and can re-apply it in transform mode so a trained model
// scores new data without retraining.
package feature

import (
	"encoding/json"
	"fmt"
)

// Kind tags the scalar type held by a Value.
type Kind int

const (
	KindNumber Kind = iota
	KindBool
	KindString
)

// Value is a tagged scalar: number, bool, or string.
type Value struct {
	Kind Kind
	Num  float64
	Bool bool
	Str  string
}

// Number wraps a float64 value.
func Number(v float64) Value { return Value{Kind: KindNumber, Num: v} }

// Boolean wraps a bool value.
func Boolean(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Text wraps a string value.
func Text(s string) Value { return Value{Kind: KindString, Str: s} }

// AsNumber converts the value to a float64 where possible.
func (v Value) AsNumber() (float64, bool) {
	switch v.Kind {
	case KindNumber:
		return v.Num, true
	case KindBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// UnmarshalJSON accepts a JSON number, bool, or string.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case float64:
		*v = Number(t)
	case bool:
		*v = Boolean(t)
	case string:
		*v = Text(t)
	case nil:
		*v = Number(0)
	default:
		return fmt.Errorf("unsupported feature value type %T", raw)
	}
	return nil
}

// MarshalJSON emits the underlying scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindBool:
		return json.Marshal(v.Bool)
	case KindString:
		return json.Marshal(v.Str)
	default:
		return json.Marshal(v.Num)
	}
}

// Record is one observation: a flat mapping of feature name to scalar value,
// plus the ranking context it belongs to. Immutable once ingested.
type Record struct {
	QueryID string           `json:"query_id"`
	Label   float64          `json:"label"`
	Labeled bool             `json:"labeled"`
	Values  map[string]Value `json:"values"`
}

// Num returns the named value as a number.
func (r Record) Num(name string) (float64, bool) {
	v, ok := r.Values[name]
	if !ok {
		return 0, false
	}
	return v.AsNumber()
}

// Str returns the named value as a string.
func (r Record) Str(name string) (string, bool) {
	v, ok := r.Values[name]
	if !ok || v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}

// NumericValues returns the record's numeric view (bools as 0/1), suitable
// for the quality gate.
func (r Record) NumericValues() map[string]float64 {
	out := make(map[string]float64, len(r.Values))
	for name, v := range r.Values {
		if n, ok := v.AsNumber(); ok {
			out[name] = n
		}
	}
	return out
}
