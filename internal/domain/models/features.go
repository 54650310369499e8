package models

import "fmt"

// Value is an optional indicator value.
type Value struct {
	V       float64
	Defined bool
}

// Some returns a defined value.
func Some(v float64) Value { return Value{V: v, Defined: true} }

// Schema is the ordered list of feature columns.
type Schema struct {
	cols  []string
	index map[string]int
}

func NewSchema(cols []string) *Schema {
	s := &Schema{cols: append([]string(nil), cols...), index: make(map[string]int, len(cols))}
	for i, c := range cols {
		s.index[c] = i
	}
	return s
}

func (s *Schema) Columns() []string { return append([]string(nil), s.cols...) }

func (s *Schema) Len() int { return len(s.cols) }

func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// FeatureRow is a bar plus its partially populated indicator record.
// Values are aligned with Schema columns.
type FeatureRow struct {
	PriceBar
	Schema *Schema
	Values []Value
}

// Get returns the value of a named feature.
func (r FeatureRow) Get(name string) (Value, error) {
	i, ok := r.Schema.Index(name)
	if !ok {
		return Value{}, &MissingFeatureError{Name: name}
	}
	return r.Values[i], nil
}

// Complete reports whether every feature is defined.
func (r FeatureRow) Complete() bool {
	for _, v := range r.Values {
		if !v.Defined {
			return false
		}
	}
	return true
}

// Vector assembles the named features in order.
func (r FeatureRow) Vector(names []string) ([]float64, error) {
	out := make([]float64, len(names))
	for k, name := range names {
		v, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		if !v.Defined {
			return nil, fmt.Errorf("feature %q undefined on %s: %w", name, r.Date.Format(DateLayout), ErrInsufficientData)
		}
		out[k] = v.V
	}
	return out, nil
}

// WithClose returns a copy of the row with close replaced.
func (r FeatureRow) WithClose(c float64) FeatureRow {
	out := r
	out.Close = c
	out.Values = append([]Value(nil), r.Values...)
	return out
}
