// Package ctyconv converts between native Go values and cty.Value. Plugin
// attributes and type options are stored as cty values so that every
// definition format (HCL, JSON, YAML, Go callbacks) lands in the same
// representation.
package ctyconv

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"sort"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ErrNotFinite is returned for NaN, infinite, or float64-overflowing numbers.
// Such values have no JSON encoding.
var ErrNotFinite = errors.New("number is not finite")

// FromGo converts a native Go value into its corresponding cty.Value.
// Dynamic shapes (map[string]any, []any) become objects and tuples; any
// other type is handed to gocty using its implied type.
func FromGo(v any) (cty.Value, error) {
	switch tv := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case cty.Value:
		return tv, nil
	case string:
		return cty.StringVal(tv), nil
	case bool:
		return cty.BoolVal(tv), nil
	case int:
		return cty.NumberIntVal(int64(tv)), nil
	case int32:
		return cty.NumberIntVal(int64(tv)), nil
	case int64:
		return cty.NumberIntVal(tv), nil
	case uint:
		return cty.NumberUIntVal(uint64(tv)), nil
	case uint64:
		return cty.NumberUIntVal(tv), nil
	case float32:
		return floatVal(float64(tv))
	case float64:
		return floatVal(tv)
	case *big.Float:
		if tv == nil {
			return cty.NullVal(cty.Number), nil
		}
		if tv.IsInf() {
			return cty.NilVal, ErrNotFinite
		}
		if f, _ := tv.Float64(); math.IsInf(f, 0) {
			return cty.NilVal, fmt.Errorf("%w: %s overflows float64", ErrNotFinite, tv.Text('g', 10))
		}
		return cty.NumberVal(tv), nil
	case []any:
		if len(tv) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, len(tv))
		for i, e := range tv {
			ev, err := FromGo(e)
			if err != nil {
				return cty.NilVal, fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = ev
		}
		return cty.TupleVal(elems), nil
	case map[string]any:
		return objectFromMap(tv)
	case map[any]any:
		m := make(map[string]any, len(tv))
		for k, e := range tv {
			key := fmt.Sprint(k)
			if _, dup := m[key]; dup {
				return cty.NilVal, fmt.Errorf("duplicate attribute %q after key conversion", key)
			}
			m[key] = e
		}
		return objectFromMap(m)
	}

	ty, err := gocty.ImpliedType(v)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unable to infer cty.Type from %T: %w", v, err)
	}
	return gocty.ToCtyValue(v, ty)
}

func floatVal(f float64) (cty.Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return cty.NilVal, fmt.Errorf("%w: %v", ErrNotFinite, f)
	}
	return cty.NumberFloatVal(f), nil
}

func objectFromMap(m map[string]any) (cty.Value, error) {
	if len(m) == 0 {
		return cty.EmptyObjectVal, nil
	}
	attrs := make(map[string]cty.Value, len(m))
	for _, k := range SortedKeys(m) {
		ev, err := FromGo(m[k])
		if err != nil {
			return cty.NilVal, fmt.Errorf("attribute %q: %w", k, err)
		}
		attrs[k] = ev
	}
	return cty.ObjectVal(attrs), nil
}

// MapFromGo converts every entry of m, naming the failing key on error.
func MapFromGo(m map[string]any) (map[string]cty.Value, error) {
	out := make(map[string]cty.Value, len(m))
	for _, k := range SortedKeys(m) {
		v, err := FromGo(m[k])
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

// ToGo converts a known cty.Value into plain Go values: string, bool, int64
// or float64, []any and map[string]any. Nulls become nil.
func ToGo(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("value of type %s is not known", v.Type().FriendlyName())
	}
	v, _ = v.Unmark()

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil
	case ty == cty.Bool:
		return v.True(), nil
	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return i, nil
			}
		}
		f, _ := bf.Float64()
		if math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: %s", ErrNotFinite, bf.Text('g', 10))
		}
		return f, nil
	case ty.IsListType(), ty.IsSetType(), ty.IsTupleType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			gv, err := ToGo(ev)
			if err != nil {
				return nil, err
			}
			out = append(out, gv)
		}
		return out, nil
	case ty.IsMapType(), ty.IsObjectType():
		out := make(map[string]any, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			gv, err := ToGo(ev)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = gv
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported cty type %s", ty.FriendlyName())
}

// CheckFinite walks v and returns ErrNotFinite for the first number that
// cannot be represented as a finite float64.
func CheckFinite(v cty.Value) error {
	return cty.Walk(v, func(path cty.Path, ev cty.Value) (bool, error) {
		if ev.IsNull() || !ev.IsKnown() || ev.Type() != cty.Number {
			return true, nil
		}
		ev, _ = ev.Unmark()
		bf := ev.AsBigFloat()
		if bf.IsInf() {
			return false, ErrNotFinite
		}
		if f, _ := bf.Float64(); math.IsInf(f, 0) {
			return false, fmt.Errorf("%w: %s overflows float64", ErrNotFinite, bf.Text('g', 10))
		}
		return true, nil
	})
}

// Equal reports whether two values are equal, treating two nulls and two
// NilVals as equal.
func Equal(a, b cty.Value) bool {
	if a == cty.NilVal || b == cty.NilVal {
		return a == cty.NilVal && b == cty.NilVal
	}
	return a.RawEquals(b)
}

// SortedKeys returns the keys of m in lexicographic order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
