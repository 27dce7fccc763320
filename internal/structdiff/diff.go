package structdiff

import "reflect"

// Diff returns the part of candidate that differs from baseline, or nil when
// candidate is already reflected in baseline. Both arguments are expected to be
// normalized. The result only ever describes candidate: keys present solely in
// baseline are ignored.
//
// Arrays are compared by position when their lengths match. Otherwise the
// whole candidate array is returned, since a length change replaces the array.
func Diff(candidate, baseline any) any {
	switch c := candidate.(type) {
	case nil:
		return nil

	case []any:
		b, ok := baseline.([]any)
		if !ok || len(b) != len(c) {
			return c
		}
		out := make([]any, len(c))
		changed := false
		for i := range c {
			out[i] = Diff(c[i], b[i])
			if out[i] != nil {
				changed = true
			}
		}
		if !changed {
			return nil
		}
		return out

	case map[string]any:
		b, _ := baseline.(map[string]any)
		patch := make(map[string]any)
		for k, v := range c {
			if d := Diff(v, b[k]); d != nil {
				patch[k] = d
			}
		}
		if len(patch) == 0 {
			return nil
		}
		return patch
	}

	if scalarEqual(candidate, baseline) {
		return nil
	}
	return candidate
}

// Equal reports whether two normalized values are indistinguishable in both
// directions.
func Equal(a, b any) bool {
	return Diff(a, b) == nil && Diff(b, a) == nil
}

func scalarEqual(a, b any) bool {
	if b == nil {
		return false
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	if !ta.Comparable() {
		return reflect.DeepEqual(a, b)
	}
	return a == b
}
