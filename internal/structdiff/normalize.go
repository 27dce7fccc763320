// Package structdiff turns API-shaped values into a canonical plain form and
// computes one-directional differences between two such forms.
//
// The plain form only ever contains nil, string, bool, float64, []any and
// map[string]any. Empty collections never appear in it: they collapse to nil,
// which is also how an absent key is represented.
package structdiff

import (
	"fmt"
	"reflect"
	"strings"
)

// Plainer is implemented by values that can describe themselves in plain form.
// The result of PlainForm is normalized as-is; it is not asked for its own
// plain form again.
type Plainer interface {
	PlainForm() any
}

var plainerType = reflect.TypeOf((*Plainer)(nil)).Elem()

// Normalize converts v into its canonical plain form.
func Normalize(v any) any {
	n := newNormalizer()
	return n.value(reflect.ValueOf(v), nil, true)
}

// NormalizeOnly is Normalize restricted to the given top-level keys. Keys of
// the outermost object that are not listed are dropped before recursion. A nil
// keys slice means no restriction; an empty one keeps nothing.
func NormalizeOnly(v any, keys []string) any {
	if keys == nil {
		return Normalize(v)
	}
	filter := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		filter[k] = struct{}{}
	}
	n := newNormalizer()
	return n.value(reflect.ValueOf(v), filter, true)
}

// Keys returns the keys of a normalized object, or nil if it is not one.
func Keys(normalized any) []string {
	m, ok := normalized.(map[string]any)
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

type visitKey struct {
	t reflect.Type
	p uintptr
}

// normalizer tracks the references on the current path. A reference that is
// already on the path collapses to nil, which breaks cycles.
type normalizer struct {
	path map[visitKey]struct{}
}

func newNormalizer() *normalizer {
	return &normalizer{path: make(map[visitKey]struct{})}
}

func (n *normalizer) enter(v reflect.Value) bool {
	k := visitKey{t: v.Type(), p: v.Pointer()}
	if _, seen := n.path[k]; seen {
		return false
	}
	n.path[k] = struct{}{}
	return true
}

func (n *normalizer) leave(v reflect.Value) {
	delete(n.path, visitKey{t: v.Type(), p: v.Pointer()})
}

func (n *normalizer) value(v reflect.Value, filter map[string]struct{}, usePlain bool) any {
	if !v.IsValid() {
		return nil
	}

	if usePlain && v.Type().Implements(plainerType) && v.CanInterface() {
		if (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) && v.IsNil() {
			return nil
		}
		if v.Kind() == reflect.Pointer {
			if !n.enter(v) {
				return nil
			}
			defer n.leave(v)
		}
		plain := v.Interface().(Plainer).PlainForm()
		return n.value(reflect.ValueOf(plain), filter, false)
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return n.value(v.Elem(), filter, true)

	case reflect.Pointer:
		if v.IsNil() {
			return nil
		}
		if !n.enter(v) {
			return nil
		}
		defer n.leave(v)
		return n.value(v.Elem(), filter, true)

	case reflect.String:
		return v.String()
	case reflect.Bool:
		return v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(v.Uint())
	case reflect.Float32, reflect.Float64:
		return v.Float()

	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		if !n.enter(v) {
			return nil
		}
		defer n.leave(v)
		return n.sequence(v)
	case reflect.Array:
		return n.sequence(v)

	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		if !n.enter(v) {
			return nil
		}
		defer n.leave(v)
		return n.mapping(v, filter)

	case reflect.Struct:
		return n.structure(v, filter)
	}

	// Functions, channels and complex numbers have no plain form.
	return nil
}

func (n *normalizer) sequence(v reflect.Value) any {
	out := make([]any, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		if e := n.value(v.Index(i), nil, true); e != nil {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (n *normalizer) mapping(v reflect.Value, filter map[string]struct{}) any {
	out := make(map[string]any, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		key := mapKey(iter.Key())
		if filter != nil {
			if _, ok := filter[key]; !ok {
				continue
			}
		}
		if e := n.value(iter.Value(), nil, true); e != nil {
			out[key] = e
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (n *normalizer) structure(v reflect.Value, filter map[string]struct{}) any {
	out := make(map[string]any)
	n.fields(v, filter, out)
	if len(out) == 0 {
		return nil
	}
	return out
}

// fields follows encoding/json naming: json tags rename fields, "-" hides them,
// omitempty drops zero values and untagged embedded structs are flattened.
func (n *normalizer) fields(v reflect.Value, filter map[string]struct{}, out map[string]any) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")

		fv := v.Field(i)
		if f.Anonymous && name == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				if fv.IsNil() {
					continue
				}
				fv = fv.Elem()
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				n.fields(fv, filter, out)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		if filter != nil {
			if _, ok := filter[name]; !ok {
				continue
			}
		}
		if strings.Contains(opts, "omitempty") && fv.IsZero() {
			continue
		}
		if e := n.value(fv, nil, true); e != nil {
			out[name] = e
		}
	}
}

func mapKey(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	if k.CanInterface() {
		return fmt.Sprint(k.Interface())
	}
	return k.String()
}
