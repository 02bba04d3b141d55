package templating

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// scope is the data visible to a condition or placeholder. Loop iterations
// chain a scope per element in front of the enclosing one.
type scope struct {
	root   any
	this   any
	index  int
	inLoop bool
	parent *scope
}

func (s *scope) child(element any, index int) *scope {
	return &scope{root: s.root, this: element, index: index, inLoop: true, parent: s}
}

// lookup resolves a dotted path. Inside a loop, "this", "this.x" and
// "@index" refer to the current element, bare paths try the element first
// and then each enclosing scope out to the root data.
func (s *scope) lookup(path string) (any, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, false
	}
	if s.inLoop {
		switch {
		case path == "@index":
			return s.index, true
		case path == "this":
			return s.this, true
		case strings.HasPrefix(path, "this."):
			return resolvePath(s.this, strings.TrimPrefix(path, "this."))
		}
		if v, ok := resolvePath(s.this, path); ok {
			return v, true
		}
		if s.parent != nil {
			return s.parent.lookup(path)
		}
	}
	return resolvePath(s.root, path)
}

// resolvePath walks a dotted path through maps, structs, slices and
// pointers. Struct fields match by name or json tag, case-insensitively.
func resolvePath(value any, path string) (any, bool) {
	current := reflect.ValueOf(value)
	for _, segment := range strings.Split(path, ".") {
		if segment == "" {
			return nil, false
		}
		current = indirect(current)
		if !current.IsValid() {
			return nil, false
		}

		switch current.Kind() {
		case reflect.Map:
			if current.Type().Key().Kind() != reflect.String {
				return nil, false
			}
			next := current.MapIndex(reflect.ValueOf(segment).Convert(current.Type().Key()))
			if !next.IsValid() {
				return nil, false
			}
			current = next
		case reflect.Struct:
			next, ok := structField(current, segment)
			if !ok {
				return nil, false
			}
			current = next
		case reflect.Slice, reflect.Array:
			i, err := strconv.Atoi(segment)
			if err != nil || i < 0 || i >= current.Len() {
				return nil, false
			}
			current = current.Index(i)
		default:
			return nil, false
		}
	}

	current = indirect(current)
	if !current.IsValid() {
		return nil, true
	}
	return current.Interface(), true
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func structField(v reflect.Value, name string) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := strings.Split(field.Tag.Get("json"), ",")[0]
		if strings.EqualFold(field.Name, name) || (tag != "" && strings.EqualFold(tag, name)) {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// truthy follows Handlebars: false, zero, empty strings and empty lists are
// false.
func truthy(value any) bool {
	v := indirect(reflect.ValueOf(value))
	if !v.IsValid() {
		return false
	}
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool()
	case reflect.String:
		return v.Len() > 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return v.Float() != 0
	case reflect.Slice, reflect.Array, reflect.Map:
		return v.Len() > 0
	default:
		return true
	}
}

// list returns the elements of a slice or array value.
func list(value any) ([]any, bool) {
	v := indirect(reflect.ValueOf(value))
	if !v.IsValid() || (v.Kind() != reflect.Slice && v.Kind() != reflect.Array) {
		return nil, false
	}
	out := make([]any, v.Len())
	for i := range out {
		out[i] = v.Index(i).Interface()
	}
	return out, true
}

// display renders a resolved value as placeholder text.
func display(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}
