package koanfutil

import (
	"fmt"
	"reflect"

	"github.com/knadh/koanf/v2"
)

// WithDefaults returns a koanf.Provider that provides default values from a struct.
// Keys come from `koanf` tags. Zero values and nil pointers are omitted so that
// later providers decide them. Slices are copied.
//
// Usage:
//
//	k := koanf.New(".")
//	k.Load(koanfutil.WithDefaults(config.Default()), nil)
//	k.Load(file.Provider("config.yaml"), yaml.Parser())
func WithDefaults[T any](defaults T) koanf.Provider {
	return &defaultsProvider[T]{defaults: defaults}
}

type defaultsProvider[T any] struct {
	defaults T
}

// Read converts the defaults struct to a map using koanf tags.
func (p *defaultsProvider[T]) Read() (map[string]any, error) {
	return structToMap(reflect.ValueOf(p.defaults))
}

// ReadBytes is not supported for this provider.
func (p *defaultsProvider[T]) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("koanfutil: ReadBytes not supported")
}

func structToMap(val reflect.Value) (map[string]any, error) {
	if val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return nil, nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil, fmt.Errorf("koanfutil: expected struct, got %s", val.Type())
	}

	result := make(map[string]any)
	typ := val.Type()

	for i := range typ.NumField() {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		key := field.Tag.Get("koanf")
		if key == "" || key == "-" {
			continue
		}

		fieldVal := val.Field(i)
		if isZeroValue(fieldVal) {
			continue
		}
		if fieldVal.Kind() == reflect.Pointer {
			fieldVal = fieldVal.Elem()
		}

		switch {
		case fieldVal.Kind() == reflect.Struct && !isScalarStruct(fieldVal.Type()):
			nested, err := structToMap(fieldVal)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			if len(nested) > 0 {
				result[key] = nested
			}
		case fieldVal.Kind() == reflect.Slice:
			cp := reflect.MakeSlice(fieldVal.Type(), fieldVal.Len(), fieldVal.Len())
			reflect.Copy(cp, fieldVal)
			result[key] = cp.Interface()
		default:
			result[key] = fieldVal.Interface()
		}
	}

	return result, nil
}

func isZeroValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		return v.IsNil()
	case reflect.Slice, reflect.Map:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}

// isScalarStruct reports whether t is a struct decoded as a single value, such as time.Time.
func isScalarStruct(t reflect.Type) bool {
	return t.PkgPath() == "time"
}
