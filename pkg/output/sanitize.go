package output

import (
	"encoding"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"
)

// Sanitize recursively replaces infinite and NaN values so data can be
// encoded as JSON. Structs become maps keyed by their json tag names. Values
// with their own marshalling are left alone.
func Sanitize(data any) any {
	switch v := data.(type) {
	case nil:
		return nil
	case float64:
		return finite(v)
	case float32:
		if math.IsInf(float64(v), 0) || math.IsNaN(float64(v)) {
			return float32(0)
		}
		return v
	case []float64:
		result := make([]float64, len(v))
		for i, val := range v {
			result[i] = finite(val)
		}
		return result
	case map[string]any:
		result := make(map[string]any, len(v))
		for k, val := range v {
			result[k] = Sanitize(val)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			result[i] = Sanitize(val)
		}
		return result
	case json.Marshaler, encoding.TextMarshaler:
		return v
	default:
		return sanitizeWithReflection(data)
	}
}

func finite(f float64) float64 {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return f
}

func sanitizeWithReflection(data any) any {
	val := reflect.ValueOf(data)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil
		}
		return Sanitize(val.Elem().Interface())
	}

	switch val.Kind() {
	case reflect.Struct:
		result := make(map[string]any)
		typ := val.Type()
		for i := 0; i < val.NumField(); i++ {
			field := val.Field(i)
			fieldType := typ.Field(i)
			if !field.CanInterface() {
				continue
			}

			name := fieldType.Name
			if tag := fieldType.Tag.Get("json"); tag != "" {
				if tag == "-" {
					continue
				}
				if parts := strings.Split(tag, ","); parts[0] != "" {
					name = parts[0]
				}
			}

			result[name] = Sanitize(field.Interface())
		}
		return result
	case reflect.Slice, reflect.Array:
		if val.Kind() == reflect.Slice && val.IsNil() {
			return nil
		}
		result := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			result[i] = Sanitize(val.Index(i).Interface())
		}
		return result
	case reflect.Map:
		if val.IsNil() {
			return nil
		}
		result := make(map[string]any, val.Len())
		for _, key := range val.MapKeys() {
			result[fmt.Sprintf("%v", key.Interface())] = Sanitize(val.MapIndex(key).Interface())
		}
		return result
	case reflect.Float32, reflect.Float64:
		return finite(val.Float())
	default:
		return data
	}
}
