package debugui

import (
	"reflect"
	"sync"
)

// FieldInfo describes an exported struct field shown by the component inspector.
type FieldInfo struct {
	Name      string
	Type      reflect.Type
	Kind      reflect.Kind
	Index     int
	IsPointer bool
	Embedded  bool
}

// IsStruct reports whether the field holds a nested struct.
func (f FieldInfo) IsStruct() bool {
	return f.Kind == reflect.Struct
}

// ReflectionCache remembers the editable fields of struct types.
type ReflectionCache struct {
	fields sync.Map // reflect.Type -> []FieldInfo
}

func NewReflectionCache() *ReflectionCache {
	return &ReflectionCache{}
}

// GetFields returns the exported fields of t in declaration order.
// Non-struct types have no fields.
func (rc *ReflectionCache) GetFields(t reflect.Type) []FieldInfo {
	if cached, ok := rc.fields.Load(t); ok {
		return cached.([]FieldInfo)
	}

	var fields []FieldInfo
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}

			fieldType := field.Type
			isPointer := fieldType.Kind() == reflect.Pointer
			if isPointer {
				fieldType = fieldType.Elem()
			}

			fields = append(fields, FieldInfo{
				Name:      field.Name,
				Type:      fieldType,
				Kind:      fieldType.Kind(),
				Index:     i,
				IsPointer: isPointer,
				Embedded:  field.Anonymous,
			})
		}
	}

	actual, _ := rc.fields.LoadOrStore(t, fields)
	return actual.([]FieldInfo)
}

var globalReflectionCache = NewReflectionCache()
