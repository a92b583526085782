package debugui

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/ecsworld/ecs"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
)

func NewComponentInspectorComponent() ComponentInspectorComponent {
	return ComponentInspectorComponent{}
}

func (ci *ComponentInspectorComponent) Render(w *ecs.World, selectedEntityId ecs.EntityId) {
	if !imgui.BeginV("Component Inspector", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	ci.selectedEntityId = selectedEntityId

	if ci.selectedEntityId == ecs.NoEntity {
		imgui.Text("No entity selected")
		imgui.End()
		return
	}

	entity, ok := w.Entity(ci.selectedEntityId)
	if !ok {
		imgui.Text(fmt.Sprintf("Entity %d not found", ci.selectedEntityId))
		imgui.End()
		return
	}

	imgui.Text(fmt.Sprintf("Entity: %s", entity))
	if parent := entity.Parent(); parent != nil {
		imgui.Text(fmt.Sprintf("Parent: %s", parent))
	}
	if children := entity.Children(); len(children) > 0 {
		imgui.Text(fmt.Sprintf("Children: %d", len(children)))
	}
	if imgui.Button("Log Entity") {
		ecs.LogEntity(w.Logger(), zerolog.InfoLevel, entity)
	}
	imgui.Separator()

	for _, id := range entity.Components().Ids() {
		component, ok := entity.Components().Get(id)
		if !ok {
			continue
		}

		info, _ := ecs.ComponentInfoOf(id)
		if imgui.TreeNodeStr(info.Name) {
			ci.renderComponent(entity, component)
			imgui.TreePop()
		}
	}

	imgui.End()
}

func (ci *ComponentInspectorComponent) renderComponent(entity *ecs.Entity, component any) {
	val := reflect.ValueOf(component)
	if val.Kind() != reflect.Struct {
		imgui.Text(fmt.Sprintf("%v", component))
		return
	}

	for _, field := range globalReflectionCache.GetFields(val.Type()) {
		ci.renderField(entity, component, []int{field.Index}, field, val.Field(field.Index))
	}
}

// renderField draws an editor for a single field. path holds the field indices leading from
// the component to the field, edits are written back to the entity as a whole component.
func (ci *ComponentInspectorComponent) renderField(entity *ecs.Entity, component any, path []int, field FieldInfo, val reflect.Value) {
	name := field.Name

	if field.IsPointer {
		if val.IsNil() {
			imgui.Text(fmt.Sprintf("%s: nil", name))
			return
		}

		// values behind pointers are shared with the stored component and shown read only
		imgui.Text(fmt.Sprintf("%s: %v", name, val.Elem().Interface()))
		return
	}

	label := fmt.Sprintf("##%s%v", name, path)

	switch val.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v := int32(val.Int())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputInt(label, &v) {
			ci.apply(entity, component, path, int64(v))
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v := int32(val.Uint())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputInt(label, &v) && v >= 0 {
			ci.apply(entity, component, path, uint64(v))
		}

	case reflect.Float32, reflect.Float64:
		v := float32(val.Float())
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(150)
		if imgui.InputFloat(label, &v) {
			ci.apply(entity, component, path, float64(v))
		}

	case reflect.Bool:
		v := val.Bool()
		if imgui.Checkbox(name, &v) {
			ci.apply(entity, component, path, v)
		}

	case reflect.String:
		v := val.String()
		imgui.Text(fmt.Sprintf("%s:", name))
		imgui.SameLine()
		imgui.SetNextItemWidth(200)
		if imgui.InputTextWithHint(label, "", &v, imgui.InputTextFlagsNone, nil) {
			ci.apply(entity, component, path, v)
		}

	case reflect.Struct:
		if imgui.TreeNodeStr(name) {
			for _, nf := range globalReflectionCache.GetFields(val.Type()) {
				nestedPath := append(slices.Clone(path), nf.Index)
				ci.renderField(entity, component, nestedPath, nf, val.Field(nf.Index))
			}
			imgui.TreePop()
		}

	case reflect.Slice:
		imgui.Text(fmt.Sprintf("%s: [%d items]", name, val.Len()))

	case reflect.Map:
		imgui.Text(fmt.Sprintf("%s: map[%d items]", name, val.Len()))

	default:
		imgui.Text(fmt.Sprintf("%s: %v", name, val.Interface()))
	}
}

func (ci *ComponentInspectorComponent) apply(entity *ecs.Entity, component any, path []int, value any) {
	updated, err := SetField(component, path, value)
	if err != nil {
		entity.World().Logger().Warn().
			Str("entity", entity.String()).
			Str("error", eris.ToString(err, false)).
			Msg("debugui: failed to edit component")
		return
	}

	entity.Components().Set(updated)
}

// SetField returns a pointer to a copy of component with the field at path replaced by value.
// Numeric values are converted to the kind of the target field.
func SetField(component any, path []int, value any) (any, error) {
	if len(path) == 0 {
		return nil, eris.New("empty field path")
	}

	src := reflect.ValueOf(component)
	if src.Kind() == reflect.Pointer {
		src = src.Elem()
	}

	if src.Kind() != reflect.Struct {
		return nil, eris.Errorf("component %s is not a struct", src.Type())
	}

	copied := reflect.New(src.Type())
	copied.Elem().Set(src)

	field := copied.Elem()
	for _, idx := range path {
		if field.Kind() != reflect.Struct || idx < 0 || idx >= field.NumField() {
			return nil, eris.Errorf("invalid field path %v on %s", path, src.Type())
		}
		field = field.Field(idx)
	}

	if !field.CanSet() {
		return nil, eris.Errorf("field at %v on %s can not be set", path, src.Type())
	}

	newValue := reflect.ValueOf(value)
	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if !newValue.CanConvert(field.Type()) {
			return nil, eris.Errorf("can not assign %T to %s", value, field.Type())
		}

		field.Set(newValue.Convert(field.Type()))

	default:
		if !newValue.Type().AssignableTo(field.Type()) {
			return nil, eris.Errorf("can not assign %T to %s", value, field.Type())
		}
		field.Set(newValue)
	}

	return copied.Interface(), nil
}
