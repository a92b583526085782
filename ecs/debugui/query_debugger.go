package debugui

import (
	"fmt"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/ecsworld/ecs"
)

// QueryMatch is an entity matched by the query debugger.
type QueryMatch struct {
	ID   ecs.EntityId
	Name string
}

func NewQueryDebuggerComponent() QueryDebuggerComponent {
	return QueryDebuggerComponent{}
}

func (qd *QueryDebuggerComponent) Render(w *ecs.World, selection *Selection) {
	if !imgui.BeginV("Query Debugger", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	imgui.Text("With / Without:")
	imgui.Separator()

	if imgui.Button("Clear All") {
		qd.selected = ecs.Bitmask{}
		qd.excluded = ecs.Bitmask{}
	}

	for _, info := range ecs.RegisteredComponents() {
		with := qd.selected.Has(info.Id)
		if imgui.Checkbox(fmt.Sprintf("##with%d", info.Id), &with) {
			qd.Require(info.Id, with)
		}

		imgui.SameLine()

		without := qd.excluded.Has(info.Id)
		if imgui.Checkbox(fmt.Sprintf("%s##without%d", info.Name, info.Id), &without) {
			qd.Exclude(info.Id, without)
		}
	}

	imgui.Separator()

	if qd.selected.IsZero() && qd.excluded.IsZero() {
		imgui.Text("No component types selected")
		imgui.End()
		return
	}

	imgui.Text(fmt.Sprintf("Query: %s", qd.Describe()))

	matches := qd.Match(w)
	imgui.Text(fmt.Sprintf("Matching Entities: %d", len(matches)))

	if imgui.TreeNodeStr("Entities") {
		for _, match := range matches {
			label := fmt.Sprintf("%s#%d", match.Name, match.ID)
			isSelected := selection != nil && selection.Entity == match.ID
			if imgui.SelectableBoolV(label, isSelected, imgui.SelectableFlagsNone, imgui.NewVec2(0, 0)) && selection != nil {
				selection.Entity = match.ID
			}
		}
		imgui.TreePop()
	}

	imgui.End()
}

// Require adds or removes id from the required components.
func (qd *QueryDebuggerComponent) Require(id ecs.ComponentId, enabled bool) {
	if enabled {
		qd.selected.Set(id)
		qd.excluded.Clear(id)
		return
	}
	qd.selected.Clear(id)
}

// Exclude adds or removes id from the excluded components.
func (qd *QueryDebuggerComponent) Exclude(id ecs.ComponentId, enabled bool) {
	if enabled {
		qd.excluded.Set(id)
		qd.selected.Clear(id)
		return
	}
	qd.excluded.Clear(id)
}

// Describe renders the current selection like the marker fields of a query struct.
func (qd *QueryDebuggerComponent) Describe() string {
	var parts []string
	for id := range qd.selected.Ids() {
		parts = append(parts, "With["+componentLabel(id)+"]")
	}
	for id := range qd.excluded.Ids() {
		parts = append(parts, "Without["+componentLabel(id)+"]")
	}
	return strings.Join(parts, " ")
}

// Match returns the entities having every required and none of the excluded components.
func (qd *QueryDebuggerComponent) Match(w *ecs.World) []QueryMatch {
	var matches []QueryMatch

	for entity := range w.Entities() {
		mask := entity.Components().Mask()
		if !mask.ContainsAll(qd.selected) || mask.Intersects(qd.excluded) {
			continue
		}

		matches = append(matches, QueryMatch{ID: entity.Id(), Name: entity.Name()})
	}

	return matches
}

func componentLabel(id ecs.ComponentId) string {
	if info, ok := ecs.ComponentInfoOf(id); ok {
		return info.Name
	}
	return fmt.Sprintf("#%d", id)
}
