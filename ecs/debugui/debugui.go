// Package debugui provides immediate-mode GUI integration for worlds using Dear ImGui.
// It manages ImGui rendering and input state through components, resources and systems.
package debugui

import (
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/ecsworld/ecs"
)

// ImguiItem is a component that holds a Dear ImGui render function.
// Attach this to entities that should render ImGui widgets each frame.
type ImguiItem struct {
	Render func()
}

// ImguiInputState tracks Dear ImGui's input capture state as a resource.
// Use this to determine if ImGui is consuming mouse or keyboard input.
type ImguiInputState struct {
	WantCaptureMouse    bool
	WantCaptureKeyboard bool
}

// Selection holds the entity picked in the entity browser. The component
// inspector shows the components of the selected entity.
type Selection struct {
	Entity ecs.EntityId
}

// ImguiSystem queries all ImguiItem components and defers their render functions.
// It also updates the ImguiInputState resource with current input capture state.
type ImguiSystem struct {
	Items      ecs.Query[struct{ Item ImguiItem }]
	InputState ecs.Res[ImguiInputState]
}

// Execute updates input state and queues all ImGui render functions for execution.
func (i *ImguiSystem) Execute(frame *ecs.UpdateFrame) {
	if state := i.InputState.Get(); state != nil {
		io := imgui.CurrentIO()
		state.WantCaptureMouse = io.WantCaptureMouse()
		state.WantCaptureKeyboard = io.WantCaptureKeyboard()
	}

	for _, item := range i.Items.Iter() {
		if item.Item.Render != nil {
			frame.Commands.Defer(item.Item.Render)
		}
	}
}
