package debugui

import "github.com/plus3/ecsworld/ecs"

// SpawnDebugUI spawns one entity for every debug window.
func SpawnDebugUI(w *ecs.World) {
	w.Spawn("debugui.entities", NewEntityBrowserComponent(100))
	w.Spawn("debugui.inspector", NewComponentInspectorComponent())
	w.Spawn("debugui.signatures", NewSignatureViewerComponent())
	w.Spawn("debugui.performance", NewPerformanceStatsComponent(120))
	w.Spawn("debugui.query", NewQueryDebuggerComponent())
	w.Spawn("debugui.schedule", NewScheduleViewerComponent())
}

// Plugin installs the ImGui systems and resources. Stage defaults to ecs.PostUpdate.
type Plugin struct {
	Stage string

	// Windows spawns the debug windows.
	Windows bool
}

func (p Plugin) Build(w *ecs.World) {
	stage := p.Stage
	if stage == "" {
		stage = ecs.PostUpdate
	}

	if !ecs.HasResource[ImguiInputState](w) {
		ecs.InsertResource(w, ImguiInputState{})
	}

	if !ecs.HasResource[Selection](w) {
		ecs.InsertResource(w, Selection{})
	}

	w.AddSystem(stage, &ImguiSystem{})
	w.AddSystemWithDependencies(stage, &WindowsSystem{}, ecs.After[*ImguiSystem]())

	if p.Windows {
		SpawnDebugUI(w)
	}
}

// WindowsSystem renders the debug windows spawned by SpawnDebugUI.
type WindowsSystem struct {
	Browsers    ecs.Query[struct{ Window *EntityBrowserComponent }]
	Inspectors  ecs.Query[struct{ Window *ComponentInspectorComponent }]
	Signatures  ecs.Query[struct{ Window *SignatureViewerComponent }]
	Performance ecs.Query[struct{ Window *PerformanceStatsComponent }]
	Queries     ecs.Query[struct{ Window *QueryDebuggerComponent }]
	Schedules   ecs.Query[struct{ Window *ScheduleViewerComponent }]

	Selection ecs.Res[Selection]
}

func (s *WindowsSystem) Execute(frame *ecs.UpdateFrame) {
	w := frame.World
	selection := s.Selection.Get()

	var browsers []*EntityBrowserComponent
	for item := range s.Browsers.Values() {
		browser := item.Window
		browsers = append(browsers, browser)
		frame.Commands.Defer(func() { browser.Render(w, selection) })
	}

	for item := range s.Inspectors.Values() {
		inspector := item.Window
		frame.Commands.Defer(func() {
			var selected ecs.EntityId
			if selection != nil {
				selected = selection.Entity
			}
			inspector.Render(w, selected)
		})
	}

	for item := range s.Signatures.Values() {
		viewer := item.Window
		frame.Commands.Defer(func() {
			signature, clicked := viewer.Render(w)
			if !clicked {
				return
			}

			for _, browser := range browsers {
				browser.SetSignatureFilter(signature)
			}
		})
	}

	for item := range s.Performance.Values() {
		stats := item.Window
		frame.Commands.Defer(func() { stats.Render(w, frame.DeltaTime) })
	}

	for item := range s.Queries.Values() {
		debugger := item.Window
		frame.Commands.Defer(func() { debugger.Render(w, selection) })
	}

	for item := range s.Schedules.Values() {
		viewer := item.Window
		frame.Commands.Defer(func() { viewer.Render(w) })
	}
}
