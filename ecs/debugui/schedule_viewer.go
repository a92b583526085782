package debugui

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/ecsworld/ecs"
)

func NewScheduleViewerComponent() ScheduleViewerComponent {
	return ScheduleViewerComponent{}
}

// Render shows every stage with the timings of its systems.
func (sv *ScheduleViewerComponent) Render(w *ecs.World) {
	if !imgui.BeginV("Schedule", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	stats := w.Stats()
	imgui.Text(fmt.Sprintf("Frame: %d", stats.Frame))

	for _, stage := range stats.Stages {
		header := fmt.Sprintf("%s (%d systems, %.3f ms)###%s",
			stage.Stage, stage.SystemCount, milliseconds(stage.LastDuration.Seconds()), stage.Stage)

		if !imgui.TreeNodeStr(header) {
			continue
		}

		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("SystemsTable##"+stage.Stage, 5, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("System")
			imgui.TableSetupColumn("Runs")
			imgui.TableSetupColumn("Last (ms)")
			imgui.TableSetupColumn("Avg (ms)")
			imgui.TableSetupColumn("Max (ms)")
			imgui.TableHeadersRow()

			for _, system := range stage.Systems {
				imgui.TableNextRow()
				imgui.TableNextColumn()
				imgui.Text(system.Name)
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%d", system.ExecutionCount))
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%.3f", milliseconds(system.LastDuration.Seconds())))
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%.3f", milliseconds(system.AvgDuration.Seconds())))
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%.3f", milliseconds(system.MaxDuration.Seconds())))
			}

			imgui.EndTable()
		}

		imgui.TreePop()
	}

	imgui.End()
}

func milliseconds(seconds float64) float64 {
	return seconds * 1000
}
