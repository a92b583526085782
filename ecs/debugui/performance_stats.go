package debugui

import (
	"fmt"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/ecsworld/ecs"
)

func NewPerformanceStatsComponent(historyFrames int) PerformanceStatsComponent {
	historyFrames = max(historyFrames, 1)
	return PerformanceStatsComponent{
		historyFrames: historyFrames,
		frameHistory:  make([]float32, historyFrames),
		frameIndex:    0,
	}
}

// Record adds a frame time in seconds to the history.
func (ps *PerformanceStatsComponent) Record(deltaTime float64) {
	ps.frameHistory[ps.frameIndex] = float32(deltaTime * 1000.0)
	ps.frameIndex = (ps.frameIndex + 1) % ps.historyFrames
}

// AverageFrameTime returns the mean of the recorded frame times in milliseconds.
func (ps *PerformanceStatsComponent) AverageFrameTime() float32 {
	var avgFrameTime float32
	for _, ft := range ps.frameHistory {
		avgFrameTime += ft
	}
	return avgFrameTime / float32(ps.historyFrames)
}

func (ps *PerformanceStatsComponent) Render(w *ecs.World, deltaTime float64) {
	if !imgui.BeginV("Performance Stats", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	ps.Record(deltaTime)

	stats := w.CollectStats()

	imgui.Text(fmt.Sprintf("Total Entities: %d", stats.TotalEntityCount))
	imgui.Text(fmt.Sprintf("Signatures: %d", stats.SignatureCount))
	imgui.Text(fmt.Sprintf("Resources: %d", stats.ResourceCount))

	avgFrameTime := ps.AverageFrameTime()
	if avgFrameTime > 0 {
		imgui.Text(fmt.Sprintf("Avg Frame Time: %.2f ms (%.0f FPS)", avgFrameTime, 1000.0/avgFrameTime))
	}

	imgui.Separator()
	imgui.Text("Frame Time Graph (ms)")
	imgui.PlotLinesFloatPtr("##frametime", &ps.frameHistory[0], int32(len(ps.frameHistory)))

	if imgui.TreeNodeStr("Signature Details") {
		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("SignatureStatsTable", 2, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("Components")
			imgui.TableSetupColumn("Entity Count")
			imgui.TableHeadersRow()

			for _, signature := range stats.SignatureBreakdown {
				imgui.TableNextRow()
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%d", len(signature.ComponentIds)))
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%d", signature.EntityCount))
			}

			imgui.EndTable()
		}
		imgui.TreePop()
	}

	if imgui.TreeNodeStr("Resource Details") {
		for _, resourceType := range stats.ResourceTypes {
			imgui.BulletText(resourceType)
		}
		imgui.TreePop()
	}

	imgui.End()
}
