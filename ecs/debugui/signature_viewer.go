package debugui

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/ecsworld/ecs"
)

type SignatureInfo struct {
	Signature      string
	ComponentTypes []string
	EntityCount    int
	ComponentCount int
}

type SignatureViewerCache struct {
	signatures    []SignatureInfo
	lastFrame     uint64
	sortColumn    int
	sortAscending bool
}

func NewSignatureViewerComponent() SignatureViewerComponent {
	return SignatureViewerComponent{
		cache: &SignatureViewerCache{
			sortColumn:    2,
			sortAscending: false,
		},
	}
}

// Render draws the table of component signatures. Returns the signature clicked this frame.
func (sv *SignatureViewerComponent) Render(w *ecs.World) (string, bool) {
	if !imgui.BeginV("Signature Viewer", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return "", false
	}

	sv.rebuildCacheIfNeeded(w)

	maxEntityCount := 0
	for _, signature := range sv.cache.signatures {
		maxEntityCount = max(maxEntityCount, signature.EntityCount)
	}

	var clicked string
	var wasClicked bool

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("SignatureTable", 3, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Components")
		imgui.TableSetupColumn("Comp Count")
		imgui.TableSetupColumn("Entity Count")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			sv.SortBy(int(spec.ColumnIndex()), spec.SortDirection() == imgui.SortDirectionAscending)
			sortSpecs.SetSpecsDirty(false)
		}

		for _, signature := range sv.cache.signatures {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			label := strings.Join(signature.ComponentTypes, ", ")
			if label == "" {
				label = "<empty>"
			}

			isSelected := sv.selectedSignature == signature.Signature
			if imgui.SelectableBoolV(label, isSelected, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				sv.selectedSignature = signature.Signature
				clicked, wasClicked = signature.Signature, true
			}

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", signature.ComponentCount))

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", signature.EntityCount))

			if maxEntityCount > 0 {
				barWidth := float32(signature.EntityCount) / float32(maxEntityCount) * 80.0
				imgui.SameLine()
				drawList := imgui.WindowDrawList()
				pos := imgui.CursorScreenPos()
				color := imgui.ColorU32Vec4(imgui.NewVec4(0.2, 0.6, 0.8, 0.6))
				drawList.AddRectFilled(pos, imgui.NewVec2(pos.X+barWidth, pos.Y+10), color)
			}
		}

		imgui.EndTable()
	}

	imgui.End()
	return clicked, wasClicked
}

// Signatures returns the cached signatures in display order.
func (sv *SignatureViewerComponent) Signatures() []SignatureInfo {
	return sv.cache.signatures
}

// Refresh rebuilds the cached signature table.
func (sv *SignatureViewerComponent) Refresh(w *ecs.World) {
	sv.rebuildCache(w)
}

func (sv *SignatureViewerComponent) rebuildCacheIfNeeded(w *ecs.World) {
	var frame uint64
	if t, ok := ecs.GetResource[ecs.Time](w); ok {
		frame = t.Frame
	}

	if sv.cache.signatures != nil && frame-sv.cache.lastFrame < refreshFrames {
		return
	}

	sv.rebuildCache(w)
	sv.cache.lastFrame = frame
}

func (sv *SignatureViewerComponent) rebuildCache(w *ecs.World) {
	stats := w.CollectStats()

	sv.cache.signatures = make([]SignatureInfo, 0, len(stats.SignatureBreakdown))
	for _, signature := range stats.SignatureBreakdown {
		sv.cache.signatures = append(sv.cache.signatures, SignatureInfo{
			Signature:      signatureOf(signature.ComponentNames),
			ComponentTypes: signature.ComponentNames,
			EntityCount:    signature.EntityCount,
			ComponentCount: len(signature.ComponentNames),
		})
	}

	sv.sortSignatures()
}

// SortBy sorts the cached signatures by the given table column.
func (sv *SignatureViewerComponent) SortBy(column int, ascending bool) {
	sv.cache.sortColumn = column
	sv.cache.sortAscending = ascending
	sv.sortSignatures()
}

func (sv *SignatureViewerComponent) sortSignatures() {
	slices.SortStableFunc(sv.cache.signatures, func(a, b SignatureInfo) int {
		var order int

		switch sv.cache.sortColumn {
		case 0:
			order = strings.Compare(a.Signature, b.Signature)
		case 1:
			order = cmp.Compare(a.ComponentCount, b.ComponentCount)
		default:
			order = cmp.Compare(a.EntityCount, b.EntityCount)
		}

		if !sv.cache.sortAscending {
			return -order
		}
		return order
	})
}
