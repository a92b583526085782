package debugui

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/plus3/ecsworld/ecs"
)

// refreshFrames is the number of frames cached tables are reused while the entity count is stable.
const refreshFrames = 30

type EntityInfo struct {
	ID             ecs.EntityId
	Name           string
	Parent         ecs.EntityId
	Signature      string
	ComponentTypes []string
	ComponentCount int
}

type EntityBrowserCache struct {
	entities      []EntityInfo
	lastFrame     uint64
	lastCount     int
	sortColumn    int
	sortAscending bool
}

func NewEntityBrowserComponent(maxEntitiesPerPage int) EntityBrowserComponent {
	return EntityBrowserComponent{
		cache: &EntityBrowserCache{
			sortColumn:    0,
			sortAscending: true,
		},
		maxEntitiesPerPage: max(maxEntitiesPerPage, 1),
	}
}

func (eb *EntityBrowserComponent) Render(w *ecs.World, selection *Selection) {
	if !imgui.BeginV("Entity Browser", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	eb.rebuildCacheIfNeeded(w)

	imgui.InputTextWithHint("##search", "Search...", &eb.filterText, imgui.InputTextFlagsNone, nil)
	imgui.SameLine()
	if imgui.Button("Clear Filter") {
		eb.filterText = ""
		eb.filterSignature = ""
		eb.currentPage = 0
	}

	filteredEntities := eb.FilteredEntities()

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("EntityTable", 4, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Entity")
		imgui.TableSetupColumn("Parent")
		imgui.TableSetupColumn("Components")
		imgui.TableSetupColumn("Count")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			eb.SortBy(int(spec.ColumnIndex()), spec.SortDirection() == imgui.SortDirectionAscending)
			filteredEntities = eb.FilteredEntities()
			sortSpecs.SetSpecsDirty(false)
		}

		startIdx, endIdx := eb.pageBounds(len(filteredEntities))

		for i := startIdx; i < endIdx; i++ {
			entity := filteredEntities[i]
			imgui.TableNextRow()

			imgui.TableNextColumn()
			isSelected := selection != nil && selection.Entity == entity.ID
			if imgui.SelectableBoolV(entityLabel(entity), isSelected, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) && selection != nil {
				selection.Entity = entity.ID
			}

			imgui.TableNextColumn()
			if entity.Parent != ecs.NoEntity {
				imgui.Text(fmt.Sprintf("#%d", entity.Parent))
			}

			imgui.TableNextColumn()
			imgui.Text(strings.Join(entity.ComponentTypes, ", "))

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", entity.ComponentCount))
		}

		imgui.EndTable()
	}

	if len(filteredEntities) > eb.maxEntitiesPerPage {
		totalPages := eb.pageCount(len(filteredEntities))
		imgui.Text(fmt.Sprintf("Page %d / %d (%d entities)", eb.currentPage+1, totalPages, len(filteredEntities)))
		imgui.SameLine()
		if imgui.Button("Prev") && eb.currentPage > 0 {
			eb.currentPage--
		}
		imgui.SameLine()
		if imgui.Button("Next") && eb.currentPage < totalPages-1 {
			eb.currentPage++
		}
	} else {
		imgui.Text(fmt.Sprintf("Total: %d entities", len(filteredEntities)))
	}

	imgui.End()
}

// SetFilter sets the free text filter. Matching is case insensitive against the
// entity id, the entity name and the component type names.
func (eb *EntityBrowserComponent) SetFilter(text string) {
	eb.filterText = text
	eb.currentPage = 0
}

// SetSignatureFilter limits the browser to entities with exactly the given signature.
func (eb *EntityBrowserComponent) SetSignatureFilter(signature string) {
	eb.filterSignature = signature
	eb.currentPage = 0
}

// Refresh rebuilds the cached entity table.
func (eb *EntityBrowserComponent) Refresh(w *ecs.World) {
	eb.rebuildCache(w)
}

func (eb *EntityBrowserComponent) rebuildCacheIfNeeded(w *ecs.World) {
	var frame uint64
	if t, ok := ecs.GetResource[ecs.Time](w); ok {
		frame = t.Frame
	}

	if eb.cache.entities != nil && eb.cache.lastCount == w.EntityCount() && frame-eb.cache.lastFrame < refreshFrames {
		return
	}

	eb.rebuildCache(w)
	eb.cache.lastFrame = frame
}

func (eb *EntityBrowserComponent) rebuildCache(w *ecs.World) {
	eb.cache.entities = make([]EntityInfo, 0, w.EntityCount())

	for entity := range w.Entities() {
		ids := entity.Components().Ids()

		componentTypes := make([]string, 0, len(ids))
		for _, id := range ids {
			if info, ok := ecs.ComponentInfoOf(id); ok {
				componentTypes = append(componentTypes, info.Name)
			}
		}

		info := EntityInfo{
			ID:             entity.Id(),
			Name:           entity.Name(),
			Signature:      signatureOf(componentTypes),
			ComponentTypes: componentTypes,
			ComponentCount: len(componentTypes),
		}

		if parent := entity.Parent(); parent != nil {
			info.Parent = parent.Id()
		}

		eb.cache.entities = append(eb.cache.entities, info)
	}

	eb.cache.lastCount = len(eb.cache.entities)
	eb.sortEntities()
}

// SortBy sorts the cached entities by the given table column.
func (eb *EntityBrowserComponent) SortBy(column int, ascending bool) {
	eb.cache.sortColumn = column
	eb.cache.sortAscending = ascending
	eb.sortEntities()
}

func (eb *EntityBrowserComponent) sortEntities() {
	slices.SortStableFunc(eb.cache.entities, func(a, b EntityInfo) int {
		var order int

		switch eb.cache.sortColumn {
		case 1:
			order = cmp.Compare(a.Parent, b.Parent)
		case 2:
			order = strings.Compare(a.Signature, b.Signature)
		case 3:
			order = cmp.Compare(a.ComponentCount, b.ComponentCount)
		}

		if order == 0 {
			order = cmp.Compare(a.ID, b.ID)
		}

		if !eb.cache.sortAscending {
			return -order
		}
		return order
	})
}

// FilteredEntities returns the cached entities passing the current filters.
func (eb *EntityBrowserComponent) FilteredEntities() []EntityInfo {
	if eb.filterText == "" && eb.filterSignature == "" {
		return eb.cache.entities
	}

	filtered := make([]EntityInfo, 0, len(eb.cache.entities))
	filterLower := strings.ToLower(eb.filterText)

	for _, entity := range eb.cache.entities {
		if eb.filterSignature != "" && entity.Signature != eb.filterSignature {
			continue
		}

		if eb.filterText != "" {
			idStr := fmt.Sprintf("%d", entity.ID)
			nameStr := strings.ToLower(entity.Name)
			componentsStr := strings.ToLower(strings.Join(entity.ComponentTypes, " "))

			if !strings.Contains(idStr, filterLower) &&
				!strings.Contains(nameStr, filterLower) &&
				!strings.Contains(componentsStr, filterLower) {
				continue
			}
		}

		filtered = append(filtered, entity)
	}

	return filtered
}

func (eb *EntityBrowserComponent) pageCount(total int) int {
	return max((total+eb.maxEntitiesPerPage-1)/eb.maxEntitiesPerPage, 1)
}

func (eb *EntityBrowserComponent) pageBounds(total int) (int, int) {
	eb.currentPage = min(eb.currentPage, eb.pageCount(total)-1)

	startIdx := eb.currentPage * eb.maxEntitiesPerPage
	endIdx := min(startIdx+eb.maxEntitiesPerPage, total)
	return startIdx, endIdx
}

func entityLabel(entity EntityInfo) string {
	if entity.Name == "" {
		return fmt.Sprintf("#%d", entity.ID)
	}
	return fmt.Sprintf("%s#%d", entity.Name, entity.ID)
}

// signatureOf joins component names into a string identifying a component set.
func signatureOf(names []string) string {
	sorted := slices.Clone(names)
	slices.Sort(sorted)
	return strings.Join(sorted, ",")
}
