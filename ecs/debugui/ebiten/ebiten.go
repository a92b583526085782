// Package ebiten provides Dear ImGui backend integration for the Ebiten game engine.
package ebiten

import (
	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/plus3/ecsworld/ecs"
)

// ImguiBackend wraps the Ebiten-specific Dear ImGui backend implementation.
// It is stored as a world resource.
type ImguiBackend struct {
	*ebitenbackend.EbitenBackend
}

// Game drives a world from the Ebiten game loop. Every Ebiten tick runs one world update
// inside an ImGui frame, Draw renders the scene and the ImGui overlay on top.
type Game struct {
	World *ecs.World

	// DrawScene draws the world before the ImGui overlay. Optional.
	DrawScene func(screen *ebiten.Image)

	backend *ebitenbackend.EbitenBackend
}

// NewGame creates a Game using the ImguiBackend resource of w.
func NewGame(w *ecs.World, drawScene func(screen *ebiten.Image)) *Game {
	g := &Game{World: w, DrawScene: drawScene}
	if backend, ok := ecs.GetResource[ImguiBackend](w); ok {
		g.backend = backend.EbitenBackend
	}
	return g
}

func (g *Game) Update() error {
	if g.backend != nil {
		g.backend.BeginFrame()
		defer g.backend.EndFrame()
	}

	g.World.Update(1.0 / float64(ebiten.TPS()))
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	if g.DrawScene != nil {
		g.DrawScene(screen)
	}

	if g.backend != nil {
		g.backend.Draw(screen)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if g.backend != nil {
		g.backend.Layout(outsideWidth, outsideHeight)
	}
	return outsideWidth, outsideHeight
}
