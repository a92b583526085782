package main

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/plus3/ecsworld/ecs"
	"github.com/plus3/ecsworld/ecs/physics"
)

var background = color.RGBA{30, 30, 36, 255}

// Renderer draws every body with a collider.
type Renderer struct {
	bodies *ecs.Query[struct {
		Transform physics.Transform
		Collider  physics.Collider
		Tint      *Tint `ecs:"optional"`
	}]
}

func NewRenderer(w *ecs.World) *Renderer {
	return &Renderer{
		bodies: ecs.NewQuery[struct {
			Transform physics.Transform
			Collider  physics.Collider
			Tint      *Tint `ecs:"optional"`
		}](w),
	}
}

func (r *Renderer) Draw(screen *ebiten.Image) {
	screen.Fill(background)

	height := float32(screen.Bounds().Dy())

	for item := range r.bodies.Values() {
		c := color.RGBA{255, 255, 255, 255}
		if item.Tint != nil {
			c = item.Tint.Color
		}

		x := float32(item.Transform.Position.X)
		y := height - float32(item.Transform.Position.Y)

		if item.Collider.Radius > 0 {
			vector.DrawFilledCircle(screen, x, y, float32(item.Collider.Radius), c, true)
			continue
		}

		w, h := float32(item.Collider.Width), float32(item.Collider.Height)
		vector.DrawFilledRect(screen, x-w/2, y-h/2, w, h, c, false)
	}
}
