package main

import (
	"image/color"
	"math/rand/v2"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/jakecoffman/cp/v2"

	"github.com/plus3/ecsworld/ecs"
	"github.com/plus3/ecsworld/ecs/debugui"
	"github.com/plus3/ecsworld/ecs/physics"
)

// Input is written once per frame in the pre update stage.
type Input struct {
	MouseX, MouseY int
	Clicked        bool
}

type Screen struct {
	Width, Height int
}

// Tint colors a rendered body.
type Tint struct {
	Color color.RGBA
}

// ContactCount counts the contacts seen so far.
type ContactCount struct {
	Total int
}

var palette = []color.RGBA{
	{179, 229, 252, 255},
	{255, 223, 186, 255},
	{186, 255, 201, 255},
	{255, 200, 221, 255},
	{217, 186, 255, 255},
}

type InputSystem struct {
	Input      ecs.Res[Input]
	ImguiInput ecs.Res[debugui.ImguiInputState]
}

func (s *InputSystem) Execute(frame *ecs.UpdateFrame) {
	input := s.Input.Get()
	if input == nil {
		return
	}

	*input = Input{}

	if state := s.ImguiInput.Get(); state != nil && state.WantCaptureMouse {
		return
	}

	input.MouseX, input.MouseY = ebiten.CursorPosition()
	input.Clicked = inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft)
}

type SpawnOnClickSystem struct {
	Input  ecs.Res[Input]
	Screen ecs.Res[Screen]
}

func (s *SpawnOnClickSystem) Execute(frame *ecs.UpdateFrame) {
	input, screen := s.Input.Get(), s.Screen.Get()
	if input == nil || screen == nil || !input.Clicked {
		return
	}

	position := screenToWorld(*screen, input.MouseX, input.MouseY)
	frame.Commands.Spawn("ball", ballComponents(position)...)
}

type DespawnOutOfBoundsSystem struct {
	Bodies ecs.Query[struct {
		Entity    *ecs.Entity
		Transform physics.Transform
	}]
}

func (s *DespawnOutOfBoundsSystem) Execute(frame *ecs.UpdateFrame) {
	for item := range s.Bodies.Values() {
		if item.Transform.Position.Y < -500 {
			frame.Commands.Despawn(item.Entity)
		}
	}
}

type ContactCounterSystem struct {
	Contacts ecs.EventReader[physics.ContactStarted]
	Count    ecs.Res[ContactCount]
}

func (s *ContactCounterSystem) Execute(frame *ecs.UpdateFrame) {
	if count := s.Count.Get(); count != nil {
		count.Total += s.Contacts.Len()
	}
}

func spawnArena(w *ecs.World) {
	wall := func(name string, x, y, width, height float64) {
		w.Spawn(name,
			physics.Body{Kind: physics.Static},
			physics.Transform{Position: cp.Vector{X: x, Y: y}},
			physics.Collider{Width: width, Height: height, Friction: 0.8, Elasticity: 0.4},
			Tint{Color: color.RGBA{90, 90, 90, 255}},
		)
	}

	wall("floor", ScreenWidth/2, 10, ScreenWidth, 20)
	wall("wall.left", 10, ScreenHeight/2, 20, ScreenHeight)
	wall("wall.right", ScreenWidth-10, ScreenHeight/2, 20, ScreenHeight)
}

func spawnBall(w *ecs.World, position cp.Vector) *ecs.Entity {
	return w.Spawn("ball", ballComponents(position)...)
}

func ballComponents(position cp.Vector) []any {
	radius := 8 + rand.Float64()*12

	return []any{
		physics.Body{Mass: radius / 4},
		physics.Transform{Position: position},
		physics.Collider{Radius: radius, Friction: 0.6, Elasticity: 0.7},
		Tint{Color: palette[rand.IntN(len(palette))]},
	}
}

func randomBallPosition() cp.Vector {
	return cp.Vector{
		X: 100 + rand.Float64()*(ScreenWidth-200),
		Y: ScreenHeight/2 + rand.Float64()*ScreenHeight/2,
	}
}

// screenToWorld flips the y axis, physics y points up.
func screenToWorld(screen Screen, x, y int) cp.Vector {
	return cp.Vector{X: float64(x), Y: float64(screen.Height - y)}
}
