package main

import (
	"os"
	"time"

	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/plus3/ecsworld/ecs"
	"github.com/plus3/ecsworld/ecs/debugui"
	debugui_ebiten "github.com/plus3/ecsworld/ecs/debugui/ebiten"
	"github.com/plus3/ecsworld/ecs/physics"
)

const (
	ScreenWidth  = 1280
	ScreenHeight = 720
)

func main() {
	balls := pflag.IntP("balls", "b", 50, "The number of balls spawned at start.")
	noDebugUI := pflag.Bool("no-debug-ui", false, "Disable the ImGui debug windows.")
	gravity := pflag.Float64("gravity", -300, "The vertical gravity of the simulation.")
	pflag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	cfg, err := ecs.LoadConfig()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ebiten.SetWindowSize(ScreenWidth, ScreenHeight)
	ebiten.SetWindowTitle("Physics Playground - ECS Example")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	imguiBackend := ebitenbackend.NewEbitenBackend()
	imguiBackend.CreateWindow("Physics Playground - ECS Example", ScreenWidth, ScreenHeight)
	imgui.CurrentIO().SetIniFilename("")

	w := ecs.NewWorld(ecs.WithConfig(cfg), ecs.WithLogger(logger))

	ecs.InsertResource(w, debugui_ebiten.ImguiBackend{EbitenBackend: imguiBackend})
	ecs.InsertResource(w, Input{})
	ecs.InsertResource(w, Screen{Width: ScreenWidth, Height: ScreenHeight})

	settings := physics.DefaultSettings()
	settings.Gravity.Y = *gravity

	w.AddPlugin(physics.Plugin{Settings: settings})
	w.AddPlugin(debugui.Plugin{Windows: !*noDebugUI})
	w.AddPlugin(ecs.PluginFunc(playground))

	spawnArena(w)
	for range *balls {
		spawnBall(w, randomBallPosition())
	}

	renderer := NewRenderer(w)

	if err := ebiten.RunGame(debugui_ebiten.NewGame(w, renderer.Draw)); err != nil {
		logger.Fatal().Err(err).Msg("game loop failed")
	}
}

func playground(w *ecs.World) {
	w.AddSystem(ecs.PreUpdate, &InputSystem{})
	w.AddSystem(ecs.Update, &SpawnOnClickSystem{}, &DespawnOutOfBoundsSystem{})
	w.AddSystem(ecs.PostUpdate, &ContactCounterSystem{})

	ecs.InsertResource(w, ContactCount{})
}
