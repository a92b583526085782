package ecs

import (
	"reflect"
)

// Plugin bundles the setup of systems, resources and hooks.
type Plugin interface {
	Build(w *World)
}

// PluginFunc adapts a function to the Plugin interface.
type PluginFunc func(w *World)

func (fn PluginFunc) Build(w *World) {
	fn(w)
}

// AddPlugin builds the plugin. A plugin of the same type is only built once,
// function plugins are built on every call.
func (w *World) AddPlugin(plugin Plugin) *World {
	if _, isFunc := plugin.(PluginFunc); !isFunc {
		name := reflect.TypeOf(plugin).String()
		if _, exists := w.plugins[name]; exists {
			w.logger.Debug().Str("plugin", name).Msg("plugin already added")
			return w
		}

		w.plugins[name] = struct{}{}
	}

	plugin.Build(w)
	return w
}
