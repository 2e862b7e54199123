package eegview

import (
	"github.com/simonhull/eegview/internal/brainvision"
	"github.com/simonhull/eegview/internal/edf"
	"github.com/simonhull/eegview/internal/eeglab"
	"github.com/simonhull/eegview/internal/egi"
	"github.com/simonhull/eegview/internal/fiff"
	"github.com/simonhull/eegview/internal/gdf"
	"github.com/simonhull/eegview/internal/registry"
)

// builtinModules lists the format modules in registration order. A later
// module registering an extension already claimed replaces the earlier
// loader.
func builtinModules() []registry.Module {
	return []registry.Module{
		eeglab.Module{},
		edf.Module{},
		edf.BDFModule{},
		gdf.Module{},
		brainvision.Module{},
		fiff.Module{},
		egi.Module{},
	}
}

// DefaultRegistry returns a frozen registry holding every built-in format.
//
// Each call builds a new registry.
func DefaultRegistry() *registry.Registry {
	return registry.New().Install(builtinModules()...).Freeze()
}

// SupportedExtensions returns the extensions handled by DefaultRegistry.
func SupportedExtensions() []string {
	return DefaultRegistry().Extensions()
}
