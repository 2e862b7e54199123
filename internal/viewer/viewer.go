// Package viewer displays loaded recordings.
//
// Launcher prepares the process environment and invokes a ViewFunc in
// blocking mode. The default ViewFunc is a terminal trace browser built on
// bubbletea.
package viewer

import (
	"fmt"
	"os"
	"runtime"

	"github.com/charmbracelet/log"

	"github.com/simonhull/eegview/internal/types"
)

// PlatformEnv is the windowing-backend variable set on macOS.
const PlatformEnv = "QT_QPA_PLATFORM"

// darwinPlatform is the value written to PlatformEnv when it is unset.
const darwinPlatform = "cocoa"

// Scaling chooses how sample values map to trace height.
type Scaling struct {
	// PerType holds explicit scales in physical units per channel type.
	// Nil means automatic scaling.
	PerType map[types.ChannelType]float64
}

// ScalingAuto derives scales from the data. See AutoScale.
var ScalingAuto = Scaling{}

// Auto reports whether s requests automatic scaling.
func (s Scaling) Auto() bool { return s.PerType == nil }

// Options are passed to a ViewFunc.
type Options struct {
	Scaling Scaling
	// Block makes the ViewFunc return only after the user closes the view.
	Block bool
}

// ViewFunc displays rec.
type ViewFunc func(rec types.Recording, opts Options) error

// Launcher invokes a ViewFunc after preparing the environment.
// The function fields are replaceable for tests.
type Launcher struct {
	View   ViewFunc
	Getenv func(string) (string, bool)
	Setenv func(key, value string) error
	Logger *log.Logger
	GOOS   string
}

// NewLauncher returns a Launcher for the current platform and process
// environment.
func NewLauncher(view ViewFunc) *Launcher {
	return &Launcher{
		View:   view,
		Getenv: os.LookupEnv,
		Setenv: os.Setenv,
		Logger: log.New(os.Stderr),
		GOOS:   runtime.GOOS,
	}
}

// Launch shows rec and blocks until the viewer is closed.
//
// On darwin, QT_QPA_PLATFORM is set to "cocoa" first unless it already has
// a value; the change is not rolled back. Any viewer failure is returned
// as *types.ViewerFailedError.
func (l *Launcher) Launch(rec types.Recording) error {
	if l.GOOS == "darwin" {
		if _, ok := l.Getenv(PlatformEnv); !ok {
			if err := l.Setenv(PlatformEnv, darwinPlatform); err != nil {
				return &types.ViewerFailedError{
					Err:  fmt.Errorf("set %s: %w", PlatformEnv, err),
					Path: rec.Info().Path,
				}
			}
			if l.Logger != nil {
				l.Logger.Debug("set windowing backend", "env", PlatformEnv, "value", darwinPlatform)
			}
		}
	}

	if err := l.View(rec, Options{Block: true, Scaling: ScalingAuto}); err != nil {
		return &types.ViewerFailedError{Err: err, Path: rec.Info().Path}
	}
	return nil
}
