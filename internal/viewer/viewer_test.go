package viewer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/eegview/internal/types"
)

// fakeEnv is an in-memory environment.
type fakeEnv map[string]string

func (e fakeEnv) get(k string) (string, bool) {
	v, ok := e[k]
	return v, ok
}

func (e fakeEnv) set(k, v string) error {
	e[k] = v
	return nil
}

func testRecording() *types.Continuous {
	return &types.Continuous{
		Header: types.Header{
			Path:   "rest.edf",
			Format: "EDF",
			Sfreq:  100,
			Chs: []types.Channel{
				{Name: "Fz", Type: types.ChannelEEG, Unit: "uV"},
				{Name: "HEOG", Type: types.ChannelEOG, Unit: "uV"},
			},
		},
		Data: [][]float64{
			{1, -1, 2, -2},
			{10, 20, 30, 40},
		},
	}
}

func newTestLauncher(goos string, env fakeEnv, view ViewFunc) *Launcher {
	return &Launcher{View: view, Getenv: env.get, Setenv: env.set, GOOS: goos}
}

func TestLaunch_SetsPlatformOnDarwin(t *testing.T) {
	env := fakeEnv{}
	var seen string
	l := newTestLauncher("darwin", env, func(types.Recording, Options) error {
		seen = env[PlatformEnv]
		return nil
	})

	require.NoError(t, l.Launch(testRecording()))
	assert.Equal(t, "cocoa", env[PlatformEnv])
	assert.Equal(t, "cocoa", seen, "variable must be set before the viewer runs")
}

func TestLaunch_KeepsExistingPlatform(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"user value", "offscreen"},
		{"empty but set", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := fakeEnv{PlatformEnv: tt.value}
			l := newTestLauncher("darwin", env, func(types.Recording, Options) error { return nil })

			require.NoError(t, l.Launch(testRecording()))
			assert.Equal(t, tt.value, env[PlatformEnv])
		})
	}
}

func TestLaunch_OtherPlatformsUntouched(t *testing.T) {
	for _, goos := range []string{"linux", "windows", "freebsd"} {
		env := fakeEnv{}
		l := newTestLauncher(goos, env, func(types.Recording, Options) error { return nil })

		require.NoError(t, l.Launch(testRecording()))
		_, ok := env[PlatformEnv]
		assert.False(t, ok, goos)
	}
}

func TestLaunch_BlockingAutoScaling(t *testing.T) {
	var got Options
	calls := 0
	l := newTestLauncher("linux", fakeEnv{}, func(_ types.Recording, opts Options) error {
		calls++
		got = opts
		return nil
	})

	require.NoError(t, l.Launch(testRecording()))
	assert.Equal(t, 1, calls)
	assert.True(t, got.Block)
	assert.True(t, got.Scaling.Auto())
}

func TestLaunch_ViewerFailure(t *testing.T) {
	noDisplay := errors.New("could not open a new TTY")
	l := newTestLauncher("linux", fakeEnv{}, func(types.Recording, Options) error { return noDisplay })

	err := l.Launch(testRecording())

	var vf *types.ViewerFailedError
	require.ErrorAs(t, err, &vf)
	assert.Equal(t, "rest.edf", vf.Path)
	assert.ErrorIs(t, err, noDisplay)
	assert.ErrorIs(t, err, types.ErrViewerFailed)
}

func TestLaunch_SetenvFailure(t *testing.T) {
	l := newTestLauncher("darwin", fakeEnv{}, func(types.Recording, Options) error {
		t.Fatal("viewer must not run")
		return nil
	})
	l.Setenv = func(string, string) error { return errors.New("read-only environment") }

	err := l.Launch(testRecording())
	assert.ErrorIs(t, err, types.ErrViewerFailed)
}

func TestAutoScale(t *testing.T) {
	rec := testRecording()
	rec.Data[0] = make([]float64, 100)
	for i := range rec.Data[0] {
		rec.Data[0][i] = float64(i % 10) // |x| in 0..9
	}
	rec.Data[1] = []float64{0, 0, 0, 0}

	scales := AutoScale(rec)
	assert.Equal(t, 9.0, scales[types.ChannelEEG])
	assert.Equal(t, 1.0, scales[types.ChannelEOG], "flat channels get a unit scale")
}

func TestAutoScale_Segmented(t *testing.T) {
	rec := &types.Segmented{
		Header: types.Header{
			Sfreq: 10,
			Chs:   []types.Channel{{Name: "Cz", Type: types.ChannelEEG}},
		},
		Epochs: [][][]float64{{{-5, 5}}, {{-50, 50}}},
	}

	scales := AutoScale(rec)
	assert.Equal(t, 50.0, scales[types.ChannelEEG])
}
