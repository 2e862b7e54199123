package eegview_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/eegview"
	"github.com/simonhull/eegview/internal/registry"
	"github.com/simonhull/eegview/internal/types"
)

func TestDefaultRegistry_Extensions(t *testing.T) {
	want := []string{".set", ".edf", ".bdf", ".gdf", ".vhdr", ".fif", ".raw"}
	reg := eegview.DefaultRegistry()

	if diff := cmp.Diff(want, reg.Extensions()); diff != "" {
		t.Errorf("Extensions() mismatch (-want +got):\n%s", diff)
	}
	assert.Panics(t, func() {
		reg.Register(".xyz", registry.NewStrategy("xyz", func(string, bool) (types.Recording, error) {
			return nil, nil
		}), nil)
	}, "default registry should be frozen")

	fb, ok := reg.Fallback(".set")
	require.True(t, ok, ".set should have a fallback loader")
	assert.Equal(t, "epochs", fb.Name())
	for _, ext := range want[1:] {
		_, ok := reg.Fallback(ext)
		assert.False(t, ok, "%s should not have a fallback", ext)
	}
}

func TestResolve_CaseInsensitive(t *testing.T) {
	reg := eegview.DefaultRegistry()
	for _, ext := range reg.Extensions() {
		lower, ok := reg.Resolve(ext)
		require.True(t, ok, ext)
		upper, ok := reg.Resolve(strings.ToUpper(ext))
		require.True(t, ok, strings.ToUpper(ext))
		assert.Equal(t, lower.Name(), upper.Name(), ext)
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(dir, "session.xyz")},
		{"existing file", touch(t, dir, "session.xyz")},
		{"no extension", touch(t, dir, "session")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			statCalls := 0
			loader := eegview.NewLoader(eegview.DefaultRegistry(),
				eegview.WithStat(func(p string) (os.FileInfo, error) {
					statCalls++
					return os.Stat(p)
				}))

			rec, err := loader.Load(tt.path)
			require.Error(t, err)
			assert.Nil(t, rec)
			assert.Zero(t, statCalls, "extension must be checked before the file system")

			var ue *eegview.UnsupportedFormatError
			require.ErrorAs(t, err, &ue)
			assert.ErrorIs(t, err, eegview.ErrUnsupportedFormat)
			for _, ext := range loader.SupportedExtensions() {
				assert.Contains(t, err.Error(), ext)
			}
			assert.Contains(t, err.Error(), tt.path)
		})
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.edf")

	_, err := eegview.Load(path)

	var nf *eegview.FileNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, path, nf.Path)
	assert.Equal(t, ".edf", nf.Ext)
	assert.ErrorIs(t, err, eegview.ErrFileNotFound)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_StatError(t *testing.T) {
	boom := errors.New("permission denied")
	loader := eegview.NewLoader(eegview.DefaultRegistry(),
		eegview.WithStat(func(string) (os.FileInfo, error) { return nil, boom }))

	_, err := loader.Load("restricted.edf")
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, eegview.ErrFileNotFound)
}

func TestLoad_NormalizesChannels(t *testing.T) {
	path := writeEDF(t, t.TempDir(), "rest.edf", "EEG Fz", "EOG left", "Resp chest", "Status")

	rec, err := eegview.Load(path)
	require.NoError(t, err)

	if diff := cmp.Diff([]string{"EEG Fz", "EOG left"}, rec.ChannelNames()); diff != "" {
		t.Errorf("ChannelNames() mismatch (-want +got):\n%s", diff)
	}

	c, ok := rec.(*eegview.Continuous)
	require.True(t, ok, "got %T", rec)
	assert.Equal(t, []float64{0, 1, 2, 3}, c.Data[0])
	assert.Equal(t, []float64{1, 2, 3, 4}, c.Data[1])
	assert.Equal(t, 4.0, c.SampleRate()) // 4 samples in a 1 s record
}

func TestLoad_UppercaseExtension(t *testing.T) {
	path := writeEDF(t, t.TempDir(), "REST.EDF", "Cz")

	rec, err := eegview.Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cz"}, rec.ChannelNames())
}

func TestLoad_WithoutNormalize(t *testing.T) {
	path := writeEDF(t, t.TempDir(), "rest.edf", "EEG Fz", "Resp chest", "Status")

	rec, err := eegview.Load(path, eegview.WithoutNormalize())
	require.NoError(t, err)

	want := []types.ChannelType{types.ChannelEEG, types.ChannelResp, types.ChannelStim}
	assert.Equal(t, want, rec.ChannelTypes())
}

func TestLoad_CorruptFile(t *testing.T) {
	path := touch(t, t.TempDir(), "empty.edf")

	_, err := eegview.Load(path)

	var lf *eegview.LoadFailedError
	require.ErrorAs(t, err, &lf)
	assert.Equal(t, "edf", lf.PrimaryName)
	assert.Nil(t, lf.Fallback)
	assert.ErrorIs(t, err, eegview.ErrLoadFailed)

	var oob *eegview.OutOfBoundsError
	assert.ErrorAs(t, err, &oob, "loader error should be wrapped, not replaced")
	assert.True(t, strings.HasPrefix(err.Error(), "error loading .edf file "+path+": "), err.Error())
}

// stubRegistry registers primary (and fallback, if non-nil) for ".set".
func stubRegistry(primary, fallback *stubLoader) *registry.Registry {
	return registry.New().Install(moduleFunc(func(r *registry.Registry) {
		var fb registry.Strategy
		if fallback != nil {
			fb = registry.NewStrategy("epochs", fallback.load)
		}
		r.Register(".set", registry.NewStrategy("eeglab", primary.load), fb)
	})).Freeze()
}

func TestLoad_Fallback(t *testing.T) {
	path := touch(t, t.TempDir(), "epoched.set")
	errContinuous := errors.New("the number of trials is 3; it must be 1 for continuous data")
	errEpochs := errors.New("no epochs")

	t.Run("primary succeeds", func(t *testing.T) {
		primary := &stubLoader{rec: continuous(ch("Fz", types.ChannelEEG))}
		fallback := &stubLoader{rec: segmented(ch("Fz", types.ChannelEEG))}

		rec, err := eegview.NewLoader(stubRegistry(primary, fallback)).Load(path)
		require.NoError(t, err)
		assert.Equal(t, types.KindContinuous, rec.Kind())
		assert.Zero(t, fallback.calls)
		assert.Equal(t, []bool{true}, primary.preloads)
	})

	t.Run("fallback succeeds", func(t *testing.T) {
		primary := &stubLoader{err: errContinuous}
		fallback := &stubLoader{rec: segmented(ch("Fz", types.ChannelEEG), ch("STI", types.ChannelStim))}

		rec, err := eegview.NewLoader(stubRegistry(primary, fallback)).Load(path)
		require.NoError(t, err)

		seg, ok := rec.(*eegview.Segmented)
		require.True(t, ok, "got %T", rec)
		assert.Equal(t, 3, seg.NumEpochs())
		assert.Equal(t, []string{"Fz"}, seg.ChannelNames(), "fallback result is normalized too")
		assert.Equal(t, []bool{true}, fallback.preloads)
	})

	t.Run("both fail", func(t *testing.T) {
		primary := &stubLoader{err: errContinuous}
		fallback := &stubLoader{err: errEpochs}

		_, err := eegview.NewLoader(stubRegistry(primary, fallback)).Load(path)

		var lf *eegview.LoadFailedError
		require.ErrorAs(t, err, &lf)
		assert.ErrorIs(t, err, errContinuous)
		assert.ErrorIs(t, err, errEpochs)
		assert.Equal(t, "epochs", lf.FallbackName)
		assert.Equal(t,
			"error loading .set file "+path+": "+errContinuous.Error()+"; also tried epochs loader: "+errEpochs.Error(),
			err.Error())
		assert.Equal(t, 1, primary.calls)
		assert.Equal(t, 1, fallback.calls)
	})

	t.Run("no fallback registered", func(t *testing.T) {
		primary := &stubLoader{err: errContinuous}

		_, err := eegview.NewLoader(stubRegistry(primary, nil)).Load(path)

		var lf *eegview.LoadFailedError
		require.ErrorAs(t, err, &lf)
		assert.Nil(t, lf.Fallback)
		assert.NotContains(t, err.Error(), "also tried")
		assert.Equal(t, 1, primary.calls)
	})
}

func TestLoad_EpochedSETUsesEpochsLoader(t *testing.T) {
	path := writeEpochedSET(t, t.TempDir(), "erp.set", 2, 3, 2)

	rec, err := eegview.Load(path)
	require.NoError(t, err)

	seg, ok := rec.(*eegview.Segmented)
	require.True(t, ok, "got %T", rec)
	assert.Equal(t, types.KindSegmented, seg.Kind())
	assert.Equal(t, 2, seg.NumEpochs())
	assert.Equal(t, 3, seg.NumSamples())
	assert.Equal(t, []string{"EEG001", "EEG002"}, seg.ChannelNames())
	assert.InDelta(t, -0.1, seg.Tmin, 1e-12)
	// epoch 1, channel 1, sample 0 is concatenated sample 3
	assert.Equal(t, 13.0, seg.Epochs[1][1][0])
}

func TestLoad_LastRegistrationWins(t *testing.T) {
	path := touch(t, t.TempDir(), "rest.edf")
	first := &stubLoader{rec: continuous(ch("first", types.ChannelEEG))}
	second := &stubLoader{rec: continuous(ch("second", types.ChannelEEG))}

	reg := registry.New().Install(
		moduleFunc(func(r *registry.Registry) { r.Register(".edf", registry.NewStrategy("a", first.load), nil) }),
		moduleFunc(func(r *registry.Registry) { r.Register(".EDF", registry.NewStrategy("b", second.load), nil) }),
	).Freeze()

	rec, err := eegview.NewLoader(reg).Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"second"}, rec.ChannelNames())
	assert.Zero(t, first.calls)
	assert.Equal(t, []string{".edf"}, reg.Extensions())
}

func TestLoadContext_Cancelled(t *testing.T) {
	path := writeEDF(t, t.TempDir(), "rest.edf", "Cz")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec, err := eegview.NewLoader(eegview.DefaultRegistry()).LoadContext(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, rec)
}

func TestLoadMany(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeEDF(t, dir, "a.edf", "A1"),
		writeEDF(t, dir, "b.edf", "B1", "B2"),
		writeEDF(t, dir, "c.edf", "C1", "C2", "C3"),
	}
	loader := eegview.NewLoader(eegview.DefaultRegistry())

	recs, err := loader.LoadMany(context.Background(), paths...)
	require.NoError(t, err)
	require.Len(t, recs, len(paths))
	for i, rec := range recs {
		assert.Len(t, rec.Channels(), i+1, "results must follow input order")
		assert.Equal(t, paths[i], rec.Info().Path)
	}

	t.Run("one failure", func(t *testing.T) {
		bad := append(append([]string{}, paths...), filepath.Join(dir, "missing.edf"))
		recs, err := loader.LoadMany(context.Background(), bad...)
		assert.ErrorIs(t, err, eegview.ErrFileNotFound)
		assert.Nil(t, recs)
	})

	t.Run("no paths", func(t *testing.T) {
		recs, err := loader.LoadMany(context.Background())
		assert.NoError(t, err)
		assert.Nil(t, recs)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := loader.LoadMany(ctx, paths...)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
