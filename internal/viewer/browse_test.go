package viewer

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/eegview/internal/types"
)

func longRecording(channels, samples int) *types.Continuous {
	rec := &types.Continuous{
		Header: types.Header{Path: "long.edf", Format: "EDF", Sfreq: 100},
	}
	for c := 0; c < channels; c++ {
		rec.Chs = append(rec.Chs, types.Channel{Name: "E" + string(rune('A'+c)), Type: types.ChannelEEG})
		row := make([]float64, samples)
		for i := range row {
			row[i] = float64(i%20 - 10)
		}
		rec.Data = append(rec.Data, row)
	}
	return rec
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewBrowser_Defaults(t *testing.T) {
	b := NewBrowser(longRecording(3, 5000), BrowserConfig{}, nil)

	assert.Equal(t, 1000, b.window, "10 s at 100 Hz")
	assert.Equal(t, 20, b.maxChannels)
	assert.NotEmpty(t, b.scales)
}

func TestBrowser_ScrollTime(t *testing.T) {
	b := NewBrowser(longRecording(2, 1000), BrowserConfig{Window: 2}, nil)
	require.Equal(t, 200, b.window)

	b.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, 100, b.start)

	for i := 0; i < 20; i++ {
		b.Update(keyRunes("l"))
	}
	assert.Equal(t, 800, b.start, "start stops one window before the end")

	for i := 0; i < 20; i++ {
		b.Update(tea.KeyMsg{Type: tea.KeyLeft})
	}
	assert.Zero(t, b.start)
}

func TestBrowser_Zoom(t *testing.T) {
	b := NewBrowser(longRecording(1, 1000), BrowserConfig{Window: 2}, nil)

	b.Update(keyRunes("+"))
	assert.Equal(t, 100, b.window)

	for i := 0; i < 10; i++ {
		b.Update(keyRunes("+"))
	}
	assert.Equal(t, minWindowSamples, b.window)

	for i := 0; i < 10; i++ {
		b.Update(keyRunes("-"))
	}
	assert.Equal(t, 1000, b.window, "window never exceeds the recording")
}

func TestBrowser_ScrollChannels(t *testing.T) {
	b := NewBrowser(longRecording(10, 100), BrowserConfig{Channels: 4}, nil)
	b.Update(tea.WindowSizeMsg{Width: 80, Height: 40})

	b.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, b.first)

	for i := 0; i < 20; i++ {
		b.Update(keyRunes("j"))
	}
	assert.Equal(t, 6, b.first)

	b.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 5, b.first)
}

func TestBrowser_Epochs(t *testing.T) {
	rec := &types.Segmented{
		Header: types.Header{
			Path: "epochs.set", Format: "EEGLAB", Sfreq: 10,
			Chs: []types.Channel{{Name: "Cz", Type: types.ChannelEEG}},
		},
		Epochs: [][][]float64{{{1, 2}}, {{3, 4}}, {{5, 6}}},
		Tmin:   -0.1,
	}
	b := NewBrowser(rec, BrowserConfig{}, nil)

	b.Update(keyRunes("e"))
	b.Update(keyRunes("e"))
	b.Update(keyRunes("e"))
	assert.Equal(t, 2, b.epoch)
	assert.Contains(t, b.View(), "epoch 3/3")

	b.Update(keyRunes("E"))
	assert.Equal(t, 1, b.epoch)
	assert.Contains(t, b.View(), "-0.10")
}

func TestBrowser_Quit(t *testing.T) {
	b := NewBrowser(longRecording(1, 10), BrowserConfig{}, nil)

	_, cmd := b.Update(keyRunes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestBrowser_View(t *testing.T) {
	rec := testRecording()
	b := NewBrowser(rec, BrowserConfig{}, map[types.ChannelType]float64{
		types.ChannelEEG: 2,
		types.ChannelEOG: 40,
	})
	b.Update(tea.WindowSizeMsg{Width: 60, Height: 20})

	view := b.View()
	for _, want := range []string{"rest.edf", "EDF", "continuous", "2 channels", "100 Hz", "Fz", "HEOG"} {
		assert.Contains(t, view, want)
	}
	assert.Equal(t, 4, strings.Count(b.trace(rec.Data[0], 2, 60), "")-1, "one glyph per sample when narrow")
}

func TestBrowser_Trace(t *testing.T) {
	b := NewBrowser(testRecording(), BrowserConfig{}, nil)

	tests := []struct {
		name    string
		samples []float64
		scale   float64
		width   int
		want    string
	}{
		{"extremes", []float64{-1, 0, 1}, 1, 3, "▁▅█"},
		{"clipped", []float64{-5, 5}, 1, 2, "▁█"},
		{"bucket mean", []float64{-1, 1, 1, 1}, 1, 2, "▅█"},
		{"empty", nil, 1, 10, ""},
		{"zero scale", []float64{1}, 0, 1, "█"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.trace(tt.samples, tt.scale, tt.width))
		})
	}
}
