package viewer

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/simonhull/eegview/internal/types"
)

const (
	labelWidth = 12
	// minWindowSamples bounds zooming in.
	minWindowSamples = 8
	// Fallback dimensions before the first WindowSizeMsg.
	defaultWidth  = 80
	defaultHeight = 24
	// Lines used by the title, info, status and help rows.
	chromeLines = 5
)

// levels are the glyphs of a trace, lowest first.
var levels = []rune("▁▂▃▄▅▆▇█")

// BrowserConfig sets the initial page of the trace browser.
type BrowserConfig struct {
	// Window is the number of seconds shown per page.
	Window float64
	// Channels is the maximum number of channels shown per page.
	Channels int
}

// DefaultBrowserConfig returns a 10 s, 20 channel page.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{Window: 10, Channels: 20}
}

// Browser is a terminal trace browser for one recording.
// It implements tea.Model.
type Browser struct {
	rec    types.Recording
	chs    []types.Channel
	scales map[types.ChannelType]float64
	keys   *KeyMap
	styles *Styles
	help   help.Model

	// width and height are terminal dimensions.
	width  int
	height int

	// window is the page length in samples.
	window int
	// start is the first sample shown.
	start int
	// first is the first channel shown.
	first int
	// maxChannels caps channels per page.
	maxChannels int
	// epoch is the epoch shown for segmented recordings.
	epoch int
}

// Ensure Browser implements tea.Model.
var _ tea.Model = (*Browser)(nil)

// NewBrowser creates a browser over rec. A nil or empty scales map selects
// automatic scaling.
func NewBrowser(rec types.Recording, cfg BrowserConfig, scales map[types.ChannelType]float64) *Browser {
	if len(scales) == 0 {
		scales = AutoScale(rec)
	}
	if cfg.Channels <= 0 {
		cfg.Channels = DefaultBrowserConfig().Channels
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultBrowserConfig().Window
	}

	b := &Browser{
		rec:         rec,
		chs:         rec.Channels(),
		scales:      scales,
		keys:        DefaultKeyMap(),
		styles:      NewStyles(nil),
		help:        help.New(),
		width:       defaultWidth,
		height:      defaultHeight,
		maxChannels: cfg.Channels,
	}
	b.window = b.clampWindow(int(math.Round(cfg.Window * rec.SampleRate())))
	return b
}

// Browse returns a ViewFunc that runs the trace browser in the terminal's
// alternate screen.
func Browse(cfg BrowserConfig) ViewFunc {
	return func(rec types.Recording, opts Options) error {
		b := NewBrowser(rec, cfg, opts.Scaling.PerType)
		p := tea.NewProgram(b, tea.WithAltScreen())
		if !opts.Block {
			go p.Run() //nolint:errcheck // detached viewer has no caller to report to
			return nil
		}
		_, err := p.Run()
		return err
	}
}

// Init implements tea.Model.
func (b *Browser) Init() tea.Cmd {
	return tea.SetWindowTitle("eegview - " + b.rec.Info().Path)
}

// Update implements tea.Model.
func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
		b.help.Width = msg.Width
		b.first = b.clampFirst(b.first)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, b.keys.Quit):
			return b, tea.Quit
		case key.Matches(msg, b.keys.Help):
			b.help.ShowAll = !b.help.ShowAll
		case key.Matches(msg, b.keys.Right):
			b.start = b.clampStart(b.start + b.window/2)
		case key.Matches(msg, b.keys.Left):
			b.start = b.clampStart(b.start - b.window/2)
		case key.Matches(msg, b.keys.Down):
			b.first = b.clampFirst(b.first + 1)
		case key.Matches(msg, b.keys.Up):
			b.first = b.clampFirst(b.first - 1)
		case key.Matches(msg, b.keys.ZoomIn):
			b.window = b.clampWindow(b.window / 2)
			b.start = b.clampStart(b.start)
		case key.Matches(msg, b.keys.ZoomOut):
			b.window = b.clampWindow(b.window * 2)
			b.start = b.clampStart(b.start)
		case key.Matches(msg, b.keys.NextEpoch):
			b.epoch = min(b.epoch+1, b.numEpochs()-1)
		case key.Matches(msg, b.keys.PrevEpoch):
			b.epoch = max(b.epoch-1, 0)
		}
	}
	return b, nil
}

// View implements tea.Model.
func (b *Browser) View() string {
	var sb strings.Builder

	info := b.rec.Info()
	sb.WriteString(b.styles.Title.Render(info.Path))
	sb.WriteByte('\n')
	sb.WriteString(b.styles.Info.Render(b.summary()))
	sb.WriteByte('\n')

	rows := b.rows()
	traceWidth := max(b.width-labelWidth-1, 1)
	last := min(b.first+b.pageChannels(), len(b.chs))
	for i := b.first; i < last; i++ {
		ch := b.chs[i]
		var trace string
		if i < len(rows) {
			trace = b.trace(rows[i][b.start:min(b.start+b.window, len(rows[i]))], b.scales[ch.Type], traceWidth)
		}
		sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
			b.styles.Label.Render(ch.Name),
			" ",
			b.styles.Trace(ch.Type).Render(trace),
		))
		sb.WriteByte('\n')
	}

	sb.WriteString(b.styles.StatusBar.Render(b.status()))
	sb.WriteByte('\n')
	sb.WriteString(b.styles.Help.Render(b.help.View(b.keys)))
	return sb.String()
}

func (b *Browser) summary() string {
	parts := []string{
		b.rec.Info().Format,
		b.rec.Kind().String(),
		fmt.Sprintf("%d channels", len(b.chs)),
		fmt.Sprintf("%g Hz", b.rec.SampleRate()),
	}
	if n := b.numEpochs(); n > 0 {
		parts = append(parts, fmt.Sprintf("epoch %d/%d", b.epoch+1, n))
	}
	return strings.Join(parts, " · ")
}

func (b *Browser) status() string {
	sfreq := b.rec.SampleRate()
	if sfreq <= 0 {
		return ""
	}
	offset := 0.0
	if seg, ok := b.rec.(*types.Segmented); ok {
		offset = seg.Tmin
	}
	from := offset + float64(b.start)/sfreq
	to := offset + float64(b.start+b.window)/sfreq
	last := min(b.first+b.pageChannels(), len(b.chs))
	return fmt.Sprintf("%.2f–%.2f s  channels %d–%d of %d", from, to, b.first+1, last, len(b.chs))
}

// trace renders samples as one line of width glyphs. Each glyph shows the
// mean of its bucket on a [-scale, +scale] axis.
func (b *Browser) trace(samples []float64, scale float64, width int) string {
	if len(samples) == 0 {
		return ""
	}
	if scale <= 0 {
		scale = 1
	}
	width = min(width, len(samples))

	out := make([]rune, width)
	for col := range out {
		lo := col * len(samples) / width
		hi := max((col+1)*len(samples)/width, lo+1)
		sum := 0.0
		for _, v := range samples[lo:hi] {
			sum += v
		}
		mean := sum / float64(hi-lo)
		level := int(math.Round((mean/scale + 1) / 2 * float64(len(levels)-1)))
		out[col] = levels[min(max(level, 0), len(levels)-1)]
	}
	return string(out)
}

// rows returns the channel × sample matrix currently shown.
func (b *Browser) rows() [][]float64 {
	switch r := b.rec.(type) {
	case *types.Continuous:
		return r.Data
	case *types.Segmented:
		if b.epoch < len(r.Epochs) {
			return r.Epochs[b.epoch]
		}
	}
	return nil
}

func (b *Browser) numEpochs() int {
	if seg, ok := b.rec.(*types.Segmented); ok {
		return seg.NumEpochs()
	}
	return 0
}

func (b *Browser) pageChannels() int {
	return max(min(b.maxChannels, b.height-chromeLines), 1)
}

func (b *Browser) clampWindow(n int) int {
	total := b.rec.NumSamples()
	return max(min(n, total), min(minWindowSamples, total), 1)
}

func (b *Browser) clampStart(s int) int {
	return max(min(s, b.rec.NumSamples()-b.window), 0)
}

func (b *Browser) clampFirst(f int) int {
	return max(min(f, len(b.chs)-b.pageChannels()), 0)
}
