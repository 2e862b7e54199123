package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/simonhull/eegview/internal/types"
)

func TestPrintSummary_Segmented(t *testing.T) {
	epoch := [][]float64{{0, 1}, {2, 3}}
	rec := &types.Segmented{
		Header: types.Header{
			Format:   "EEGLAB",
			Sfreq:    2,
			MeasDate: time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC),
			Chs: []types.Channel{
				{Name: "Fz", Type: types.ChannelEEG},
				{Name: "Cz", Type: types.ChannelEEG},
			},
			Warnings: []types.Warning{{Stage: "events", Message: "no event table"}},
		},
		Epochs: [][][]float64{epoch, epoch, epoch},
		Tmin:   -0.5,
	}

	var buf bytes.Buffer
	printSummary(&buf, rec)
	out := buf.String()

	assert.Contains(t, out, "Format:      EEGLAB (segmented)\n")
	assert.Contains(t, out, "Recorded:    2024-01-01 10:30:00\n")
	assert.Contains(t, out, "Channels:    2 (2 eeg)\n")
	assert.Contains(t, out, "Epochs:      3 × 2 samples, starting at -0.5 s\n")
	assert.Contains(t, out, "Duration:    3s\n")
	assert.Contains(t, out, "Warning:     ")
	assert.Contains(t, out, "no event table")
	assert.NotContains(t, out, "Samples:")
}

func TestChannelCounts(t *testing.T) {
	rec := &types.Continuous{Header: types.Header{Chs: []types.Channel{
		{Type: types.ChannelEOG},
		{Type: types.ChannelEEG},
		{Type: types.ChannelEOG},
		{Type: types.ChannelMisc},
	}}}

	assert.Equal(t, "2 eog, 1 eeg, 1 misc", channelCounts(rec))
}
