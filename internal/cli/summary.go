package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/simonhull/eegview"
)

// printSummary writes a short description of rec, one field per line.
func printSummary(w io.Writer, rec eegview.Recording) {
	info := rec.Info()
	field := func(name, format string, args ...any) {
		fmt.Fprintf(w, "  %-12s %s\n", name+":", fmt.Sprintf(format, args...))
	}

	field("Format", "%s (%s)", info.Format, rec.Kind())
	if !info.MeasDate.IsZero() {
		field("Recorded", "%s", info.MeasDate.Format("2006-01-02 15:04:05"))
	}
	field("Channels", "%d (%s)", len(rec.Channels()), channelCounts(rec))
	field("Sample rate", "%g Hz", rec.SampleRate())
	if seg, ok := rec.(*eegview.Segmented); ok {
		field("Epochs", "%d × %d samples, starting at %g s", seg.NumEpochs(), seg.NumSamples(), seg.Tmin)
	} else {
		field("Samples", "%d", rec.NumSamples())
	}
	field("Duration", "%s", rec.Duration())
	field("Annotations", "%d", len(rec.Annotations()))
	for _, warn := range info.Warnings {
		field("Warning", "%s", warn)
	}
}

// channelCounts renders "3 eeg, 1 eog" in first-seen order.
func channelCounts(rec eegview.Recording) string {
	var order []eegview.ChannelType
	counts := make(map[eegview.ChannelType]int)
	for _, t := range rec.ChannelTypes() {
		if counts[t] == 0 {
			order = append(order, t)
		}
		counts[t]++
	}

	parts := make([]string, len(order))
	for i, t := range order {
		parts[i] = fmt.Sprintf("%d %s", counts[t], t)
	}
	return strings.Join(parts, ", ")
}
