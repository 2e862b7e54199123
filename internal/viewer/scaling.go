package viewer

import (
	"math"
	"slices"

	"github.com/simonhull/eegview/internal/types"
)

// maxScaleSamples bounds the number of samples per channel type used to
// estimate a scale.
const maxScaleSamples = 1 << 16

// AutoScale returns one scale per channel type present in rec: the 95th
// percentile of absolute sample values, with a floor so flat channels
// still render. A trace spans [-scale, +scale].
func AutoScale(rec types.Recording) map[types.ChannelType]float64 {
	rows := rowsByType(rec)
	scales := make(map[types.ChannelType]float64, len(rows))
	for kind, data := range rows {
		scales[kind] = robustAmplitude(data)
	}
	return scales
}

// rowsByType groups sample rows of rec by channel type. Segmented
// recordings contribute every epoch.
func rowsByType(rec types.Recording) map[types.ChannelType][][]float64 {
	chs := rec.Channels()
	out := make(map[types.ChannelType][][]float64)
	add := func(rows [][]float64) {
		for i, row := range rows {
			if i < len(chs) {
				out[chs[i].Type] = append(out[chs[i].Type], row)
			}
		}
	}

	switch r := rec.(type) {
	case *types.Continuous:
		add(r.Data)
	case *types.Segmented:
		for _, epoch := range r.Epochs {
			add(epoch)
		}
	}
	return out
}

func robustAmplitude(rows [][]float64) float64 {
	total := 0
	for _, row := range rows {
		total += len(row)
	}
	if total == 0 {
		return 1
	}

	step := 1
	if total > maxScaleSamples {
		step = total / maxScaleSamples
	}
	abs := make([]float64, 0, min(total, maxScaleSamples)+len(rows))
	i := 0
	for _, row := range rows {
		for _, v := range row {
			if i%step == 0 && !math.IsNaN(v) {
				abs = append(abs, math.Abs(v))
			}
			i++
		}
	}
	if len(abs) == 0 {
		return 1
	}

	slices.Sort(abs)
	p := abs[int(0.95*float64(len(abs)-1))]
	if p == 0 {
		p = abs[len(abs)-1]
	}
	if p == 0 {
		return 1
	}
	return p
}
