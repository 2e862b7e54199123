// Package eeglab loads EEGLAB datasets (.set), either continuous or
// epoched, with sample data stored inline or in a companion .fdt file.
//
// A .set file does not say up front whether it holds continuous data or
// epochs; the trial count is only known once the MAT-file is decoded. The
// module therefore registers two strategies: a continuous one that rejects
// epoched datasets, and an epochs fallback.
package eeglab

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/simonhull/eegview/internal/binary"
	"github.com/simonhull/eegview/internal/registry"
	"github.com/simonhull/eegview/internal/types"
)

// Module registers the EEGLAB loaders for ".set".
type Module struct{}

// Register implements registry.Module.
func (Module) Register(r *registry.Registry) {
	r.Register(".set",
		registry.NewStrategy("eeglab", LoadContinuous),
		registry.NewStrategy("epochs", LoadEpochs),
	)
}

// dataset is the subset of the EEG structure the loaders use. Data is
// channel-major: data[c][i] with i running over all samples of all trials.
type dataset struct {
	path     string
	channels []types.Channel
	events   []types.Annotation
	data     [][]float64
	srate    float64
	xmin     float64
	nbchan   int
	pnts     int
	trials   int
}

// LoadContinuous reads a .set file holding a single continuous recording.
// It fails when the dataset has more than one trial.
func LoadContinuous(path string, _ bool) (types.Recording, error) {
	ds, err := readDataset(path)
	if err != nil {
		return nil, err
	}
	if ds.trials > 1 {
		return nil, fmt.Errorf("the number of trials is %d; it must be 1 for continuous data", ds.trials)
	}

	return &types.Continuous{
		Header: ds.header(),
		Data:   ds.data,
	}, nil
}

// LoadEpochs reads a .set file as a set of epochs.
func LoadEpochs(path string, _ bool) (types.Recording, error) {
	ds, err := readDataset(path)
	if err != nil {
		return nil, err
	}

	epochs := make([][][]float64, ds.trials)
	for e := range epochs {
		epochs[e] = make([][]float64, ds.nbchan)
		for c := range epochs[e] {
			epochs[e][c] = ds.data[c][e*ds.pnts : (e+1)*ds.pnts]
		}
	}

	return &types.Segmented{
		Header: ds.header(),
		Epochs: epochs,
		Tmin:   ds.xmin,
	}, nil
}

func (ds *dataset) header() types.Header {
	return types.Header{
		Path:   ds.path,
		Format: "EEGLAB",
		Sfreq:  ds.srate,
		Chs:    ds.channels,
		Events: ds.events,
	}
}

func readDataset(path string) (*dataset, error) {
	f, err := binary.Open(path)
	if err != nil {
		return nil, err
	}
	raw, err := f.Bytes(0, int(f.Size()), "MAT-file")
	f.Close()
	if err != nil {
		return nil, err
	}

	vars, err := readMAT(raw)
	if err != nil {
		return nil, corrupt(path, err)
	}

	// Older EEGLAB versions save a single EEG struct; newer ones may save
	// its fields as top-level variables.
	fields := vars
	if eeg, ok := vars["EEG"].(*Struct); ok && eeg.Len() > 0 {
		fields = eeg.Elems[0]
	}

	ds := &dataset{path: path}
	var missing []string
	scalar := func(name string) float64 {
		v, ok := scalarOf(fields[name])
		if !ok {
			missing = append(missing, name)
		}
		return v
	}
	ds.nbchan = int(scalar("nbchan"))
	ds.pnts = int(scalar("pnts"))
	ds.srate = scalar("srate")
	ds.trials = max(1, int(scalar("trials")))
	ds.xmin, _ = scalarOf(fields["xmin"])
	if len(missing) > 0 {
		return nil, corrupt(path, fmt.Errorf("dataset is missing %s", strings.Join(missing, ", ")))
	}
	if ds.nbchan < 1 || ds.pnts < 1 || ds.srate <= 0 {
		return nil, corrupt(path, fmt.Errorf("invalid dimensions: nbchan=%d pnts=%d srate=%g", ds.nbchan, ds.pnts, ds.srate))
	}

	flat, err := ds.readData(fields)
	if err != nil {
		return nil, err
	}
	total := ds.pnts * ds.trials
	ds.data = make([][]float64, ds.nbchan)
	for c := range ds.data {
		row := make([]float64, total)
		for i := range row {
			row[i] = flat[c+ds.nbchan*i]
		}
		ds.data[c] = row
	}

	ds.channels = readChannels(fields["chanlocs"], ds.nbchan)
	ds.events = readEvents(fields["event"], ds.srate)
	return ds, nil
}

// readData returns the samples in MATLAB column-major order, either from
// the inline data array or from the float32 file it names.
func (ds *dataset) readData(fields map[string]Value) ([]float64, error) {
	want := ds.nbchan * ds.pnts * ds.trials

	switch d := fields["data"].(type) {
	case *Numeric:
		if len(d.Data) != want {
			return nil, corrupt(ds.path, fmt.Errorf("data has %d values, want %d", len(d.Data), want))
		}
		return d.Data, nil
	case *Char:
		return ds.readFDT(d.String(), want)
	default:
		if datfile, ok := fields["datfile"].(*Char); ok && datfile.String() != "" {
			return ds.readFDT(datfile.String(), want)
		}
		return nil, corrupt(ds.path, fmt.Errorf("dataset has no data"))
	}
}

// readFDT reads a companion data file of little-endian float32 samples.
// The name is resolved against the .set file's directory; if that fails,
// the .set path with its extension replaced by .fdt is tried.
func (ds *dataset) readFDT(name string, want int) ([]float64, error) {
	dir := filepath.Dir(ds.path)
	candidates := []string{
		filepath.Join(dir, filepath.Base(name)),
		strings.TrimSuffix(ds.path, filepath.Ext(ds.path)) + ".fdt",
	}

	var f *binary.File
	var err error
	for _, c := range candidates {
		f, err = binary.Open(c)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("data file %q: %w", name, err)
	}
	defer f.Close()

	buf, err := f.Bytes(0, want*4, "float32 samples")
	if err != nil {
		return nil, err
	}
	out := make([]float64, want)
	if err := binary.DecodeSamples(out, buf, binary.Float32, binary.LittleEndian); err != nil {
		return nil, err
	}
	return out, nil
}

func readChannels(v Value, n int) []types.Channel {
	locs, _ := v.(*Struct)
	chs := make([]types.Channel, n)
	for i := range chs {
		ch := types.Channel{Unit: "uV"}
		if label, ok := locs.Field(i, "labels").(*Char); ok {
			ch.Name = label.String()
		}
		if ch.Name == "" {
			ch.Name = fmt.Sprintf("EEG%03d", i+1)
		}
		if kind, ok := locs.Field(i, "type").(*Char); ok {
			ch.Type = types.ParseChannelType(kind.String())
		}
		if ch.Type == types.ChannelUnknown {
			ch.Type = types.InferChannelType(ch.Name)
		}
		chs[i] = ch
	}
	return chs
}

// readEvents converts EEG.event. Latencies are 1-based sample positions
// into the concatenated data.
func readEvents(v Value, srate float64) []types.Annotation {
	events, _ := v.(*Struct)
	var out []types.Annotation
	for i := 0; i < events.Len(); i++ {
		latency, ok := scalarOf(events.Field(i, "latency"))
		if !ok {
			continue
		}
		a := types.Annotation{Onset: (latency - 1) / srate}
		if dur, ok := scalarOf(events.Field(i, "duration")); ok {
			a.Duration = dur / srate
		}
		switch t := events.Field(i, "type").(type) {
		case *Char:
			a.Description = t.String()
		case *Numeric:
			if n, ok := t.Scalar(); ok {
				a.Description = strconv.FormatFloat(n, 'f', -1, 64)
			}
		}
		out = append(out, a)
	}
	return out
}

func scalarOf(v Value) (float64, bool) {
	n, _ := v.(*Numeric)
	return n.Scalar()
}

func corrupt(path string, err error) error {
	return &types.CorruptedFileError{Path: path, Reason: err.Error()}
}
