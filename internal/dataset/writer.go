// Package dataset writes labelled spin configurations for phase
// classification. Each sample becomes one line of 0/1 spins in an X file
// and one phase digit in the matching y file; bins below the train
// fraction go to the train pair, the rest to the test pair.
package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/san-kum/spinlab/internal/sim"
)

// Split selects a destination pair.
type Split int

const (
	Train Split = iota
	Test
)

func (s Split) String() string {
	if s == Test {
		return "test"
	}
	return "train"
}

// Files returns the configuration and label file names of the split.
func (s Split) Files() (x, y string) {
	if s == Test {
		return "Xtest.txt", "ytest.txt"
	}
	return "Xtrain.txt", "ytrain.txt"
}

// Sample is what the writer reads from a model after a sweep.
type Sample interface {
	Spins() []int8
	CriticalTemperature() float64
}

var ErrInvalid = errors.New("dataset: invalid argument")

type destination struct {
	x, y   *os.File
	xw, yw *bufio.Writer
	count  int
}

// Writer appends samples to the train/test files under a directory.
// Not safe for concurrent use.
type Writer struct {
	dir       string
	bins      int
	trainFrac float64
	rng       *rand.Rand
	dest      [2]*destination
}

// NewWriter prepares dir. seed drives the global sign flip applied to
// every written sample.
func NewWriter(dir string, bins int, trainFrac float64, seed int64) (*Writer, error) {
	if bins <= 0 {
		return nil, fmt.Errorf("%w: bins must be positive, got %d", ErrInvalid, bins)
	}
	if !(trainFrac >= 0 && trainFrac <= 1) {
		return nil, fmt.Errorf("%w: train fraction must be in [0,1], got %g", ErrInvalid, trainFrac)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create dataset dir: %w", err)
	}
	return &Writer{
		dir:       dir,
		bins:      bins,
		trainFrac: trainFrac,
		rng:       rand.New(rand.NewSource(seed)),
	}, nil
}

// SplitFor returns the split a bin index belongs to.
func (w *Writer) SplitFor(bin int) Split {
	if float64(bin) < w.trainFrac*float64(w.bins) {
		return Train
	}
	return Test
}

// Write appends one sample. The sample's spins are copied before the sign
// flip, so the live model is never touched.
func (w *Writer) Write(bin int, temperature float64, s Sample) error {
	if bin < 0 || bin >= w.bins {
		return fmt.Errorf("%w: bin %d outside [0,%d)", ErrInvalid, bin, w.bins)
	}

	split := w.SplitFor(bin)
	d, err := w.open(split)
	if err != nil {
		return err
	}

	flip := int8(2*w.rng.Intn(2) - 1)
	if _, err := d.xw.WriteString(EncodeLine(s.Spins(), flip)); err != nil {
		return fmt.Errorf("write %s configuration: %w", split, err)
	}
	if _, err := fmt.Fprintf(d.yw, "%d\n", Phase(temperature, s.CriticalTemperature())); err != nil {
		return fmt.Errorf("write %s label: %w", split, err)
	}
	d.count++
	return nil
}

// OnSample lets the writer observe a simulation directly; the sample index
// is used as the bin.
func (w *Writer) OnSample(s sim.Sample, l sim.Lattice) error {
	return w.Write(s.Index, s.Temperature, l)
}

// Counts reports how many samples went to each split.
func (w *Writer) Counts() (train, test int) {
	if d := w.dest[Train]; d != nil {
		train = d.count
	}
	if d := w.dest[Test]; d != nil {
		test = d.count
	}
	return train, test
}

func (w *Writer) Dir() string { return w.dir }

// Close flushes and closes every open file.
func (w *Writer) Close() error {
	var errs []error
	for i, d := range w.dest {
		if d == nil {
			continue
		}
		errs = append(errs, d.xw.Flush(), d.yw.Flush(), d.x.Close(), d.y.Close())
		w.dest[i] = nil
	}
	return errors.Join(errs...)
}

func (w *Writer) open(s Split) (*destination, error) {
	if d := w.dest[s]; d != nil {
		return d, nil
	}

	xName, yName := s.Files()
	x, err := openAppend(filepath.Join(w.dir, xName))
	if err != nil {
		return nil, err
	}
	y, err := openAppend(filepath.Join(w.dir, yName))
	if err != nil {
		x.Close()
		return nil, err
	}

	d := &destination{x: x, y: y, xw: bufio.NewWriter(x), yw: bufio.NewWriter(y)}
	w.dest[s] = d
	return d, nil
}

func openAppend(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// EncodeLine multiplies every spin by flip and maps -1 to 0 and +1 to 1,
// space-separated and newline-terminated.
func EncodeLine(spins []int8, flip int8) string {
	var b strings.Builder
	b.Grow(2 * len(spins))
	for i, s := range spins {
		if i > 0 {
			b.WriteByte(' ')
		}
		if s*flip > 0 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	b.WriteByte('\n')
	return b.String()
}

// Phase is 1 above the critical temperature and 0 otherwise.
func Phase(temperature, critical float64) int {
	if temperature > critical {
		return 1
	}
	return 0
}
