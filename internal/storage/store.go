package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/spinlab/internal/experiment"
)

const (
	metadataFile    = "metadata.json"
	observablesFile = "observables.csv"
)

var observablesHeader = []string{
	"temperature", "phase", "energy", "magnetization",
	"specific_heat", "susceptibility", "acceptance",
}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID                  string    `json:"id"`
	Model               string    `json:"model"`
	Timestamp           time.Time `json:"timestamp"`
	Size                int       `json:"size"`
	Coupling            float64   `json:"coupling"`
	CriticalTemperature float64   `json:"critical_temperature"`
	Seed                int64     `json:"seed"`
	ThermalSweeps       int       `json:"thermal_sweeps"`
	Bins                int       `json:"bins"`
	SweepsPerBin        int       `json:"sweeps_per_bin"`
	TrainFrac           float64   `json:"train_frac"`
	DatasetDir          string    `json:"dataset_dir,omitempty"`
	TrainSamples        int       `json:"train_samples"`
	TestSamples         int       `json:"test_samples"`
	Points              int       `json:"points"`
	ElapsedSeconds      float64   `json:"elapsed_seconds"`
}

// NewRunID is "<model>_L<size>_<8 hex chars>".
func NewRunID(model string, size int) string {
	return fmt.Sprintf("%s_L%d_%s", model, size, uuid.NewString()[:8])
}

// NewMetadata fills run metadata from an experiment and its result.
func NewMetadata(cfg experiment.Config, res *experiment.Result) RunMetadata {
	return RunMetadata{
		ID:                  NewRunID(cfg.Model, cfg.Size),
		Model:               cfg.Model,
		Timestamp:           time.Now().UTC(),
		Size:                cfg.Size,
		Coupling:            cfg.Coupling,
		CriticalTemperature: res.CriticalTemperature,
		Seed:                cfg.Seed,
		ThermalSweeps:       cfg.ThermalSweeps,
		Bins:                cfg.Bins,
		SweepsPerBin:        cfg.SweepsPerBin,
		TrainFrac:           cfg.TrainFrac,
		DatasetDir:          cfg.DatasetDir,
		TrainSamples:        res.TrainSamples,
		TestSamples:         res.TestSamples,
		Points:              len(res.Points),
		ElapsedSeconds:      res.Elapsed.Seconds(),
	}
}

// Save writes metadata.json and observables.csv under baseDir/meta.ID.
func (s *Store) Save(meta RunMetadata, points []experiment.Point) (string, error) {
	if meta.ID == "" {
		meta.ID = NewRunID(meta.Model, meta.Size)
	}
	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, observablesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(observablesHeader); err != nil {
		return "", err
	}
	for _, p := range points {
		if err := w.Write(pointRow(p)); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return meta.ID, nil
}

func pointRow(p experiment.Point) []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	return []string{
		f(p.Temperature),
		strconv.Itoa(p.Phase),
		f(p.Energy),
		f(p.Magnetization),
		f(p.SpecificHeat),
		f(p.Susceptibility),
		f(p.Acceptance),
	}
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadPoints reads observables.csv back into points.
func (s *Store) LoadPoints(runID string) ([]experiment.Point, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, observablesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(observablesHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []experiment.Point{}, nil
	}

	points := make([]experiment.Point, 0, len(records)-1)
	for i, rec := range records[1:] {
		p, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", observablesFile, i+1, err)
		}
		points = append(points, p)
	}
	return points, nil
}

func parseRow(rec []string) (experiment.Point, error) {
	vals := make([]float64, len(rec))
	for i, field := range rec {
		if i == 1 {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return experiment.Point{}, err
		}
		vals[i] = v
	}
	phase, err := strconv.Atoi(rec[1])
	if err != nil {
		return experiment.Point{}, err
	}
	return experiment.Point{
		Temperature:    vals[0],
		Phase:          phase,
		Energy:         vals[2],
		Magnetization:  vals[3],
		SpecificHeat:   vals[4],
		Susceptibility: vals[5],
		Acceptance:     vals[6],
	}, nil
}
