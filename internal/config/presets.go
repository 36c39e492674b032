package config

var Presets = map[string]map[string]*Config{
	"ising": {
		"small": {
			Model: "ising", Size: 8, Coupling: 1,
			Schedule:      TemperatureConfig{Min: 1.0, Max: 3.5, Steps: 11},
			ThermalSweeps: 500, Bins: 50, SweepsPerBin: 5, TrainFrac: 0.8,
		},
		"critical": {
			Model: "ising", Size: 32, Coupling: 1,
			Schedule:      TemperatureConfig{Min: 2.0, Max: 2.6, Steps: 13},
			ThermalSweeps: 5000, Bins: 200, SweepsPerBin: 20, TrainFrac: 0.8,
		},
		"dataset": {
			Model: "ising", Size: 30, Coupling: 1,
			Schedule:      TemperatureConfig{Min: 1.0, Max: 3.6, Steps: 27},
			ThermalSweeps: 2000, Bins: 100, SweepsPerBin: 10, TrainFrac: 0.8,
		},
	},
	"gauge": {
		"small": {
			Model: "gauge", Size: 8, Coupling: 1,
			Schedule:      TemperatureConfig{Min: 0.5, Max: 3.0, Steps: 11},
			ThermalSweeps: 500, Bins: 50, SweepsPerBin: 5, TrainFrac: 0.8,
		},
		"dataset": {
			Model: "gauge", Size: 16, Coupling: 1,
			Schedule:      TemperatureConfig{List: []float64{0.0001, 7.0}},
			ThermalSweeps: 2000, Bins: 100, SweepsPerBin: 10, TrainFrac: 0.8,
		},
	},
}

func GetPreset(model, preset string) *Config {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	cfg, ok := modelPresets[preset]
	if !ok {
		return nil
	}
	c := *cfg
	c.Schedule.List = append([]float64(nil), cfg.Schedule.List...)
	return &c
}

func ListPresets(model string) []string {
	modelPresets, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(modelPresets))
	for name := range modelPresets {
		names = append(names, name)
	}
	return names
}
