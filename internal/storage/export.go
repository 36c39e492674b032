package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/spinlab/internal/experiment"
)

type ExportData struct {
	Run    RunMetadata        `json:"run"`
	Points []experiment.Point `json:"points"`
}

func ExportJSON(w io.Writer, meta RunMetadata, points []experiment.Point) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(ExportData{Run: meta, Points: points})
}

func ExportJSONFile(path string, meta RunMetadata, points []experiment.Point) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return ExportJSON(file, meta, points)
}
