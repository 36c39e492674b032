package dataset

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Set is a loaded split: one row of 0/1 spins per label.
type Set struct {
	Configs [][]uint8
	Labels  []int
}

// Load reads a split back from dir.
func Load(dir string, s Split) (*Set, error) {
	xName, yName := s.Files()

	configs, err := readLines(filepath.Join(dir, xName), func(line string) ([]uint8, error) {
		fields := strings.Fields(line)
		row := make([]uint8, len(fields))
		for i, f := range fields {
			switch f {
			case "0":
				row[i] = 0
			case "1":
				row[i] = 1
			default:
				return nil, fmt.Errorf("bad spin %q", f)
			}
		}
		return row, nil
	})
	if err != nil {
		return nil, err
	}

	labels, err := readLines(filepath.Join(dir, yName), func(line string) (int, error) {
		return strconv.Atoi(strings.TrimSpace(line))
	})
	if err != nil {
		return nil, err
	}

	if len(configs) != len(labels) {
		return nil, fmt.Errorf("%s split: %d configurations but %d labels", s, len(configs), len(labels))
	}
	return &Set{Configs: configs, Labels: labels}, nil
}

func readLines[T any](path string, parse func(string) (T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []T
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		v, err := parse(text)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		out = append(out, v)
	}
	return out, sc.Err()
}
