package tracker

import (
	"encoding/gob"
	"fmt"
	"os"
)

// Scalar tracks the time series of named scalar metrics and saves
// them to disk with gob encoding. The saved data can be read back
// with LoadData.
type Scalar struct {
	series   map[string][]Point
	filename string
}

// NewScalar returns a new Scalar Tracker which will save its data at
// the specified location filename
func NewScalar(filename string) Tracker {
	return &Scalar{
		series:   make(map[string][]Point),
		filename: filename,
	}
}

// Track records the value of a metric at a training step
func (s *Scalar) Track(metric string, step int, value float64) {
	s.series[metric] = append(s.series[metric], Point{
		Step:  step,
		Value: value,
	})
}

// Save saves the data tracked by the Scalar Tracker to disk.
func (s *Scalar) Save() error {
	file, err := os.Create(s.filename)
	if err != nil {
		return fmt.Errorf("save: could not open save file: %v", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err := en.Encode(s.series); err != nil {
		return fmt.Errorf("save: could not encode metric data: %v", err)
	}
	return nil
}
