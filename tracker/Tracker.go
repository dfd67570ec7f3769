// Package tracker implements Trackers, which record and save metrics
// generated while an agent trains
package tracker

import (
	"encoding/gob"
	"fmt"
	"os"
)

// Point is a single recorded value of a metric at some training step
type Point struct {
	Step  int
	Value float64
}

// Interface Tracker records the time series of named metrics during
// training and saves the data after training has finished
type Tracker interface {
	// Track records that a metric had some value at a training step
	Track(metric string, step int, value float64)

	// Save persists all data recorded so far
	Save() error
}

// LoadData loads and returns the metric time series saved by a Scalar
// Tracker
func LoadData(filename string) (map[string][]Point, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loadData: could not open data file: %v", err)
	}
	defer file.Close()

	dec := gob.NewDecoder(file)
	data := make(map[string][]Point)

	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("loadData: could not decode data: %v", err)
	}

	return data, nil
}
