package tracker

import (
	"github.com/samuelfneumann/goddpg/utils/progressbar"
)

// Progress is a Tracker which displays a terminal progress bar for a
// single step-indexed metric, using the step of each recorded point as
// the current progress. Tracking the "episode length" metric of an
// agent therefore shows training progress in environment steps.
type Progress struct {
	bar    *progressbar.ProgressBar
	metric string
}

// NewProgress returns a new Progress Tracker following metric on a
// progress bar reaching 100% at totalSteps
func NewProgress(metric string, totalSteps int) Tracker {
	return &Progress{
		bar:    progressbar.New(50, totalSteps),
		metric: metric,
	}
}

// Track redraws the progress bar at the recorded step. Values of
// metrics other than the tracked one are ignored.
func (p *Progress) Track(metric string, step int, _ float64) {
	if metric != p.metric {
		return
	}
	p.bar.Set(step)
	p.bar.Display()
}

// Save completes the progress bar and moves the terminal to a fresh
// line
func (p *Progress) Save() error {
	p.bar.Close()
	return nil
}
